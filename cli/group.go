// Copyright (c) 2023 BVK Chaitanya

package cli

import (
	"context"
	"flag"
	"fmt"
	"io"
	"slices"
	"strings"
)

type cmdGroup struct {
	flags      *flag.FlagSet
	synopsis   string
	subcmds    []Command
	specialCmd string
}

var specialCmds = []string{"help", "flags", "commands"}

// Command implements Command interface.
func (cg *cmdGroup) Command() (*flag.FlagSet, CmdFunc) {
	return cg.flags, nil
}

func (cg *cmdGroup) printFlags(ctx context.Context, w io.Writer, cmdpath []Command) error {
	fs, _ := cmdpath[len(cmdpath)-1].Command()
	fs.SetOutput(w)
	fs.PrintDefaults()
	return nil
}

func (cg *cmdGroup) printCommands(ctx context.Context, w io.Writer, cmdpath []Command) error {
	printEntries(w, getSubcommands(cmdpath))
	return nil
}

// resolver tracks the command path and the visible flag sets while the
// command-line arguments are consumed.
type resolver struct {
	cmdpath []Command
	fspath  []*flag.FlagSet

	// subcmds holds the candidate subcommands for the next non-flag argument.
	// It is nil after a leaf command is resolved.
	subcmds map[string]Command
}

func newResolver(cg *cmdGroup) *resolver {
	r := &resolver{
		cmdpath: []Command{cg},
		fspath:  []*flag.FlagSet{flag.CommandLine},
	}
	if cg.flags != flag.CommandLine {
		r.fspath = append(r.fspath, cg.flags)
	}
	r.setSubcommands(cg.subcmds)
	return r
}

func (r *resolver) setSubcommands(cmds []Command) {
	if cmds == nil {
		r.subcmds = nil
		return
	}
	r.subcmds = make(map[string]Command)
	for _, c := range cmds {
		fs, _ := c.Command()
		r.subcmds[fs.Name()] = c
	}
}

// lookup finds the flag in the deepest flag set that defines it.
func (r *resolver) lookup(name string) *flag.Flag {
	for i := len(r.fspath) - 1; i >= 0; i-- {
		if f := r.fspath[i].Lookup(name); f != nil {
			return f
		}
	}
	return nil
}

// descend moves into the named subcommand.
func (r *resolver) descend(c Command) {
	r.cmdpath = append(r.cmdpath, c)
	if sg, ok := c.(*cmdGroup); ok {
		r.setSubcommands(sg.subcmds)
		return
	}
	r.setSubcommands(nil)
	fs, _ := c.Command()
	r.fspath = append(r.fspath, fs)
}

// setFlag parses the flag at args[i] and returns the number of arguments
// consumed.
func (r *resolver) setFlag(args []string, i int) (int, error) {
	type boolFlag interface {
		flag.Value
		IsBoolFlag() bool
	}

	s := args[i]
	name := strings.TrimPrefix(s[1:], "-")
	if len(name) == 0 || name[0] == '-' || name[0] == '=' {
		return 0, fmt.Errorf("bad flag syntax: %s", s)
	}
	name, value, hasValue := strings.Cut(name, "=")

	f := r.lookup(name)
	if f == nil {
		return 0, fmt.Errorf("flag provided but not defined: -%s", name)
	}

	if fv, ok := f.Value.(boolFlag); ok && fv.IsBoolFlag() {
		if !hasValue {
			value = "true"
		}
		if err := fv.Set(value); err != nil {
			return 0, fmt.Errorf("invalid boolean value %q for -%s: %w", value, name, err)
		}
		return 1, nil
	}

	// Non-boolean flags must have a value, which might be the next argument.
	n := 1
	if !hasValue {
		if i+1 >= len(args) {
			return 0, fmt.Errorf("flag needs an argument: -%s", name)
		}
		value = args[i+1]
		n = 2
	}
	if err := f.Value.Set(value); err != nil {
		return 0, fmt.Errorf("invalid value %q for flag -%s: %w", value, name, err)
	}
	return n, nil
}

func (cg *cmdGroup) resolve(ctx context.Context, args []string) ([]Command, []string, error) {
	r := newResolver(cg)

	i := 0
	for i < len(args) {
		s := args[i]

		if s == "--" {
			i++
			break
		}

		if len(s) >= 2 && s[0] == '-' {
			n, err := r.setFlag(args, i)
			if err != nil {
				return nil, nil, err
			}
			i += n
			continue
		}

		// Non-flag arguments after a leaf command belong to the command.
		if r.subcmds == nil {
			break
		}
		if c, ok := r.subcmds[s]; ok {
			r.descend(c)
			i++
			continue
		}
		if len(r.cmdpath) == 1 && slices.Contains(specialCmds, s) {
			cg.specialCmd = s
			i++
			continue
		}
		return nil, nil, fmt.Errorf("command not defined: %s", s)
	}

	return r.cmdpath, args[i:], nil
}

func (cg *cmdGroup) run(ctx context.Context, w io.Writer, args []string) error {
	cmdpath, args, err := cg.resolve(ctx, args)
	if err != nil {
		return err
	}

	switch cg.specialCmd {
	case "help":
		return cg.printHelp(ctx, w, cmdpath)
	case "flags":
		return cg.printFlags(ctx, w, cmdpath)
	case "commands":
		return cg.printCommands(ctx, w, cmdpath)
	}

	_, fun := cmdpath[len(cmdpath)-1].Command()
	if fun == nil {
		return cg.printHelp(ctx, w, cmdpath)
	}
	return fun(ctx, args)
}
