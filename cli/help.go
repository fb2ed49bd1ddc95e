// Copyright (c) 2023 BVK Chaitanya

package cli

import (
	"cmp"
	"context"
	"flag"
	"fmt"
	"io"
	"path/filepath"
	"slices"
	"strings"
	"text/tabwriter"
)

// helpWidth is the column limit for the wrapped help paragraphs.
const helpWidth = 80

// entry is a name and description pair in the help output.
type entry struct {
	name, doc string
}

func numFlags(fs *flag.FlagSet) int {
	n := 0
	fs.VisitAll(func(*flag.Flag) { n++ })
	return n
}

func getName(c Command) string {
	fs, _ := c.Command()
	return filepath.Base(fs.Name())
}

func getUsage(cmdpath []Command) string {
	words := []string{getName(cmdpath[0])}
	for _, c := range cmdpath[1:] {
		fs, _ := c.Command()
		words = append(words, fs.Name())
	}

	if slices.ContainsFunc(cmdpath, func(c Command) bool {
		fs, _ := c.Command()
		return numFlags(fs) != 0
	}) {
		words = append(words, "<flags>")
	}

	if _, ok := cmdpath[len(cmdpath)-1].(*cmdGroup); ok {
		words = append(words, "<subcommand>")
	}
	return strings.Join(append(words, "<args>"), " ")
}

func getHelpDoc(c Command) string {
	if v, ok := c.(interface{ CommandHelp() string }); ok {
		return v.CommandHelp()
	}
	return getSynopsis(c)
}

func getSynopsis(c Command) string {
	if v, ok := c.(interface{ Synopsis() string }); ok {
		return v.Synopsis()
	}
	if v, ok := c.(*cmdGroup); ok {
		return v.synopsis
	}
	return ""
}

func getEnvironment(c Command) []entry {
	v, ok := c.(interface{ Environment() [][2]string })
	if !ok {
		return nil
	}
	var envs []entry
	for _, kv := range v.Environment() {
		envs = append(envs, entry{kv[0], kv[1]})
	}
	return envs
}

// getInheritedFlags returns the flags defined by the ancestors of the last
// command in the path. When a flag is defined multiple times, the deepest
// definition wins.
func getInheritedFlags(cmdpath []Command) *flag.FlagSet {
	flagMap := make(map[string]*flag.Flag)
	for _, c := range cmdpath[:len(cmdpath)-1] {
		fs, _ := c.Command()
		fs.VisitAll(func(f *flag.Flag) { flagMap[f.Name] = f })
	}
	fset := flag.NewFlagSet("inherited", flag.ContinueOnError)
	for _, f := range flagMap {
		fset.Var(f.Value, f.Name, f.Usage)
	}
	return fset
}

// getSubcommands returns the subcommands of the last command in the path,
// groups first, each sorted by name. Top-level path also includes the special
// commands.
func getSubcommands(cmdpath []Command) []entry {
	var result []entry
	if len(cmdpath) == 1 {
		result = []entry{
			{"help", "describe subcommands and flags"},
			{"flags", "describe all known flags"},
			{"commands", "list all command names"},
			{},
		}
	}

	cg, ok := cmdpath[len(cmdpath)-1].(*cmdGroup)
	if !ok {
		return result
	}

	var groups, cmds []entry
	for _, c := range cg.subcmds {
		e := entry{getName(c), getSynopsis(c)}
		if _, ok := c.(*cmdGroup); ok {
			groups = append(groups, e)
		} else {
			cmds = append(cmds, e)
		}
	}
	byName := func(a, b entry) int { return cmp.Compare(a.name, b.name) }
	slices.SortFunc(groups, byName)
	slices.SortFunc(cmds, byName)

	result = append(result, cmds...)
	if len(cmds) > 0 && len(groups) > 0 {
		result = append(result, entry{})
	}
	return append(result, groups...)
}

// wrapText reflows the paragraphs in the help text to the column limit.
// Indented lines are preformatted and are kept as is.
func wrapText(text string, width int) string {
	var sb strings.Builder
	var words []string
	flush := func() {
		col := 0
		for _, w := range words {
			if col > 0 && col+1+len(w) > width {
				sb.WriteByte('\n')
				col = 0
			}
			if col > 0 {
				sb.WriteByte(' ')
				col++
			}
			sb.WriteString(w)
			col += len(w)
		}
		if len(words) > 0 {
			sb.WriteByte('\n')
		}
		words = words[:0]
	}

	for _, line := range strings.Split(strings.Trim(text, "\n"), "\n") {
		switch {
		case len(strings.TrimSpace(line)) == 0:
			flush()
			sb.WriteByte('\n')
		case line[0] == ' ' || line[0] == '\t':
			flush()
			sb.WriteString(line)
			sb.WriteByte('\n')
		default:
			words = append(words, strings.Fields(line)...)
		}
	}
	flush()
	return sb.String()
}

func printEntries(w io.Writer, entries []entry) {
	tw := tabwriter.NewWriter(w, 0, 8, 2, ' ', 0)
	for _, e := range entries {
		if len(e.name) == 0 {
			fmt.Fprintln(tw)
			continue
		}
		fmt.Fprintf(tw, "\t%s\t%s\n", e.name, e.doc)
	}
	tw.Flush()
}

func (cg *cmdGroup) printHelp(ctx context.Context, w io.Writer, cmdpath []Command) error {
	cmd := cmdpath[len(cmdpath)-1]

	fmt.Fprintf(w, "Usage: %s\n", getUsage(cmdpath))
	if help := getHelpDoc(cmd); len(help) > 0 {
		fmt.Fprintln(w)
		fmt.Fprint(w, wrapText(help, helpWidth))
	}
	if subcmds := getSubcommands(cmdpath); len(subcmds) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Subcommands:")
		printEntries(w, subcmds)
	}
	if flags, _ := cmd.Command(); numFlags(flags) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Flags:")
		flags.SetOutput(w)
		flags.PrintDefaults()
	}
	if iflags := getInheritedFlags(cmdpath); numFlags(iflags) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Inherited Flags:")
		iflags.SetOutput(w)
		iflags.PrintDefaults()
	}
	if envs := getEnvironment(cmd); len(envs) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Environment:")
		printEntries(w, envs)
	}
	return nil
}
