// Copyright (c) 2025 BVK Chaitanya

// Package envfile loads environment variable assignments from a dotenv style
// file into the process environment.
package envfile

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// Var is a single variable assignment from an env file.
type Var struct {
	Name  string
	Value string
}

// Parse reads variable assignments from the input. Blank lines and lines
// starting with # are skipped. An optional `export ` prefix is accepted.
// Values can be single-quoted (taken literally), double-quoted (Go escapes are
// interpreted) or unquoted, in which case a trailing ` #` comment is removed.
func Parse(r io.Reader) ([]Var, error) {
	var vars []Var
	scanner := bufio.NewScanner(r)
	for i := 1; scanner.Scan(); i++ {
		line := strings.TrimSpace(scanner.Text())
		if len(line) == 0 || strings.HasPrefix(line, "#") {
			continue
		}
		line = strings.TrimSpace(strings.TrimPrefix(line, "export "))

		p := strings.IndexRune(line, '=')
		if p == -1 {
			return nil, fmt.Errorf("invalid/unrecognized variable assignment on line %d: %w", i, os.ErrInvalid)
		}
		key, value := strings.TrimSpace(line[:p]), strings.TrimSpace(line[p+1:])
		if !nameRe.MatchString(key) {
			return nil, fmt.Errorf("invalid environment variable name %q on line %d: %w", key, i, os.ErrInvalid)
		}
		v, err := parseValue(value)
		if err != nil {
			return nil, fmt.Errorf("invalid value for %q on line %d: %w", key, i, err)
		}
		vars = append(vars, Var{Name: key, Value: v})
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return vars, nil
}

func parseValue(s string) (string, error) {
	switch {
	case len(s) == 0:
		return "", nil
	case s[0] == '\'':
		end := strings.IndexByte(s[1:], '\'')
		if end == -1 {
			return "", fmt.Errorf("unterminated single quote: %w", os.ErrInvalid)
		}
		return s[1 : end+1], nil
	case s[0] == '"':
		prefix, err := strconv.QuotedPrefix(s)
		if err != nil {
			return "", fmt.Errorf("bad double quoted string: %w", errors.Join(err, os.ErrInvalid))
		}
		return strconv.Unquote(prefix)
	}
	if p := strings.Index(s, " #"); p != -1 {
		s = s[:p]
	}
	return strings.TrimSpace(s), nil
}

// UpdateEnv updates current process's environment with the values read from
// the first env file found in the search path. Search path is the user's home
// directory when no search options are given. Returns the path of the env file
// loaded, which is empty if no env file is found.
func UpdateEnv(filename string, opts ...Option) (string, error) {
	if strings.ContainsRune(filename, os.PathSeparator) {
		return "", fmt.Errorf("file name contains path separator: %w", os.ErrInvalid)
	}
	var fopts options
	for _, opt := range opts {
		opt(&fopts)
	}
	fpaths, err := fopts.candidates(filename)
	if err != nil {
		return "", err
	}
	for _, fpath := range fpaths {
		data, err := os.ReadFile(fpath)
		if err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				return "", err
			}
			continue
		}
		vars, err := Parse(strings.NewReader(string(data)))
		if err != nil {
			return "", fmt.Errorf("could not parse env file %q: %w", fpath, err)
		}
		for _, v := range vars {
			if len(os.Getenv(v.Name)) != 0 && !fopts.overwriteIfExists {
				continue
			}
			if err := os.Setenv(v.Name, v.Value); err != nil {
				return "", fmt.Errorf("could not set environment variable %q: %w", v.Name, err)
			}
		}
		return fpath, nil
	}
	return "", nil
}
