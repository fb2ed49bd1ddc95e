// Copyright (c) 2025 BVK Chaitanya

package envfile

import (
	"fmt"
	"os"
	"os/user"
	"path/filepath"
	"regexp"
)

// nameRe matches the valid variable names.
var nameRe = regexp.MustCompile("^[a-zA-Z_][0-9a-zA-Z_]*$")

type options struct {
	searchDirs []string

	searchCurrentDirectory bool
	scanParentDirectories  bool

	searchHomeDirectory bool

	overwriteIfExists bool
}

type Option func(*options)

// SearchCurrentDir option if present will search for the environment file from
// current directory. If the input parameter is true, envfile search will
// include the ancestor directories up to the root directory.
func SearchCurrentDir(searchParentDirs bool) Option {
	return func(opts *options) {
		opts.searchCurrentDirectory = true
		opts.scanParentDirectories = searchParentDirs
	}
}

// SearchDirs option adds the input directories to the env file search path.
// They are searched before the current directory.
func SearchDirs(dirs ...string) Option {
	return func(opts *options) {
		opts.searchDirs = append(opts.searchDirs, dirs...)
	}
}

// SearchHomeDir option adds the user's home directory as the last entry in
// the search path.
func SearchHomeDir() Option {
	return func(opts *options) {
		opts.searchHomeDirectory = true
	}
}

// OverwriteIfExists options allows to overwrite or not-overwrite the current
// value for an environment variable that already has a non-empty value.
func OverwriteIfExists(overwrite bool) Option {
	return func(opts *options) {
		opts.overwriteIfExists = overwrite
	}
}

func (opts *options) candidates(filename string) ([]string, error) {
	var fpaths []string
	for _, dir := range opts.searchDirs {
		fpaths = append(fpaths, filepath.Join(dir, filename))
	}
	if opts.searchCurrentDirectory {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, err
		}
		fpaths = append(fpaths, filepath.Join(cwd, filename))
		if opts.scanParentDirectories {
			for last, dir := cwd, filepath.Dir(cwd); dir != last; last, dir = dir, filepath.Dir(dir) {
				fpaths = append(fpaths, filepath.Join(dir, filename))
			}
		}
	}
	if opts.searchHomeDirectory || len(fpaths) == 0 {
		user, err := user.Current()
		if err != nil {
			return nil, fmt.Errorf("could not determine current user: %w", err)
		}
		if len(user.HomeDir) == 0 {
			return nil, fmt.Errorf("could not determine current user's home directory: %w", os.ErrNotExist)
		}
		fpaths = append(fpaths, filepath.Join(user.HomeDir, filename))
	}
	return fpaths, nil
}
