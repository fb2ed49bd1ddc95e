// Copyright (c) 2025 BVK Chaitanya

package envfile

import (
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
)

func TestParse(t *testing.T) {
	input := `
# notification settings
NOTIFICATION_PLATFORM=1
export TELEGRAM_TOKEN = "123:abc\tdef"
TELEGRAM_CHANNEL_ID='-100 # not a comment'
PUSHPLUS_URL=https://example.com/send # endpoint
EMPTY=
`
	vars, err := Parse(strings.NewReader(input))
	if err != nil {
		t.Fatal(err)
	}
	want := []Var{
		{"NOTIFICATION_PLATFORM", "1"},
		{"TELEGRAM_TOKEN", "123:abc\tdef"},
		{"TELEGRAM_CHANNEL_ID", "-100 # not a comment"},
		{"PUSHPLUS_URL", "https://example.com/send"},
		{"EMPTY", ""},
	}
	if len(vars) != len(want) {
		t.Fatalf("want %d vars, got %d: %v", len(want), len(vars), vars)
	}
	for i := range want {
		if vars[i] != want[i] {
			t.Fatalf("var %d: want %v, got %v", i, want[i], vars[i])
		}
	}

	for _, bad := range []string{"NOVALUE", "1BAD=x", "A='open", `A="open`} {
		if _, err := Parse(strings.NewReader(bad)); !errors.Is(err, os.ErrInvalid) {
			t.Fatalf("%q: want os.ErrInvalid, got %v", bad, err)
		}
	}
}

func TestUpdateEnv(t *testing.T) {
	dir := t.TempDir()
	data := "TRADENOTIFY_TEST_A=from-file\nTRADENOTIFY_TEST_B=from-file\n"
	if err := os.WriteFile(filepath.Join(dir, ".test.env"), []byte(data), 0600); err != nil {
		t.Fatal(err)
	}

	t.Setenv("TRADENOTIFY_TEST_A", "")
	t.Setenv("TRADENOTIFY_TEST_B", "from-env")

	fpath, err := UpdateEnv(".test.env", SearchDirs(t.TempDir(), dir))
	if err != nil {
		t.Fatal(err)
	}
	if fpath != filepath.Join(dir, ".test.env") {
		t.Fatalf("unexpected env file path %q", fpath)
	}
	if v := os.Getenv("TRADENOTIFY_TEST_A"); v != "from-file" {
		t.Fatalf("want empty variable updated, got %q", v)
	}
	if v := os.Getenv("TRADENOTIFY_TEST_B"); v != "from-env" {
		t.Fatalf("want existing variable kept, got %q", v)
	}

	if _, err := UpdateEnv(".test.env", SearchDirs(dir), OverwriteIfExists(true)); err != nil {
		t.Fatal(err)
	}
	if v := os.Getenv("TRADENOTIFY_TEST_B"); v != "from-file" {
		t.Fatalf("want existing variable overwritten, got %q", v)
	}
}

func TestUpdateEnvMissingFile(t *testing.T) {
	fpath, err := UpdateEnv(".missing.env", SearchDirs(t.TempDir()))
	if err != nil || fpath != "" {
		t.Fatalf("want no error and no file, got %q/%v", fpath, err)
	}
	if _, err := UpdateEnv("a/b.env"); !errors.Is(err, os.ErrInvalid) {
		t.Fatalf("want os.ErrInvalid, got %v", err)
	}
}

func TestCandidates(t *testing.T) {
	var opts options
	SearchDirs("/a", "/b")(&opts)
	SearchCurrentDir(false)(&opts)

	fpaths, err := opts.candidates(".x.env")
	if err != nil {
		t.Fatal(err)
	}
	cwd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"/a/.x.env", "/b/.x.env", filepath.Join(cwd, ".x.env")}
	if !slices.Equal(fpaths, want) {
		t.Fatalf("want %v, got %v", want, fpaths)
	}
}
