// Copyright (c) 2025 BVK Chaitanya

package logsink

import (
	"bytes"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"
)

func newTestSink(t *testing.T, cfg *Config) (*Sink, *bytes.Buffer) {
	console := new(bytes.Buffer)
	if len(cfg.Dir) == 0 {
		cfg.Dir = t.TempDir()
	}
	cfg.Console = console
	s, err := New(cfg)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { s.Close() })
	return s, console
}

func readLines(t *testing.T, fpath string) []string {
	data, err := os.ReadFile(fpath)
	if err != nil {
		t.Fatal(err)
	}
	return strings.Split(strings.TrimSuffix(string(data), "\n"), "\n")
}

func setModTime(t *testing.T, fpath string, at time.Time) {
	if err := os.Chtimes(fpath, at, at); err != nil {
		t.Fatal(err)
	}
}

func TestReconfigureIsIdempotent(t *testing.T) {
	s, console := newTestSink(t, &Config{SingleFile: true, BackupDays: 2})

	for i := 0; i < 3; i++ {
		s.Reconfigure()
		if n := s.NumHandlers(); n != 2 {
			t.Fatalf("want exactly two handlers, got %d", n)
		}
	}

	logger := slog.New(s.Handler())
	logger.Info("hello world", "key", "value", "one", 1)

	if got, want := console.String(), "hello world key=\"value\" one=1\n"; got != want {
		t.Fatalf("want console output %q, got %q", want, got)
	}

	lines := readLines(t, s.Config().Path())
	if len(lines) != 1 {
		t.Fatalf("want one line in the log file, got %d: %q", len(lines), lines)
	}
	re := regexp.MustCompile(`^\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2} \[root\] INFO: hello world key="value" one=1$`)
	if !re.MatchString(lines[0]) {
		t.Fatalf("unexpected log file line %q", lines[0])
	}
}

func TestHandlerBeforeReconfigure(t *testing.T) {
	s, console := newTestSink(t, &Config{})

	logger := slog.New(s.Handler())
	logger.Info("dropped")
	if console.Len() != 0 {
		t.Fatalf("want no output without handlers, got %q", console.String())
	}

	s.Reconfigure()
	logger.Info("kept")
	if got := console.String(); got != "kept\n" {
		t.Fatalf("want the existing logger to follow reconfiguration, got %q", got)
	}
}

func TestLoggerNameAndLevels(t *testing.T) {
	s, console := newTestSink(t, &Config{})
	s.Reconfigure()

	logger := Named(slog.New(s.Handler()), "notify")
	logger.Debug("debug message")
	logger.Warn("warning message", slog.Group("g", slog.Int("a", 1)))
	logger.WithGroup("req").Error("error message", "id", "x")

	s.SetLevel(slog.LevelDebug)
	logger.Debug("debug message after level change")

	lines := readLines(t, s.Config().Path())
	if len(lines) != 3 {
		t.Fatalf("want three lines, got %q", lines)
	}
	for i, want := range []string{
		`[notify] WARNING: warning message g.a=1`,
		`[notify] ERROR: error message req.id="x"`,
		`[notify] DEBUG: debug message after level change`,
	} {
		if !strings.HasSuffix(lines[i], want) {
			t.Fatalf("line %d: want suffix %q, got %q", i, want, lines[i])
		}
	}
	if strings.Contains(console.String(), "notify") {
		t.Fatalf("console output must not include the logger name: %q", console.String())
	}
}

func TestLazyFileCreation(t *testing.T) {
	s, _ := newTestSink(t, &Config{})
	s.Reconfigure()

	if _, err := os.Stat(s.Config().Path()); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("want no log file before the first message, got %v", err)
	}
	slog.New(s.Handler()).Info("first")
	if _, err := os.Stat(s.Config().Path()); err != nil {
		t.Fatal(err)
	}
}

func TestRotation(t *testing.T) {
	dir := t.TempDir()
	f := newRotatingFile(&Config{Dir: dir, FileName: "test.log", BackupDays: 2, FileMode: 0644})
	defer f.Close()

	day := func(d, hour int) time.Time {
		return time.Date(2025, time.March, d, hour, 30, 0, 0, time.Local)
	}

	for d := 1; d <= 5; d++ {
		at := day(d, 10)
		f.now = func() time.Time { return at }
		if _, err := f.Write([]byte(at.Format(backupSuffixLayout) + "\n")); err != nil {
			t.Fatal(err)
		}
	}

	names, err := f.backupNames()
	if err != nil {
		t.Fatal(err)
	}
	if want := []string{"test.log.2025-03-03", "test.log.2025-03-04"}; !slices.Equal(names, want) {
		t.Fatalf("want backups %v, got %v", want, names)
	}
	if lines := readLines(t, filepath.Join(dir, "test.log")); len(lines) != 1 || lines[0] != "2025-03-05" {
		t.Fatalf("want only the latest day in the log file, got %q", lines)
	}
	if lines := readLines(t, filepath.Join(dir, "test.log.2025-03-04")); len(lines) != 1 || lines[0] != "2025-03-04" {
		t.Fatalf("unexpected backup file contents %q", lines)
	}
}

func TestRotationKeepsAllBackupsWithZeroDays(t *testing.T) {
	dir := t.TempDir()
	f := newRotatingFile(&Config{Dir: dir, FileName: "test.log", FileMode: 0644})
	defer f.Close()

	for d := 1; d <= 4; d++ {
		at := time.Date(2025, time.March, d, 23, 0, 0, 0, time.Local)
		f.now = func() time.Time { return at }
		if _, err := f.Write([]byte("line\n")); err != nil {
			t.Fatal(err)
		}
	}
	names, err := f.backupNames()
	if err != nil {
		t.Fatal(err)
	}
	if len(names) != 3 {
		t.Fatalf("want all three backups, got %v", names)
	}
}

func TestPurgeSingleFile(t *testing.T) {
	s, _ := newTestSink(t, &Config{SingleFile: true, BackupDays: 2})
	dir := s.Config().Dir

	now := time.Now()
	old := now.Add(-72 * time.Hour)
	for _, name := range []string{DefaultFileName, "other.log"} {
		fpath := filepath.Join(dir, name)
		if err := os.WriteFile(fpath, []byte("x\n"), 0644); err != nil {
			t.Fatal(err)
		}
		setModTime(t, fpath, old)
	}

	removed := s.PurgeExpired(now)
	if len(removed) != 1 || filepath.Base(removed[0]) != DefaultFileName {
		t.Fatalf("want only the canonical log file removed, got %v", removed)
	}
	if _, err := os.Stat(filepath.Join(dir, "other.log")); err != nil {
		t.Fatalf("other files must be ignored in single file mode: %v", err)
	}
}

func TestPurgeAllFiles(t *testing.T) {
	s, _ := newTestSink(t, &Config{BackupDays: 1, Keep: []string{"daemon.lock"}})
	dir := s.Config().Dir

	now := time.Now()
	files := map[string]time.Time{
		"old.log":     now.Add(-25 * time.Hour),
		"fresh.log":   now.Add(-23 * time.Hour),
		"daemon.lock": now.Add(-48 * time.Hour),
	}
	for name, at := range files {
		fpath := filepath.Join(dir, name)
		if err := os.WriteFile(fpath, nil, 0644); err != nil {
			t.Fatal(err)
		}
		setModTime(t, fpath, at)
	}
	if err := os.Mkdir(filepath.Join(dir, "subdir"), 0755); err != nil {
		t.Fatal(err)
	}
	setModTime(t, filepath.Join(dir, "subdir"), now.Add(-48*time.Hour))

	removed := s.PurgeExpired(now)
	if len(removed) != 1 || filepath.Base(removed[0]) != "old.log" {
		t.Fatalf("want only old.log removed, got %v", removed)
	}
	for _, name := range []string{"fresh.log", "daemon.lock", "subdir"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Fatalf("%s must not be removed: %v", name, err)
		}
	}
}

func TestPurgeActiveFile(t *testing.T) {
	s, _ := newTestSink(t, &Config{SingleFile: true, BackupDays: 2})
	s.Reconfigure()

	logger := slog.New(s.Handler())
	logger.Info("before purge")

	fpath := s.Config().Path()
	setModTime(t, fpath, time.Now().Add(-72*time.Hour))
	if removed := s.PurgeExpired(time.Now()); len(removed) != 1 {
		t.Fatalf("want active log file removed, got %v", removed)
	}

	logger.Info("after purge")
	lines := readLines(t, fpath)
	if len(lines) != 1 || !strings.HasSuffix(lines[0], "after purge") {
		t.Fatalf("want log file recreated after purge, got %q", lines)
	}
}

func TestPurgeMissingDirectory(t *testing.T) {
	s, _ := newTestSink(t, &Config{Dir: filepath.Join(t.TempDir(), "missing")})
	if removed := s.PurgeExpired(time.Now()); len(removed) != 0 {
		t.Fatalf("want nothing removed, got %v", removed)
	}
}

func TestStartPurger(t *testing.T) {
	s, _ := newTestSink(t, &Config{SingleFile: true, BackupDays: 2})

	if _, err := s.StartPurger("not a schedule"); !errors.Is(err, os.ErrInvalid) {
		t.Fatalf("want os.ErrInvalid for a bad schedule, got %v", err)
	}

	fpath := s.Config().Path()
	if err := os.WriteFile(fpath, []byte("x\n"), 0644); err != nil {
		t.Fatal(err)
	}
	setModTime(t, fpath, time.Now().Add(-72*time.Hour))

	stop, err := s.StartPurger("@every 1s")
	if err != nil {
		t.Fatal(err)
	}
	defer stop()

	deadline := time.Now().Add(10 * time.Second)
	for time.Now().Before(deadline) {
		if _, err := os.Stat(fpath); errors.Is(err, os.ErrNotExist) {
			return
		}
		time.Sleep(100 * time.Millisecond)
	}
	t.Fatalf("purger did not remove the expired log file")
}

func TestConfigCheck(t *testing.T) {
	if _, err := New(&Config{BackupDays: -1}); !errors.Is(err, os.ErrInvalid) {
		t.Fatalf("want os.ErrInvalid for negative backup days, got %v", err)
	}
	if _, err := New(&Config{FileName: "a/b.log"}); !errors.Is(err, os.ErrInvalid) {
		t.Fatalf("want os.ErrInvalid for a file path, got %v", err)
	}
}

func TestWatchActive(t *testing.T) {
	s, _ := newTestSink(t, &Config{SingleFile: true})
	s.Reconfigure()

	logger := slog.New(s.Handler())
	logger.Info("before remove")

	stop, err := s.WatchActive()
	if err != nil {
		t.Fatal(err)
	}
	defer stop()

	fpath := s.Config().Path()
	if err := os.Rename(fpath, fpath+".moved"); err != nil {
		t.Fatal(err)
	}

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		logger.Info("after remove")
		if _, err := os.Stat(fpath); err == nil {
			lines := readLines(t, fpath)
			if !strings.HasSuffix(lines[0], "after remove") {
				t.Fatalf("want recreated log file with new messages, got %q", lines)
			}
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("active log file is not recreated after rename")
}

func TestPurgeContinuesAfterRemoveFailure(t *testing.T) {
	s, _ := newTestSink(t, &Config{BackupDays: 1})
	dir := s.Config().Dir

	now := time.Now()
	for _, name := range []string{"a.log", "b.log", "c.log"} {
		fpath := filepath.Join(dir, name)
		if err := os.WriteFile(fpath, []byte("x\n"), 0644); err != nil {
			t.Fatal(err)
		}
		setModTime(t, fpath, now.Add(-48*time.Hour))
	}

	old := removeFunc
	removeFunc = func(fpath string) error {
		if filepath.Base(fpath) == "b.log" {
			return &os.PathError{Op: "remove", Path: fpath, Err: os.ErrPermission}
		}
		return os.Remove(fpath)
	}
	t.Cleanup(func() { removeFunc = old })

	removed := s.PurgeExpired(now)
	var names []string
	for _, fpath := range removed {
		names = append(names, filepath.Base(fpath))
	}
	if !slices.Equal(names, []string{"a.log", "c.log"}) {
		t.Fatalf("want a.log and c.log removed, got %v", names)
	}
	if _, err := os.Stat(filepath.Join(dir, "b.log")); err != nil {
		t.Fatalf("b.log must be kept after the remove failure: %v", err)
	}
}

func TestPurgeActiveFileWithConcurrentWrites(t *testing.T) {
	s, _ := newTestSink(t, &Config{SingleFile: true, BackupDays: 1})
	s.Reconfigure()

	logger := slog.New(s.Handler())
	logger.Info("first")
	fpath := s.Config().Path()

	stop := make(chan struct{})
	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
					logger.Info("concurrent")
				}
			}
		}()
	}

	for i := 0; i < 20; i++ {
		if err := os.Chtimes(fpath, time.Now().Add(-48*time.Hour), time.Now().Add(-48*time.Hour)); err != nil && !errors.Is(err, os.ErrNotExist) {
			t.Fatal(err)
		}
		s.PurgeExpired(time.Now())
	}
	close(stop)
	wg.Wait()

	logger.Info("last")
	lines := readLines(t, fpath)
	if !strings.HasSuffix(lines[len(lines)-1], "last") {
		t.Fatalf("want writes to reach the log file after purges, got %q", lines[len(lines)-1])
	}
}
