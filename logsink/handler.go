// Copyright (c) 2025 BVK Chaitanya

package logsink

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"
)

// LoggerKey is the attribute key that names the logger of a log record. It is
// printed in the log file lines as `[name]`.
const LoggerKey = "logger"

// RootLogger is the logger name used when the LoggerKey attribute is absent.
const RootLogger = "root"

// Named returns a logger with the given name.
func Named(logger *slog.Logger, name string) *slog.Logger {
	return logger.With(LoggerKey, name)
}

// groupOrAttrs holds either a group name or a list of slog.Attrs.
type groupOrAttrs struct {
	group string      // group name if non-empty
	attrs []slog.Attr // attrs if non-empty
}

// formatHandler formats log records into lines on a writer. File handlers use
// the long format:
//
//	2006-01-02 15:04:05 [logger] LEVEL: message key=value...
//
// and console handlers print the message with its attributes.
type formatHandler struct {
	// mu is a pointer cause it is shared by all copies of the handler created
	// for different groups and attributes.
	mu *sync.Mutex

	w io.Writer

	long bool

	level slog.Leveler

	goas []groupOrAttrs
}

func newFormatHandler(w io.Writer, long bool, level slog.Leveler) *formatHandler {
	return &formatHandler{
		mu:    new(sync.Mutex),
		w:     w,
		long:  long,
		level: level,
	}
}

func (h *formatHandler) withGroupOrAttrs(goa groupOrAttrs) *formatHandler {
	h2 := *h
	h2.goas = make([]groupOrAttrs, len(h.goas)+1)
	copy(h2.goas, h.goas)
	h2.goas[len(h2.goas)-1] = goa
	return &h2
}

func (h *formatHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	return h.withGroupOrAttrs(groupOrAttrs{group: name})
}

func (h *formatHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	if len(attrs) == 0 {
		return h
	}
	return h.withGroupOrAttrs(groupOrAttrs{attrs: attrs})
}

func (h *formatHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

func (h *formatHandler) Handle(ctx context.Context, r slog.Record) error {
	var buf bytes.Buffer
	h.format(&buf, r)

	h.mu.Lock()
	defer h.mu.Unlock()

	if _, err := h.w.Write(buf.Bytes()); err != nil {
		return fmt.Errorf("could not write log message: %w", err)
	}
	return nil
}

func levelName(level slog.Level) string {
	switch {
	case level >= slog.LevelError:
		return "ERROR"
	case level >= slog.LevelWarn:
		return "WARNING"
	case level >= slog.LevelInfo:
		return "INFO"
	default:
		return "DEBUG"
	}
}

func (h *formatHandler) format(buf *bytes.Buffer, r slog.Record) {
	logger := RootLogger

	// Handle state from WithGroup and WithAttrs.
	goas := h.goas
	if r.NumAttrs() == 0 {
		// If the record has no Attrs, remove groups at the end of the list; they are empty.
		for len(goas) > 0 && goas[len(goas)-1].group != "" {
			goas = goas[:len(goas)-1]
		}
	}

	var attrs bytes.Buffer
	prefix := ""
	for _, goa := range goas {
		if goa.group != "" {
			prefix = fmt.Sprintf("%s%s.", prefix, goa.group)
			continue
		}
		for _, a := range goa.attrs {
			if prefix == "" && a.Key == LoggerKey {
				logger = a.Value.Resolve().String()
				continue
			}
			appendAttr(&attrs, a, prefix)
		}
	}
	r.Attrs(func(a slog.Attr) bool {
		if prefix == "" && a.Key == LoggerKey {
			logger = a.Value.Resolve().String()
			return true
		}
		appendAttr(&attrs, a, prefix)
		return true
	})

	if h.long {
		at := r.Time
		if at.IsZero() {
			at = time.Now()
		}
		buf.WriteString(at.Format(time.DateTime))
		fmt.Fprintf(buf, " [%s] %s: ", logger, levelName(r.Level))
	}
	buf.WriteString(r.Message)
	buf.Write(attrs.Bytes())
	if b := buf.Bytes(); len(b) == 0 || b[len(b)-1] != '\n' {
		buf.WriteByte('\n')
	}
}

func appendAttr(buf *bytes.Buffer, a slog.Attr, prefix string) {
	// Resolve the Attr's value before doing anything else.
	a.Value = a.Value.Resolve()
	// Ignore empty Attrs.
	if a.Equal(slog.Attr{}) {
		return
	}

	switch a.Value.Kind() {
	case slog.KindString:
		// Quote string values, to make them easy to parse.
		fmt.Fprintf(buf, " %s%s=%q", prefix, a.Key, a.Value.String())

	case slog.KindTime:
		// Write times in a standard way, without the monotonic time.
		fmt.Fprintf(buf, " %s%s=%s", prefix, a.Key, a.Value.Time().Format(time.RFC3339Nano))

	case slog.KindGroup:
		attrs := a.Value.Group()
		// Ignore empty groups.
		if len(attrs) == 0 {
			return
		}
		if a.Key != "" {
			prefix = fmt.Sprintf("%s%s.", prefix, a.Key)
		}
		for _, ga := range attrs {
			appendAttr(buf, ga, prefix)
		}

	default:
		fmt.Fprintf(buf, " %s%s=%s", prefix, a.Key, a.Value)
	}
}
