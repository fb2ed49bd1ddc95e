// Copyright (c) 2025 BVK Chaitanya

package subcmds

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/bvk/tradenotify/config"
	"github.com/bvk/tradenotify/notify"
	"github.com/visvasity/topic"
	"golang.org/x/term"
)

// sendLocal delivers the notification from the current process and returns
// the delivery outcome. Delivery failures are returned as errors so that the
// command exit status reflects them.
func sendLocal(ctx context.Context, settings *config.Settings, content, title string) (*notify.Outcome, error) {
	d, err := settings.NewDispatcher()
	if err != nil {
		return nil, err
	}
	defer d.Close()

	receiver, err := d.Subscribe()
	if err != nil {
		return nil, err
	}
	defer receiver.Close()

	outcomeCh, err := topic.ReceiveCh(receiver)
	if err != nil {
		return nil, err
	}

	// No background scheduler in the context, so Send blocks till the delivery
	// is complete.
	d.Send(ctx, content, title)

	select {
	case o := <-outcomeCh:
		if o == nil {
			return nil, fmt.Errorf("delivery outcome is not available")
		}
		if !o.Success() {
			return o, fmt.Errorf("notification %s is not delivered through %s: %w", o.ID, o.Platform, o.Err)
		}
		return o, nil
	case <-time.After(time.Second):
		return nil, fmt.Errorf("delivery outcome is not available")
	}
}

// readContent returns the arguments joined with spaces, or the standard input
// when there are no arguments and the standard input is not a terminal.
func readContent(args []string) (string, error) {
	if len(args) != 0 {
		return strings.Join(args, " "), nil
	}
	if term.IsTerminal(int(os.Stdin.Fd())) {
		return "", fmt.Errorf("notification text is required as arguments or standard input: %w", os.ErrInvalid)
	}
	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		return "", fmt.Errorf("could not read standard input: %w", err)
	}
	content := strings.TrimSpace(string(data))
	if len(content) == 0 {
		return "", fmt.Errorf("notification text cannot be empty: %w", os.ErrInvalid)
	}
	return content, nil
}
