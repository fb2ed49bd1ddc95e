// Copyright (c) 2025 BVK Chaitanya

package telegram

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

type Secrets struct {
	BotToken string `json:"token" yaml:"token"`

	// ChannelID is the destination chat for notifications. It can be a
	// numeric chat id or a public channel username like "@channel".
	ChannelID string `json:"channel_id" yaml:"channel_id"`
}

// Configured returns true if both bot token and destination channel are set.
func (v *Secrets) Configured() bool {
	return v != nil && len(v.BotToken) != 0 && len(v.ChannelID) != 0
}

func (v *Secrets) Check() error {
	if len(v.BotToken) == 0 {
		return fmt.Errorf("bot token cannot be empty: %w", os.ErrInvalid)
	}
	if len(v.ChannelID) == 0 {
		return fmt.Errorf("channel id cannot be empty: %w", os.ErrInvalid)
	}
	if strings.ContainsAny(v.BotToken, " \t\n") {
		return fmt.Errorf("bot token cannot contain whitespace: %w", os.ErrInvalid)
	}
	return nil
}

func (v *Secrets) Clone() *Secrets {
	return &Secrets{
		BotToken:  v.BotToken,
		ChannelID: v.ChannelID,
	}
}

// chatID converts the channel id into the value expected by the bot api.
func (v *Secrets) chatID() any {
	if id, err := strconv.ParseInt(v.ChannelID, 10, 64); err == nil {
		return id
	}
	return v.ChannelID
}
