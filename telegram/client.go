// Copyright (c) 2025 BVK Chaitanya

package telegram

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/go-telegram/bot"
	"golang.org/x/time/rate"
)

// Client sends notification messages to a single Telegram chat through a
// bot account.
type Client struct {
	bot *bot.Bot

	secrets *Secrets

	limiter *rate.Limiter
}

// New creates a bot api client. No network calls are made till the first
// message is delivered.
func New(secrets *Secrets, opts *Options) (*Client, error) {
	if err := secrets.Check(); err != nil {
		return nil, err
	}
	if opts == nil {
		opts = new(Options)
	}
	opts.setDefaults()
	if err := opts.Check(); err != nil {
		return nil, err
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	if len(opts.ProxyURL) != 0 {
		proxy, err := url.Parse(opts.ProxyURL)
		if err != nil {
			return nil, fmt.Errorf("could not parse proxy url: %w", err)
		}
		transport.Proxy = http.ProxyURL(proxy)
	}
	httpClient := &http.Client{
		Timeout:   opts.Timeout,
		Transport: transport,
	}

	bopts := []bot.Option{
		bot.WithSkipGetMe(),
		bot.WithHTTPClient(opts.Timeout, httpClient),
	}
	if len(opts.ServerURL) != 0 {
		bopts = append(bopts, bot.WithServerURL(opts.ServerURL))
	}
	b, err := bot.New(secrets.BotToken, bopts...)
	if err != nil {
		return nil, fmt.Errorf("could not create telegram bot client: %w", err)
	}

	c := &Client{
		bot:     b,
		secrets: secrets.Clone(),
		limiter: rate.NewLimiter(rate.Limit(opts.MessagesPerSecond), 1),
	}
	return c, nil
}

// ChannelID returns the destination chat for the messages.
func (c *Client) ChannelID() string {
	return c.secrets.ChannelID
}

// Deliver sends the content as a text message to the configured chat. Title
// is only used for logging because bot messages don't have a subject.
func (c *Client) Deliver(ctx context.Context, content, title string) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("could not wait for the send rate limit: %w", err)
	}

	slog.InfoContext(ctx, "sending telegram notification", "title", title, "channel", c.secrets.ChannelID)
	p := &bot.SendMessageParams{
		ChatID: c.secrets.chatID(),
		Text:   content,
	}
	if _, err := c.bot.SendMessage(ctx, p); err != nil {
		return fmt.Errorf("could not send telegram message to %q: %w", c.secrets.ChannelID, err)
	}
	return nil
}
