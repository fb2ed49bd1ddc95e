// Copyright (c) 2023 BVK Chaitanya

package pushplus

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"strings"
)

// ResponseError is returned when the push service responds with anything
// other than http-status 200 and response code 200.
type ResponseError struct {
	StatusCode int
	Code       int
	Body       string
}

func (e *ResponseError) Error() string {
	return fmt.Sprintf("push failed with http-status %d and response code %d: %s", e.StatusCode, e.Code, e.Body)
}

type Client struct {
	token      string
	url        string
	httpClient *http.Client
}

func New(keys *Keys, opts *Options) (*Client, error) {
	if !keys.Configured() {
		return nil, fmt.Errorf("push token cannot be empty: %w", os.ErrInvalid)
	}
	if opts == nil {
		opts = new(Options)
	}
	opts.setDefaults()
	if err := opts.Check(); err != nil {
		return nil, err
	}
	c := &Client{
		token: keys.Token,
		url:   opts.URL,
		httpClient: &http.Client{
			Timeout: opts.Timeout,
		},
	}
	return c, nil
}

// Deliver posts one message to the push service. Messages are always sent in
// the plain-text template.
func (c *Client) Deliver(ctx context.Context, content, title string) error {
	form := url.Values{
		"token":    {c.token},
		"title":    {title},
		"content":  {content},
		"template": {"txt"},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("could not create post request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	slog.InfoContext(ctx, "sending push notification", "title", title)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("could not perform post request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
	if err != nil {
		return fmt.Errorf("could not read response for http-status %d: %w", resp.StatusCode, err)
	}

	type Response struct {
		Code int    `json:"code"`
		Msg  string `json:"msg"`
	}
	r := new(Response)
	if err := json.Unmarshal(data, r); err != nil {
		return &ResponseError{StatusCode: resp.StatusCode, Body: string(data)}
	}
	if resp.StatusCode != http.StatusOK || r.Code != http.StatusOK {
		return &ResponseError{StatusCode: resp.StatusCode, Code: r.Code, Body: string(data)}
	}
	return nil
}
