// Copyright (c) 2025 BVK Chaitanya

package httputil

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"
)

type echoRequest struct {
	Text string
}

func (r *echoRequest) Check() error {
	if len(r.Text) == 0 {
		return fmt.Errorf("text cannot be empty: %w", os.ErrInvalid)
	}
	return nil
}

type echoResponse struct {
	Text string
}

func echo(ctx context.Context, req *echoRequest) (*echoResponse, error) {
	if req.Text == "fail" {
		return nil, fmt.Errorf("could not echo")
	}
	return &echoResponse{Text: strings.ToUpper(req.Text)}, nil
}

func TestJSONHandler(t *testing.T) {
	handler := JSONHandler(echo)

	tests := []struct {
		method string
		body   string
		status int
		want   string
	}{
		{http.MethodPost, `{"Text":"hello"}`, http.StatusOK, `{"Text":"HELLO"}`},
		{http.MethodPost, `{"Text":""}`, http.StatusBadRequest, ""},
		{http.MethodPost, `{"Unknown":1}`, http.StatusBadRequest, ""},
		{http.MethodPost, `not json`, http.StatusBadRequest, ""},
		{http.MethodPost, `{"Text":"fail"}`, http.StatusInternalServerError, ""},
		{http.MethodGet, ``, http.StatusMethodNotAllowed, ""},
	}
	for _, tt := range tests {
		r := httptest.NewRequest(tt.method, "/echo", strings.NewReader(tt.body))
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, r)

		if w.Code != tt.status {
			t.Fatalf("%s %s: want status %d, got %d", tt.method, tt.body, tt.status, w.Code)
		}
		if len(tt.want) != 0 && strings.TrimSpace(w.Body.String()) != tt.want {
			t.Fatalf("%s: want response %s, got %s", tt.body, tt.want, w.Body.String())
		}
	}
}

func TestServer(t *testing.T) {
	s, err := New(nil)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	addr := &net.TCPAddr{IP: net.IPv4(127, 0, 0, 1)}
	id, err := s.StartTCP(context.Background(), addr)
	if err != nil {
		t.Fatal(err)
	}
	if addr.Port == 0 {
		t.Fatalf("want chosen port in the address")
	}

	s.AddHandler("/echo", JSONHandler(echo))

	url := fmt.Sprintf("http://%s/echo", addr)
	resp, err := http.Post(url, "application/json", bytes.NewReader([]byte(`{"Text":"abc"}`)))
	if err != nil {
		t.Fatal(err)
	}
	data, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK || strings.TrimSpace(string(data)) != `{"Text":"ABC"}` {
		t.Fatalf("unexpected response %d %s", resp.StatusCode, data)
	}

	if !s.RemoveHandler("/echo") {
		t.Fatalf("want handler removed")
	}
	if s.RemoveHandler("/echo") {
		t.Fatalf("want second removal to fail")
	}
	resp, err = http.Post(url, "application/json", bytes.NewReader([]byte(`{"Text":"abc"}`)))
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("want 404 after handler removal, got %d", resp.StatusCode)
	}

	if err := s.Stop(id); err != nil {
		t.Fatal(err)
	}
	if err := s.Stop(id); err == nil {
		t.Fatalf("want error stopping an unknown server")
	}
}

func TestOptionsCheck(t *testing.T) {
	if _, err := New(&Options{ServerCheckTimeout: -time.Second}); err == nil {
		t.Fatalf("want error for negative server check timeout")
	}
	if _, err := New(&Options{ServerCheckTimeout: time.Second, ServerCheckRetryInterval: 2 * time.Second}); err == nil {
		t.Fatalf("want error for retry interval larger than the timeout")
	}
	s, err := New(nil)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	if s.opts.ReadHeaderTimeout == 0 || s.opts.StopTimeout == 0 {
		t.Fatalf("want default timeouts, got %+v", s.opts)
	}
}
