// Copyright (c) 2025 BVK Chaitanya

package httputil

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
)

// DefaultMaxRequestSize is the json request body size limit for the handlers
// created by JSONHandler.
const DefaultMaxRequestSize = 1 << 20

type checker interface {
	Check() error
}

// JSONHandler returns a http handler that accepts POST requests with a json
// encoded REQ body, invokes the input function and responds with the json
// encoded RESP value. Requests are validated with their Check method, if
// any. Errors matching os.ErrInvalid are reported with http status 400 and
// all other errors with status 500.
func JSONHandler[REQ, RESP any](f func(context.Context, *REQ) (*RESP, error)) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}

		req := new(REQ)
		dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, DefaultMaxRequestSize))
		dec.DisallowUnknownFields()
		if err := dec.Decode(req); err != nil {
			http.Error(w, fmt.Sprintf("could not decode request: %v", err), http.StatusBadRequest)
			return
		}
		if v, ok := any(req).(checker); ok {
			if err := v.Check(); err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
		}

		resp, err := f(r.Context(), req)
		if err != nil {
			status := http.StatusInternalServerError
			if errors.Is(err, os.ErrInvalid) {
				status = http.StatusBadRequest
			}
			slog.WarnContext(r.Context(), "http request has failed", "path", r.URL.Path, "status", status, "err", err)
			http.Error(w, err.Error(), status)
			return
		}

		WriteJSON(w, resp)
	})
}

// WriteJSON writes the value as a json response with http status 200.
func WriteJSON(w http.ResponseWriter, v any) {
	w.Header().Set("content-type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("could not write http response (ignored)", "err", err)
	}
}
