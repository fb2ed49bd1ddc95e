// Copyright (c) 2025 BVK Chaitanya

package api

import (
	"fmt"
	"os"

	"github.com/bvk/tradenotify/tradefmt"
	"github.com/shopspring/decimal"
)

const (
	NotifyPath = "/notify"
	TradePath  = "/trade"
	PIDPath    = "/pid"
)

type NotifyRequest struct {
	Content string

	// Title is optional; default notification title is used when empty.
	Title string
}

func (r *NotifyRequest) Check() error {
	if len(r.Content) == 0 {
		return fmt.Errorf("notification content cannot be empty: %w", os.ErrInvalid)
	}
	return nil
}

type NotifyResponse struct {
	Platform string

	// Background is true when the delivery continues in the background after
	// the response.
	Background bool
}

type TradeRequest struct {
	Side   string
	Symbol string

	Price    decimal.Decimal
	Amount   decimal.Decimal
	Total    decimal.Decimal
	GridSize decimal.Decimal

	BaseAsset  string
	QuoteAsset string

	Attempt     int
	MaxAttempts int
}

// Trade converts the request into a trade with the current time.
func (r *TradeRequest) Trade() (*tradefmt.Trade, error) {
	side, err := tradefmt.ParseSide(r.Side)
	if err != nil {
		return nil, err
	}
	t := &tradefmt.Trade{
		Side:        side,
		Symbol:      r.Symbol,
		Price:       r.Price,
		Amount:      r.Amount,
		Total:       r.Total,
		GridSize:    r.GridSize,
		BaseAsset:   r.BaseAsset,
		QuoteAsset:  r.QuoteAsset,
		Attempt:     r.Attempt,
		MaxAttempts: r.MaxAttempts,
	}
	if err := t.Check(); err != nil {
		return nil, err
	}
	return t, nil
}

func (r *TradeRequest) Check() error {
	_, err := r.Trade()
	return err
}

type TradeResponse = NotifyResponse

const StatsPath = "/stats"

// StatsResponse holds the delivery outcome counters since the daemon start.
type StatsResponse struct {
	Delivered int64
	Failed    int64
	Skipped   int64

	LastFailure     string `json:",omitempty"`
	LastFailureTime string `json:",omitempty"`
}
