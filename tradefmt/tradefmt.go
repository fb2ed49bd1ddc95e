// Copyright (c) 2025 BVK Chaitanya

// Package tradefmt formats executed grid trades into notification messages.
package tradefmt

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DefaultTitle is the notification title for trade messages.
const DefaultTitle = "交易执行通知"

type Side string

const (
	Buy  Side = "buy"
	Sell Side = "sell"
)

func ParseSide(s string) (Side, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "buy", "b":
		return Buy, nil
	case "sell", "s":
		return Sell, nil
	}
	return "", fmt.Errorf("trade side must be buy or sell, got %q: %w", s, os.ErrInvalid)
}

type Trade struct {
	Side   Side
	Symbol string

	Price  decimal.Decimal
	Amount decimal.Decimal

	// Total is the quote amount of the trade. Price*Amount is used when it is
	// zero.
	Total decimal.Decimal

	// GridSize is the grid spacing in percent.
	GridSize decimal.Decimal

	BaseAsset  string
	QuoteAsset string

	// Attempt and MaxAttempts, when MaxAttempts is non-zero, report the order
	// placement attempt number.
	Attempt     int
	MaxAttempts int

	// At is the trade time. Current time is used when it is zero.
	At time.Time
}

func (v *Trade) Check() error {
	if v.Side != Buy && v.Side != Sell {
		return fmt.Errorf("invalid trade side %q: %w", v.Side, os.ErrInvalid)
	}
	if len(v.Symbol) == 0 {
		return fmt.Errorf("trade symbol cannot be empty: %w", os.ErrInvalid)
	}
	if v.Price.IsNegative() || v.Amount.IsNegative() || v.Total.IsNegative() {
		return fmt.Errorf("trade price, amount and total cannot be negative: %w", os.ErrInvalid)
	}
	if v.MaxAttempts < 0 || v.Attempt < 0 || v.Attempt > v.MaxAttempts {
		return fmt.Errorf("invalid attempt %d of %d: %w", v.Attempt, v.MaxAttempts, os.ErrInvalid)
	}
	return nil
}

// Format renders the trade as a multi-line notification message.
func Format(t *Trade) string {
	emoji, label := "🔴", "卖出"
	if t.Side == Buy {
		emoji, label = "🟢", "买入"
	}

	total := t.Total
	if total.IsZero() {
		total = t.Price.Mul(t.Amount)
	}
	at := t.At
	if at.IsZero() {
		at = time.Now()
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%s %s %s\n", emoji, label, t.Symbol)
	sb.WriteString("━━━━━━━━━━━━━━━━━━━━\n")
	fmt.Fprintf(&sb, "💰 价格：%s %s\n", t.Price.StringFixed(2), t.QuoteAsset)
	fmt.Fprintf(&sb, "📊 数量：%s %s\n", t.Amount.StringFixed(4), t.BaseAsset)
	fmt.Fprintf(&sb, "💵 金额：%s %s\n", total.StringFixed(2), t.QuoteAsset)
	fmt.Fprintf(&sb, "📈 网格：%s%%\n", t.GridSize.String())
	if t.MaxAttempts > 0 {
		fmt.Fprintf(&sb, "🔄 尝试：%d/%d次\n", t.Attempt, t.MaxAttempts)
	}
	fmt.Fprintf(&sb, "⏰ 时间：%s", at.Format(time.DateTime))
	return sb.String()
}
