package points

import (
	"fmt"
	"regexp"
	"time"

	"github.com/shopspring/decimal"
)

const (
	dateLayout = "2006-01-02"
	timeLayout = "15:04"
)

var moneyPattern = regexp.MustCompile(`^\d+\.\d{2}$`)

// Purchase is a receipt with its numeric and temporal fields parsed
type Purchase struct {
	Receipt Receipt
	Total   decimal.Decimal
	Prices  []decimal.Decimal // parallel to Receipt.Items
	Date    time.Time
	Time    time.Time
}

// Parse converts the textual fields of a receipt into exact values.
// Amounts become decimals so no rule ever touches binary floating point.
func Parse(r Receipt) (*Purchase, error) {
	total, err := ParseMoney(r.Total)
	if err != nil {
		return nil, fmt.Errorf("total: %w", err)
	}

	prices := make([]decimal.Decimal, len(r.Items))
	for i, item := range r.Items {
		price, err := ParseMoney(item.Price)
		if err != nil {
			return nil, fmt.Errorf("item %d price: %w", i, err)
		}
		prices[i] = price
	}

	date, err := parseStrict(dateLayout, r.PurchaseDate)
	if err != nil {
		return nil, fmt.Errorf("purchase date: %w", err)
	}
	clock, err := parseStrict(timeLayout, r.PurchaseTime)
	if err != nil {
		return nil, fmt.Errorf("purchase time: %w", err)
	}

	return &Purchase{
		Receipt: r,
		Total:   total,
		Prices:  prices,
		Date:    date,
		Time:    clock,
	}, nil
}

// ParseMoney parses a non-negative amount with exactly two decimal places
func ParseMoney(s string) (decimal.Decimal, error) {
	if !moneyPattern.MatchString(s) {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrMalformedNumeric, s)
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q: %v", ErrMalformedNumeric, s, err)
	}
	return d, nil
}

// parseStrict rejects values time.Parse would otherwise accept loosely,
// such as a single-digit hour.
func parseStrict(layout, value string) (time.Time, error) {
	t, err := time.Parse(layout, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrMalformedTemporal, value)
	}
	if t.Format(layout) != value {
		return time.Time{}, fmt.Errorf("%w: %q", ErrMalformedTemporal, value)
	}
	return t, nil
}
