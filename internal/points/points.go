// Package points scores purchase receipts.
//
// An Engine runs an ordered list of independent rules over a receipt and sums
// their contributions. Scoring is a pure function of its input: the engine
// keeps no state between calls and is safe for concurrent use.
package points

import (
	"errors"
	"fmt"
)

var (
	// ErrMalformedNumeric is returned when the total or an item price is not
	// a non-negative amount with exactly two decimal places.
	ErrMalformedNumeric = errors.New("malformed numeric value")

	// ErrMalformedTemporal is returned when the purchase date is not
	// YYYY-MM-DD or the purchase time is not HH:MM.
	ErrMalformedTemporal = errors.New("malformed date or time")
)

// Receipt is the input to the scoring engine
type Receipt struct {
	Retailer     string `json:"retailer"`
	PurchaseDate string `json:"purchaseDate"`
	PurchaseTime string `json:"purchaseTime"`
	Items        []Item `json:"items"`
	Total        string `json:"total"`
}

// Item is a single line on a receipt
type Item struct {
	ShortDescription string `json:"shortDescription"`
	Price            string `json:"price"`
}

// Rule is one additive scoring criterion. Eval must not retain or modify
// the purchase it is given.
type Rule struct {
	Name string
	Eval func(p *Purchase) int
}

// Contribution is the number of points a single rule awarded
type Contribution struct {
	Rule   string `json:"rule"`
	Points int    `json:"points"`
}

// Engine evaluates a fixed list of rules
type Engine struct {
	rules []Rule
}

// NewEngine creates an Engine over the given rules, or DefaultRules when none
// are given.
func NewEngine(rules ...Rule) *Engine {
	if len(rules) == 0 {
		rules = DefaultRules()
	}
	return &Engine{rules: rules}
}

// Rules returns a copy of the engine's rule list
func (e *Engine) Rules() []Rule {
	out := make([]Rule, len(e.rules))
	copy(out, e.rules)
	return out
}

// Score returns the total points for a receipt
func (e *Engine) Score(r Receipt) (int, error) {
	breakdown, err := e.Breakdown(r)
	if err != nil {
		return 0, err
	}
	return Sum(breakdown), nil
}

// Breakdown returns the points each rule awarded, in rule order. The receipt
// is parsed once up front; a parse failure aborts the whole evaluation.
func (e *Engine) Breakdown(r Receipt) ([]Contribution, error) {
	p, err := Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parsing receipt: %w", err)
	}

	contributions := make([]Contribution, 0, len(e.rules))
	for _, rule := range e.rules {
		contributions = append(contributions, Contribution{
			Rule:   rule.Name,
			Points: rule.Eval(p),
		})
	}
	return contributions, nil
}

// Sum adds up a breakdown
func Sum(contributions []Contribution) int {
	total := 0
	for _, c := range contributions {
		total += c.Points
	}
	return total
}
