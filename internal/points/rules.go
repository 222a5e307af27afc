package points

import (
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

// Rule names, as reported in a breakdown
const (
	RuleRetailerName     = "retailer_alphanumerics"
	RuleRoundDollarTotal = "round_dollar_total"
	RuleQuarterTotal     = "quarter_multiple_total"
	RuleItemPairs        = "item_pairs"
	RuleItemDescription  = "item_description_length"
	RuleOddDay           = "odd_purchase_day"
	RuleAfternoon        = "afternoon_purchase"
)

var (
	quarter        = decimal.New(25, -2)
	descriptionPct = decimal.New(2, -1)
)

// DefaultRules returns the seven standard scoring rules
func DefaultRules() []Rule {
	return []Rule{
		{Name: RuleRetailerName, Eval: RetailerAlphanumerics},
		{Name: RuleRoundDollarTotal, Eval: RoundDollarTotal},
		{Name: RuleQuarterTotal, Eval: QuarterMultipleTotal},
		{Name: RuleItemPairs, Eval: ItemPairs},
		{Name: RuleItemDescription, Eval: ItemDescriptionLength},
		{Name: RuleOddDay, Eval: OddPurchaseDay},
		{Name: RuleAfternoon, Eval: AfternoonPurchase},
	}
}

// RetailerAlphanumerics awards one point per ASCII letter or digit in the
// retailer name.
func RetailerAlphanumerics(p *Purchase) int {
	n := 0
	for _, c := range p.Receipt.Retailer {
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
			n++
		}
	}
	return n
}

// RoundDollarTotal awards 50 points when the total has no cents
func RoundDollarTotal(p *Purchase) int {
	if p.Total.Equal(p.Total.Truncate(0)) {
		return 50
	}
	return 0
}

// QuarterMultipleTotal awards 25 points when the total is a multiple of 0.25
func QuarterMultipleTotal(p *Purchase) int {
	if p.Total.Mod(quarter).IsZero() {
		return 25
	}
	return 0
}

// ItemPairs awards 5 points for every two items
func ItemPairs(p *Purchase) int {
	return len(p.Receipt.Items) / 2 * 5
}

// ItemDescriptionLength awards ceil(price * 0.2) for every item whose trimmed
// description length is a positive multiple of 3. An empty description
// earns nothing.
func ItemDescriptionLength(p *Purchase) int {
	total := 0
	for i, item := range p.Receipt.Items {
		n := utf8.RuneCountInString(strings.TrimSpace(item.ShortDescription))
		if n == 0 || n%3 != 0 {
			continue
		}
		total += int(p.Prices[i].Mul(descriptionPct).Ceil().IntPart())
	}
	return total
}

// OddPurchaseDay awards 6 points when the day of month is odd
func OddPurchaseDay(p *Purchase) int {
	if p.Date.Day()%2 == 1 {
		return 6
	}
	return 0
}

// AfternoonPurchase awards 10 points for purchases from 14:00 through 15:59
func AfternoonPurchase(p *Purchase) int {
	minutes := p.Time.Hour()*60 + p.Time.Minute()
	if minutes >= 14*60 && minutes < 16*60 {
		return 10
	}
	return 0
}
