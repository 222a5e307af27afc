package receipt

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/zombor/receipt-processor/internal/points"
)

// ErrInvalidReceipt is returned when a receipt fails shape validation
var ErrInvalidReceipt = errors.New("invalid receipt")

var (
	datePattern  = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	timePattern  = regexp.MustCompile(`^\d{2}:\d{2}$`)
	moneyPattern = regexp.MustCompile(`^\d+\.\d{2}$`)
)

// Validate checks that a receipt is well formed before it is scored
func Validate(r points.Receipt) error {
	if strings.TrimSpace(r.Retailer) == "" {
		return invalid("retailer", "must not be blank")
	}

	if !datePattern.MatchString(r.PurchaseDate) {
		return invalid("purchaseDate", "must be YYYY-MM-DD")
	}
	if _, err := time.Parse("2006-01-02", r.PurchaseDate); err != nil {
		return invalid("purchaseDate", "is not a calendar date")
	}

	if !timePattern.MatchString(r.PurchaseTime) {
		return invalid("purchaseTime", "must be HH:MM")
	}
	if _, err := time.Parse("15:04", r.PurchaseTime); err != nil {
		return invalid("purchaseTime", "is not a time of day")
	}

	if !moneyPattern.MatchString(r.Total) {
		return invalid("total", "must be an amount with two decimal places")
	}

	for i, item := range r.Items {
		if strings.TrimSpace(item.ShortDescription) == "" {
			return invalid(fmt.Sprintf("items[%d].shortDescription", i), "must not be blank")
		}
		if !moneyPattern.MatchString(item.Price) {
			return invalid(fmt.Sprintf("items[%d].price", i), "must be an amount with two decimal places")
		}
	}

	return nil
}

func invalid(field, reason string) error {
	return fmt.Errorf("%w: %s %s", ErrInvalidReceipt, field, reason)
}
