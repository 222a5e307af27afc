package scanning

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Amount is a money value that a model may return either as a JSON string or
// a JSON number. It is kept as text with two decimal places.
type Amount string

// UnmarshalJSON accepts "12.5", 12.5 or null
func (a *Amount) UnmarshalJSON(b []byte) error {
	raw := strings.TrimSpace(string(b))
	if raw == "null" {
		*a = ""
		return nil
	}
	if strings.HasPrefix(raw, `"`) {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		raw = s
	}
	*a = Amount(normalizeAmount(raw))
	return nil
}

// normalizeAmount strips currency decoration and fixes the scale at two
// decimals. Negative or unparseable values are returned as given.
func normalizeAmount(s string) string {
	s = strings.TrimSpace(s)
	cleaned := strings.NewReplacer("$", "", ",", "", " ", "").Replace(s)
	d, err := decimal.NewFromString(cleaned)
	if err != nil || d.IsNegative() {
		return s
	}
	return d.StringFixed(2)
}

var dateFormats = []string{
	"2006-01-02",
	"2006/01/02",
	"01/02/2006",
	"1/2/2006",
	"01/02/06",
	"Jan 2, 2006",
	"January 2, 2006",
}

// normalizeDate converts common receipt date formats to YYYY-MM-DD
func normalizeDate(s string) string {
	s = strings.TrimSpace(s)
	for _, format := range dateFormats {
		if d, err := time.Parse(format, s); err == nil {
			return d.Format("2006-01-02")
		}
	}
	return s
}

var timeFormats = []string{
	"15:04",
	"15:04:05",
	"3:04 PM",
	"3:04PM",
	"3:04:05 PM",
	"3:04 pm",
	"3:04pm",
}

// normalizeTime converts common receipt time formats to 24-hour HH:MM
func normalizeTime(s string) string {
	s = strings.TrimSpace(s)
	for _, format := range timeFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t.Format("15:04")
		}
	}
	return s
}

// parseReceiptJSON parses the JSON object in a model response
func parseReceiptJSON(text string) (*ReceiptData, error) {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSpace(text)

	// Find the JSON object boundaries - look for first { and last }
	startIdx := strings.Index(text, "{")
	if startIdx == -1 {
		return nil, fmt.Errorf("no JSON object found in response")
	}
	endIdx := strings.LastIndex(text, "}")
	if endIdx < startIdx {
		return nil, fmt.Errorf("invalid JSON object in response")
	}
	text = text[startIdx : endIdx+1]

	var data ReceiptData
	if err := json.Unmarshal([]byte(text), &data); err != nil {
		return nil, fmt.Errorf("unmarshaling json: %w", err)
	}

	data.Retailer = strings.TrimSpace(data.Retailer)
	data.PurchaseDate = normalizeDate(data.PurchaseDate)
	data.PurchaseTime = normalizeTime(data.PurchaseTime)
	if data.Items == nil {
		data.Items = []ItemData{}
	}

	return &data, nil
}
