package feed

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"
)

var (
	// currencySymbolRe matches currency symbols the legacy feed is known to
	// prepend to amounts.
	currencySymbolRe = regexp.MustCompile(`[$€£¥\s]`)

	// amountRe accepts plain decimals and decimals with well-formed thousands
	// separators. Anything else (notably European decimal commas such as
	// "120,50") is rejected rather than silently mis-parsed.
	amountRe = regexp.MustCompile(`^-?(\d{1,3}(,\d{3})+|\d+)(\.\d+)?$`)

	refSuffixRe  = regexp.MustCompile(`\*\d+`)
	whitespaceRe = regexp.MustCompile(`\s+`)

	isoDateRe     = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	slashDateRe   = regexp.MustCompile(`^\d{4}/\d{2}/\d{2}$`)
	verboseDateRe = regexp.MustCompile(`^([A-Za-z]+)\s+(\d{1,2}),?\s+(\d{4})$`)
)

var monthsByName = map[string]time.Month{
	"jan": time.January, "january": time.January,
	"feb": time.February, "february": time.February,
	"mar": time.March, "march": time.March,
	"apr": time.April, "april": time.April,
	"may": time.May,
	"jun": time.June, "june": time.June,
	"jul": time.July, "july": time.July,
	"aug": time.August, "august": time.August,
	"sep": time.September, "september": time.September,
	"oct": time.October, "october": time.October,
	"nov": time.November, "november": time.November,
	"dec": time.December, "december": time.December,
}

// fallbackLayouts is the last-resort ladder for date strings that match none
// of the known feed formats.
var fallbackLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"02 Jan 2006",
	"01/02/2006",
}

// Sanitize normalizes one raw record into a typed candidate Record.
// Failures are record-level: the caller records them and moves on to the next
// record instead of aborting the batch.
func Sanitize(raw RawRecord) (*Record, error) {
	amount, err := sanitizeAmount(raw.Amount)
	if err != nil {
		return nil, err
	}

	date, err := parseDate(raw.Date)
	if err != nil {
		return nil, err
	}

	return &Record{
		TxnID:          strings.TrimSpace(raw.TxnID),
		Description:    sanitizeDescription(raw.Description),
		RawDescription: raw.Description,
		Amount:         amount,
		Currency:       strings.ToUpper(strings.TrimSpace(raw.Currency)),
		Date:           date,
	}, nil
}

// sanitizeAmount strips currency symbols and whitespace, validates separator
// usage and parses the residue as a fixed-point decimal rounded to 2 places.
// Examples: "$5.50" -> 5.50, "1,200.00" -> 1200.00.
func sanitizeAmount(amount string) (decimal.Decimal, error) {
	cleaned := currencySymbolRe.ReplaceAllString(amount, "")

	if !amountRe.MatchString(cleaned) {
		return decimal.Decimal{}, fmt.Errorf("invalid amount format: %q", amount)
	}

	parsed, err := decimal.NewFromString(strings.ReplaceAll(cleaned, ",", ""))
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("invalid amount format: %q", amount)
	}

	return parsed.Round(2), nil
}

// sanitizeDescription cleans up messy merchant strings.
// Example: "AMZN Mktp US*123" -> "AMZN Mktp US".
func sanitizeDescription(description string) string {
	s := refSuffixRe.ReplaceAllString(description, "")
	s = whitespaceRe.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// parseDate accepts, in priority order: ISO "2006-01-02", the slash form
// "2006/01/02", a verbose form like "Oct 2, 2023" (full or abbreviated month,
// any case), and finally a short list of generic layouts.
func parseDate(dateString string) (civil.Date, error) {
	cleaned := strings.TrimSpace(dateString)

	if isoDateRe.MatchString(cleaned) {
		return parseCivil(cleaned, dateString)
	}

	if slashDateRe.MatchString(cleaned) {
		return parseCivil(strings.ReplaceAll(cleaned, "/", "-"), dateString)
	}

	if m := verboseDateRe.FindStringSubmatch(cleaned); m != nil {
		month, ok := monthsByName[strings.ToLower(m[1])]
		if ok {
			day, _ := strconv.Atoi(m[2])
			year, _ := strconv.Atoi(m[3])
			t := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
			// time.Date normalizes out-of-range days (Feb 30 -> Mar 2), so
			// verify the components survived.
			if t.Day() != day || t.Month() != month || t.Year() != year {
				return civil.Date{}, fmt.Errorf("invalid date format: %q", dateString)
			}
			return civil.DateOf(t), nil
		}
	}

	for _, layout := range fallbackLayouts {
		if t, err := time.Parse(layout, cleaned); err == nil {
			return civil.DateOf(t), nil
		}
	}

	return civil.Date{}, fmt.Errorf("invalid date format: %q", dateString)
}

func parseCivil(iso, original string) (civil.Date, error) {
	d, err := civil.ParseDate(iso)
	if err != nil {
		return civil.Date{}, fmt.Errorf("invalid date format: %q", original)
	}
	return d, nil
}
