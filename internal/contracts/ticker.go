package contracts

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	tickerPattern = regexp.MustCompile(`^[A-Za-z0-9.\-]+$`)
	// a predict date is a year, optionally followed by month and day
	datePattern = regexp.MustCompile(`^[0-9]{4}(-[0-9]{0,2}(-[0-9]{0,2})?)?$`)
)

// NormalizeTicker trims, drops a leading "$" and lower-cases the ticker.
// The lower-case form names task IDs, object keys, tables and export files.
// ⭐ SSOT: 종목 코드 정규화는 여기서만
func NormalizeTicker(raw string) (string, error) {
	t := strings.ToLower(strings.TrimPrefix(strings.TrimSpace(raw), "$"))
	if t == "" {
		return "", fmt.Errorf("ticker is required: %w", ErrInvalidInput)
	}
	if !tickerPattern.MatchString(t) || t == "." || t == ".." {
		return "", fmt.Errorf("ticker %q: %w", raw, ErrInvalidInput)
	}
	return t, nil
}

// NormalizeDate trims the predict date and checks its shape
func NormalizeDate(raw string) (string, error) {
	d := strings.TrimSpace(raw)
	if d == "" {
		return "", fmt.Errorf("date is required: %w", ErrInvalidInput)
	}
	if !datePattern.MatchString(d) {
		return "", fmt.Errorf("date %q: %w", raw, ErrInvalidInput)
	}
	return d, nil
}
