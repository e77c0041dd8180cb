package schema

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/jonathan/cv-tailor/internal/types"
)

var (
	yearMonthPattern = regexp.MustCompile(`^(\d{4})[-/.](\d{1,2})`)
	yearOnlyPattern  = regexp.MustCompile(`^\d{4}$`)
	monthYearPattern = regexp.MustCompile(`(?i)^([a-z]+)\.?\s+(\d{4})$`)
)

var monthNames = map[string]int{
	"jan": 1, "january": 1,
	"feb": 2, "february": 2,
	"mar": 3, "march": 3,
	"apr": 4, "april": 4,
	"may": 5,
	"jun": 6, "june": 6,
	"jul": 7, "july": 7,
	"aug": 8, "august": 8,
	"sep": 9, "sept": 9, "september": 9,
	"oct": 10, "october": 10,
	"nov": 11, "november": 11,
	"dec": 12, "december": 12,
}

// NormalizeDate reduces a date string to YYYY-MM granularity. Accepted
// inputs are "2023-06", "2023/6", "2023.06-15", "Jun 2023" and bare years.
// A bare year is kept as-is rather than guessing a month; anything
// unrecognizable is returned trimmed.
func NormalizeDate(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}

	if m := yearMonthPattern.FindStringSubmatch(s); m != nil {
		month, err := strconv.Atoi(m[2])
		if err == nil && month >= 1 && month <= 12 {
			return fmt.Sprintf("%s-%02d", m[1], month)
		}
	}
	if m := monthYearPattern.FindStringSubmatch(s); m != nil {
		if month, ok := monthNames[strings.ToLower(m[1])]; ok {
			return fmt.Sprintf("%s-%02d", m[2], month)
		}
	}
	if yearOnlyPattern.MatchString(s) {
		return s
	}
	return s
}

// NormalizeEndDate is NormalizeDate plus open-ended handling: blank,
// "present", "current", "now" and "ongoing" all become the explicit open
// marker. A concrete end date is never invented.
func NormalizeEndDate(s string) string {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", types.EndDateOpen, "current", "now", "ongoing", "null":
		return types.EndDateOpen
	default:
		return NormalizeDate(s)
	}
}
