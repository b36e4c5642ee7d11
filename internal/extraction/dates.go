package extraction

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

const monthName = `(?:jan(?:uary)?|feb(?:ruary)?|mar(?:ch)?|apr(?:il)?|may|june?|july?|aug(?:ust)?|sep(?:t(?:ember)?)?|oct(?:ober)?|nov(?:ember)?|dec(?:ember)?)`

// dateToken matches the date shapes seen on invoices:
// 2025-01-15, 15/01/2025, 15.01.25, 15 Jan 2025, 15-Jan-2025, January 15, 2025
var dateToken = `(\b\d{4}-\d{1,2}-\d{1,2}\b` +
	`|\b\d{1,2}[/.\-]\d{1,2}[/.\-](?:\d{2}|\d{4})\b` +
	`|\b\d{1,2}(?:st|nd|rd|th)?[ \t\-]+(?i:` + monthName + `)\.?,?[ \t\-]+(?:\d{2}|\d{4})\b` +
	`|\b(?i:` + monthName + `)\.?[ \t]+\d{1,2}(?:st|nd|rd|th)?,?[ \t]+\d{4}\b)`

var invoiceDateRules = Cascade{
	{Name: "date-and-time", Pattern: regexp.MustCompile(`(?i)Date[ \t]+and[ \t]+Time[ \t]*:?[ \t]*` + dateToken)},
	{Name: "invoice-date", Pattern: regexp.MustCompile(`(?i)(?:Invoice|Inv\.?|Bill)[ \t]*Date[ \t]*:?[ \t]*` + dateToken)},
	{Name: "date-line", Pattern: regexp.MustCompile(`(?im)^[ \t]*(?:Order[ \t]+)?Date[ \t]*:?[ \t]*` + dateToken)},
	{Name: "any-date", Pattern: regexp.MustCompile(dateToken)},
}

var dueDateRules = Cascade{
	{Name: "due-date", Pattern: regexp.MustCompile(`(?i)(?:Due[ \t]+Date|Payment[ \t]+Due|Due[ \t]+(?:By|On))[ \t]*:?[ \t]*` + dateToken)},
}

var (
	reNumericYMD  = regexp.MustCompile(`^(\d{4})-(\d{1,2})-(\d{1,2})$`)
	reNumericDate = regexp.MustCompile(`^(\d{1,2})[/.\-](\d{1,2})[/.\-](\d{2}|\d{4})$`)
	reDayMonth    = regexp.MustCompile(`^(\d{1,2})(?:st|nd|rd|th)?[ \t\-]+([A-Za-z]+)\.?,?[ \t\-]+(\d{2}|\d{4})$`)
	reMonthDay    = regexp.MustCompile(`^([A-Za-z]+)\.?[ \t]+(\d{1,2})(?:st|nd|rd|th)?,?[ \t]+(\d{4})$`)
)

var months = map[string]time.Month{
	"jan": time.January, "feb": time.February, "mar": time.March,
	"apr": time.April, "may": time.May, "jun": time.June,
	"jul": time.July, "aug": time.August, "sep": time.September,
	"oct": time.October, "nov": time.November, "dec": time.December,
}

// ParseDate resolves a matched date substring to a calendar date. Numeric
// dates are read day-first when dayFirst is set, and the order flips when
// the configured reading is impossible (e.g. 01/15/2025 read day-first).
func ParseDate(raw string, dayFirst bool) Result[Date] {
	s := strings.TrimSpace(raw)
	if s == "" {
		return missing[Date]()
	}

	var year, month, day int
	switch {
	case reNumericYMD.MatchString(s):
		m := reNumericYMD.FindStringSubmatch(s)
		year, month, day = atoi(m[1]), atoi(m[2]), atoi(m[3])
	case reNumericDate.MatchString(s):
		m := reNumericDate.FindStringSubmatch(s)
		a, b := atoi(m[1]), atoi(m[2])
		year = atoi(m[3])
		if dayFirst {
			day, month = a, b
		} else {
			month, day = a, b
		}
		if month > 12 && day <= 12 {
			day, month = month, day
		}
	case reDayMonth.MatchString(s):
		m := reDayMonth.FindStringSubmatch(s)
		day, year = atoi(m[1]), atoi(m[3])
		month = monthNumber(m[2])
	case reMonthDay.MatchString(s):
		m := reMonthDay.FindStringSubmatch(s)
		month = monthNumber(m[1])
		day, year = atoi(m[2]), atoi(m[3])
	default:
		return invalid[Date](raw)
	}

	if year < 100 {
		year += 2000
	}
	if month < 1 || month > 12 || day < 1 || day > 31 {
		return invalid[Date](raw)
	}
	d := NewDate(year, time.Month(month), day)
	// time.Date normalizes overflow (31 Feb -> 3 Mar); reject that
	if d.Day() != day || int(d.Month()) != month {
		return invalid[Date](raw)
	}
	return parsed(raw, d)
}

func monthNumber(name string) int {
	name = strings.ToLower(name)
	if len(name) < 3 {
		return 0
	}
	return int(months[name[:3]])
}

func atoi(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}
