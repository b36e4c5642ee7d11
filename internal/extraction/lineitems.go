package extraction

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	minRowLength  = 10
	minNameLength = 4
	maxNameWords  = 7
)

// tableState is the position of the line scanner relative to the products table
type tableState int

const (
	outsideTable tableState = iota
	insideTable
	tableDone
)

var (
	reTableHeader  = regexp.MustCompile(`(?i)\bItem[ \t]+(?:Code|Description)\b|^[ \t]*(?:Products?|Items?)[ \t]*:?[ \t]*$|\b(?:Description|Products?|Particulars)\b.*\b(?:Qty|Quantity)\b`)
	reProductLabel = regexp.MustCompile(`(?i)\bProducts?\b`)
	reColumnLabel  = regexp.MustCompile(`(?i)\b(?:Price|Amount|Units?|Rate|Qty|Quantity)\b`)
	reTableTrailer = regexp.MustCompile(`(?i)\b(?:Sub[ \t\-]?Total|Total|Tax|Payment|Shipping|Summary)`)
	reNumericToken = regexp.MustCompile(`^(?:INR|Rs\.?|₹|\$|€|£|¥)?([0-9][0-9,]*(?:\.[0-9]+)?)$`)
	reModelCode    = regexp.MustCompile(`^[A-Za-z]{2,}[\-/]?[0-9]{2,}[A-Za-z0-9\-/]*$`)
)

func isTableTrailer(line string) bool { return reTableTrailer.MatchString(line) }

// isTableHeader also accepts any line naming a product column, unless it
// reads like an item row: numeric cells and no second column label.
func isTableHeader(line string) bool {
	if reTableHeader.MatchString(line) {
		return true
	}
	if !reProductLabel.MatchString(line) {
		return false
	}
	_, numbers := tokenizeRow(line)
	return len(numbers) == 0 || reColumnLabel.MatchString(line)
}

// next moves the scanner for one line. A header line always (re)enters the
// table; a trailer line inside the table ends the scan.
func (s tableState) next(line string) tableState {
	switch {
	case s == tableDone:
		return tableDone
	case isTableHeader(line):
		return insideTable
	case s == insideTable && isTableTrailer(line):
		return tableDone
	default:
		return s
	}
}

// ResolveLineItems reconstructs up to MaxLineItems rows from the products
// region. It does not recover true columns: each row is split into word and
// numeric tokens, which tolerates ragged OCR alignment.
func ResolveLineItems(text string) []LineItem {
	var items []LineItem
	state := outsideTable
	lastWasItem := false

	for _, raw := range strings.Split(text, "\n") {
		line := strings.TrimSpace(raw)
		state = state.next(line)
		if state == tableDone {
			break
		}
		if state != insideTable || isTableHeader(line) {
			lastWasItem = false
			continue
		}
		if utf8.RuneCountInString(line) < minRowLength || !hasAlnum(line) {
			lastWasItem = false
			continue
		}

		words, numbers := tokenizeRow(line)
		if len(numbers) == 0 {
			// a wrapped text-only row describes the item above it
			if lastWasItem && len(items) > 0 {
				items[len(items)-1].Description = joinDescription(items[len(items)-1].Description, line)
			}
			continue
		}

		item, ok := buildLineItem(words, numbers)
		lastWasItem = ok
		if !ok {
			continue
		}
		if len(items) < MaxLineItems {
			items = append(items, item)
		} else {
			lastWasItem = false
		}
	}
	return items
}

func tokenizeRow(line string) (words, numbers []string) {
	for _, tok := range strings.Fields(line) {
		if m := reNumericToken.FindStringSubmatch(tok); m != nil {
			numbers = append(numbers, m[1])
			continue
		}
		words = append(words, tok)
	}
	return words, numbers
}

func buildLineItem(words, numbers []string) (LineItem, bool) {
	nameWords := words
	if len(nameWords) > maxNameWords {
		nameWords = nameWords[:maxNameWords]
	}
	name := strings.Join(strings.Fields(strings.Join(nameWords, " ")), " ")
	if utf8.RuneCountInString(name) < minNameLength {
		return LineItem{}, false
	}

	item := LineItem{ProductName: name}
	if len(words) > 0 && reModelCode.MatchString(words[0]) {
		item.ModelNumber = words[0]
	}
	if q, err := strconv.ParseFloat(strings.ReplaceAll(numbers[0], ",", ""), 64); err == nil {
		item.Quantity = &q
	}
	if len(numbers) >= 2 {
		if total := ParseAmount(numbers[len(numbers)-1]); total.Ok() {
			item.TotalPrice = nullDecimal(total.Value)
		}
	}
	if len(numbers) >= 3 {
		if unit := ParseAmount(numbers[len(numbers)-2]); unit.Ok() {
			item.UnitPrice = nullDecimal(unit.Value)
		}
	}
	return item, true
}

func joinDescription(existing, line string) string {
	if existing == "" {
		return line
	}
	return existing + " " + line
}

func hasAlnum(s string) bool {
	return strings.IndexFunc(s, func(r rune) bool {
		return unicode.IsLetter(r) || unicode.IsDigit(r)
	}) >= 0
}
