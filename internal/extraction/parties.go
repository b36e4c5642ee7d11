package extraction

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	vendorHeaderLines = 15
	maxAddressLines   = 3
)

var vendorNameRules = Cascade{
	{Name: "entity-upper", Pattern: regexp.MustCompile(`^([A-Z][A-Z \t&,.()\-]+(?:LIMITED|LTD|PRIVATE|PVT|CORPORATION|CORP|INC|COMPANY|CO)\b\.?)`)},
	{Name: "entity-mixed", Pattern: regexp.MustCompile(`((?:[A-Z][a-z]+[ \t]+){1,4}(?:Limited|Ltd|Private|Pvt|Corporation|Corp|Inc|Company|Co)\b\.?)`)},
}

var (
	vendorAnchor = regexp.MustCompile(`(?i)^[ \t]*(?:Sold[ \t]*By|Seller|Vendor)\b[ \t]*:?`)

	customerAnchors = []*regexp.Regexp{
		regexp.MustCompile(`(?i)Customer[ \t]+(?:Billing|Shipping)[ \t]+Address\b[ \t]*:?`),
		regexp.MustCompile(`(?i)\bBill(?:ed)?[ \t]*To\b[ \t]*:?`),
		regexp.MustCompile(`(?i)\bSold[ \t]*To\b[ \t]*:?`),
		regexp.MustCompile(`(?i)\bShip(?:ped)?[ \t]*To\b[ \t]*:?`),
	}

	// lines that carry contact or fiscal labels rather than address text
	reContactLine = regexp.MustCompile(`(?i)^(?:P:|Ph(?:one)?\b|Tel\b|Mobile\b|Contact\b|Fax\b|E-?mail\b|GST(?:IN)?\b|PAN\b|CIN\b|Website\b|www\.)`)
	// lines that open a new section and so end an address block
	reSectionLine = regexp.MustCompile(`(?i)^(?:Invoice|Bill(?:ed)?[ \t]*To|Sold[ \t]*(?:To|By)|Ship(?:ped)?[ \t]*To|Date|Order|Due|Payment|Products?\b|Items?\b|Description|Sub[ \t\-]?Total|Total|Tax\b)`)
)

// ResolveVendor builds the vendor block. The name must come from the
// document header or a seller anchor; without one the whole block is
// discarded.
func ResolveVendor(text string) *VendorInfo {
	lines := splitLines(text)

	name, nameIdx := vendorNameFromHeader(lines)
	if name == "" {
		name, nameIdx = anchoredName(lines, vendorAnchor)
	}
	if name == "" {
		return nil
	}

	return &VendorInfo{
		Name:    name,
		Address: vendorAddress(lines, nameIdx),
		Phone:   Phone(text),
		Email:   Email(text),
		TaxID:   TaxID(text),
	}
}

func vendorNameFromHeader(lines []string) (string, int) {
	limit := len(lines)
	if limit > vendorHeaderLines {
		limit = vendorHeaderLines
	}
	for i := 0; i < limit; i++ {
		line := lines[i]
		if n := utf8.RuneCountInString(line); n <= 5 || n >= 100 {
			continue
		}
		if m := vendorNameRules.Find(line); m.Found {
			return m.Value, i
		}
	}
	return "", -1
}

func vendorAddress(lines []string, nameIdx int) string {
	for i := nameIdx + 1; i < len(lines) && i <= nameIdx+2; i++ {
		line := lines[i]
		if line == "" {
			continue
		}
		if isAddressLine(line) && hasDigit(line) {
			return line
		}
		return ""
	}
	return ""
}

// ResolveCustomer builds the customer block from the first anchor phrase
// that yields a plausible name.
func ResolveCustomer(text string) *CustomerInfo {
	lines := splitLines(text)
	for _, anchor := range customerAnchors {
		name, idx := anchoredName(lines, anchor)
		if name == "" {
			continue
		}
		customer := &CustomerInfo{Name: name}
		var address []string
		for _, line := range followingBlock(lines, idx) {
			if customer.Phone == "" {
				if phone := Phone(line); phone != "" {
					customer.Phone = phone
					continue
				}
			}
			if isAddressLine(line) {
				address = append(address, line)
			}
		}
		customer.Address = strings.Join(address, ", ")
		return customer
	}
	return nil
}

// anchoredName returns the text after the anchor on its own line, or the
// first non-empty line below it, provided it is 3 to 100 characters long.
// Another section header in either place is never a name.
func anchoredName(lines []string, anchor *regexp.Regexp) (string, int) {
	for i, line := range lines {
		loc := anchor.FindStringIndex(line)
		if loc == nil {
			continue
		}
		candidate, idx := strings.TrimSpace(line[loc[1]:]), i
		if candidate == "" || isSectionHeader(candidate) {
			candidate = ""
			for j := i + 1; j < len(lines); j++ {
				if lines[j] != "" {
					candidate, idx = lines[j], j
					break
				}
			}
		}
		if isSectionHeader(candidate) {
			continue
		}
		if n := utf8.RuneCountInString(candidate); n >= 3 && n <= 100 {
			return candidate, idx
		}
	}
	return "", -1
}

func isSectionHeader(line string) bool {
	if reSectionLine.MatchString(line) {
		return true
	}
	for _, anchor := range customerAnchors {
		if anchor.MatchString(line) {
			return true
		}
	}
	return false
}

// followingBlock returns up to maxAddressLines lines after idx, stopping at
// a blank line or the start of another section.
func followingBlock(lines []string, idx int) []string {
	var block []string
	for i := idx + 1; i < len(lines) && len(block) < maxAddressLines; i++ {
		line := lines[i]
		if line == "" || reSectionLine.MatchString(line) {
			break
		}
		block = append(block, line)
	}
	return block
}

func isAddressLine(line string) bool {
	return !reContactLine.MatchString(line) && !strings.Contains(line, "@")
}

func hasDigit(s string) bool {
	return strings.IndexFunc(s, unicode.IsDigit) >= 0
}

// splitLines returns the text's lines with surrounding whitespace trimmed
func splitLines(text string) []string {
	lines := strings.Split(text, "\n")
	for i := range lines {
		lines[i] = strings.TrimSpace(lines[i])
	}
	return lines
}
