package extraction

import (
	"regexp"
	"strings"
)

// Rule is one candidate pattern for a field. The first capture group is the
// candidate value; Accept, when set, can veto it.
type Rule struct {
	Name    string
	Pattern *regexp.Regexp
	Accept  func(value string) bool
}

// Cascade is a priority-ordered list of rules. Order encodes domain
// knowledge: the most specific pattern comes first.
type Cascade []Rule

// Match is the outcome of running a cascade over a text
type Match struct {
	Value string
	Rule  string
	Found bool
}

// Find returns the first accepted candidate, trying rules top to bottom and
// each rule's matches left to right.
func (c Cascade) Find(text string) Match {
	for _, rule := range c {
		for _, sub := range rule.Pattern.FindAllStringSubmatch(text, -1) {
			if len(sub) < 2 {
				continue
			}
			value := strings.TrimSpace(sub[1])
			if value == "" {
				continue
			}
			if rule.Accept != nil && !rule.Accept(value) {
				continue
			}
			return Match{Value: value, Rule: rule.Name, Found: true}
		}
	}
	return Match{}
}

// ResultState separates "not in the text" from "in the text but unusable"
type ResultState int

const (
	Missing ResultState = iota
	Parsed
	Invalid
)

func (s ResultState) String() string {
	switch s {
	case Parsed:
		return "parsed"
	case Invalid:
		return "invalid"
	default:
		return "missing"
	}
}

// Result carries a typed field value together with how it was obtained
type Result[T any] struct {
	Value T
	Raw   string
	State ResultState
}

// Ok reports whether the value was matched and converted
func (r Result[T]) Ok() bool { return r.State == Parsed }

func missing[T any]() Result[T] { return Result[T]{State: Missing} }

func parsed[T any](raw string, v T) Result[T] {
	return Result[T]{Value: v, Raw: raw, State: Parsed}
}

func invalid[T any](raw string) Result[T] {
	return Result[T]{Raw: raw, State: Invalid}
}

// rejectWords builds a validator refusing any of the given tokens
func rejectWords(words ...string) func(string) bool {
	reserved := make(map[string]struct{}, len(words))
	for _, w := range words {
		reserved[strings.ToUpper(w)] = struct{}{}
	}
	return func(v string) bool {
		_, bad := reserved[strings.ToUpper(v)]
		return !bad
	}
}
