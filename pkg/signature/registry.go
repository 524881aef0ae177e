package signature

import (
	"bytes"
	"errors"
	"fmt"
	"sort"
)

// minReadSize is the smallest prefix callers should read, even when every
// registered pattern is shorter.
const minReadSize = 16

var (
	// ErrConflictingPattern is returned when one pattern maps to two formats.
	ErrConflictingPattern = errors.New("signature pattern registered for conflicting formats")
	// ErrEmptyPattern is returned for a rule without pattern bytes.
	ErrEmptyPattern = errors.New("signature pattern is empty")
)

// Registry is an immutable, ordered set of signature rules.
//
// Lookups try rules by descending pattern length; rules of equal length keep
// their registration order. A Registry is safe for concurrent use.
type Registry struct {
	rules  []Rule
	maxLen int
}

// New builds a registry from rules in registration order.
//
// Identical duplicates (same pattern, same format) are collapsed. A pattern
// registered for two different formats fails with ErrConflictingPattern.
func New(rules ...Rule) (*Registry, error) {
	seen := make(map[string]Rule, len(rules))
	kept := make([]Rule, 0, len(rules))
	maxLen := minReadSize

	for i, r := range rules {
		if len(r.Pattern) == 0 {
			return nil, fmt.Errorf("rule %d (%s): %w", i, r.Format, ErrEmptyPattern)
		}
		key := string(r.Pattern)
		if prev, ok := seen[key]; ok {
			if prev.Format != r.Format || prev.Kind != r.Kind {
				return nil, fmt.Errorf("pattern % X: %s vs %s: %w", r.Pattern, prev.Format, r.Format, ErrConflictingPattern)
			}
			continue
		}

		r.Pattern = bytes.Clone(r.Pattern)
		seen[key] = r
		kept = append(kept, r)
		if len(r.Pattern) > maxLen {
			maxLen = len(r.Pattern)
		}
	}

	sort.SliceStable(kept, func(i, j int) bool {
		return len(kept[i].Pattern) > len(kept[j].Pattern)
	})

	return &Registry{rules: kept, maxLen: maxLen}, nil
}

// MaxPatternLength returns how many leading bytes a caller must read so that
// every rule can match.
func (r *Registry) MaxPatternLength() int {
	return r.maxLen
}

// Lookup returns the most specific rule whose pattern prefixes b.
func (r *Registry) Lookup(b []byte) (Match, bool) {
	for _, rule := range r.rules {
		if bytes.HasPrefix(b, rule.Pattern) {
			return Match{Format: rule.Format, Kind: rule.Kind}, true
		}
	}
	return Match{}, false
}

// Rules returns a copy of the rules in precedence order.
func (r *Registry) Rules() []Rule {
	out := make([]Rule, len(r.rules))
	for i, rule := range r.rules {
		rule.Pattern = bytes.Clone(rule.Pattern)
		out[i] = rule
	}
	return out
}

// Len returns the number of distinct rules.
func (r *Registry) Len() int {
	return len(r.rules)
}
