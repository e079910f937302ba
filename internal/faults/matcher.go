// internal/faults/matcher.go
package faults

import "strings"

// Class buckets a free-text backend error into the handling taxonomy.
// Capacity failures pause the long-running operation and point the user at a
// remediation (reduce resolution / increase context); permission failures
// dispatch to the platform settings surface; everything else is generic.
type Class string

const (
	ClassGeneric    Class = "generic"
	ClassCapacity   Class = "capacity"
	ClassPermission Class = "permission"
)

// Matcher maps known error phrasings to a class by case-insensitive
// substring. Substring matching is fragile by nature, so matchers are data,
// not control flow: new backend phrasings are added here without touching
// the handlers.
type Matcher struct {
	Class      Class
	Substrings []string
}

// Classifier holds an ordered matcher list; first match wins.
type Classifier struct {
	matchers []Matcher
}

// NewClassifier returns a classifier preloaded with the phrasings the
// backend is known to emit today.
func NewClassifier() *Classifier {
	return &Classifier{matchers: []Matcher{
		{Class: ClassCapacity, Substrings: []string{
			"context window",
			"context length",
			"maximum context",
			"token limit",
			"tokens exceed",
		}},
		{Class: ClassPermission, Substrings: []string{
			"permission denied",
			"operation not permitted",
			"access is denied",
		}},
	}}
}

// Add registers an extra matcher, tried after the built-in ones.
func (c *Classifier) Add(m Matcher) {
	c.matchers = append(c.matchers, m)
}

// Classify buckets an error message.
func (c *Classifier) Classify(message string) Class {
	lower := strings.ToLower(message)
	for _, m := range c.matchers {
		for _, sub := range m.Substrings {
			if strings.Contains(lower, strings.ToLower(sub)) {
				return m.Class
			}
		}
	}
	return ClassGeneric
}
