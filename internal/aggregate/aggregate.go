// Package aggregate derives grouped counts, filtered subsets and percentages
// from record collections.
package aggregate

import (
	"encoding/json"
	"math"
	"strings"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Unassigned buckets records whose grouping field is empty.
const Unassigned = "Unassigned"

// Counts maps each distinct key to its occurrence count, preserving the order
// in which keys were first seen. The zero value is an empty set of counts.
type Counts struct {
	m *orderedmap.OrderedMap[string, int]
}

// NewCounts returns an empty Counts.
func NewCounts() Counts {
	return Counts{m: orderedmap.New[string, int]()}
}

// Add increments key by one.
func (c *Counts) Add(key string) {
	if c.m == nil {
		c.m = orderedmap.New[string, int]()
	}
	n, _ := c.m.Get(key)
	c.m.Set(key, n+1)
}

// Get returns the count for key, or 0.
func (c Counts) Get(key string) int {
	if c.m == nil {
		return 0
	}
	n, _ := c.m.Get(key)
	return n
}

// Len returns the number of distinct keys.
func (c Counts) Len() int {
	if c.m == nil {
		return 0
	}
	return c.m.Len()
}

// Total returns the sum of all counts.
func (c Counts) Total() int {
	total := 0
	c.Each(func(_ string, n int) {
		total += n
	})
	return total
}

// Keys returns keys in first-seen order.
func (c Counts) Keys() []string {
	keys := make([]string, 0, c.Len())
	c.Each(func(k string, _ int) {
		keys = append(keys, k)
	})
	return keys
}

// Each calls fn for each key in first-seen order.
func (c Counts) Each(fn func(key string, count int)) {
	if c.m == nil {
		return
	}
	for pair := c.m.Oldest(); pair != nil; pair = pair.Next() {
		fn(pair.Key, pair.Value)
	}
}

// MarshalJSON encodes the counts as a JSON object in first-seen key order.
func (c Counts) MarshalJSON() ([]byte, error) {
	if c.m == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(c.m)
}

// GroupBy counts items by the string returned from field. Empty values are
// counted under Unassigned.
func GroupBy[T any](items []T, field func(T) string) Counts {
	counts := NewCounts()
	for _, item := range items {
		counts.Add(bucket(field(item)))
	}
	return counts
}

func bucket(v string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return Unassigned
	}
	return v
}

// Filter returns a new slice holding the items for which keep returns true.
// The input is never modified.
func Filter[T any](items []T, keep func(T) bool) []T {
	out := make([]T, 0, len(items))
	for _, item := range items {
		if keep(item) {
			out = append(out, item)
		}
	}
	return out
}

// Count returns how many items satisfy match.
func Count[T any](items []T, match func(T) bool) int {
	n := 0
	for _, item := range items {
		if match(item) {
			n++
		}
	}
	return n
}

// Ratio returns round(numerator/denominator*100), or 0 when denominator is not
// positive.
func Ratio(numerator, denominator int) int {
	if denominator <= 0 {
		return 0
	}
	return int(math.Round(float64(numerator) / float64(denominator) * 100))
}

// Change returns the percentage change from previous to current. A previous
// value of zero yields 100 when current is positive and 0 otherwise.
func Change(current, previous int) int {
	if previous <= 0 {
		if current > 0 {
			return 100
		}
		return 0
	}
	return int(math.Round(float64(current-previous) / float64(previous) * 100))
}

// Mean returns the rounded arithmetic mean of values, or 0 for an empty input.
func Mean(values []int) int {
	if len(values) == 0 {
		return 0
	}
	sum := 0
	for _, v := range values {
		sum += v
	}
	return int(math.Round(float64(sum) / float64(len(values))))
}
