package risk

import (
	"sort"
	"strconv"
	"strings"
)

// Reading is an optional vital-sign value. The zero value is an absent reading.
type Reading struct {
	value float64
	ok    bool
}

// Some returns a present reading.
func Some(v float64) Reading {
	return Reading{value: v, ok: true}
}

// FromPtr converts a nullable column value into a reading.
func FromPtr(p *float64) Reading {
	if p == nil {
		return Reading{}
	}
	return Some(*p)
}

// Get returns the value and whether it is present.
func (r Reading) Get() (float64, bool) {
	return r.value, r.ok
}

func (r Reading) Present() bool {
	return r.ok
}

// Ptr returns a copy of the value suitable for a nullable column, or nil.
func (r Reading) Ptr() *float64 {
	if !r.ok {
		return nil
	}
	v := r.value
	return &v
}

// String renders the reading as given, without padding or rounding.
func (r Reading) String() string {
	if !r.ok {
		return "--"
	}
	return strconv.FormatFloat(r.value, 'f', -1, 64)
}

// Vitals is a single set of vital-sign readings taken at one time. Units are
// mmHg for blood pressure, bpm for heart rate, degrees Celsius for
// temperature and percent for SpO2. No reading is mandatory.
type Vitals struct {
	Systolic    Reading
	Diastolic   Reading
	HeartRate   Reading
	Temperature Reading
	SpO2        Reading
}

// Empty reports whether no reading is present.
func (v Vitals) Empty() bool {
	return !v.Systolic.ok && !v.Diastolic.ok && !v.HeartRate.ok && !v.Temperature.ok && !v.SpO2.ok
}

// SymptomSet is an unordered set of symptom tags.
type SymptomSet struct {
	tags map[string]struct{}
}

// NewSymptomSet builds a set from tags. Blank tags are dropped and
// duplicates collapse.
func NewSymptomSet(tags ...string) SymptomSet {
	s := SymptomSet{tags: make(map[string]struct{}, len(tags))}
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		s.tags[t] = struct{}{}
	}
	return s
}

func (s SymptomSet) Has(tag string) bool {
	_, ok := s.tags[tag]
	return ok
}

func (s SymptomSet) Len() int {
	return len(s.tags)
}

// Tags returns the tags in sorted order.
func (s SymptomSet) Tags() []string {
	out := make([]string, 0, len(s.tags))
	for t := range s.tags {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}
