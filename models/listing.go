package models

import (
	"strconv"
	"strings"
	"time"
)

// DateLayout is how date-kind fields are persisted.
const DateLayout = "2006-01-02"

// Listing is one row keyed by its listing identifier. Before normalization the
// values are raw scraped text under arbitrary column names; afterwards they are
// canonical cells. An empty string is a missing value.
type Listing struct {
	Key    string
	Values map[string]string
}

// NewListing creates an empty Listing with the given key.
func NewListing(key string) *Listing {
	return &Listing{Key: key, Values: make(map[string]string)}
}

// Get returns the cell for name and whether it holds a value.
func (l *Listing) Get(name string) (string, bool) {
	v, ok := l.Values[name]
	if !ok || v == "" {
		return "", false
	}
	return v, true
}

// Text returns the cell for name, or "" when missing.
func (l *Listing) Text(name string) string {
	return l.Values[name]
}

func (l *Listing) Set(name, value string) {
	l.Values[name] = value
}

// SetMissing stores a missing value under name.
func (l *Listing) SetMissing(name string) {
	l.Values[name] = ""
}

// SetFloat stores v when ok, a missing value otherwise.
func (l *Listing) SetFloat(name string, v float64, ok bool) {
	if !ok {
		l.SetMissing(name)
		return
	}
	l.Values[name] = FormatFloat(v)
}

func (l *Listing) SetBool(name string, v bool) {
	if v {
		l.Values[name] = "True"
		return
	}
	l.Values[name] = "False"
}

// SetDate stores t when ok, a missing value otherwise.
func (l *Listing) SetDate(name string, t time.Time, ok bool) {
	if !ok {
		l.SetMissing(name)
		return
	}
	l.Values[name] = t.Format(DateLayout)
}

// Float parses the cell for name as a number.
func (l *Listing) Float(name string) (float64, bool) {
	v, ok := l.Get(name)
	if !ok {
		return 0, false
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// Bool parses the cell for name as a boolean.
func (l *Listing) Bool(name string) (bool, bool) {
	v, ok := l.Get(name)
	if !ok {
		return false, false
	}
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "true", "1":
		return true, true
	case "false", "0":
		return false, true
	}
	return false, false
}

// Date parses the cell for name as a persisted date. Timestamps carrying a
// time part are accepted as well.
func (l *Listing) Date(name string) (time.Time, bool) {
	v, ok := l.Get(name)
	if !ok {
		return time.Time{}, false
	}
	v = strings.TrimSpace(v)
	for _, layout := range []string{DateLayout, "2006-01-02 15:04:05", time.RFC3339} {
		if t, err := time.Parse(layout, v); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// FormatFloat renders a number the way cells are persisted.
func FormatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// IsMissing reports whether a raw cell should be read as a missing value.
func IsMissing(v string) bool {
	switch strings.TrimSpace(v) {
	case "", "NaN", "nan", "None":
		return true
	}
	return false
}
