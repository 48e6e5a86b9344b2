package model

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Reserved dictionary keys.
const (
	KeyResults  = "results"
	KeyRowCount = "row_count"
	KeyCount    = "count"
)

// UnknownMarker replaces placeholders without a value under PolicySubstitute.
const UnknownMarker = "[unknown]"

// RenderPolicy decides what happens when a template references a missing key.
type RenderPolicy string

const (
	// PolicySubstitute replaces each missing placeholder with UnknownMarker
	// and reports the substituted keys.
	PolicySubstitute RenderPolicy = "substitute"
	// PolicyStrict fails with a MissingKeyError.
	PolicyStrict RenderPolicy = "strict"
)

// ParseRenderPolicy parses a policy name.
func ParseRenderPolicy(s string) (RenderPolicy, error) {
	switch p := RenderPolicy(s); p {
	case PolicySubstitute, PolicyStrict:
		return p, nil
	default:
		return "", fmt.Errorf("unknown render policy %q (want substitute or strict)", s)
	}
}

// Dictionary is the ordered key/value input of template rendering.
type Dictionary struct {
	keys   []string
	values map[string]string
}

// NewDictionary returns an empty dictionary.
func NewDictionary() *Dictionary {
	return &Dictionary{values: make(map[string]string)}
}

// Set adds or replaces a key.
func (d *Dictionary) Set(key, value string) {
	if _, ok := d.values[key]; !ok {
		d.keys = append(d.keys, key)
	}
	d.values[key] = value
}

// Get returns the value of a key.
func (d *Dictionary) Get(key string) (string, bool) {
	v, ok := d.values[key]
	return v, ok
}

// Keys returns the keys in insertion order.
func (d *Dictionary) Keys() []string {
	return append([]string(nil), d.keys...)
}

// Len returns the number of keys.
func (d *Dictionary) Len() int {
	return len(d.keys)
}

// BuildDictionary builds the substitution dictionary of a result set:
// each column maps to its values joined by ", ", "results" holds every row
// as "col: value, ..." joined by "; ", and "row_count" and "count" hold the
// number of rows.
func BuildDictionary(rs *ResultSet) *Dictionary {
	d := NewDictionary()
	if rs == nil {
		return d
	}

	records := rs.Records()
	for i, col := range rs.Columns {
		values := make([]string, len(records))
		for j, r := range records {
			values[j] = r[i]
		}
		d.Set(col, strings.Join(values, ", "))
	}

	rows := make([]string, len(records))
	for j, r := range records {
		cells := make([]string, len(rs.Columns))
		for i, col := range rs.Columns {
			cells[i] = col + ": " + r[i]
		}
		rows[j] = strings.Join(cells, ", ")
	}
	d.Set(KeyResults, strings.Join(rows, "; "))

	count := strconv.Itoa(len(records))
	d.Set(KeyRowCount, count)
	d.Set(KeyCount, count)
	return d
}

// MissingKeyError reports template keys that had no value.
type MissingKeyError struct {
	Keys      []string
	Template  string
	Available []string
}

func (e *MissingKeyError) Error() string {
	return fmt.Sprintf("missing key(s) %s in template (available keys: %s)",
		quoteAll(e.Keys), strings.Join(e.Available, ", "))
}

func (e *MissingKeyError) Unwrap() error {
	return ErrMissingKey
}

func quoteAll(keys []string) string {
	quoted := make([]string, len(keys))
	for i, k := range keys {
		quoted[i] = "'" + k + "'"
	}
	return strings.Join(quoted, ", ")
}

// Rendered is the output of a successful render.
type Rendered struct {
	Text string
	// Substituted lists keys replaced with UnknownMarker, in first-use order.
	Substituted []string
}

var placeholder = regexp.MustCompile(`\{([^{}]+)\}`)

// Render fills a template from a dictionary. Doubled braces are collapsed
// to single braces first, so "{{name}}" is a placeholder too. Braces that
// do not form a placeholder, including an empty "{}", are left as they are.
func Render(template string, dict *Dictionary, policy RenderPolicy) (*Rendered, error) {
	if dict == nil {
		dict = NewDictionary()
	}
	cleaned := strings.NewReplacer("{{", "{", "}}", "}").Replace(template)

	var missing []string
	seen := make(map[string]bool)
	text := placeholder.ReplaceAllStringFunc(cleaned, func(m string) string {
		key := m[1 : len(m)-1]
		if v, ok := dict.Get(key); ok {
			return v
		}
		if !seen[key] {
			seen[key] = true
			missing = append(missing, key)
		}
		return UnknownMarker
	})

	if len(missing) > 0 && policy == PolicyStrict {
		return nil, &MissingKeyError{
			Keys:      missing,
			Template:  template,
			Available: dict.Keys(),
		}
	}
	return &Rendered{Text: text, Substituted: missing}, nil
}
