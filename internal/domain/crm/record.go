package crm

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// Largest magnitude below which every integer has an exact float64 form.
const maxExactFloatInt = 1 << 53

var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// Row is one data row of an uploaded sheet. Number is the 1-based sheet row,
// so the first row after the header is 2.
type Row struct {
	Number int
	Cells  map[string]string
}

// Sheet is a parsed upload: the header row and every non-blank data row.
type Sheet struct {
	Name    string
	Headers []string
	Rows    []Row
}

// Record is a validated row. Values hold string, int64 or float64 depending
// on the field type; optional fields left empty without a default are absent.
type Record struct {
	Kind   Kind
	Values map[string]any
}

func (r Record) String(name string) string {
	v, _ := r.Values[name].(string)
	return v
}

func (r Record) Int(name string) (int64, bool) {
	v, ok := r.Values[name].(int64)
	return v, ok
}

func (r Record) Float(name string) (float64, bool) {
	v, ok := r.Values[name].(float64)
	return v, ok
}

// NaturalKey normalizes a natural key value for comparison. Keys compare
// case-insensitively.
func NaturalKey(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}

// Key returns the normalized natural key of the record, or "" when the kind
// has none.
func (s Schema) Key(record Record) string {
	if s.NaturalKey == "" {
		return ""
	}
	return NaturalKey(record.String(s.NaturalKey))
}

// Validate checks every field of row and returns the typed record. All field
// problems of the row are reported together in one ValidationError.
func (s Schema) Validate(row Row) (Record, error) {
	record := Record{Kind: s.Kind, Values: make(map[string]any, len(s.Fields))}

	var problems []string
	for _, field := range s.Fields {
		value, err := field.parse(strings.TrimSpace(row.Cells[field.Name]))
		if err != nil {
			problems = append(problems, err.Error())
			continue
		}
		if value != nil {
			record.Values[field.Name] = value
		}
	}

	if len(problems) > 0 {
		return Record{}, &ValidationError{
			Row:    row.Number,
			Reason: strings.Join(problems, "; "),
			Data:   copyCells(row.Cells),
		}
	}
	return record, nil
}

func (f Field) parse(raw string) (any, error) {
	if raw == "" {
		if f.Required {
			return nil, fmt.Errorf("'%s' is required but empty", f.Name)
		}
		if f.Default == "" {
			return nil, nil
		}
		raw = f.Default
	}

	if len(f.Allowed) > 0 && !contains(f.Allowed, raw) {
		return nil, fmt.Errorf("'%s' must be one of: %s", f.Name, strings.Join(f.Allowed, ", "))
	}

	switch f.Type {
	case FieldEmail:
		if !emailPattern.MatchString(raw) {
			return nil, fmt.Errorf("Invalid email format in '%s'", f.Name)
		}
		return strings.ToLower(raw), nil
	case FieldInt:
		n, ok := parseInt(raw)
		if !ok {
			return nil, fmt.Errorf("'%s' must be an integer", f.Name)
		}
		if err := f.checkRange(float64(n)); err != nil {
			return nil, err
		}
		return n, nil
	case FieldFloat:
		n, err := strconv.ParseFloat(raw, 64)
		if err != nil || math.IsNaN(n) || math.IsInf(n, 0) {
			return nil, fmt.Errorf("'%s' must be a number", f.Name)
		}
		if err := f.checkRange(n); err != nil {
			return nil, err
		}
		return n, nil
	default:
		return raw, nil
	}
}

// parseInt accepts plain integers and integral decimals such as "75.0".
// Decimals must stay within the exact float64 integer range.
func parseInt(raw string) (int64, bool) {
	if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return n, true
	}
	n, err := strconv.ParseFloat(raw, 64)
	if err != nil || n != math.Trunc(n) || math.Abs(n) > maxExactFloatInt {
		return 0, false
	}
	return int64(n), true
}

func (f Field) checkRange(n float64) error {
	if f.Min != nil && n < *f.Min {
		return fmt.Errorf("'%s' must be at least %s", f.Name, formatBound(*f.Min))
	}
	if f.Max != nil && n > *f.Max {
		return fmt.Errorf("'%s' must be at most %s", f.Name, formatBound(*f.Max))
	}
	return nil
}

func formatBound(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func contains(values []string, v string) bool {
	for _, candidate := range values {
		if candidate == v {
			return true
		}
	}
	return false
}

func copyCells(cells map[string]string) map[string]string {
	out := make(map[string]string, len(cells))
	for k, v := range cells {
		out[k] = v
	}
	return out
}
