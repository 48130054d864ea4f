package flatfile

import (
	"math"
	"strconv"
	"strings"
)

// Kind is the inferred storage kind of a column.
type Kind int

const (
	KindString Kind = iota
	KindNumber
)

// InferKinds marks a column numeric when every non-empty cell is a finite
// decimal number. Columns with no values are strings.
func InferKinds(t *Table) []Kind {
	kinds := make([]Kind, len(t.Header))
	for c := range t.Header {
		seen := false
		numeric := true
		for _, row := range t.Rows {
			cell := strings.TrimSpace(row[c])
			if cell == "" {
				continue
			}
			seen = true
			if _, ok := parseNumber(cell); !ok {
				numeric = false
				break
			}
		}
		if seen && numeric {
			kinds[c] = KindNumber
		}
	}
	return kinds
}

// Value converts a cell to the value inserted for kind k. Empty cells are NULL.
func (k Kind) Value(cell string) any {
	s := strings.TrimSpace(cell)
	if s == "" {
		return nil
	}
	if k == KindNumber {
		f, ok := parseNumber(s)
		if !ok {
			return nil
		}
		return f
	}
	return cell
}

// parseNumber accepts decimal notation only. ParseFloat would also take
// "inf", "NaN" and hex floats, which are text in a flat file.
func parseNumber(s string) (float64, bool) {
	if strings.ContainsAny(s, "xX_") {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// SanitizeName turns a header into a column identifier: spaces and hyphens
// become underscores.
func SanitizeName(s string) string {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, " ", "_")
	return strings.ReplaceAll(s, "-", "_")
}
