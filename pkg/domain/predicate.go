package domain

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// SuccessPredicate decides whether a reply status means success. container is
// the map holding the status field.
type SuccessPredicate interface {
	Evaluate(status any, container map[string]any) bool
}

// PredicateFunc adapts a plain function to SuccessPredicate.
type PredicateFunc func(status any, container map[string]any) bool

func (f PredicateFunc) Evaluate(status any, container map[string]any) bool {
	return f(status, container)
}

// DefaultPredicate accepts a status loosely equal to 1.
func DefaultPredicate() SuccessPredicate { return Equals(1) }

// Equals accepts a status loosely equal to want.
func Equals(want any) SuccessPredicate {
	return PredicateFunc(func(status any, _ map[string]any) bool {
		return LooseEqual(status, want)
	})
}

// OneOf accepts a status loosely equal to any of values.
func OneOf(values ...any) SuccessPredicate {
	return PredicateFunc(func(status any, _ map[string]any) bool {
		for _, v := range values {
			if LooseEqual(status, v) {
				return true
			}
		}
		return false
	})
}

// LooseEqual compares two reply values the way SOAP replies need: decoded XML
// leaves are strings, so "1", 1, 1.0 and true are all equal.
func LooseEqual(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	_, aBool := a.(bool)
	_, bBool := b.(bool)
	if aBool || bBool {
		return truthy(a) == truthy(b)
	}
	if fa, ok := toFloat(a); ok {
		if fb, ok := toFloat(b); ok {
			return fa == fb
		}
	}
	return fmt.Sprint(a) == fmt.Sprint(b)
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, !math.IsNaN(n)
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case string:
		s := strings.TrimSpace(n)
		if s == "" {
			return 0, false
		}
		f, err := strconv.ParseFloat(s, 64)
		return f, err == nil && !math.IsNaN(f)
	}
	return 0, false
}

func truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case string:
		s := strings.TrimSpace(strings.ToLower(t))
		return s != "" && s != "0" && s != "false"
	}
	if f, ok := toFloat(v); ok {
		return f != 0
	}
	return true
}
