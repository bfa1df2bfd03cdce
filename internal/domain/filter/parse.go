package filter

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/kailas-cloud/assessrec/internal/domain"
	"github.com/kailas-cloud/assessrec/internal/domain/assessment"
)

// Mode controls how Parse treats keys outside the filterable schema.
type Mode int

const (
	// Strict rejects unknown keys with domain.ErrUnknownFilterKey.
	Strict Mode = iota
	// Lenient turns unknown keys into Equals predicates on the payload field of that name.
	Lenient
)

// Parse compiles a loose key/value mapping (HTTP JSON body, CLI flags) into a Spec.
// Nil values and empty lists impose no constraint. Keys are processed in sorted order.
func Parse(raw map[string]any, mode Mode) (Spec, error) {
	keys := make([]string, 0, len(raw))
	for k := range raw {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var preds []Predicate
	for _, key := range keys {
		val := raw[key]
		if val == nil {
			continue
		}

		switch key {
		case assessment.FieldRemoteTesting, assessment.FieldAdaptiveIRT:
			yn, err := yesNo(val)
			if err != nil {
				return Spec{}, fmt.Errorf("%w: %s: %w", domain.ErrInvalidArgument, key, err)
			}
			preds = append(preds, Equals{field: key, value: yn})
		case assessment.FieldTestType:
			values, err := stringList(val)
			if err != nil {
				return Spec{}, fmt.Errorf("%w: %s: %w", domain.ErrInvalidArgument, key, err)
			}
			if len(values) == 0 {
				continue
			}
			p, err := NewAnyOf(key, values)
			if err != nil {
				return Spec{}, fmt.Errorf("%w: %w", domain.ErrInvalidArgument, err)
			}
			preds = append(preds, p)
		default:
			if mode != Lenient {
				return Spec{}, fmt.Errorf("%w: %q", domain.ErrUnknownFilterKey, key)
			}
			p, err := passThrough(key, val)
			if err != nil {
				return Spec{}, fmt.Errorf("%w: %s: %w", domain.ErrInvalidArgument, key, err)
			}
			if p != nil {
				preds = append(preds, p)
			}
		}
	}
	return Spec{predicates: preds}, nil
}

// Known reports whether key is one of the filterable schema fields.
func Known(key string) bool {
	switch key {
	case assessment.FieldRemoteTesting, assessment.FieldAdaptiveIRT, assessment.FieldTestType:
		return true
	}
	return false
}

func yesNo(v any) (string, error) {
	switch t := v.(type) {
	case bool:
		if t {
			return assessment.Yes, nil
		}
		return assessment.No, nil
	case string:
		switch strings.ToLower(strings.TrimSpace(t)) {
		case "yes", "true", "y":
			return assessment.Yes, nil
		case "no", "false", "n":
			return assessment.No, nil
		}
		return "", fmt.Errorf("expected Yes or No, got %q", t)
	default:
		return "", fmt.Errorf("expected Yes or No, got %T", v)
	}
}

func stringList(v any) ([]string, error) {
	switch t := v.(type) {
	case string:
		return assessment.SplitTypes(t), nil
	case []string:
		return trimAll(t), nil
	case []any:
		out := make([]string, 0, len(t))
		for _, item := range t {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("expected string list, got element %T", item)
			}
			out = append(out, s)
		}
		return trimAll(out), nil
	default:
		return nil, fmt.Errorf("expected string or list, got %T", v)
	}
}

func trimAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func passThrough(key string, v any) (Predicate, error) {
	switch t := v.(type) {
	case string:
		return Equals{field: key, value: t}, nil
	case bool:
		return Equals{field: key, value: strconv.FormatBool(t)}, nil
	case float64:
		return Equals{field: key, value: strconv.FormatFloat(t, 'f', -1, 64)}, nil
	case int:
		return Equals{field: key, value: strconv.Itoa(t)}, nil
	case []string, []any:
		values, err := stringList(t)
		if err != nil {
			return nil, err
		}
		if len(values) == 0 {
			return nil, nil
		}
		return NewAnyOf(key, values)
	default:
		return nil, fmt.Errorf("unsupported value type %T", v)
	}
}
