// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 Golobulus Authors

package variant

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// Parse reads a command-line value for a variable shaped like like. The
// result carries only a current value; constraints come from the registry
// when it is adopted.
//
// Accepted forms: bool "true"/"false", int and float numbers, enum tag
// names or their integer values, vector "x,y", color "r,g,b[,a]".
func Parse(like Variant, s string) (Variant, error) {
	s = strings.TrimSpace(s)
	switch l := like.(type) {
	case *Bool:
		b, err := strconv.ParseBool(s)
		if err != nil {
			return nil, fmt.Errorf("invalid bool %q", s)
		}
		return NewBool(b), nil
	case *Int:
		n, err := strconv.ParseInt(s, 10, 32)
		if err != nil {
			return nil, fmt.Errorf("invalid int %q", s)
		}
		return NewInt(int32(n), 0, 0), nil
	case *Float:
		f, err := strconv.ParseFloat(s, 32)
		if err != nil {
			return nil, fmt.Errorf("invalid float %q", s)
		}
		return NewFloat(float32(f), 0, 0), nil
	case *TaggedInt:
		if n, ok := l.Tags[s]; ok {
			return NewTaggedInt(n, l.Tags), nil
		}
		n, err := strconv.ParseInt(s, 10, 32)
		if err != nil {
			return nil, fmt.Errorf("unknown option %q (want one of %s)", s, strings.Join(l.TagNames(), ", "))
		}
		return NewTaggedInt(int32(n), l.Tags), nil
	case *Vector2:
		v, err := parseFloats(s, 2, 2)
		if err != nil {
			return nil, err
		}
		return NewVector2([2]float32{v[0], v[1]}, [2]float32{}, [2]float32{}), nil
	case *Color:
		v, err := parseFloats(s, 3, 4)
		if err != nil {
			return nil, err
		}
		c := [4]float32{1, 1, 1, 1}
		copy(c[:], v)
		return NewColor(c), nil
	case *Image:
		return nil, fmt.Errorf("image inputs are supplied as files, not values")
	}
	return nil, ErrTypeMismatch
}

func parseFloats(s string, lo, hi int) ([]float32, error) {
	parts := strings.Split(s, ",")
	if len(parts) < lo || len(parts) > hi {
		return nil, fmt.Errorf("expected %d to %d comma separated numbers, got %q", lo, hi, s)
	}
	out := make([]float32, len(parts))
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 32)
		if err != nil {
			return nil, fmt.Errorf("invalid number %q", p)
		}
		out[i] = float32(f)
	}
	return out, nil
}

// TagNames returns the enum option names ordered by value, then name.
func (v *TaggedInt) TagNames() []string {
	names := make([]string, 0, len(v.Tags))
	for name := range v.Tags {
		names = append(names, name)
	}
	slices.SortFunc(names, func(a, b string) int {
		if v.Tags[a] != v.Tags[b] {
			return int(v.Tags[a]) - int(v.Tags[b])
		}
		return strings.Compare(a, b)
	})
	return names
}

// Describe renders the current value and constraints of v on one line.
func Describe(v Variant) string {
	switch t := v.(type) {
	case *Image:
		return "image input"
	case *Bool:
		return fmt.Sprintf("%t (default %t)", t.Current, t.Default)
	case *Color:
		return fmt.Sprintf("%v (default %v)", t.Current, t.Default)
	case *TaggedInt:
		tag, _ := t.Tag()
		return fmt.Sprintf("%s=%d [%s]", tag, t.Current, strings.Join(t.TagNames(), "|"))
	case *Int:
		return fmt.Sprintf("%d in (%d, %d) default %d", t.Current, t.Min, t.Max, t.Default)
	case *Float:
		return fmt.Sprintf("%g in (%g, %g) default %g", t.Current, t.Min, t.Max, t.Default)
	case *Vector2:
		return fmt.Sprintf("%v in (%v, %v) default %v", t.Current, t.Min, t.Max, t.Default)
	}
	return "?"
}
