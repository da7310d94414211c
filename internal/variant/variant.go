// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 Golobulus Authors

// Package variant defines the typed parameters a script declares in setup
// and the rules for carrying user-edited values across a script reload.
package variant

import (
	"cmp"
	"errors"
	"fmt"
	"maps"
)

// ErrTypeMismatch is returned when two variants of different kinds meet.
var ErrTypeMismatch = errors.New("type mismatch between variants")

// ErrRejected is returned by Registry.Assign when the stored constraints
// did not take the value.
var ErrRejected = errors.New("value rejected")

// MissingVarError reports a name that is not in the registry.
type MissingVarError struct {
	Name string
}

func (e *MissingVarError) Error() string {
	return fmt.Sprintf("no variable named %q is registered", e.Name)
}

// Kind identifies the concrete type of a Variant.
type Kind int

const (
	KindImage Kind = iota
	KindBool
	KindTaggedInt
	KindColor
	KindInt
	KindFloat
	KindVector2
)

var kindNames = [...]string{
	KindImage:     "image",
	KindBool:      "bool",
	KindTaggedInt: "enum",
	KindColor:     "color",
	KindInt:       "int",
	KindFloat:     "float",
	KindVector2:   "vector",
}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return fmt.Sprintf("Kind(%d)", int(k))
	}
	return kindNames[k]
}

// Bounds selects whether a range endpoint counts as in range when a value
// is adopted across a reload.
type Bounds int

const (
	// Exclusive accepts min < v < max.
	Exclusive Bounds = iota
	// Inclusive accepts min <= v <= max.
	Inclusive
)

func (b Bounds) String() string {
	if b == Inclusive {
		return "inclusive"
	}
	return "exclusive"
}

// ParseBounds accepts "exclusive", "inclusive" or the empty string.
func ParseBounds(s string) (Bounds, error) {
	switch s {
	case "", "exclusive":
		return Exclusive, nil
	case "inclusive":
		return Inclusive, nil
	}
	return Exclusive, fmt.Errorf("unknown adopt bounds %q (want exclusive or inclusive)", s)
}

func within[T cmp.Ordered](v, lo, hi T, b Bounds) bool {
	if b == Inclusive {
		return lo <= v && v <= hi
	}
	return lo < v && v < hi
}

// Variant is one declared parameter. The set of implementations is closed.
type Variant interface {
	Kind() Kind
	// Adopt copies the user-visible value of other into the receiver when
	// the receiver's constraints allow it.
	Adopt(other Variant, b Bounds) error
	Clone() Variant
	// Value is what a script sees when it reads the parameter.
	Value() any

	sealed()
}

// Continuous is a bounded value.
type Continuous[T any] struct {
	Default T `yaml:"default" json:"default"`
	Current T `yaml:"current" json:"current"`
	Min     T `yaml:"min" json:"min"`
	Max     T `yaml:"max" json:"max"`
}

// Discrete is an unbounded value.
type Discrete[T any] struct {
	Default T `yaml:"default" json:"default"`
	Current T `yaml:"current" json:"current"`
}

// Image is an input image slot. Pixels are supplied per render pass.
type Image struct{}

type Bool struct{ Discrete[bool] }

// Color is an RGBA color with float channels in [0, 1].
type Color struct{ Discrete[[4]float32] }

type Int struct{ Continuous[int32] }

type Float struct{ Continuous[float32] }

type Vector2 struct{ Continuous[[2]float32] }

// TaggedInt is an enumeration: an integer chosen from a named set.
type TaggedInt struct {
	Current int32            `yaml:"current" json:"current"`
	Default int32            `yaml:"default" json:"default"`
	Tags    map[string]int32 `yaml:"tags" json:"tags"`
}

func NewBool(def bool) *Bool {
	return &Bool{Discrete[bool]{Default: def, Current: def}}
}

func NewColor(def [4]float32) *Color {
	return &Color{Discrete[[4]float32]{Default: def, Current: def}}
}

func NewInt(def, lo, hi int32) *Int {
	return &Int{Continuous[int32]{Default: def, Current: def, Min: lo, Max: hi}}
}

func NewFloat(def, lo, hi float32) *Float {
	return &Float{Continuous[float32]{Default: def, Current: def, Min: lo, Max: hi}}
}

func NewVector2(def, lo, hi [2]float32) *Vector2 {
	return &Vector2{Continuous[[2]float32]{Default: def, Current: def, Min: lo, Max: hi}}
}

// NewTaggedInt copies tags so later edits by the caller are not shared.
func NewTaggedInt(def int32, tags map[string]int32) *TaggedInt {
	return &TaggedInt{Current: def, Default: def, Tags: maps.Clone(tags)}
}

func (*Image) Kind() Kind     { return KindImage }
func (*Bool) Kind() Kind      { return KindBool }
func (*TaggedInt) Kind() Kind { return KindTaggedInt }
func (*Color) Kind() Kind     { return KindColor }
func (*Int) Kind() Kind       { return KindInt }
func (*Float) Kind() Kind     { return KindFloat }
func (*Vector2) Kind() Kind   { return KindVector2 }

func (*Image) sealed()     {}
func (*Bool) sealed()      {}
func (*TaggedInt) sealed() {}
func (*Color) sealed()     {}
func (*Int) sealed()       {}
func (*Float) sealed()     {}
func (*Vector2) sealed()   {}

func (v *Image) Clone() Variant   { return &Image{} }
func (v *Bool) Clone() Variant    { c := *v; return &c }
func (v *Color) Clone() Variant   { c := *v; return &c }
func (v *Int) Clone() Variant     { c := *v; return &c }
func (v *Float) Clone() Variant   { c := *v; return &c }
func (v *Vector2) Clone() Variant { c := *v; return &c }

func (v *TaggedInt) Clone() Variant {
	return &TaggedInt{Current: v.Current, Default: v.Default, Tags: maps.Clone(v.Tags)}
}

// Value of an image slot is nil; pixels are resolved by the render pass.
func (v *Image) Value() any     { return nil }
func (v *Bool) Value() any      { return v.Current }
func (v *TaggedInt) Value() any { return v.Current }
func (v *Color) Value() any     { return v.Current }
func (v *Int) Value() any       { return v.Current }
func (v *Float) Value() any     { return v.Current }
func (v *Vector2) Value() any   { return v.Current }

func (v *Image) Adopt(other Variant, _ Bounds) error {
	if _, ok := other.(*Image); !ok {
		return ErrTypeMismatch
	}
	return nil
}

func (v *Bool) Adopt(other Variant, _ Bounds) error {
	o, ok := other.(*Bool)
	if !ok {
		return ErrTypeMismatch
	}
	v.Current = o.Current
	return nil
}

func (v *Color) Adopt(other Variant, _ Bounds) error {
	o, ok := other.(*Color)
	if !ok {
		return ErrTypeMismatch
	}
	v.Current = o.Current
	return nil
}

// Adopt keeps the incoming selection only if the tag it was chosen by is
// still offered.
func (v *TaggedInt) Adopt(other Variant, _ Bounds) error {
	o, ok := other.(*TaggedInt)
	if !ok {
		return ErrTypeMismatch
	}
	tag, found := o.Tag()
	if !found {
		return nil
	}
	if _, ok := v.Tags[tag]; ok {
		v.Current = o.Current
	}
	return nil
}

// Tag returns the name whose value equals Current. When several names share
// the value the lexically smallest wins so the lookup is deterministic.
func (v *TaggedInt) Tag() (string, bool) {
	var (
		best  string
		found bool
	)
	for name, val := range v.Tags {
		if val != v.Current {
			continue
		}
		if !found || name < best {
			best, found = name, true
		}
	}
	return best, found
}

func (v *Int) Adopt(other Variant, b Bounds) error {
	o, ok := other.(*Int)
	if !ok {
		return ErrTypeMismatch
	}
	if within(o.Current, v.Min, v.Max, b) {
		v.Current = o.Current
	}
	return nil
}

func (v *Float) Adopt(other Variant, b Bounds) error {
	o, ok := other.(*Float)
	if !ok {
		return ErrTypeMismatch
	}
	if within(o.Current, v.Min, v.Max, b) {
		v.Current = o.Current
	}
	return nil
}

// Adopt requires every component to be within its own range.
func (v *Vector2) Adopt(other Variant, b Bounds) error {
	o, ok := other.(*Vector2)
	if !ok {
		return ErrTypeMismatch
	}
	for i := range o.Current {
		if !within(o.Current[i], v.Min[i], v.Max[i], b) {
			return nil
		}
	}
	v.Current = o.Current
	return nil
}

// Reset restores the declared default.
func Reset(v Variant) {
	switch t := v.(type) {
	case *Bool:
		t.Current = t.Default
	case *Color:
		t.Current = t.Default
	case *TaggedInt:
		t.Current = t.Default
	case *Int:
		t.Current = t.Default
	case *Float:
		t.Current = t.Default
	case *Vector2:
		t.Current = t.Default
	}
}
