// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 Golobulus Authors

package variant

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestAdoptRanges(t *testing.T) {
	tests := []struct {
		name   string
		cur    Variant
		other  Variant
		bounds Bounds
		want   any
	}{
		{"float inside", NewFloat(0, -10, 10), NewFloat(5, -10, 10), Exclusive, float32(5)},
		{"float on max exclusive", NewFloat(0, -10, 10), NewFloat(10, -100, 100), Exclusive, float32(0)},
		{"float on max inclusive", NewFloat(0, -10, 10), NewFloat(10, -100, 100), Inclusive, float32(10)},
		{"int below min", NewInt(3, 0, 10), NewInt(-1, -5, 5), Exclusive, int32(3)},
		{"int inside", NewInt(3, 0, 10), NewInt(7, -5, 50), Exclusive, int32(7)},
		{"vector inside", NewVector2([2]float32{0, 0}, [2]float32{-1, -1}, [2]float32{1, 1}),
			NewVector2([2]float32{0.5, -0.5}, [2]float32{-9, -9}, [2]float32{9, 9}), Exclusive, [2]float32{0.5, -0.5}},
		{"vector one component out", NewVector2([2]float32{0, 0}, [2]float32{-1, -1}, [2]float32{1, 1}),
			NewVector2([2]float32{0.5, 4}, [2]float32{-9, -9}, [2]float32{9, 9}), Exclusive, [2]float32{0, 0}},
		{"color always", NewColor([4]float32{1, 1, 1, 1}), NewColor([4]float32{0.1, 0.2, 0.3, 0.4}), Exclusive,
			[4]float32{0.1, 0.2, 0.3, 0.4}},
		{"bool always", NewBool(false), NewBool(true), Exclusive, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.cur.Adopt(tt.other, tt.bounds); err != nil {
				t.Fatalf("Adopt() error: %v", err)
			}
			if diff := cmp.Diff(tt.want, tt.cur.Value()); diff != "" {
				t.Errorf("Value() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestAdoptTaggedInt(t *testing.T) {
	cur := NewTaggedInt(0, map[string]int32{"linear": 0, "cubic": 1})

	other := NewTaggedInt(0, map[string]int32{"linear": 0, "cubic": 1, "lanczos": 2})
	other.Current = 1
	if err := cur.Adopt(other, Exclusive); err != nil {
		t.Fatalf("Adopt() error: %v", err)
	}
	if cur.Current != 1 {
		t.Errorf("Current = %d, want 1 (cubic is still offered)", cur.Current)
	}

	other.Current = 2
	if err := cur.Adopt(other, Exclusive); err != nil {
		t.Fatalf("Adopt() error: %v", err)
	}
	if cur.Current != 1 {
		t.Errorf("Current = %d, want 1 (lanczos is not offered)", cur.Current)
	}
}

func TestAdoptTypeMismatch(t *testing.T) {
	pairs := [][2]Variant{
		{NewFloat(0, -1, 1), NewInt(0, -1, 1)},
		{&Image{}, NewBool(true)},
		{NewBool(true), &Image{}},
		{NewColor([4]float32{}), NewVector2([2]float32{}, [2]float32{}, [2]float32{})},
		{NewTaggedInt(0, nil), NewInt(0, 0, 0)},
	}
	for _, p := range pairs {
		if err := p[0].Adopt(p[1], Exclusive); !errors.Is(err, ErrTypeMismatch) {
			t.Errorf("%s.Adopt(%s) = %v, want ErrTypeMismatch", p[0].Kind(), p[1].Kind(), err)
		}
	}

	if err := (&Image{}).Adopt(&Image{}, Exclusive); err != nil {
		t.Errorf("image.Adopt(image) = %v, want nil", err)
	}
}

func TestRegistryOrder(t *testing.T) {
	r := NewRegistry()
	r.Set("b", NewBool(false))
	r.Set("a", NewFloat(0, -1, 1))
	r.Set("c", &Image{})
	r.Set("a", NewInt(0, -1, 1))

	if diff := cmp.Diff([]string{"b", "a", "c"}, r.Names()); diff != "" {
		t.Errorf("Names() mismatch (-want +got):\n%s", diff)
	}
	if v, _ := r.Get("a"); v.Kind() != KindInt {
		t.Errorf("a.Kind() = %v, want int after replacement", v.Kind())
	}
}

// TestReconcileAcrossReload models a script whose float range moved from
// [-100, 100] to [100, 1000] with a new default of 200.
func TestReconcileAcrossReload(t *testing.T) {
	tests := []struct {
		current float32
		want    float32
	}{
		{50, 200},
		{150, 150},
	}

	for _, tt := range tests {
		prev := NewRegistry()
		old := NewFloat(0, -100, 100)
		old.Current = tt.current
		prev.Set("f", old)

		next := NewRegistry()
		next.Set("f", NewFloat(200, 100, 1000))
		next.Reconcile(prev, Exclusive)

		v, _ := next.Get("f")
		if got := v.Value(); got != tt.want {
			t.Errorf("current %v: after reload = %v, want %v", tt.current, got, tt.want)
		}
	}
}

func TestReconcileSkipsKindChange(t *testing.T) {
	prev := NewRegistry()
	prev.Set("x", NewBool(true))
	prev.Set("y", NewInt(7, 0, 10))

	next := NewRegistry()
	next.Set("x", NewFloat(1, 0, 2))
	next.Set("y", NewInt(0, 0, 10))
	next.Reconcile(prev, Exclusive)

	x, _ := next.Get("x")
	y, _ := next.Get("y")
	if x.Value() != float32(1) {
		t.Errorf("x = %v, want the new default 1", x.Value())
	}
	if y.Value() != int32(7) {
		t.Errorf("y = %v, want carried value 7", y.Value())
	}
}

func TestTrySet(t *testing.T) {
	r := NewRegistry()
	r.Set("gain", NewFloat(0, 0, 10))

	if err := r.TrySet("gain", NewFloat(4, 0, 0), Exclusive); err != nil {
		t.Fatalf("TrySet() error: %v", err)
	}
	if v, _ := r.Get("gain"); v.Value() != float32(4) {
		t.Errorf("gain = %v, want 4", v.Value())
	}

	var missing *MissingVarError
	if err := r.TrySet("nope", NewFloat(1, 0, 0), Exclusive); !errors.As(err, &missing) || missing.Name != "nope" {
		t.Errorf("TrySet(nope) = %v, want MissingVarError", err)
	}
	if err := r.TrySet("gain", NewBool(true), Exclusive); !errors.Is(err, ErrTypeMismatch) {
		t.Errorf("TrySet(bool) = %v, want ErrTypeMismatch", err)
	}
}

func TestAssign(t *testing.T) {
	tests := []struct {
		name    string
		v       Variant
		want    any
		wantErr error
	}{
		{"in range", NewInt(7, 0, 0), int32(7), nil},
		{"above range", NewInt(300, 0, 0), int32(40), ErrRejected},
		{"on the open boundary", NewInt(255, 0, 0), int32(40), ErrRejected},
		{"wrong kind", NewFloat(1, 0, 0), int32(40), ErrTypeMismatch},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewRegistry()
			r.Set("level", NewInt(40, 0, 255))

			err := r.Assign("level", tt.v, Exclusive)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Assign() error = %v, want %v", err, tt.wantErr)
			}
			if v, _ := r.Get("level"); v.Value() != tt.want {
				t.Errorf("level = %v, want %v", v.Value(), tt.want)
			}
			// TrySet stays silent about the same values.
			if tt.wantErr == ErrRejected {
				if err := r.TrySet("level", tt.v, Exclusive); err != nil {
					t.Errorf("TrySet() error = %v, want nil", err)
				}
			}
		})
	}
}

func TestCloneIsIndependent(t *testing.T) {
	r := NewRegistry()
	r.Set("mode", NewTaggedInt(0, map[string]int32{"a": 0, "b": 1}))
	c := r.Clone()

	v, _ := c.Get("mode")
	ti := v.(*TaggedInt)
	ti.Current = 1
	ti.Tags["c"] = 2

	orig, _ := r.Get("mode")
	want := NewTaggedInt(0, map[string]int32{"a": 0, "b": 1})
	if diff := cmp.Diff(want, orig); diff != "" {
		t.Errorf("original changed through clone (-want +got):\n%s", diff)
	}
}

func TestParseBounds(t *testing.T) {
	for in, want := range map[string]Bounds{"": Exclusive, "exclusive": Exclusive, "inclusive": Inclusive} {
		got, err := ParseBounds(in)
		if err != nil || got != want {
			t.Errorf("ParseBounds(%q) = %v, %v, want %v", in, got, err, want)
		}
	}
	if _, err := ParseBounds("open"); err == nil {
		t.Error("ParseBounds(open) should fail")
	}
}
