// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 Golobulus Authors

package jsapi

import (
	"fmt"
	"math"
	"strconv"

	"github.com/dop251/goja"
)

// throwError panics with a JS Error. Error objects record the script line
// that called into Go, which ends up in the runner's error message.
func throwError(vm *goja.Runtime, format string, args ...any) {
	throwWith(vm, "Error", format, args...)
}

func throwType(vm *goja.Runtime, format string, args ...any) {
	throwWith(vm, "TypeError", format, args...)
}

func throwRange(vm *goja.Runtime, format string, args ...any) {
	throwWith(vm, "RangeError", format, args...)
}

func throwWith(vm *goja.Runtime, ctor, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	obj, err := vm.New(vm.Get(ctor), vm.ToValue(msg))
	if err != nil {
		panic(vm.ToValue(msg))
	}
	panic(obj)
}

// requireArgs panics with a JS exception if the call has fewer than n arguments.
func requireArgs(vm *goja.Runtime, call goja.FunctionCall, n int, msg string) {
	if len(call.Arguments) < n {
		throwType(vm, "%s", msg)
	}
}

// isSet reports whether v was supplied and is not undefined or null.
func isSet(v goja.Value) bool {
	return v != nil && !goja.IsUndefined(v) && !goja.IsNull(v)
}

// toFloats reads exactly n numbers from an array-like value.
func toFloats(vm *goja.Runtime, v goja.Value, n int, what string) []float64 {
	obj, ok := v.(*goja.Object)
	if !ok {
		throwType(vm, "%s: expected an array of %d numbers", what, n)
	}
	if length := int(obj.Get("length").ToInteger()); length != n {
		throwType(vm, "%s: expected %d numbers, got %d", what, n, length)
	}
	out := make([]float64, n)
	for i := range out {
		out[i] = obj.Get(strconv.Itoa(i)).ToFloat()
	}
	return out
}

// option returns key from an options object, or nil when absent.
func option(opts *goja.Object, key string) goja.Value {
	if opts == nil {
		return nil
	}
	v := opts.Get(key)
	if !isSet(v) {
		return nil
	}
	return v
}

func floatOr(v goja.Value, def float64) float64 {
	if !isSet(v) {
		return def
	}
	return v.ToFloat()
}

// toInt32 truncates v toward zero, throwing a RangeError when it is not a
// number or does not fit in an int32.
func toInt32(vm *goja.Runtime, v float64, what string) int32 {
	if math.IsNaN(v) || v <= math.MinInt32-1 || v >= math.MaxInt32+1 {
		throwRange(vm, "%s: %v does not fit in a 32-bit integer", what, v)
	}
	return int32(v)
}

func vec2Or(vm *goja.Runtime, v goja.Value, def [2]float32, what string) [2]float32 {
	if !isSet(v) {
		return def
	}
	f := toFloats(vm, v, 2, what)
	return [2]float32{float32(f[0]), float32(f[1])}
}
