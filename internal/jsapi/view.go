// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 Golobulus Authors

package jsapi

import (
	"errors"
	"fmt"

	"github.com/dop251/goja"

	"github.com/mobile-bungalow/golobulus/internal/pixel"
)

// ErrCasting is returned when pixel memory cannot be presented as an array
// of the format's element type.
var ErrCasting = errors.New("error casting pixel memory to a typed view")

// viewKey stores the Go side of an image view on its JS object.
var viewKey = goja.NewSymbol("golob.view")

// view is a [height, width, 4] window onto borrowed pixel memory. Reads and
// writes go straight to data; nothing is copied.
type view struct {
	vm       *goja.Runtime
	format   pixel.Format // format reported to scripts
	white    float64      // value of a fully lit channel in data
	width    int
	height   int
	stride   int // bytes between rows
	data     []byte
	writable bool
}

func newView(vm *goja.Runtime, d pixel.InDesc, writable bool) (*view, error) {
	es := d.Format.ElemSize()
	stride := d.RowStride()
	if stride%es != 0 {
		return nil, fmt.Errorf("%w: row stride %d is not a multiple of the %d byte element", ErrCasting, stride, es)
	}
	if err := d.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCasting, err)
	}
	return &view{
		vm:       vm,
		format:   d.Format,
		white:    d.Format.White(),
		width:    d.Width,
		height:   d.Height,
		stride:   stride,
		data:     d.Data,
		writable: writable,
	}, nil
}

func (v *view) desc() pixel.OutDesc {
	return pixel.OutDesc{Format: v.format, Width: v.width, Height: v.height, Stride: v.stride, Data: v.data}
}

func (v *view) offset(y, x, c int) int {
	return y*v.stride + x*v.format.BytesPerPixel() + c*v.format.ElemSize()
}

func (v *view) read(y, x, c int) float64 {
	return pixel.ReadChannel(v.data, v.offset(y, x, c), v.format.Elem())
}

func (v *view) write(y, x, c int, val float64) {
	pixel.WriteChannel(v.data, v.offset(y, x, c), v.format.Elem(), val)
}

func (v *view) index(call goja.FunctionCall, n int) (y, x, c int) {
	if len(call.Arguments) < n {
		throwRange(v.vm, "expected %d index arguments", n)
	}
	y = int(call.Argument(0).ToInteger())
	x = int(call.Argument(1).ToInteger())
	if y < 0 || y >= v.height || x < 0 || x >= v.width {
		throwRange(v.vm, "pixel (%d, %d) is outside a %dx%d image", y, x, v.height, v.width)
	}
	if n > 2 {
		c = int(call.Argument(2).ToInteger())
		if c < 0 || c > 3 {
			throwRange(v.vm, "channel %d is outside 0..3", c)
		}
	}
	return y, x, c
}

func (v *view) requireWritable(method string) {
	if !v.writable {
		throwType(v.vm, "%s: input images are read-only", method)
	}
}

// object builds the JS face of the view. Only writable views expose data.
func (v *view) object() (*goja.Object, error) {
	vm := v.vm
	obj := vm.NewObject()

	if err := obj.DefineDataPropertySymbol(viewKey, vm.ToValue(v), goja.FLAG_FALSE, goja.FLAG_FALSE, goja.FLAG_FALSE); err != nil {
		return nil, err
	}

	props := map[string]any{
		"width":    v.width,
		"height":   v.height,
		"channels": 4,
		"format":   v.format.String(),
		"maxValue": v.white,
		"stride":   v.stride / v.format.ElemSize(),
		"writable": v.writable,
	}
	for name, val := range props {
		if err := obj.DefineDataProperty(name, vm.ToValue(val), goja.FLAG_FALSE, goja.FLAG_FALSE, goja.FLAG_TRUE); err != nil {
			return nil, err
		}
	}

	if v.writable {
		arr, err := v.typedArray()
		if err != nil {
			return nil, err
		}
		if err := obj.DefineDataProperty("data", arr, goja.FLAG_FALSE, goja.FLAG_FALSE, goja.FLAG_TRUE); err != nil {
			return nil, err
		}
	}

	methods := map[string]func(goja.FunctionCall) goja.Value{
		"shape":    v.jsShape,
		"get":      v.jsGet,
		"set":      v.jsSet,
		"getPixel": v.jsGetPixel,
		"setPixel": v.jsSetPixel,
		"fill":     v.jsFill,
		"copyFrom": v.jsCopyFrom,
		"blit":     v.jsBlit,
	}
	for name, fn := range methods {
		if err := obj.Set(name, fn); err != nil {
			return nil, fmt.Errorf("failed to register %s: %w", name, err)
		}
	}
	return obj, nil
}

// typedArray wraps the borrowed memory in an ArrayBuffer and returns the
// element-typed array over it, padding included.
func (v *view) typedArray() (goja.Value, error) {
	ctorName := map[pixel.Elem]string{
		pixel.Uint8:   "Uint8Array",
		pixel.Uint16:  "Uint16Array",
		pixel.Float32: "Float32Array",
	}[v.format.Elem()]

	buf := v.vm.NewArrayBuffer(v.data)
	arr, err := v.vm.New(v.vm.Get(ctorName), v.vm.ToValue(buf))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCasting, err)
	}
	return arr, nil
}

// fromValue returns the view behind a JS image object.
func fromValue(vm *goja.Runtime, val goja.Value) (*view, bool) {
	obj, ok := val.(*goja.Object)
	if !ok {
		return nil, false
	}
	inner := obj.GetSymbol(viewKey)
	if inner == nil {
		return nil, false
	}
	v, ok := inner.Export().(*view)
	return v, ok
}

func (v *view) jsShape(goja.FunctionCall) goja.Value {
	return v.vm.NewArray(v.height, v.width, 4)
}

func (v *view) jsGet(call goja.FunctionCall) goja.Value {
	y, x, c := v.index(call, 3)
	return v.vm.ToValue(v.read(y, x, c))
}

func (v *view) jsSet(call goja.FunctionCall) goja.Value {
	v.requireWritable("set")
	y, x, c := v.index(call, 3)
	v.write(y, x, c, call.Argument(3).ToFloat())
	return goja.Undefined()
}

func (v *view) jsGetPixel(call goja.FunctionCall) goja.Value {
	y, x, _ := v.index(call, 2)
	return v.vm.NewArray(v.read(y, x, 0), v.read(y, x, 1), v.read(y, x, 2), v.read(y, x, 3))
}

func (v *view) jsSetPixel(call goja.FunctionCall) goja.Value {
	v.requireWritable("setPixel")
	y, x, _ := v.index(call, 2)
	px := toFloats(v.vm, call.Argument(2), 4, "setPixel")
	for c := range 4 {
		v.write(y, x, c, px[c])
	}
	return goja.Undefined()
}

// fill(v) sets every channel to v; fill([r, g, b, a]) sets every pixel.
func (v *view) jsFill(call goja.FunctionCall) goja.Value {
	v.requireWritable("fill")
	arg := call.Argument(0)

	var px [4]float64
	if obj, ok := arg.(*goja.Object); ok && obj.ClassName() == "Array" {
		copy(px[:], toFloats(v.vm, arg, 4, "fill"))
	} else {
		f := arg.ToFloat()
		px = [4]float64{f, f, f, f}
	}

	for y := range v.height {
		for x := range v.width {
			for c := range 4 {
				v.write(y, x, c, px[c])
			}
		}
	}
	return goja.Undefined()
}

// copyFrom copies an image of the same size, converting between element
// types by scaling with each format's white value.
func (v *view) jsCopyFrom(call goja.FunctionCall) goja.Value {
	v.requireWritable("copyFrom")
	src, ok := fromValue(v.vm, call.Argument(0))
	if !ok {
		throwType(v.vm, "copyFrom: argument is not an image")
	}
	if src.width != v.width || src.height != v.height {
		throwRange(v.vm, "copyFrom: %dx%d image does not match %dx%d", src.width, src.height, v.width, v.height)
	}

	if src.format == v.format && src.white == v.white {
		if err := pixel.Blit(v.desc(), src.desc().ReadOnly()); err != nil {
			throwError(v.vm, "copyFrom: %v", err)
		}
		return goja.Undefined()
	}

	scale := v.white / src.white
	for y := range v.height {
		for x := range v.width {
			for c := range 4 {
				v.write(y, x, c, src.read(y, x, c)*scale)
			}
		}
	}
	return goja.Undefined()
}

// blit copies an image of the same format centered into this one.
func (v *view) jsBlit(call goja.FunctionCall) goja.Value {
	v.requireWritable("blit")
	src, ok := fromValue(v.vm, call.Argument(0))
	if !ok {
		throwType(v.vm, "blit: argument is not an image")
	}
	if src.format != v.format {
		throwType(v.vm, "blit: cannot copy %s pixels into %s, use copyFrom", src.format, v.format)
	}
	if err := pixel.Blit(v.desc(), src.desc().ReadOnly()); err != nil {
		throwError(v.vm, "blit: %v", err)
	}
	return goja.Undefined()
}
