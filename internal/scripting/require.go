// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 Golobulus Authors

package scripting

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dop251/goja"
)

// requireFrom returns a CommonJS require() that resolves relative ids
// against dir and bare ids against the module's search path snapshot.
func (m *Module) requireFrom(dir string) func(goja.FunctionCall) goja.Value {
	return func(call goja.FunctionCall) goja.Value {
		id := call.Argument(0).String()
		path, err := m.resolve(id, dir)
		if err != nil {
			panic(m.vm.NewGoError(err))
		}
		mod, err := m.loadFile(path)
		if ex, ok := err.(*goja.Exception); ok {
			panic(ex)
		}
		if err != nil {
			panic(m.vm.NewGoError(err))
		}
		return mod.Get("exports")
	}
}

func (m *Module) resolve(id, dir string) (string, error) {
	if id == "" {
		return "", fmt.Errorf("require: empty module id")
	}

	var roots []string
	switch {
	case filepath.IsAbs(id):
		roots = []string{""}
	case strings.HasPrefix(id, "./"), strings.HasPrefix(id, "../"):
		base := dir
		if base == "" {
			base = "."
		}
		roots = []string{base}
	default:
		roots = m.paths
	}

	for _, root := range roots {
		base := id
		if root != "" {
			base = filepath.Join(root, id)
		}
		for _, candidate := range []string{base, base + ".js", base + ".json", filepath.Join(base, "index.js")} {
			if info, err := os.Stat(candidate); err == nil && info.Mode().IsRegular() {
				return filepath.Abs(candidate)
			}
		}
	}
	return "", fmt.Errorf("require: cannot find module %q", id)
}

// loadFile evaluates a file once per module and returns its module object.
// A file required while it is still evaluating sees its partial exports.
func (m *Module) loadFile(path string) (*goja.Object, error) {
	if mod, ok := m.cache[path]; ok {
		return mod, nil
	}

	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("require: %w", err)
	}

	mod := m.vm.NewObject()
	exports := m.vm.NewObject()
	if err := mod.Set("exports", exports); err != nil {
		return nil, err
	}

	if strings.EqualFold(filepath.Ext(path), ".json") {
		parse, _ := goja.AssertFunction(m.vm.Get("JSON").ToObject(m.vm).Get("parse"))
		v, err := parse(goja.Undefined(), m.vm.ToValue(string(src)))
		if err != nil {
			return nil, fmt.Errorf("require %s: %w", filepath.Base(path), err)
		}
		if err := mod.Set("exports", v); err != nil {
			return nil, err
		}
		m.cache[path] = mod
		return mod, nil
	}

	wrapped := "(function(exports, require, module, __filename, __dirname) {" + string(src) + "\n})"
	prg, err := goja.Compile(path, wrapped, false)
	if err != nil {
		return nil, fmt.Errorf("require %s: %w", filepath.Base(path), err)
	}
	fnVal, err := m.vm.RunProgram(prg)
	if err != nil {
		return nil, err
	}
	fn, ok := goja.AssertFunction(fnVal)
	if !ok {
		return nil, fmt.Errorf("require %s: wrapper is not a function", filepath.Base(path))
	}

	m.cache[path] = mod
	dir := filepath.Dir(path)
	_, err = fn(exports, exports, m.vm.ToValue(m.requireFrom(dir)), mod, m.vm.ToValue(path), m.vm.ToValue(dir))
	if err != nil {
		delete(m.cache, path)
		return nil, err
	}
	return mod, nil
}
