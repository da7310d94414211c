// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 Golobulus Authors

package scripting

import (
	"time"

	"github.com/dop251/goja"
)

// post schedules fn on the background loop, starting the loop on first use.
// fn runs with the execution lock held. It reports false once the
// interpreter is closed.
func (in *Interpreter) post(fn func()) bool {
	in.mu.Lock()
	if in.closed {
		in.mu.Unlock()
		return false
	}
	if !in.looping {
		in.looping = true
		go in.loop()
	}
	in.mu.Unlock()

	select {
	case in.tasks <- fn:
		return true
	case <-in.done:
		return false
	}
}

func (in *Interpreter) loop() {
	defer close(in.stopped)
	in.log.Debug("event loop started")
	for {
		select {
		case fn := <-in.tasks:
			in.runTask(fn)
		case <-in.done:
			in.log.Debug("event loop stopped")
			return
		}
	}
}

func (in *Interpreter) runTask(fn func()) {
	in.exec.Lock()
	defer in.exec.Unlock()
	defer func() {
		if r := recover(); r != nil {
			in.log.Error("event loop task panicked", "panic", r)
		}
	}()
	fn()
}

// schedule runs fn on the loop after d. The module counts the operation as
// outstanding until fn has run, so an awaiting run knows it may still settle.
func (m *Module) schedule(d time.Duration, fn func()) {
	m.pending++
	time.AfterFunc(d, func() {
		m.interp.post(func() {
			m.pending--
			fn()
			m.wake()
		})
	})
}

// wake tells a run blocked on a pending promise to look at it again.
func (m *Module) wake() {
	if m.waiter == nil {
		return
	}
	select {
	case m.waiter <- struct{}{}:
	default:
	}
}

// sleep(ms) returns a promise resolved on the loop after ms milliseconds.
func (m *Module) sleep(call goja.FunctionCall) goja.Value {
	p, resolve, _ := m.vm.NewPromise()
	m.schedule(millis(call.Argument(0)), func() {
		if err := resolve(goja.Undefined()); err != nil {
			m.interp.log.Warn("sleep resolution failed", "module", m.ID, "error", err)
		}
	})
	return m.vm.ToValue(p)
}

// setTimeout(fn, ms) calls fn on the loop after ms milliseconds.
func (m *Module) setTimeout(call goja.FunctionCall) goja.Value {
	fn, ok := goja.AssertFunction(call.Argument(0))
	if !ok {
		panic(m.vm.NewTypeError("setTimeout: callback is not a function"))
	}
	args := append([]goja.Value(nil), call.Arguments[min(2, len(call.Arguments)):]...)
	m.schedule(millis(call.Argument(1)), func() {
		if _, err := fn(goja.Undefined(), args...); err != nil {
			m.printf("%s\n", runtimeError(err, "").Stderr)
		}
	})
	return goja.Undefined()
}

func millis(v goja.Value) time.Duration {
	ms := v.ToFloat()
	if ms != ms || ms < 0 {
		ms = 0
	}
	return time.Duration(ms * float64(time.Millisecond))
}
