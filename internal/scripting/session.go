// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 Golobulus Authors

package scripting

import (
	"fmt"
	"strings"

	"github.com/dop251/goja"
)

// EntryPoint names one of the two functions every module defines.
type EntryPoint int

const (
	EntrySetup EntryPoint = iota
	EntryRun
)

func (e EntryPoint) String() string {
	if e == EntrySetup {
		return "setup"
	}
	return "run"
}

// Session is one locked use of a module. Everything the script prints while
// the session is open is captured. A session must be closed.
type Session struct {
	m    *Module
	out  strings.Builder
	open bool
}

// Begin takes the interpreter's execution lock and starts capturing output.
func (m *Module) Begin() *Session {
	m.interp.exec.Lock()
	s := &Session{m: m, open: true}
	m.out = &s.out
	return s
}

// Runtime returns the module's VM. It may only be used while the session
// is open.
func (s *Session) Runtime() *goja.Runtime { return s.m.vm }

// Call invokes an entry point with args. A returned promise is awaited: the
// execution lock is released while the loop settles it. Script exceptions
// and rejections come back as *RuntimeError carrying the output captured so
// far.
func (s *Session) Call(entry EntryPoint, args ...goja.Value) (err error) {
	m := s.m
	if m.poisoned {
		return &RuntimeError{Stderr: "module is unusable after an internal error, reload the script", Stdout: s.take()}
	}

	fn := m.run
	if entry == EntrySetup {
		fn = m.setup
	}

	defer func() {
		if r := recover(); r != nil {
			m.poisoned = true
			m.interp.log.Error("host panic during script call", "module", m.ID, "entry", entry, "panic", r)
			err = &RuntimeError{Stderr: fmt.Sprintf("internal error: %v", r), Stdout: s.take()}
		}
	}()

	res, callErr := fn(goja.Undefined(), args...)
	if callErr != nil {
		return runtimeError(callErr, s.take())
	}
	if res == nil {
		return nil
	}
	p, ok := res.Export().(*goja.Promise)
	if !ok {
		return nil
	}
	return s.await(p)
}

// await blocks until p settles. The loop wakes the session after every task
// it runs for this module; a promise still pending once no host operations
// are outstanding can never settle.
func (s *Session) await(p *goja.Promise) error {
	m := s.m
	in := m.interp

	for p.State() == goja.PromiseStatePending {
		if m.pending == 0 {
			return ErrAsync
		}

		wake := make(chan struct{}, 1)
		m.waiter = wake
		in.exec.Unlock()

		var closed bool
		select {
		case <-wake:
		case <-in.done:
			closed = true
		}

		in.exec.Lock()
		m.waiter = nil
		m.out = &s.out
		if closed {
			return ErrClosed
		}
	}

	if p.State() == goja.PromiseStateRejected {
		return &RuntimeError{Stderr: rejectionMessage(p.Result()), Stdout: s.take()}
	}
	return nil
}

// take returns and clears the output captured so far.
func (s *Session) take() string {
	out := s.out.String()
	s.out.Reset()
	return out
}

// Stdout returns and clears the output captured so far.
func (s *Session) Stdout() string { return s.take() }

// Close stops capturing, releases the execution lock, and returns output
// not yet taken.
func (s *Session) Close() string {
	if !s.open {
		return ""
	}
	s.open = false
	out := s.take()
	s.m.out = nil
	s.m.interp.exec.Unlock()
	return out
}
