// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 Golobulus Authors

package jobs

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fortytw2/leaktest"
	"github.com/google/go-cmp/cmp"

	"github.com/mobile-bungalow/golobulus/internal/engine"
	"github.com/mobile-bungalow/golobulus/internal/footage"
	"github.com/mobile-bungalow/golobulus/internal/pixel"
	"github.com/mobile-bungalow/golobulus/internal/scripting"
	"github.com/mobile-bungalow/golobulus/internal/variant"
)

const levelScript = `
function setup(ctx) {
    ctx.setSequentialMode(true);
    ctx.registerInt("level", {min: 0, max: 255, default: 10});
}
function run(ctx) {
    print("frame " + ctx.time());
    if (ctx.time() < 0) {
        throw new Error("negative time");
    }
    ctx.output().fill(ctx.getInput("level"));
}
`

func quiet() *slog.Logger { return slog.New(slog.DiscardHandler) }

func newRunner(t *testing.T, interp *scripting.Interpreter, src string) *engine.Runner {
	t.Helper()
	r, err := engine.New(engine.WithInterpreter(interp), engine.WithLogger(quiet()))
	if err != nil {
		t.Fatalf("engine.New() error: %v", err)
	}
	if _, err := r.LoadScript(src, "level.js"); err != nil {
		t.Fatalf("LoadScript() error: %v", err)
	}
	return r
}

func wait(t *testing.T, p *Pool, id JobID) Status {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	s, err := p.Wait(ctx, id)
	if err != nil {
		t.Fatalf("Wait() error: %v", err)
	}
	return s
}

func TestSequenceWritesFrames(t *testing.T) {
	defer leaktest.Check(t)()
	interp := scripting.NewInterpreter(quiet())
	defer interp.Close()

	pool := NewPool(quiet(), nil)
	defer pool.Close()

	dir := t.TempDir()
	id, err := pool.Spawn(newRunner(t, interp, levelScript), Desc{
		Format:    pixel.Argb8,
		Size:      pixel.Size{Width: 2, Height: 2},
		Directory: dir,
		LastFrame: 10,
	})
	if err != nil {
		t.Fatalf("Spawn() error: %v", err)
	}

	for i := 8; i <= 10; i++ {
		f := Frame{Time: float64(i), Index: i}
		if i == 9 {
			f.Vars = map[string]variant.Variant{"level": variant.NewInt(99, 0, 0)}
		}
		if err := pool.Submit(id, f); err != nil {
			t.Fatalf("Submit(%d) error: %v", i, err)
		}
	}

	if s := wait(t, pool, id); s.State != Done {
		t.Fatalf("final status = %v (%v), want done", s.State, s.Err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	if diff := cmp.Diff([]string{"08.png", "09.png", "10.png"}, names); diff != "" {
		t.Errorf("frames mismatch (-want +got):\n%s", diff)
	}

	// Argb8 is written as rgba8, and vars persist across frames.
	for _, name := range []string{"09.png", "10.png"} {
		buf, err := footage.Load(filepath.Join(dir, name), pixel.Rgba8)
		if err != nil {
			t.Fatal(err)
		}
		if buf.Data[0] != 99 {
			t.Errorf("%s first byte = %d, want 99", name, buf.Data[0])
		}
	}

	if err := pool.Submit(id, Frame{Index: 11}); !errors.Is(err, ErrJobFinished) {
		t.Errorf("Submit() after done error = %v, want ErrJobFinished", err)
	}
}

func TestCancelRemovesDirectory(t *testing.T) {
	defer leaktest.Check(t)()
	interp := scripting.NewInterpreter(quiet())
	defer interp.Close()

	var states []State
	pool := NewPool(quiet(), func(_ JobID, s Status) { states = append(states, s.State) })
	defer pool.Close()

	dir := filepath.Join(t.TempDir(), "out")
	if err := os.Mkdir(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	id, err := pool.Spawn(newRunner(t, interp, levelScript), Desc{
		Format:    pixel.Rgba8,
		Size:      pixel.Size{Width: 1, Height: 1},
		Directory: dir,
		LastFrame: 5,
	})
	if err != nil {
		t.Fatal(err)
	}
	if err := pool.Submit(id, Frame{Time: 0, Index: 0}); err != nil {
		t.Fatal(err)
	}
	if err := pool.Cancel(id); err != nil {
		t.Fatalf("Cancel() error: %v", err)
	}

	if s := wait(t, pool, id); s.State != Cancelled {
		t.Errorf("status = %v, want cancelled", s.State)
	}
	if _, err := os.Stat(dir); !os.IsNotExist(err) {
		t.Errorf("directory still present: %v", err)
	}
	if got := states[len(states)-1]; got != Cancelled {
		t.Errorf("last notified state = %v", got)
	}
}

func TestRunErrorKeepsStdout(t *testing.T) {
	defer leaktest.Check(t)()
	interp := scripting.NewInterpreter(quiet())
	defer interp.Close()

	pool := NewPool(quiet(), nil)
	defer pool.Close()

	id, err := pool.Spawn(newRunner(t, interp, levelScript), Desc{
		Format:    pixel.Rgba16,
		Size:      pixel.Size{Width: 1, Height: 1},
		Directory: t.TempDir(),
		LastFrame: 1,
	})
	if err != nil {
		t.Fatal(err)
	}
	if err := pool.Submit(id, Frame{Time: -1, Index: 0}); err != nil {
		t.Fatal(err)
	}

	s := wait(t, pool, id)
	if s.State != Failed {
		t.Fatalf("status = %v, want error", s.State)
	}
	if s.Stdout != "frame -1\n" {
		t.Errorf("stdout = %q", s.Stdout)
	}
	var rt *engine.RuntimeError
	if !errors.As(s.Err, &rt) {
		t.Errorf("error = %T, want *engine.RuntimeError", s.Err)
	}
}

func TestWriteErrorFailsJob(t *testing.T) {
	defer leaktest.Check(t)()
	interp := scripting.NewInterpreter(quiet())
	defer interp.Close()

	pool := NewPool(quiet(), nil)
	defer pool.Close()

	id, err := pool.Spawn(newRunner(t, interp, levelScript), Desc{
		Format:    pixel.Rgba8,
		Size:      pixel.Size{Width: 1, Height: 1},
		Directory: filepath.Join(t.TempDir(), "missing"),
		LastFrame: 0,
	})
	if err != nil {
		t.Fatal(err)
	}
	if err := pool.Submit(id, Frame{Index: 0}); err != nil {
		t.Fatal(err)
	}
	if s := wait(t, pool, id); s.State != Failed || s.Err == nil {
		t.Errorf("status = %+v, want a write error", s)
	}
}

func TestSpawnValidation(t *testing.T) {
	pool := NewPool(quiet(), nil)
	defer pool.Close()

	tests := []struct {
		name string
		desc Desc
	}{
		{"zero size", Desc{Format: pixel.Rgba8}},
		{"too large", Desc{Format: pixel.Rgba8, Size: pixel.Size{Width: pixel.MaxDimension + 1, Height: 1}}},
		{"bad format", Desc{Format: pixel.Format(99), Size: pixel.Size{Width: 1, Height: 1}}},
		{"negative last frame", Desc{Format: pixel.Rgba8, Size: pixel.Size{Width: 1, Height: 1}, LastFrame: -1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := pool.Spawn(nil, tt.desc); err == nil {
				t.Error("Spawn() should fail")
			}
		})
	}

	if _, err := pool.Status("nope"); !errors.Is(err, ErrUnknownJob) {
		t.Errorf("Status() error = %v, want ErrUnknownJob", err)
	}
}
