// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 Golobulus Authors

// Package jobs renders frames of sequential scripts in the background and
// writes them to a directory, one goroutine per job.
package jobs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/rs/xid"

	"github.com/mobile-bungalow/golobulus/internal/engine"
	"github.com/mobile-bungalow/golobulus/internal/footage"
	"github.com/mobile-bungalow/golobulus/internal/pixel"
	"github.com/mobile-bungalow/golobulus/internal/util"
	"github.com/mobile-bungalow/golobulus/internal/variant"
)

var (
	// ErrUnknownJob indicates no job has the given id
	ErrUnknownJob = errors.New("unknown job")

	// ErrJobFinished indicates the job no longer accepts frames
	ErrJobFinished = errors.New("job has finished")
)

// JobID identifies a job in a Pool.
type JobID string

// State is where a job is in its life.
type State int

const (
	Ready State = iota
	Busy
	Done
	Cancelled
	Failed
)

func (s State) String() string {
	switch s {
	case Ready:
		return "ready"
	case Busy:
		return "busy"
	case Done:
		return "done"
	case Cancelled:
		return "cancelled"
	case Failed:
		return "error"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Status is a snapshot of a job. Stdout and Err are set when State is Failed.
type Status struct {
	State  State
	Stdout string
	Err    error
}

// Finished reports whether the job has stopped for good.
func (s Status) Finished() bool {
	return s.State == Done || s.State == Cancelled || s.State == Failed
}

// Desc describes the frames a job writes. ARGB formats are rendered in
// their straight RGBA sibling.
type Desc struct {
	Format    pixel.Format
	Size      pixel.Size
	Directory string
	LastFrame int
}

// Frame is one unit of work. Vars are applied with TrySetVar before the
// frame renders and Inputs are owned by the job once submitted.
type Frame struct {
	Time   float64
	Index  int
	Vars   map[string]variant.Variant
	Inputs map[string]*pixel.Buffer
}

type job struct {
	id     JobID
	runner *engine.Runner
	desc   Desc

	mu      sync.Mutex
	queue   []Frame
	status  Status
	wake    chan struct{}
	cancel  chan struct{}
	stopped chan struct{}
	once    sync.Once
}

// Pool tracks running and finished jobs.
type Pool struct {
	mu     sync.Mutex
	jobs   map[JobID]*job
	log    *slog.Logger
	notify func(JobID, Status)
	wg     sync.WaitGroup
}

// NewPool creates an empty Pool. notify, if set, is called from the job's
// goroutine after every status change.
func NewPool(log *slog.Logger, notify func(JobID, Status)) *Pool {
	if log == nil {
		log = util.Logger
	}
	return &Pool{jobs: make(map[JobID]*job), log: log, notify: notify}
}

// Spawn starts a job that renders with r, which the job owns and closes
// when it stops. The directory must already exist.
func (p *Pool) Spawn(r *engine.Runner, d Desc) (JobID, error) {
	if !d.Format.Valid() {
		return "", fmt.Errorf("unknown pixel format %d", int(d.Format))
	}
	if err := d.Size.Check(); err != nil {
		return "", err
	}
	if d.LastFrame < 0 {
		return "", fmt.Errorf("invalid last frame %d", d.LastFrame)
	}
	d.Format = d.Format.Straight()

	j := &job{
		id:      JobID(xid.New().String()),
		runner:  r,
		desc:    d,
		wake:    make(chan struct{}, 1),
		cancel:  make(chan struct{}),
		stopped: make(chan struct{}),
	}

	p.mu.Lock()
	p.jobs[j.id] = j
	p.mu.Unlock()

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		p.run(j)
	}()
	return j.id, nil
}

// Submit queues a frame for the job.
func (p *Pool) Submit(id JobID, f Frame) error {
	j, err := p.get(id)
	if err != nil {
		return err
	}

	j.mu.Lock()
	if j.status.Finished() {
		j.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrJobFinished, id)
	}
	j.queue = append(j.queue, f)
	j.mu.Unlock()

	select {
	case j.wake <- struct{}{}:
	default:
	}
	return nil
}

// Cancel stops the job and removes its directory. A frame being rendered
// completes first.
func (p *Pool) Cancel(id JobID) error {
	j, err := p.get(id)
	if err != nil {
		return err
	}
	j.once.Do(func() { close(j.cancel) })
	return nil
}

// Status returns the job's current status.
func (p *Pool) Status(id JobID) (Status, error) {
	j, err := p.get(id)
	if err != nil {
		return Status{}, err
	}
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.status, nil
}

// Wait blocks until the job stops or ctx is done.
func (p *Pool) Wait(ctx context.Context, id JobID) (Status, error) {
	j, err := p.get(id)
	if err != nil {
		return Status{}, err
	}
	select {
	case <-j.stopped:
	case <-ctx.Done():
		return Status{}, ctx.Err()
	}
	return p.Status(id)
}

// Forget drops a stopped job from the pool.
func (p *Pool) Forget(id JobID) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if j, ok := p.jobs[id]; ok {
		select {
		case <-j.stopped:
			delete(p.jobs, id)
		default:
		}
	}
}

// Close cancels every job still running and waits for all of them.
func (p *Pool) Close() {
	p.mu.Lock()
	for _, j := range p.jobs {
		j.once.Do(func() { close(j.cancel) })
	}
	p.mu.Unlock()
	p.wg.Wait()
}

func (p *Pool) get(id JobID) (*job, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	j, ok := p.jobs[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownJob, id)
	}
	return j, nil
}

func (p *Pool) setStatus(j *job, s Status) {
	j.mu.Lock()
	j.status = s
	j.mu.Unlock()
	if p.notify != nil {
		p.notify(j.id, s)
	}
}

func (p *Pool) run(j *job) {
	defer close(j.stopped)
	defer j.runner.Close()

	log := p.log.With("job", string(j.id))
	out := pixel.NewBuffer(j.desc.Format, j.desc.Size)

	for {
		// Cancellation wins over queued frames.
		select {
		case <-j.cancel:
			p.cancelled(j, log)
			return
		default:
		}

		j.mu.Lock()
		var f Frame
		ok := len(j.queue) > 0
		if ok {
			f = j.queue[0]
			j.queue = j.queue[1:]
		}
		j.mu.Unlock()

		if !ok {
			select {
			case <-j.cancel:
				p.cancelled(j, log)
				return
			case <-j.wake:
			}
			continue
		}

		p.setStatus(j, Status{State: Busy})
		if s := p.render(j, out, f, log); s.Finished() {
			p.setStatus(j, s)
			return
		}
		p.setStatus(j, Status{State: Ready})
	}
}

func (p *Pool) cancelled(j *job, log *slog.Logger) {
	log.Debug("cancelling job, removing directory", "dir", j.desc.Directory)
	if err := os.RemoveAll(j.desc.Directory); err != nil {
		log.Warn("failed to remove job directory", "dir", j.desc.Directory, "error", err)
	}
	p.setStatus(j, Status{State: Cancelled})
}

func (p *Pool) render(j *job, out *pixel.Buffer, f Frame, log *slog.Logger) Status {
	r := j.runner
	for name, v := range f.Vars {
		if err := r.TrySetVar(name, v); err != nil {
			log.Debug("ignoring variable", "name", name, "error", err)
		}
	}

	out.OutDesc().Zero()
	r.SetTime(f.Time)
	pass := r.NewRenderPass(out.OutDesc())
	for name, in := range f.Inputs {
		pass.LoadInput(name, in.InDesc())
	}

	if _, err := pass.Submit(); err != nil {
		log.Error("error in background job", "frame", f.Index, "error", err)
		var rt *engine.RuntimeError
		if errors.As(err, &rt) {
			return Status{State: Failed, Stdout: rt.Stdout, Err: err}
		}
		return Status{State: Failed, Err: err}
	}

	path := filepath.Join(j.desc.Directory, footage.FrameName(f.Index, j.desc.LastFrame))
	if err := footage.Save(path, out.InDesc()); err != nil {
		log.Error("error while writing file", "path", path, "error", err)
		_ = os.RemoveAll(j.desc.Directory)
		return Status{State: Failed, Err: err}
	}

	if f.Index == j.desc.LastFrame {
		return Status{State: Done}
	}
	return Status{State: Ready}
}
