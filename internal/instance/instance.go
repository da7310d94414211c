// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 Golobulus Authors

// Package instance binds a Runner to a script file on disk the way a host
// effect does: it remembers where the script came from, reloads it, keeps
// per-frame logs, and can be saved and restored.
package instance

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/mobile-bungalow/golobulus/internal/engine"
	"github.com/mobile-bungalow/golobulus/internal/pixel"
	"github.com/mobile-bungalow/golobulus/internal/util"
	"github.com/mobile-bungalow/golobulus/internal/variant"
)

var (
	// ErrNoScript indicates a reload with no script file loaded
	ErrNoScript = errors.New("no script file loaded")

	// ErrEmptyScript indicates the script file is missing or empty
	ErrEmptyScript = errors.New("script file is empty")
)

// State is the part of an Instance that survives a save. The parameter
// registry is rebuilt by running setup again.
type State struct {
	Source        string `yaml:"source,omitempty"`
	LastKnownPath string `yaml:"last_known_path,omitempty"`
	VenvPath      string `yaml:"venv_path,omitempty"`
}

// MarshalYAML writes Source double quoted. Block scalars drop leading blank
// lines and trailing newlines, which would shift the line numbers of errors
// raised by the restored script.
func (s State) MarshalYAML() (any, error) {
	node := &yaml.Node{Kind: yaml.MappingNode}
	add := func(key, value string, style yaml.Style) {
		if value == "" {
			return
		}
		node.Content = append(node.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Value: key},
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: value, Style: style},
		)
	}
	add("source", s.Source, yaml.DoubleQuotedStyle)
	add("last_known_path", s.LastKnownPath, 0)
	add("venv_path", s.VenvPath, 0)
	return node, nil
}

// Log is what one frame printed and the error it raised.
type Log struct {
	Stdout string
	Stderr string
}

// Instance owns a Runner and the script file feeding it.
type Instance struct {
	mu sync.Mutex

	runner *engine.Runner
	opts   []engine.Option
	log    *slog.Logger

	src           string
	lastKnownPath string
	venvPath      string

	logs map[float64]Log
}

// New creates an Instance running the default script. opts are kept and
// reused whenever the Runner is recreated.
func New(opts ...engine.Option) (*Instance, error) {
	r, err := engine.New(opts...)
	if err != nil {
		return nil, err
	}
	return &Instance{
		runner: r,
		opts:   opts,
		log:    util.Logger,
		logs:   make(map[float64]Log),
	}, nil
}

// Runner returns the underlying Runner.
func (i *Instance) Runner() *engine.Runner {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.runner
}

// LoadFile loads the script at path. Its directory joins the module search
// path so the script can require its neighbours by bare name.
func (i *Instance) LoadFile(path string) (string, error) {
	i.mu.Lock()
	defer i.mu.Unlock()

	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read script: %w", err)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("failed to resolve script path: %w", err)
	}

	i.runner.SetScriptParentDirectory(filepath.Dir(abs))
	stdout, err := i.runner.LoadScript(string(data), abs)
	if err != nil {
		return stdout, err
	}

	clear(i.logs)
	i.src = string(data)
	i.lastKnownPath = abs
	return stdout, nil
}

// Reload reads the last loaded file again.
func (i *Instance) Reload() (string, error) {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.reload()
}

func (i *Instance) reload() (string, error) {
	if i.lastKnownPath == "" {
		if i.src == "" {
			return "", ErrNoScript
		}
		return i.loadSource(i.src, "")
	}

	data, _ := os.ReadFile(i.lastKnownPath)
	if len(data) == 0 {
		return "", fmt.Errorf("%w: %s", ErrEmptyScript, i.lastKnownPath)
	}
	return i.loadSource(string(data), i.lastKnownPath)
}

func (i *Instance) loadSource(src, path string) (string, error) {
	stdout, err := i.runner.LoadScript(src, path)
	if err != nil {
		return stdout, err
	}
	clear(i.logs)
	i.src = src
	return stdout, nil
}

// SetVenvPath sets the library directory and reloads any loaded script so
// it takes effect.
func (i *Instance) SetVenvPath(dir string) (string, error) {
	i.mu.Lock()
	defer i.mu.Unlock()

	i.venvPath = dir
	i.runner.SetVenvPath(dir)
	if i.src == "" {
		return "", nil
	}
	return i.reload()
}

// ClearVenvPath removes the library directory and reloads any loaded script.
func (i *Instance) ClearVenvPath() (string, error) {
	i.mu.Lock()
	defer i.mu.Unlock()

	if err := i.runner.ClearVenvPath(); err != nil {
		return "", err
	}
	i.venvPath = ""
	if i.src == "" {
		return "", nil
	}
	return i.reload()
}

// Unload drops the script and goes back to the default one.
func (i *Instance) Unload() error {
	i.mu.Lock()
	defer i.mu.Unlock()

	if err := i.runner.ClearScriptParentDirectory(); err != nil {
		return err
	}
	r, err := engine.New(i.opts...)
	if err != nil {
		return err
	}
	if i.venvPath != "" {
		r.SetVenvPath(i.venvPath)
	}
	i.runner.Close()
	i.runner = r
	i.src = ""
	i.lastKnownPath = ""
	clear(i.logs)
	return nil
}

// Close releases the script.
func (i *Instance) Close() {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.runner.Close()
}

// Render draws the frame at time t into out. On failure out is cleared so
// the host shows a transparent frame, and the error is kept in the frame's
// log as well as returned.
func (i *Instance) Render(t float64, inputs map[string]pixel.InDesc, out pixel.OutDesc) error {
	i.mu.Lock()
	defer i.mu.Unlock()

	if err := out.Validate(); err != nil {
		return err
	}
	out.Zero()

	// Sequential scripts are rendered by a job; live frames pass the first
	// image input through.
	if i.runner.IsSequential() {
		if in, ok := i.firstImage(inputs); ok {
			return pixel.Blit(out, in)
		}
		return nil
	}

	i.runner.SetTime(t)
	pass := i.runner.NewRenderPass(out)
	for name, in := range inputs {
		pass.LoadInput(name, in)
	}
	stdout, err := pass.Submit()
	if err != nil {
		out.Zero()
	}
	i.record(t, stdout, err)
	return err
}

// FrameSize returns the output size for the next frame: the size the
// script last asked for, or def when it has not asked.
func (i *Instance) FrameSize(def pixel.Size) pixel.Size {
	if size, ok := i.Runner().RequestedOutputSize(); ok {
		return size
	}
	return def
}

// RenderFrame renders the frame at time t into a new buffer of format f,
// sized by FrameSize. A script that asks for a larger output mid-run gets
// one more pass at the size it asked for.
func (i *Instance) RenderFrame(t float64, f pixel.Format, def pixel.Size, inputs map[string]pixel.InDesc) (*pixel.Buffer, error) {
	out, err := pixel.AllocBuffer(f, i.FrameSize(def))
	if err != nil {
		return nil, err
	}
	err = i.Render(t, inputs, out.OutDesc())

	var tooLarge *engine.OutputSizeTooLargeError
	if errors.As(err, &tooLarge) {
		i.log.Debug("resizing output", "from", tooLarge.Available, "to", tooLarge.Requested)
		if out, err = pixel.AllocBuffer(f, tooLarge.Requested); err != nil {
			return nil, err
		}
		err = i.Render(t, inputs, out.OutDesc())
	}
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (i *Instance) firstImage(inputs map[string]pixel.InDesc) (pixel.InDesc, bool) {
	for _, e := range i.runner.Vars() {
		if e.Value.Kind() != variant.KindImage {
			continue
		}
		in, ok := inputs[e.Name]
		return in, ok
	}
	return pixel.InDesc{}, false
}

func (i *Instance) record(t float64, stdout string, err error) {
	delete(i.logs, t)

	entry := Log{Stdout: stdout}
	var tooLarge *engine.OutputSizeTooLargeError
	var rt *engine.RuntimeError
	switch {
	case err == nil:
	case errors.As(err, &tooLarge):
		entry.Stderr = tooLarge.Error()
	case errors.As(err, &rt):
		entry.Stderr = rt.Stderr
	default:
		entry.Stderr = err.Error()
	}

	if entry.Stdout != "" {
		i.log.Info("frame output", "time", t, "stdout", strings.TrimRight(entry.Stdout, "\n"))
	}
	if entry.Stderr != "" {
		i.log.Error("frame failed", "time", t, "error", entry.Stderr)
	}
	if entry != (Log{}) {
		i.logs[t] = entry
	}
}

// Logs returns what the frame at time t printed and raised.
func (i *Instance) Logs(t float64) (Log, bool) {
	i.mu.Lock()
	defer i.mu.Unlock()
	l, ok := i.logs[t]
	return l, ok
}

// State returns the serializable part of the Instance.
func (i *Instance) State() State {
	i.mu.Lock()
	defer i.mu.Unlock()
	return State{Source: i.src, LastKnownPath: i.lastKnownPath, VenvPath: i.venvPath}
}

// Restore replaces the Instance's script with the one in st and runs its
// setup. The saved source is used even if the file has changed since.
func (i *Instance) Restore(st State) (string, error) {
	i.mu.Lock()
	defer i.mu.Unlock()

	i.venvPath = st.VenvPath
	if st.VenvPath != "" {
		i.runner.SetVenvPath(st.VenvPath)
	}
	i.lastKnownPath = st.LastKnownPath
	if st.LastKnownPath != "" {
		i.runner.SetScriptParentDirectory(filepath.Dir(st.LastKnownPath))
	}
	if st.Source == "" {
		return "", nil
	}
	return i.loadSource(st.Source, st.LastKnownPath)
}

// Marshal encodes the Instance's State as YAML.
func (i *Instance) Marshal() ([]byte, error) {
	return yaml.Marshal(i.State())
}

// Unmarshal creates an Instance from YAML written by Marshal.
func Unmarshal(data []byte, opts ...engine.Option) (*Instance, error) {
	var st State
	if err := yaml.Unmarshal(data, &st); err != nil {
		return nil, fmt.Errorf("failed to parse instance state: %w", err)
	}
	inst, err := New(opts...)
	if err != nil {
		return nil, err
	}
	if _, err := inst.Restore(st); err != nil {
		return nil, fmt.Errorf("failed to restore script: %w", err)
	}
	return inst, nil
}
