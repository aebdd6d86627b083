// Package buildctx implements the per-target execution context a Target's
// Command runs against: property/property-reference expansion, a
// lazily-created scoped work directory, and atomic output writes.
package buildctx

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"go.kiln.build/kiln/internal/core/domain"
	"go.trai.ch/zerr"
)

// Context is the execution context passed to a target's command. Options
// is immutable for the lifetime of the Context: it is the frozen snapshot
// domain.OptionStore.EffectiveOptionsFor produced at resolve time.
type Context struct {
	root       string
	targetName string
	workDir    string
	props      *domain.PropertyStore
	publish    func(path, category string)
	Options    map[string]any

	workDirCreated bool
}

// New returns a Context rooted at root (the workspace root commands are
// considered relative to) for the named target, expanding properties
// through props, with the given frozen effective options. targetName scopes
// the per-target work directory so concurrent targets never collide.
func New(root, targetName string, props *domain.PropertyStore, options map[string]any) *Context {
	return &Context{root: root, targetName: targetName, props: props, Options: options}
}

// SetPublisher installs the sink PublishArtifact forwards to, typically
// the scheduler's run-wide artifact collector.
func (c *Context) SetPublisher(fn func(path, category string)) {
	c.publish = fn
}

// PublishArtifact announces a produced output so the chosen console
// formatter can surface it after the run completes. A Context with no
// publisher attached drops the announcement.
func (c *Context) PublishArtifact(path, category string) {
	if c.publish == nil {
		return
	}
	c.publish(c.ResolvePath(path), category)
}

// Expand recursively substitutes "${name}" references in s against the
// bound PropertyStore.
func (c *Context) Expand(s string) (string, error) {
	return c.props.ExpandString(s)
}

// ResolvePath resolves s relative to the workspace root if it isn't
// already absolute.
func (c *Context) ResolvePath(s string) string {
	if filepath.IsAbs(s) {
		return s
	}
	return filepath.Join(c.root, s)
}

// WorkDir returns this target's scoped scratch directory, creating it on
// first use. Callers that need a clean directory per attempt (spec's
// retry/clean semantics) call RemoveWorkDir between attempts.
func (c *Context) WorkDir() (string, error) {
	if c.workDir == "" {
		c.workDir = filepath.Join(c.root, domain.KilnDirName, "work", sanitizeWorkDirName(c.targetName))
	}
	if !c.workDirCreated {
		if err := os.MkdirAll(c.workDir, domain.DirPerm); err != nil {
			return "", zerr.Wrap(err, "failed to create work directory")
		}
		c.workDirCreated = true
	}
	return c.workDir, nil
}

// RemoveWorkDir removes the scoped work directory and clears the
// lazily-created marker, so the next WorkDir call recreates it empty.
func (c *Context) RemoveWorkDir() error {
	if c.workDir == "" {
		return nil
	}
	if err := os.RemoveAll(c.workDir); err != nil {
		return zerr.Wrap(err, "failed to remove work directory")
	}
	c.workDirCreated = false
	return nil
}

// OpenForWrite returns a WriteCloser for path that is only visible at path
// once Close succeeds: writes land in a temp file beside path and are
// renamed into place on Close, so a crash or cancellation mid-write never
// leaves a partial output.
func (c *Context) OpenForWrite(path string, mode os.FileMode) (io.WriteCloser, error) {
	abs := c.ResolvePath(path)
	dir := filepath.Dir(abs)
	if err := os.MkdirAll(dir, domain.DirPerm); err != nil {
		return nil, zerr.Wrap(err, "failed to create output directory")
	}

	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return nil, zerr.Wrap(err, "failed to create temp output file")
	}
	if err := tmp.Chmod(mode); err != nil {
		tmp.Close() //nolint:errcheck
		os.Remove(tmp.Name()) //nolint:errcheck
		return nil, zerr.Wrap(err, "failed to set output file mode")
	}

	return &atomicWriter{f: tmp, tmpPath: tmp.Name(), finalPath: abs}, nil
}

// sanitizeWorkDirName replaces ':' (the workspace project:target namespace
// separator) with '_' so a target name is always a single valid path
// component.
func sanitizeWorkDirName(name string) string {
	return strings.ReplaceAll(name, ":", "_")
}

type atomicWriter struct {
	f         *os.File
	tmpPath   string
	finalPath string
	closed    bool
}

func (w *atomicWriter) Write(p []byte) (int, error) {
	return w.f.Write(p)
}

func (w *atomicWriter) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true

	if err := w.f.Close(); err != nil {
		os.Remove(w.tmpPath) //nolint:errcheck
		return zerr.Wrap(err, "failed to close temp output file")
	}
	if err := os.Rename(w.tmpPath, w.finalPath); err != nil {
		os.Remove(w.tmpPath) //nolint:errcheck
		return zerr.Wrap(err, "failed to rename temp output file into place")
	}
	return nil
}
