// Package fetch downloads one remote resource to a local cache file, one
// bounded chunk per Step call.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/timeline-badge/timeline/internal/engine/types"
	"github.com/timeline-badge/timeline/internal/utils"
)

const maxEmptyReads = 100

// ErrClosed is the failure cause of a task that was closed before it finished.
var ErrClosed = errors.New("fetch task closed")

// Status is the outcome of a single Step.
type Status int

const (
	Pending Status = iota
	Done
	Failed
)

func (s Status) String() string {
	switch s {
	case Pending:
		return "pending"
	case Done:
		return "done"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// Task is one resumable download bound to a locator, a destination and a
// force flag. It owns a single transfer buffer; peak memory is one chunk
// regardless of the resource size.
//
// Data is written to <Destination>.part and renamed over Destination only
// when the source is exhausted, so a failed or cancelled task never leaves a
// truncated cache file behind.
//
// A Task is not safe for concurrent use.
type Task struct {
	Locator     string
	Destination string
	Force       bool

	opener  Opener
	buf     []byte
	written int64

	body     io.ReadCloser
	sink     *os.File
	tempPath string

	opened    bool
	eof       bool
	finished  bool
	fromCache bool
	err       error
}

// NewTask creates a task that reads chunkSize bytes per step.
func NewTask(opener Opener, locator, destination string, force bool, chunkSize int) *Task {
	if chunkSize <= 0 {
		chunkSize = types.ChunkSize
	}
	return &Task{
		Locator:     locator,
		Destination: destination,
		Force:       force,
		opener:      opener,
		buf:         make([]byte, chunkSize),
		tempPath:    destination + types.IncompleteSuffix,
	}
}

// Written returns the number of bytes transferred so far.
func (t *Task) Written() int64 { return t.written }

// FromCache reports whether the task completed from an existing destination
// without touching the network.
func (t *Task) FromCache() bool { return t.fromCache }

// Err returns the failure cause once Step has returned Failed.
func (t *Task) Err() error { return t.err }

// Step performs one unit of work: the cache check, or opening the source
// plus the first chunk, or one further chunk, or the final commit.
func (t *Task) Step(ctx context.Context) (Status, error) {
	if t.err != nil {
		return Failed, t.err
	}
	if t.finished {
		return Done, nil
	}

	if !t.opened {
		if !t.Force && IsCached(t.Destination) {
			utils.Debug("Fetch: %s satisfied from cache", t.Destination)
			t.finished = true
			t.fromCache = true
			return Done, nil
		}
		if err := t.open(ctx); err != nil {
			return t.fail(err)
		}
	}

	if t.eof {
		return t.finish()
	}

	n, readErr := t.fill()
	if readErr == io.EOF {
		t.eof = true
	} else if readErr != nil {
		return t.fail(fmt.Errorf("read error: %w", readErr))
	}

	if n == 0 {
		return t.finish()
	}

	nw, writeErr := t.sink.Write(t.buf[:n])
	if nw > 0 {
		t.written += int64(nw)
	}
	if writeErr != nil {
		return t.fail(fmt.Errorf("write error: %w", writeErr))
	}
	if nw != n {
		return t.fail(io.ErrShortWrite)
	}

	utils.Debug("Fetch: %s %d bytes", t.Locator, t.written)
	return Pending, nil
}

// Close releases any open stream and sink and removes the temporary file.
// It is safe to call at any time and more than once; a committed
// destination is left untouched.
func (t *Task) Close() error {
	if !t.finished && t.err == nil {
		t.err = &types.FetchError{Locator: t.Locator, Destination: t.Destination, Err: ErrClosed}
	}
	return t.release(!t.finished)
}

func (t *Task) open(ctx context.Context) error {
	if err := os.MkdirAll(filepath.Dir(t.Destination), 0755); err != nil {
		return fmt.Errorf("failed to create cache directory: %w", err)
	}

	body, err := t.opener.Open(ctx, t.Locator)
	if err != nil {
		return fmt.Errorf("open error: %w", err)
	}

	sink, err := os.Create(t.tempPath)
	if err != nil {
		_ = body.Close()
		return fmt.Errorf("create error: %w", err)
	}

	t.body = body
	t.sink = sink
	t.opened = true
	return nil
}

// fill reads until the buffer is full or the source reports an error. Only a
// clean io.EOF ends the stream; a short body (io.ErrUnexpectedEOF from the
// transport) is a failure.
func (t *Task) fill() (int, error) {
	n := 0
	empty := 0
	for n < len(t.buf) {
		nr, err := t.body.Read(t.buf[n:])
		n += nr
		if err != nil {
			return n, err
		}
		if nr == 0 {
			empty++
			if empty >= maxEmptyReads {
				return n, io.ErrNoProgress
			}
		}
	}
	return n, nil
}

func (t *Task) finish() (Status, error) {
	if err := t.sink.Sync(); err != nil {
		return t.fail(fmt.Errorf("sync error: %w", err))
	}
	if err := t.sink.Close(); err != nil {
		t.sink = nil
		return t.fail(fmt.Errorf("close error: %w", err))
	}
	t.sink = nil

	if err := os.Rename(t.tempPath, t.Destination); err != nil {
		return t.fail(fmt.Errorf("failed to commit file: %w", err))
	}

	t.finished = true
	_ = t.release(false)

	utils.Debug("Fetch: %s -> %s (%s)", t.Locator, t.Destination, utils.ConvertBytesToHumanReadable(t.written))
	return Done, nil
}

func (t *Task) fail(err error) (Status, error) {
	t.err = &types.FetchError{
		Locator:     t.Locator,
		Destination: t.Destination,
		Err:         err,
	}
	_ = t.release(true)
	utils.Debug("Fetch: %v", t.err)
	return Failed, t.err
}

func (t *Task) release(removeTemp bool) error {
	var firstErr error
	if t.body != nil {
		if err := t.body.Close(); err != nil {
			firstErr = err
		}
		t.body = nil
	}
	if t.sink != nil {
		if err := t.sink.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		t.sink = nil
	}
	if removeTemp && t.opened {
		if err := os.Remove(t.tempPath); err != nil && !os.IsNotExist(err) && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// IsCached reports whether path holds a non-empty regular file.
func IsCached(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.Mode().IsRegular() && info.Size() > 0
}
