package feed

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"

	"github.com/fsnotify/fsnotify"

	"asterix/internal/util/logger/sl"
)

// Follow reads path like Read, then keeps waiting for appended lines until
// ctx is done. A trailing line without a newline is held back until it is
// completed. A file truncated below the read offset is read again from the
// start. Follow stops with ErrInputGone when the file is removed or renamed.
func Follow(ctx context.Context, path string, log *slog.Logger, fn func(Event)) (int, error) {
	const op = "feed.Follow"
	log = log.With(slog.String("op", op), slog.String("path", path))

	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	defer f.Close()

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	defer w.Close()

	if err := w.Add(path); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	t := &tail{f: f, r: bufio.NewReader(f), log: log, fn: fn}

	if err := t.drain(); err != nil {
		return t.n, fmt.Errorf("%s: %w", op, err)
	}

	for {
		select {
		case <-ctx.Done():
			return t.n, nil
		case ev, ok := <-w.Events:
			if !ok {
				return t.n, nil
			}
			if ev.Has(fsnotify.Write) {
				if err := t.rewindIfTruncated(); err != nil {
					return t.n, fmt.Errorf("%s: %w", op, err)
				}
				if err := t.drain(); err != nil {
					return t.n, fmt.Errorf("%s: %w", op, err)
				}
			}
			// unlinking a file we hold open shows up as a chmod only
			if ev.Has(fsnotify.Remove) || ev.Has(fsnotify.Rename) ||
				(ev.Has(fsnotify.Chmod) && missing(path)) {
				return t.n, fmt.Errorf("%s: %w", op, ErrInputGone)
			}
		case err, ok := <-w.Errors:
			if !ok {
				return t.n, nil
			}
			log.Warn("watch error", sl.Err(err))
		}
	}
}

type tail struct {
	f       *os.File
	r       *bufio.Reader
	offset  int64
	log     *slog.Logger
	fn      func(Event)
	pending []byte
	lineNo  int
	n       int
}

// drain consumes every complete line available now.
func (t *tail) drain() error {
	for {
		chunk, err := t.r.ReadBytes('\n')
		t.offset += int64(len(chunk))
		t.pending = append(t.pending, chunk...)

		if err == io.EOF {
			if len(t.pending) > maxLineSize {
				t.log.Warn("dropping oversized line", slog.Int("size", len(t.pending)))
				t.pending = t.pending[:0]
			}
			return nil
		}
		if err != nil {
			return err
		}

		t.lineNo++
		if handleLine(t.log, t.lineNo, t.pending, t.fn) {
			t.n++
		}
		t.pending = t.pending[:0]
	}
}

// rewindIfTruncated starts over from the beginning when the file shrank
// below what was already read, as after a copytruncate rotation.
func (t *tail) rewindIfTruncated() error {
	fi, err := t.f.Stat()
	if err != nil {
		return err
	}
	if fi.Size() >= t.offset {
		return nil
	}

	if _, err := t.f.Seek(0, io.SeekStart); err != nil {
		return err
	}
	t.log.Info("input truncated, reading from the start",
		slog.Int64("size", fi.Size()),
		slog.Int64("offset", t.offset),
	)
	t.r.Reset(t.f)
	t.offset = 0
	t.pending = t.pending[:0]
	return nil
}

func missing(path string) bool {
	_, err := os.Stat(path)
	return errors.Is(err, fs.ErrNotExist)
}
