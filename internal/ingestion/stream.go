package ingestion

import (
	"bufio"
	"compress/gzip"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
)

const (
	// sniffBytes is how much of the decompressed head is inspected to
	// decide the framing.
	sniffBytes = 1024

	// Line-mode buffer sizing. Registry dumps occasionally pack a whole
	// nested record onto one physical line.
	initialLineBuffer = 1024 * 1024
	maxLineBytes      = 20 * 1024 * 1024
)

type streamMode int

const (
	modeArray streamMode = iota
	modeLines
	modeReplay
)

// Options configures how a Streamer interprets its input.
type Options struct {
	// ExplodeNames turns each record carrying a "names" sub-list into one
	// raw record per name entry, with the parent's remaining fields merged
	// into the entry's metadata. When explosion yields nothing across the
	// whole file, the file is re-read emitting top-level records directly.
	ExplodeNames bool
}

// Streamer produces a lazy, single-pass sequence of raw records from a
// registry dump file. It detects the framing from the file itself: gzip by
// extension, then a JSON array, an array wrapped under a conventional key,
// or newline-delimited JSON objects. Malformed lines and items are counted
// and skipped rather than failing the run.
//
// The iteration shape follows bufio.Scanner: call Next until it returns
// false, read each record with Record, then check Err.
type Streamer struct {
	path string
	opts Options

	file    *os.File
	gz      *gzip.Reader
	mode    streamMode
	dec     *json.Decoder
	scanner *bufio.Scanner

	replay    []any
	replayIdx int
	pending   []map[string]any

	rec       map[string]any
	err       error
	malformed int
	yielded   int

	sawNames         bool
	retriedExplosion bool
	triedWrapper     bool
	closed           bool
}

// Open opens the input file and prepares the streamer. Failing to open or
// to recognize the head of the stream is fatal; malformed records later in
// the stream are not.
func Open(path string, opts Options) (*Streamer, error) {
	s := &Streamer{path: path, opts: opts}
	if err := s.open(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Streamer) open() error {
	f, err := os.Open(s.path)
	if err != nil {
		return fmt.Errorf("failed to open input file: %w", err)
	}
	s.file = f

	// 1. Transparently decompress when the extension says so.
	var r io.Reader = f
	if isGzipPath(s.path) {
		gz, err := gzip.NewReader(f)
		if err != nil {
			_ = f.Close()
			return fmt.Errorf("failed to open gzip stream: %w", err)
		}
		s.gz = gz
		r = gz
	}

	// 2. Sniff the head of the decompressed bytes to pick the framing.
	br := bufio.NewReaderSize(r, sniffBytes*4)
	head, err := br.Peek(sniffBytes)
	if err != nil && err != io.EOF {
		_ = s.Close()
		return fmt.Errorf("failed to read input head: %w", err)
	}

	// 3. Wire up the matching reader.
	switch detectFraming(head) {
	case framingArray:
		s.mode = modeArray
		s.dec = json.NewDecoder(br)
		if _, err := s.dec.Token(); err != nil {
			_ = s.Close()
			return fmt.Errorf("failed to decode array framing: %w", err)
		}
	case framingWrapped:
		s.mode = modeArray
		s.dec = json.NewDecoder(br)
		if err := consumeWrapper(s.dec); err != nil {
			_ = s.Close()
			return err
		}
	default:
		s.mode = modeLines
		s.scanner = bufio.NewScanner(br)
		s.scanner.Buffer(make([]byte, initialLineBuffer), maxLineBytes)
	}
	return nil
}

// Next advances to the next raw record. It returns false at end of input or
// on a fatal error; distinguish the two with Err.
func (s *Streamer) Next() bool {
	if s.err != nil || s.closed {
		return false
	}
	for {
		if len(s.pending) > 0 {
			s.rec = s.pending[0]
			s.pending = s.pending[1:]
			s.yielded++
			return true
		}

		item, ok := s.nextRaw()
		if !ok {
			if s.err != nil || !s.fallback() {
				return false
			}
			continue
		}

		if s.opts.ExplodeNames {
			if names, ok := namesList(item); ok {
				s.sawNames = true
				s.pending = explodeNames(item, names)
				continue
			}
		}
		s.rec = item
		s.yielded++
		return true
	}
}

// Record returns the record produced by the last successful Next call.
func (s *Streamer) Record() map[string]any { return s.rec }

// Err returns the fatal error that stopped the stream, if any. Malformed
// records are not fatal and are reported by Malformed instead.
func (s *Streamer) Err() error { return s.err }

// Malformed returns how many lines or array items were skipped because they
// could not be decoded into a JSON object.
func (s *Streamer) Malformed() int { return s.malformed }

// Close releases the underlying file handles. Safe to call more than once.
func (s *Streamer) Close() error {
	s.closed = true
	var firstErr error
	if s.gz != nil {
		if err := s.gz.Close(); err != nil {
			firstErr = err
		}
		s.gz = nil
	}
	if s.file != nil {
		if err := s.file.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		s.file = nil
	}
	return firstErr
}

// nextRaw pulls the next JSON object out of the underlying reader for the
// current mode. ok is false at end of input or when the mode cannot make
// further progress.
func (s *Streamer) nextRaw() (map[string]any, bool) {
	switch s.mode {
	case modeArray:
		for s.dec.More() {
			var v any
			if err := s.dec.Decode(&v); err != nil {
				// A syntax error inside an array element leaves the
				// decoder with no way to resynchronize; stop here and
				// keep what was already produced.
				s.malformed++
				log.Printf("[INGEST] stopping after malformed array item in %s: %v", filepath.Base(s.path), err)
				return nil, false
			}
			if rec, ok := v.(map[string]any); ok {
				return rec, true
			}
			s.malformed++
		}
		return nil, false

	case modeReplay:
		for s.replayIdx < len(s.replay) {
			v := s.replay[s.replayIdx]
			s.replayIdx++
			if rec, ok := v.(map[string]any); ok {
				return rec, true
			}
			s.malformed++
		}
		return nil, false

	default:
		for s.scanner.Scan() {
			line := strings.TrimSpace(s.scanner.Text())
			if line == "" {
				continue
			}
			var v any
			if err := json.Unmarshal([]byte(line), &v); err != nil {
				s.malformed++
				continue
			}
			if rec, ok := v.(map[string]any); ok {
				return rec, true
			}
			s.malformed++
		}
		if err := s.scanner.Err(); err != nil {
			s.err = fmt.Errorf("failed to read input lines: %w", err)
		}
		return nil, false
	}
}

// fallback runs the recovery passes that fire at end of input. It returns
// true when the stream has been rewired and iteration should continue.
func (s *Streamer) fallback() bool {
	// Explosion consumed every record without yielding a single name
	// entry: re-read the file emitting top-level records directly.
	if s.opts.ExplodeNames && s.sawNames && s.yielded == 0 && !s.retriedExplosion {
		s.retriedExplosion = true
		s.opts.ExplodeNames = false
		if err := s.reopen(); err != nil {
			s.err = err
			return false
		}
		return true
	}

	// Line framing produced nothing but malformed lines, which is what a
	// pretty-printed document looks like one line at a time. Decode the
	// whole document once and replay what it holds.
	if s.mode == modeLines && s.yielded == 0 && s.malformed > 0 && !s.triedWrapper {
		s.triedWrapper = true
		items, err := s.decodeWholeDocument()
		if err != nil {
			s.err = err
			return false
		}
		s.mode = modeReplay
		s.replay = items
		s.replayIdx = 0
		s.malformed = 0
		return true
	}
	return false
}

// reopen restarts the stream from the top of the file, resetting per-pass
// counters.
func (s *Streamer) reopen() error {
	_ = s.Close()
	s.closed = false
	s.dec = nil
	s.scanner = nil
	s.pending = nil
	s.malformed = 0
	return s.open()
}

// decodeWholeDocument parses the entire input as one JSON value and returns
// the records it contains: the list under a recognized wrapper key, or the
// document itself as a single record.
func (s *Streamer) decodeWholeDocument() ([]any, error) {
	f, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("failed to reopen input file: %w", err)
	}
	defer func() { _ = f.Close() }()

	var r io.Reader = f
	if isGzipPath(s.path) {
		gz, err := gzip.NewReader(f)
		if err != nil {
			return nil, fmt.Errorf("failed to open gzip stream: %w", err)
		}
		defer func() { _ = gz.Close() }()
		r = gz
	}

	var doc any
	if err := json.NewDecoder(bufio.NewReader(r)).Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", filepath.Base(s.path), err)
	}

	switch t := doc.(type) {
	case []any:
		return t, nil
	case map[string]any:
		for _, key := range wrapperKeys {
			if items, ok := t[key].([]any); ok {
				return items, nil
			}
		}
		// A bare object is a single-record document.
		return []any{t}, nil
	default:
		return nil, fmt.Errorf("unsupported document shape %T in %s", doc, filepath.Base(s.path))
	}
}

func isGzipPath(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".gz" || ext == ".gzip"
}
