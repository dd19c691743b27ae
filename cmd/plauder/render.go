package main

import (
	"io"
	"strings"

	"github.com/rhuss/plauder/pkg/prompt"
)

const space = " \t\r\n"

// segmentWriter prints streamed deltas as they arrive and starts a new
// labelled line wherever the message break sentinel appears. A sentinel
// split across deltas is held back until it is complete.
type segmentWriter struct {
	w       io.Writer
	label   string
	pending string
	started bool
}

func newSegmentWriter(w io.Writer, label string) *segmentWriter {
	return &segmentWriter{w: w, label: label}
}

// Write consumes one delta.
func (s *segmentWriter) Write(delta string) error {
	s.pending += delta
	for {
		i := strings.Index(s.pending, prompt.MessageBreak)
		if i < 0 {
			break
		}
		if err := s.emit(strings.TrimRight(s.pending[:i], space)); err != nil {
			return err
		}
		s.pending = s.pending[i+len(prompt.MessageBreak):]
		if s.started {
			if _, err := io.WriteString(s.w, "\n"); err != nil {
				return err
			}
			s.started = false
		}
	}

	// Hold back a possible sentinel start and trailing whitespace, which
	// is dropped if the segment ends there.
	ready := s.pending[:len(s.pending)-partialBreakSuffix(s.pending)]
	ready = strings.TrimRight(ready, space)
	if err := s.emit(ready); err != nil {
		return err
	}
	s.pending = s.pending[len(ready):]
	return nil
}

// Close flushes held-back text and terminates the current line.
func (s *segmentWriter) Close() error {
	if err := s.emit(strings.TrimRight(s.pending, space)); err != nil {
		return err
	}
	s.pending = ""
	if s.started {
		_, err := io.WriteString(s.w, "\n")
		s.started = false
		return err
	}
	return nil
}

func (s *segmentWriter) emit(text string) error {
	if !s.started {
		// Leading whitespace after a break is dropped, as Split trims it.
		text = strings.TrimLeft(text, space)
		if text == "" {
			return nil
		}
		if _, err := io.WriteString(s.w, s.label+" "); err != nil {
			return err
		}
		s.started = true
	}
	_, err := io.WriteString(s.w, text)
	return err
}

// partialBreakSuffix returns the length of the longest suffix of text that
// is a proper prefix of the message break sentinel.
func partialBreakSuffix(text string) int {
	n := min(len(text), len(prompt.MessageBreak)-1)
	for ; n > 0; n-- {
		if strings.HasSuffix(text, prompt.MessageBreak[:n]) {
			return n
		}
	}
	return 0
}
