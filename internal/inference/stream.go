package inference

import (
	"context"
	"strings"
	"sync"

	"localqa/internal/engine"
)

// streamState is the accumulated output of one generation.
type streamState struct {
	buf     []byte
	tokens  int
	stopped bool
	reason  FinishReason
}

// Stream is a cancellable pull iterator over model output. It enforces the
// fragment cap and stop sequences on top of whatever the runtime does. A
// Stream is finite and cannot be restarted.
type Stream struct {
	ctx     context.Context
	ectx    engine.Context
	frags   engine.FragmentStream
	limit   int
	stop    []string
	maxStop int
	st      streamState
	once    sync.Once
}

func newStream(ctx context.Context, ectx engine.Context, frags engine.FragmentStream, limit int, stop []string) *Stream {
	s := &Stream{ctx: ctx, ectx: ectx, frags: frags, limit: limit}
	for _, seq := range stop {
		if seq == "" {
			continue
		}
		s.stop = append(s.stop, seq)
		if len(seq) > s.maxStop {
			s.maxStop = len(seq)
		}
	}
	return s
}

// Next pulls one fragment. It returns ok=false once the stream stopped
// (runtime exhausted, cap reached, stop sequence matched) and a non-nil error
// on cancellation or runtime failure. The returned fragment excludes any
// matched stop sequence.
func (s *Stream) Next() (string, bool, error) {
	if s.st.stopped {
		return "", false, nil
	}
	if err := s.ctx.Err(); err != nil {
		s.halt(FinishCancelled)
		return "", false, err
	}
	frag, ok, err := s.frags.Next(s.ctx)
	if err != nil {
		if s.ctx.Err() != nil {
			s.halt(FinishCancelled)
			return "", false, s.ctx.Err()
		}
		s.halt(FinishError)
		return "", false, err
	}
	if !ok {
		s.halt(FinishEOS)
		return "", false, nil
	}
	// The runtime may not notice cancellation until its next step.
	if err := s.ctx.Err(); err != nil {
		s.halt(FinishCancelled)
		return "", false, err
	}

	before := len(s.st.buf)
	s.st.buf = append(s.st.buf, frag...)
	s.st.tokens++
	if idx := s.matchStop(before); idx >= 0 {
		visible := ""
		if idx > before {
			visible = string(s.st.buf[before:idx])
		}
		s.st.buf = s.st.buf[:idx]
		s.halt(FinishStop)
		return visible, true, nil
	}
	if s.st.tokens >= s.limit {
		s.halt(FinishLength)
	}
	return frag, true, nil
}

// matchStop looks for a stop sequence that ends inside the bytes appended
// after offset before and returns its start, or -1.
func (s *Stream) matchStop(before int) int {
	if len(s.stop) == 0 {
		return -1
	}
	from := before - s.maxStop + 1
	if from < 0 {
		from = 0
	}
	window := string(s.st.buf[from:])
	best := -1
	for _, seq := range s.stop {
		if i := strings.Index(window, seq); i >= 0 && (best < 0 || i < best) {
			best = i
		}
	}
	if best < 0 {
		return -1
	}
	return from + best
}

// halt marks the stream stopped and releases runtime resources.
func (s *Stream) halt(reason FinishReason) {
	if s.st.stopped {
		return
	}
	s.st.stopped = true
	s.st.reason = reason
	s.Close()
}

// Raw returns the accumulated, uncleaned text.
func (s *Stream) Raw() string { return string(s.st.buf) }

// Tokens returns the number of fragments consumed.
func (s *Stream) Tokens() int { return s.st.tokens }

// FinishReason returns why the stream stopped, or FinishNone while running.
func (s *Stream) FinishReason() FinishReason { return s.st.reason }

// Close stops generation and frees the execution context. Safe to call
// more than once.
func (s *Stream) Close() error {
	var err error
	s.once.Do(func() {
		if s.frags != nil {
			err = s.frags.Close()
		}
		if s.ectx != nil {
			if cerr := s.ectx.Close(); err == nil {
				err = cerr
			}
		}
	})
	return err
}
