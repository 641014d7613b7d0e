package chat

import (
	"errors"
	"io"
	"iter"
	"strings"
	"unicode"

	"github.com/cloudwego/eino/schema"
)

// Phase tells a renderer which view an update belongs to.
type Phase string

const (
	PhaseThinking Phase = "thinking"
	PhaseAnswer   Phase = "answer"
)

// Update is the best-known view of an in-flight response.
type Update struct {
	Phase Phase  `json:"phase"`
	Text  string `json:"text"`
}

// Result is a finished response split into answer and reasoning trace.
type Result struct {
	Answer   string `json:"answer"`
	Thinking string `json:"thinking,omitempty"`
}

// Splitter accumulates streamed fragments and partitions them around
// FinalAnswerMarker. While a complex response has not produced the marker the
// whole text is the reasoning trace; afterwards, and from the start for simple
// responses, the answer is revealed one word prefix at a time.
type Splitter struct {
	complex    bool
	full       strings.Builder
	markerSeen bool
	shown      int    // answer words already revealed
	lastText   string // last answer text emitted
}

// NewSplitter returns a splitter for one response.
func NewSplitter(complex bool) *Splitter {
	return &Splitter{complex: complex}
}

// Push appends a fragment and returns the updates it causes, oldest first.
func (s *Splitter) Push(fragment string) []Update {
	s.full.WriteString(fragment)
	full := s.full.String()

	if !s.markerSeen && strings.Contains(full, FinalAnswerMarker) {
		s.markerSeen = true
	}
	if s.complex && !s.markerSeen {
		if fragment == "" {
			return nil
		}
		return []Update{{Phase: PhaseThinking, Text: full}}
	}
	return s.revealWords()
}

// revealWords re-joins growing prefixes of the space-separated answer words.
// The newest word may still be incomplete, so its prefix is re-emitted when
// it grows.
func (s *Splitter) revealWords() []Update {
	text := s.answerText()
	if text == "" {
		return nil
	}
	words := strings.Split(text, " ")

	start := s.shown - 1
	if start < 0 {
		start = 0
	}

	var updates []Update
	for i := start; i < len(words); i++ {
		prefix := strings.Join(words[:i+1], " ")
		if prefix == s.lastText {
			continue
		}
		updates = append(updates, Update{Phase: PhaseAnswer, Text: prefix})
		s.lastText = prefix
	}
	s.shown = len(words)
	return updates
}

func (s *Splitter) answerText() string {
	full := s.full.String()
	if _, after, ok := strings.Cut(full, FinalAnswerMarker); ok {
		return strings.TrimLeftFunc(after, unicode.IsSpace)
	}
	return full
}

// Result splits everything pushed so far. With the marker, the trace is the
// text before its first occurrence and the answer the trimmed text after it.
// Without the marker the whole text is the answer and the trace is empty.
func (s *Splitter) Result() Result {
	full := s.full.String()
	before, after, ok := strings.Cut(full, FinalAnswerMarker)
	if !ok {
		return Result{Answer: full}
	}
	res := Result{Answer: strings.TrimSpace(after)}
	if s.complex {
		res.Thinking = before
	}
	return res
}

// FragmentSource yields text fragments until io.EOF.
type FragmentSource interface {
	Next() (string, error)
}

// SliceSource replays fixed fragments.
type SliceSource []string

// Next pops the first fragment.
func (s *SliceSource) Next() (string, error) {
	if len(*s) == 0 {
		return "", io.EOF
	}
	frag := (*s)[0]
	*s = (*s)[1:]
	return frag, nil
}

// messageSource reads content deltas from an Eino message stream.
type messageSource struct {
	sr *schema.StreamReader[*schema.Message]
}

// MessageSource adapts an Eino stream. The caller still owns sr and closes it.
func MessageSource(sr *schema.StreamReader[*schema.Message]) FragmentSource {
	return messageSource{sr: sr}
}

func (m messageSource) Next() (string, error) {
	msg, err := m.sr.Recv()
	if err != nil {
		return "", err
	}
	if msg == nil {
		return "", nil
	}
	return msg.Content, nil
}

// Stream turns a fragment source into a lazy, finite, non-restartable
// sequence of updates. The source is always drained to its end, even when
// the consumer stops early, so Result covers the whole response.
type Stream struct {
	src      FragmentSource
	split    *Splitter
	err      error
	consumed bool
}

// NewStream wraps src for one response.
func NewStream(src FragmentSource, complex bool) *Stream {
	return &Stream{src: src, split: NewSplitter(complex)}
}

// Updates returns the update sequence. Ranging over it a second time yields
// nothing.
func (st *Stream) Updates() iter.Seq[Update] {
	return func(yield func(Update) bool) {
		if st.consumed {
			return
		}
		st.consumed = true

		emit := true
		for {
			frag, err := st.src.Next()
			if errors.Is(err, io.EOF) {
				return
			}
			if err != nil {
				st.err = err
				return
			}
			updates := st.split.Push(frag)
			if !emit {
				continue
			}
			for _, u := range updates {
				if !yield(u) {
					emit = false
					break
				}
			}
		}
	}
}

// Result returns the split response and the stream error, if any. It drains
// the source when Updates was never ranged over.
func (st *Stream) Result() (Result, error) {
	if !st.consumed {
		for range st.Updates() {
		}
	}
	return st.split.Result(), st.err
}
