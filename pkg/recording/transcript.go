package recording

import (
	"encoding/json"
	"fmt"
	"io"
	"sync"

	"github.com/getmockd/fakews/pkg/websocket"
)

// Entry is one message observed during a capture.
type Entry struct {
	Direction Direction
	Payload   websocket.Message
}

// Transcript is an append-only, chronologically ordered list of entries.
// It is safe for concurrent use.
type Transcript struct {
	mu      sync.RWMutex
	entries []Entry
}

// NewTranscript creates a transcript holding entries.
func NewTranscript(entries ...Entry) *Transcript {
	return &Transcript{entries: append([]Entry(nil), entries...)}
}

// Append records an entry at the end of the transcript.
func (t *Transcript) Append(dir Direction, m websocket.Message) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.entries = append(t.entries, Entry{Direction: dir, Payload: m})
}

// Entries returns a copy of the entries in order.
func (t *Transcript) Entries() []Entry {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return append([]Entry(nil), t.entries...)
}

// Len returns the number of entries.
func (t *Transcript) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.entries)
}

// Received returns the number of receive entries.
func (t *Transcript) Received() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	n := 0
	for _, e := range t.entries {
		if e.Direction == DirectionReceive {
			n++
		}
	}
	return n
}

// Frames returns the persisted form of every entry.
func (t *Transcript) Frames() []Frame {
	t.mu.RLock()
	defer t.mu.RUnlock()
	frames := make([]Frame, len(t.entries))
	for i, e := range t.entries {
		frames[i] = NewFrame(e.Direction, e.Payload)
	}
	return frames
}

// MarshalJSON encodes the transcript as a JSON array of frames.
func (t *Transcript) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.Frames())
}

// UnmarshalJSON decodes a JSON array of frames, replacing the entries.
func (t *Transcript) UnmarshalJSON(data []byte) error {
	var frames []Frame
	if err := json.Unmarshal(data, &frames); err != nil {
		return fmt.Errorf("%w: %w", ErrCorrupted, err)
	}
	entries := make([]Entry, 0, len(frames))
	for i, f := range frames {
		e, err := f.Entry()
		if err != nil {
			return fmt.Errorf("record %d: %w", i, err)
		}
		entries = append(entries, e)
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	t.entries = entries
	return nil
}

// WriteTo writes the compact JSON form of the transcript to w.
func (t *Transcript) WriteTo(w io.Writer) (int64, error) {
	data, err := t.MarshalJSON()
	if err != nil {
		return 0, err
	}
	n, err := w.Write(data)
	return int64(n), err
}

// ReadTranscript decodes a transcript written by WriteTo.
func ReadTranscript(r io.Reader) (*Transcript, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read transcript: %w", err)
	}
	t := &Transcript{}
	if err := t.UnmarshalJSON(data); err != nil {
		return nil, err
	}
	return t, nil
}
