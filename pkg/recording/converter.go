package recording

import (
	"github.com/getmockd/fakews/pkg/websocket"
)

// ConvertOptions configures how transcripts are converted to scripts.
type ConvertOptions struct {
	// Name is attached to the produced script.
	Name string
	// DeduplicateMessages drops a receive identical to the one before it
	// within the same response.
	DeduplicateMessages bool
}

// ToScript converts a captured transcript into a replayable script.
//
// Every send becomes an expectation and the receives that follow it become
// its response: none, a single message, or a sequence. Receives recorded
// before the first send become a step that expects nothing and pushes them.
func ToScript(t *Transcript, opts ConvertOptions) (*websocket.Script, error) {
	if t == nil || t.Len() == 0 {
		return nil, ErrEmptyTranscript
	}

	var (
		steps    []websocket.Step
		expected *websocket.Message
		replies  []websocket.Message
		started  bool
	)
	flush := func() {
		if !started {
			return
		}
		steps = append(steps, websocket.Step{Expected: expected, Response: toResponse(replies)})
		replies = nil
	}

	for _, e := range t.Entries() {
		switch e.Direction {
		case DirectionSend:
			flush()
			payload := e.Payload
			expected = &payload
			started = true
		case DirectionReceive:
			if opts.DeduplicateMessages && len(replies) > 0 && replies[len(replies)-1].Equal(e.Payload) {
				continue
			}
			replies = append(replies, e.Payload)
			started = true
		}
	}
	flush()

	if opts.Name != "" {
		return websocket.NewNamedScript(opts.Name, steps...), nil
	}
	return websocket.NewScript(steps...), nil
}

func toResponse(msgs []websocket.Message) websocket.Response {
	switch len(msgs) {
	case 0:
		return websocket.NoResponse()
	case 1:
		return websocket.Single(msgs[0])
	default:
		return websocket.Multiple(msgs...)
	}
}
