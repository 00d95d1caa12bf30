package config

import (
	"encoding/base64"
	"errors"
	"fmt"

	"github.com/getmockd/fakews/pkg/websocket"
)

// Compile converts the file into an executable script.
func (f *ScriptFile) Compile() (*websocket.Script, error) {
	if f == nil {
		return nil, websocket.ErrNilScript
	}
	steps := make([]websocket.Step, 0, len(f.Steps))
	for i, sc := range f.Steps {
		step, err := sc.compile()
		if err != nil {
			return nil, fmt.Errorf("steps[%d].%w", i, err)
		}
		steps = append(steps, step)
	}
	if f.Name != "" {
		return websocket.NewNamedScript(f.Name, steps...), nil
	}
	return websocket.NewScript(steps...), nil
}

func (s StepConfig) compile() (websocket.Step, error) {
	var step websocket.Step
	if s.Expect != nil {
		m, err := s.Expect.Message()
		if err != nil {
			return step, fmt.Errorf("expect: %w", err)
		}
		step.Expected = &m
	}
	resp, err := s.Respond.Response()
	if err != nil {
		return step, fmt.Errorf("respond: %w", err)
	}
	step.Response = resp
	return step, nil
}

// Message converts the config into a websocket message.
func (m MessageConfig) Message() (websocket.Message, error) {
	switch {
	case m.Text != nil && m.Binary != nil:
		return websocket.Message{}, errors.New("message sets both text and binary")
	case m.Text != nil:
		return websocket.TextMessage(*m.Text), nil
	case m.Binary != nil:
		b, err := base64.StdEncoding.DecodeString(*m.Binary)
		if err != nil {
			return websocket.Message{}, fmt.Errorf("invalid base64 payload: %w", err)
		}
		return websocket.BinaryMessage(b), nil
	default:
		return websocket.Message{}, errors.New("message sets neither text nor binary")
	}
}

// Response converts the config into a websocket response.
func (r ResponseConfig) Response() (websocket.Response, error) {
	msgs := make([]websocket.Message, 0, len(r.Messages))
	for i, mc := range r.Messages {
		m, err := mc.Message()
		if err != nil {
			if r.Sequence {
				return websocket.Response{}, fmt.Errorf("[%d]: %w", i, err)
			}
			return websocket.Response{}, err
		}
		msgs = append(msgs, m)
	}
	switch {
	case r.Sequence || len(msgs) > 1:
		return websocket.Multiple(msgs...), nil
	case len(msgs) == 1:
		return websocket.Single(msgs[0]), nil
	default:
		return websocket.NoResponse(), nil
	}
}

// FromScript converts a script back into its file form.
func FromScript(s *websocket.Script) *ScriptFile {
	f := &ScriptFile{Steps: []StepConfig{}}
	if s == nil {
		return f
	}
	f.Name = s.Name()
	for _, step := range s.Steps() {
		var sc StepConfig
		if step.Expected != nil {
			sc.Expect = messageConfig(*step.Expected)
		}
		msgs := step.Response.Messages()
		switch {
		case step.Response.IsMultiple():
			sc.Respond = ResponseConfig{Messages: make([]MessageConfig, len(msgs)), Sequence: true}
			for i, m := range msgs {
				sc.Respond.Messages[i] = *messageConfig(m)
			}
		case len(msgs) == 1:
			sc.Respond = SingleResponse(messageConfig(msgs[0]))
		}
		f.Steps = append(f.Steps, sc)
	}
	return f
}

func messageConfig(m websocket.Message) *MessageConfig {
	if m.IsBinary() {
		return BinaryConfig(base64.StdEncoding.EncodeToString(m.Bytes()))
	}
	return TextConfig(m.Text())
}
