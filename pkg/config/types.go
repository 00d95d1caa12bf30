package config

import (
	"bytes"
	"encoding/json"

	"gopkg.in/yaml.v3"
)

// ScriptFile is the on-disk form of a scripted session.
type ScriptFile struct {
	Version string       `yaml:"version,omitempty" json:"version,omitempty"`
	Name    string       `yaml:"name,omitempty" json:"name,omitempty"`
	Host    string       `yaml:"host,omitempty" json:"host,omitempty"`
	Port    int          `yaml:"port,omitempty" json:"port,omitempty"`
	Path    string       `yaml:"path,omitempty" json:"path,omitempty"`
	Steps   []StepConfig `yaml:"steps" json:"steps"`

	// Source is the file the script was loaded from, if any.
	Source string `yaml:"-" json:"-"`
}

// StepConfig is one step of a script file.
type StepConfig struct {
	// Expect is the inbound message the step waits for. Nil expects nothing.
	Expect *MessageConfig `yaml:"expect,omitempty" json:"expect,omitempty"`
	// Respond is what the step sends back.
	Respond ResponseConfig `yaml:"respond,omitempty" json:"respond,omitzero"`
}

// MessageConfig is a text or binary message. Exactly one field is set.
type MessageConfig struct {
	Text *string `yaml:"text,omitempty" json:"text,omitempty"`
	// Binary is the base64 encoded payload.
	Binary *string `yaml:"binary,omitempty" json:"binary,omitempty"`
}

// TextConfig returns a MessageConfig for a text message.
func TextConfig(s string) *MessageConfig {
	return &MessageConfig{Text: &s}
}

// BinaryConfig returns a MessageConfig for a base64 encoded binary message.
func BinaryConfig(b64 string) *MessageConfig {
	return &MessageConfig{Binary: &b64}
}

// UnmarshalYAML accepts a bare string as shorthand for {text: ...}.
func (m *MessageConfig) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		var s string
		if err := node.Decode(&s); err != nil {
			return err
		}
		*m = MessageConfig{Text: &s}
		return nil
	}
	type alias MessageConfig
	return node.Decode((*alias)(m))
}

// MarshalYAML writes text-only messages in the shorthand form.
func (m MessageConfig) MarshalYAML() (interface{}, error) {
	if m.Text != nil && m.Binary == nil {
		return *m.Text, nil
	}
	type alias MessageConfig
	return alias(m), nil
}

// UnmarshalJSON accepts a bare string as shorthand for {"text": ...}.
func (m *MessageConfig) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*m = MessageConfig{Text: &s}
		return nil
	}
	type alias MessageConfig
	return json.Unmarshal(data, (*alias)(m))
}

// MarshalJSON writes text-only messages in the shorthand form.
func (m MessageConfig) MarshalJSON() ([]byte, error) {
	if m.Text != nil && m.Binary == nil {
		return json.Marshal(*m.Text)
	}
	type alias MessageConfig
	return json.Marshal(alias(m))
}

// ResponseConfig is a step response: nothing, one message, or a sequence.
type ResponseConfig struct {
	Messages []MessageConfig
	// Sequence records that the response was written as a list, even if
	// it holds a single element.
	Sequence bool
}

// SingleResponse returns a one-message response.
func SingleResponse(m *MessageConfig) ResponseConfig {
	return ResponseConfig{Messages: []MessageConfig{*m}}
}

// SequenceResponse returns a list response.
func SequenceResponse(msgs ...*MessageConfig) ResponseConfig {
	r := ResponseConfig{Messages: make([]MessageConfig, len(msgs)), Sequence: true}
	for i, m := range msgs {
		r.Messages[i] = *m
	}
	return r
}

// IsZero reports whether the response sends nothing.
func (r ResponseConfig) IsZero() bool {
	return len(r.Messages) == 0 && !r.Sequence
}

// UnmarshalYAML decodes a scalar or mapping as a single message and a
// sequence as a list.
func (r *ResponseConfig) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.SequenceNode {
		var msgs []MessageConfig
		if err := node.Decode(&msgs); err != nil {
			return err
		}
		*r = ResponseConfig{Messages: msgs, Sequence: true}
		return nil
	}
	var m MessageConfig
	if err := node.Decode(&m); err != nil {
		return err
	}
	*r = ResponseConfig{Messages: []MessageConfig{m}}
	return nil
}

// MarshalYAML mirrors UnmarshalYAML.
func (r ResponseConfig) MarshalYAML() (interface{}, error) {
	switch {
	case r.IsZero():
		return nil, nil
	case r.Sequence || len(r.Messages) > 1:
		return r.Messages, nil
	default:
		return r.Messages[0], nil
	}
}

// UnmarshalJSON decodes null as no response, an array as a list and
// anything else as a single message.
func (r *ResponseConfig) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case len(data) == 0 || bytes.Equal(data, []byte("null")):
		*r = ResponseConfig{}
		return nil
	case data[0] == '[':
		var msgs []MessageConfig
		if err := json.Unmarshal(data, &msgs); err != nil {
			return err
		}
		if msgs == nil {
			msgs = []MessageConfig{}
		}
		*r = ResponseConfig{Messages: msgs, Sequence: true}
		return nil
	default:
		var m MessageConfig
		if err := json.Unmarshal(data, &m); err != nil {
			return err
		}
		*r = ResponseConfig{Messages: []MessageConfig{m}}
		return nil
	}
}

// MarshalJSON mirrors UnmarshalJSON.
func (r ResponseConfig) MarshalJSON() ([]byte, error) {
	switch {
	case r.IsZero():
		return []byte("null"), nil
	case r.Sequence || len(r.Messages) > 1:
		msgs := r.Messages
		if msgs == nil {
			msgs = []MessageConfig{}
		}
		return json.Marshal(msgs)
	default:
		return json.Marshal(r.Messages[0])
	}
}
