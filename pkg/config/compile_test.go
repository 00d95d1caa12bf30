package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/getmockd/fakews/pkg/websocket"
)

func TestCompile(t *testing.T) {
	f := &ScriptFile{
		Name: "compiled",
		Steps: []StepConfig{
			{Respond: SingleResponse(TextConfig("welcome"))},
			{Expect: TextConfig("hello"), Respond: SingleResponse(TextConfig("hi"))},
			{Expect: TextConfig("list"), Respond: SequenceResponse(TextConfig("a"), BinaryConfig("AQI="))},
			{Expect: BinaryConfig("AQID")},
		},
	}

	script, err := f.Compile()
	require.NoError(t, err)
	assert.Equal(t, "compiled", script.Name())
	require.Equal(t, 4, script.Len())

	push := script.Step(0)
	assert.Nil(t, push.Expected)
	assert.Equal(t, websocket.Single(websocket.TextMessage("welcome")), push.Response)

	hello := script.Step(1)
	require.NotNil(t, hello.Expected)
	assert.True(t, hello.Expected.Equal(websocket.TextMessage("hello")))

	list := script.Step(2)
	assert.True(t, list.Response.IsMultiple())
	assert.Equal(t,
		[]websocket.Message{websocket.TextMessage("a"), websocket.BinaryMessage([]byte{1, 2})},
		list.Response.Messages())

	bin := script.Step(3)
	require.NotNil(t, bin.Expected)
	assert.True(t, bin.Expected.Equal(websocket.BinaryMessage([]byte{1, 2, 3})))
	assert.True(t, bin.Response.IsNone())
}

func TestCompile_SingleElementSequenceStaysMultiple(t *testing.T) {
	f := &ScriptFile{Steps: []StepConfig{
		{Expect: TextConfig("x"), Respond: SequenceResponse(TextConfig("only"))},
	}}

	script, err := f.Compile()
	require.NoError(t, err)
	assert.True(t, script.Step(0).Response.IsMultiple())
}

func TestCompile_InvalidBase64(t *testing.T) {
	f := &ScriptFile{Steps: []StepConfig{
		{Expect: TextConfig("ok")},
		{Expect: BinaryConfig("not base64!")},
	}}

	_, err := f.Compile()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "steps[1].expect")
}

func TestCompile_InvalidSequenceElement(t *testing.T) {
	f := &ScriptFile{Steps: []StepConfig{
		{Expect: TextConfig("x"), Respond: SequenceResponse(TextConfig("a"), BinaryConfig("%%%"))},
	}}

	_, err := f.Compile()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "steps[0].respond: [1]")
}

func TestCompile_Nil(t *testing.T) {
	var f *ScriptFile
	_, err := f.Compile()
	assert.ErrorIs(t, err, websocket.ErrNilScript)
}

func TestMessageConfig_Message(t *testing.T) {
	_, err := MessageConfig{}.Message()
	assert.Error(t, err)

	text, bin := "a", "AQ=="
	_, err = MessageConfig{Text: &text, Binary: &bin}.Message()
	assert.Error(t, err)

	m, err := MessageConfig{Binary: &bin}.Message()
	require.NoError(t, err)
	assert.Equal(t, []byte{1}, m.Bytes())
}

func TestFromScript_RoundTrip(t *testing.T) {
	expected := websocket.BinaryMessage([]byte{0xff})
	script := websocket.NewNamedScript("round",
		websocket.Push(websocket.Single(websocket.TextMessage("welcome"))),
		websocket.TextPair("hello", "hi"),
		websocket.TextPair("list", "a", "b"),
		websocket.Pair(expected, websocket.Multiple(websocket.TextMessage("one"))),
		websocket.Pair(websocket.TextMessage("bye"), websocket.NoResponse()),
	)

	f := FromScript(script)
	assert.Equal(t, "round", f.Name)
	require.Len(t, f.Steps, 5)
	assert.Nil(t, f.Steps[0].Expect)
	assert.Equal(t, BinaryConfig("/w=="), f.Steps[3].Expect)
	assert.Equal(t, SequenceResponse(TextConfig("one")), f.Steps[3].Respond)
	assert.True(t, f.Steps[4].Respond.IsZero())

	back, err := f.Compile()
	require.NoError(t, err)
	assert.Equal(t, script.Steps(), back.Steps())
}

func TestFromScript_Nil(t *testing.T) {
	f := FromScript(nil)
	assert.NotNil(t, f.Steps)
	assert.Empty(t, f.Steps)
}
