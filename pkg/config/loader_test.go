package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadScriptFile_ValidYAML(t *testing.T) {
	path := writeFile(t, t.TempDir(), "greeting.yaml", `
name: greeting
port: 8765
path: /ws
steps:
  - respond: welcome
  - expect: hello
    respond: hi
  - expect: list
    respond: [a, b]
  - expect: {binary: AQID}
`)

	f, err := LoadScriptFile(path)
	require.NoError(t, err)
	assert.Equal(t, "greeting", f.Name)
	assert.Equal(t, 8765, f.Port)
	assert.Equal(t, "/ws", f.Path)
	assert.Equal(t, path, f.Source)
	require.Len(t, f.Steps, 4)

	assert.Nil(t, f.Steps[0].Expect)
	assert.Equal(t, SingleResponse(TextConfig("welcome")), f.Steps[0].Respond)

	assert.Equal(t, TextConfig("hello"), f.Steps[1].Expect)
	assert.Equal(t, SequenceResponse(TextConfig("a"), TextConfig("b")), f.Steps[2].Respond)

	assert.Equal(t, BinaryConfig("AQID"), f.Steps[3].Expect)
	assert.True(t, f.Steps[3].Respond.IsZero())
}

func TestLoadScriptFile_ValidJSON(t *testing.T) {
	path := writeFile(t, t.TempDir(), "script.json", `{
		"name": "json",
		"steps": [
			{"expect": "ping", "respond": {"text": "pong"}},
			{"expect": "quiet", "respond": null},
			{"expect": "one", "respond": ["only"]}
		]
	}`)

	f, err := LoadScriptFile(path)
	require.NoError(t, err)
	require.Len(t, f.Steps, 3)
	assert.Equal(t, SingleResponse(TextConfig("pong")), f.Steps[0].Respond)
	assert.True(t, f.Steps[1].Respond.IsZero())
	assert.Equal(t, SequenceResponse(TextConfig("only")), f.Steps[2].Respond)
}

func TestLoadScriptFile_FileNotFound(t *testing.T) {
	f, err := LoadScriptFile("/nonexistent/path/script.yaml")
	assert.Nil(t, f)
	assert.ErrorIs(t, err, ErrFileNotFound)
}

func TestLoadScriptFile_Directory(t *testing.T) {
	_, err := LoadScriptFile(t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "directory")
}

func TestLoadScriptFile_EmptyFile(t *testing.T) {
	path := writeFile(t, t.TempDir(), "empty.yaml", "  \n")

	_, err := LoadScriptFile(path)
	assert.ErrorIs(t, err, ErrEmptyFile)
}

func TestLoadScriptFile_InvalidYAML(t *testing.T) {
	path := writeFile(t, t.TempDir(), "bad.yaml", "steps: [unclosed")

	_, err := LoadScriptFile(path)
	assert.ErrorIs(t, err, ErrInvalidYAML)
	assert.Contains(t, err.Error(), path)
}

func TestParseScript_SchemaViolation(t *testing.T) {
	_, err := ParseScript([]byte(`
steps:
  - expect: hello
    reply: hi
`))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidScript)

	var serr *SchemaError
	require.ErrorAs(t, err, &serr)
	assert.NotEmpty(t, serr.Problems)
}

func TestParseScript_ExpandsEnvVars(t *testing.T) {
	t.Setenv("FAKEWS_TEST_GREETING", "howdy")

	f, err := ParseScript([]byte(`
port: ${FAKEWS_TEST_PORT_UNSET:-9100}
steps:
  - expect: ${FAKEWS_TEST_GREETING}
`))
	require.NoError(t, err)
	assert.Equal(t, 9100, f.Port)
	assert.Equal(t, TextConfig("howdy"), f.Steps[0].Expect)
}

func TestExpandEnvVars(t *testing.T) {
	t.Setenv("FAKEWS_TEST_SET", "value")

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"set variable", "a ${FAKEWS_TEST_SET} b", "a value b"},
		{"default used", "${FAKEWS_TEST_MISSING:-fallback}", "fallback"},
		{"default ignored", "${FAKEWS_TEST_SET:-fallback}", "value"},
		{"unset without default", "[${FAKEWS_TEST_MISSING}]", "[]"},
		{"plain dollar untouched", "$FAKEWS_TEST_SET", "$FAKEWS_TEST_SET"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExpandEnvVars(tt.input))
		})
	}
}

func TestLoadScriptFiles_Glob(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "b.yaml", "steps: []\nname: b\n")
	writeFile(t, dir, "a.yaml", "steps: []\nname: a\n")
	writeFile(t, dir, "nested/c.yaml", "steps: []\nname: c\n")
	writeFile(t, dir, "notes.txt", "ignored")

	files, err := LoadScriptFiles(filepath.Join(dir, "**", "*.yaml"), filepath.Join(dir, "a.yaml"))
	require.NoError(t, err)

	names := make([]string, len(files))
	for i, f := range files {
		names[i] = f.Name
	}
	assert.Equal(t, []string{"a", "b", "c"}, names)
}

func TestLoadScriptFiles_NoMatches(t *testing.T) {
	_, err := LoadScriptFiles(filepath.Join(t.TempDir(), "*.yaml"))
	assert.ErrorIs(t, err, ErrNoMatches)
}

func TestLoadScriptFiles_MissingLiteralPath(t *testing.T) {
	_, err := LoadScriptFiles(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, ErrFileNotFound)
}

func TestSaveScriptFile_RoundTrip(t *testing.T) {
	original := &ScriptFile{
		Name: "saved",
		Port: 9000,
		Steps: []StepConfig{
			{Respond: SingleResponse(TextConfig("welcome"))},
			{Expect: TextConfig("hello"), Respond: SequenceResponse(TextConfig("a"), BinaryConfig("AQI="))},
			{Expect: BinaryConfig("AQID")},
		},
	}

	for _, name := range []string{"saved.yaml", "saved.json"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), name)
			require.NoError(t, SaveScriptFile(path, original))

			loaded, err := LoadScriptFile(path)
			require.NoError(t, err)
			loaded.Source = ""
			assert.Equal(t, original, loaded)
		})
	}
}

func TestMarshal_UnsupportedFormat(t *testing.T) {
	_, err := Marshal(&ScriptFile{}, Format("toml"))
	assert.Error(t, err)
}
