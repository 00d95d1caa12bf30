package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"gopkg.in/yaml.v3"
)

// Common errors for script file loading/saving.
var (
	ErrFileNotFound     = errors.New("script file not found")
	ErrPermissionDenied = errors.New("permission denied")
	ErrInvalidYAML      = errors.New("invalid YAML syntax")
	ErrEmptyFile        = errors.New("script file is empty")
	ErrInvalidScript    = errors.New("invalid script file")
	ErrNoMatches        = errors.New("no script files matched")
)

// LoadScriptFile reads, validates and decodes a YAML or JSON script file.
func LoadScriptFile(path string) (*ScriptFile, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrFileNotFound, path)
		}
		if os.IsPermission(err) {
			return nil, fmt.Errorf("%w: %s", ErrPermissionDenied, path)
		}
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("path is a directory, not a file: %s", path)
	}

	file, err := os.Open(path)
	if err != nil {
		if os.IsPermission(err) {
			return nil, fmt.Errorf("%w: %s", ErrPermissionDenied, path)
		}
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	f, err := ParseScript(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	f.Source = path
	return f, nil
}

// ParseScript validates and decodes a script document. YAML is a superset
// of JSON, so both formats are accepted. Environment references are
// expanded before parsing.
func ParseScript(data []byte) (*ScriptFile, error) {
	if len(strings.TrimSpace(string(data))) == 0 {
		return nil, ErrEmptyFile
	}
	expanded := ExpandEnvVars(string(data))

	var raw interface{}
	if err := yaml.Unmarshal([]byte(expanded), &raw); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidYAML, err)
	}
	if raw == nil {
		return nil, ErrEmptyFile
	}

	// Route the document through JSON so the schema sees JSON types.
	normalized, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidScript, err)
	}
	var doc interface{}
	if err := json.Unmarshal(normalized, &doc); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidScript, err)
	}
	if err := validateDocument(doc); err != nil {
		return nil, err
	}

	var f ScriptFile
	if err := json.Unmarshal(normalized, &f); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidScript, err)
	}
	return &f, nil
}

// LoadScriptFiles loads every file matched by patterns. Patterns support
// ** via doublestar; a pattern without glob characters names a single file
// that must exist. Results are sorted by path and deduplicated.
func LoadScriptFiles(patterns ...string) ([]*ScriptFile, error) {
	paths, err := ExpandPatterns(patterns...)
	if err != nil {
		return nil, err
	}
	files := make([]*ScriptFile, 0, len(paths))
	for _, p := range paths {
		f, err := LoadScriptFile(p)
		if err != nil {
			return nil, err
		}
		files = append(files, f)
	}
	return files, nil
}

// ExpandPatterns expands glob patterns to a sorted, deduplicated path list.
func ExpandPatterns(patterns ...string) ([]string, error) {
	seen := make(map[string]struct{})
	var result []string
	for _, pattern := range patterns {
		var matches []string
		if isGlob(pattern) {
			if !doublestar.ValidatePathPattern(pattern) {
				return nil, fmt.Errorf("invalid glob pattern: %s", pattern)
			}
			m, err := doublestar.FilepathGlob(pattern, doublestar.WithFilesOnly())
			if err != nil {
				return nil, fmt.Errorf("expanding glob pattern: %w", err)
			}
			matches = m
		} else {
			matches = []string{filepath.Clean(pattern)}
		}
		for _, m := range matches {
			if _, ok := seen[m]; ok {
				continue
			}
			seen[m] = struct{}{}
			result = append(result, m)
		}
	}
	if len(result) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoMatches, strings.Join(patterns, ", "))
	}
	sort.Strings(result)
	return result, nil
}

func isGlob(pattern string) bool {
	return strings.ContainsAny(pattern, "*?[{")
}

// SaveScriptFile writes f to path as YAML, or as JSON when path ends in .json.
func SaveScriptFile(path string, f *ScriptFile) error {
	format := FormatYAML
	if strings.EqualFold(filepath.Ext(path), ".json") {
		format = FormatJSON
	}
	data, err := Marshal(f, format)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}
	return nil
}

// Format is a script file encoding.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

// Marshal encodes f in the given format.
func Marshal(f *ScriptFile, format Format) ([]byte, error) {
	switch format {
	case FormatJSON:
		data, err := json.MarshalIndent(f, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("failed to marshal script: %w", err)
		}
		return append(data, '\n'), nil
	case FormatYAML, "":
		data, err := yaml.Marshal(f)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal script: %w", err)
		}
		return data, nil
	default:
		return nil, fmt.Errorf("unsupported format: %s", format)
	}
}

// envVarPattern matches ${VAR_NAME} or ${VAR_NAME:-default}
var envVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)(?::-([^}]*))?\}`)

// ExpandEnvVars replaces ${VAR} and ${VAR:-default} with values from the
// environment. Unset variables without a default expand to "".
func ExpandEnvVars(input string) string {
	return envVarPattern.ReplaceAllStringFunc(input, func(match string) string {
		submatch := envVarPattern.FindStringSubmatch(match)
		if len(submatch) < 2 {
			return match
		}
		if val := os.Getenv(submatch[1]); val != "" {
			return val
		}
		if len(submatch) >= 3 {
			return submatch[2]
		}
		return ""
	})
}
