// Package frontmatter splits a YAML header off an artifact and turns its
// `files:` declaration into canonical dependency paths.
package frontmatter

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// Delimiter opens and closes a front-matter block on a line of its own.
const Delimiter = "---"

// ErrUnterminated is returned when an opening delimiter has no closing one.
var ErrUnterminated = errors.New("front-matter block is not terminated")

// Header is the decoded front-matter.
type Header struct {
	// Files lists the referenced artifact paths.
	Files FileList `yaml:"files"`
	// Output overrides the path the recomputed artifact is published under.
	Output string `yaml:"output"`
	// Meta keeps every other key for the recompute driver.
	Meta map[string]any `yaml:",inline"`
}

// FileList accepts either a whitespace separated string or a YAML list.
type FileList []string

// UnmarshalYAML implements yaml.Unmarshaler.
func (f *FileList) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		*f = strings.Fields(value.Value)
		return nil
	case yaml.SequenceNode:
		var items []string
		if err := value.Decode(&items); err != nil {
			return fmt.Errorf("files: %w", err)
		}
		out := make([]string, 0, len(items))
		for _, it := range items {
			out = append(out, strings.Fields(it)...)
		}
		*f = out
		return nil
	default:
		return fmt.Errorf("files: line %d: expected a string or a list", value.Line)
	}
}

// Split separates the front-matter from the body. found is false when raw
// does not start with a delimiter line, in which case body is raw.
func Split(raw []byte) (header, body []byte, found bool, err error) {
	first, rest, _ := cutLine(raw)
	if string(trimCR(first)) != Delimiter {
		return nil, raw, false, nil
	}
	for offset := 0; ; {
		line, next, more := cutLine(rest[offset:])
		if string(trimCR(line)) == Delimiter {
			return rest[:offset], next, true, nil
		}
		if !more {
			return nil, nil, true, ErrUnterminated
		}
		offset = len(rest) - len(next)
	}
}

// Parse splits raw and decodes the header. A file without front-matter
// yields an empty header.
func Parse(raw []byte) (*Header, []byte, error) {
	hdr, body, found, err := Split(raw)
	if err != nil {
		return nil, nil, err
	}
	h := &Header{}
	if !found || len(bytes.TrimSpace(hdr)) == 0 {
		return h, body, nil
	}
	if err := yaml.Unmarshal(hdr, h); err != nil {
		return nil, nil, fmt.Errorf("failed to decode front-matter: %w", err)
	}
	return h, body, nil
}

// cutLine returns the first line without its newline and the remainder.
// more is false when no newline was found.
func cutLine(b []byte) (line, rest []byte, more bool) {
	i := bytes.IndexByte(b, '\n')
	if i < 0 {
		return b, nil, false
	}
	return b[:i], b[i+1:], true
}

func trimCR(b []byte) []byte {
	return bytes.TrimSuffix(b, []byte("\r"))
}
