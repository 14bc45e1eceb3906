package sqlmodel

import (
	"fmt"
	"strings"
)

// TemplateError reports a malformed node template or a marker that names
// neither a reference nor a value.
type TemplateError struct {
	Node    string
	Key     string
	Message string
}

func (e *TemplateError) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("node %q: %s: {%s}", e.Node, e.Message, e.Key)
	}
	return fmt.Sprintf("node %q: %s", e.Node, e.Message)
}

// segment is either literal text or a {key} marker.
type segment struct {
	text string
	key  string
}

func (s segment) isMarker() bool {
	return s.key != ""
}

// parseTemplate splits a template into literal text and markers.
// {{ and }} decode to literal braces.
func parseTemplate(template string) ([]segment, error) {
	var segs []segment
	var lit strings.Builder

	flush := func() {
		if lit.Len() > 0 {
			segs = append(segs, segment{text: lit.String()})
			lit.Reset()
		}
	}

	for i := 0; i < len(template); {
		switch c := template[i]; c {
		case '{':
			if i+1 < len(template) && template[i+1] == '{' {
				lit.WriteByte('{')
				i += 2
				continue
			}
			end := strings.IndexByte(template[i+1:], '}')
			if end < 0 {
				return nil, fmt.Errorf("unterminated marker at offset %d", i)
			}
			key := template[i+1 : i+1+end]
			if key == "" || strings.ContainsRune(key, '{') {
				return nil, fmt.Errorf("invalid marker %q at offset %d", key, i)
			}
			flush()
			segs = append(segs, segment{key: key})
			i += end + 2
		case '}':
			if i+1 < len(template) && template[i+1] == '}' {
				lit.WriteByte('}')
				i += 2
				continue
			}
			return nil, fmt.Errorf("single '}' at offset %d", i)
		default:
			lit.WriteByte(c)
			i++
		}
	}
	flush()
	return segs, nil
}

// Render decodes a template that contains no markers, turning {{ and }}
// back into literal braces.
func Render(template string) (string, error) {
	segs, err := parseTemplate(template)
	if err != nil {
		return "", err
	}
	var b strings.Builder
	for _, s := range segs {
		if s.isMarker() {
			return "", fmt.Errorf("unresolved marker {%s}", s.key)
		}
		b.WriteString(s.text)
	}
	return b.String(), nil
}
