package pipeline

import (
	"bytes"
	_ "embed"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"gopkg.in/yaml.v3"
)

//go:embed schema.cue
var schemaSource string

// Load reads a pipeline definition. Files ending in .yaml or .yml are
// decoded as YAML with unknown fields rejected. Files ending in .cue are
// unified with the #Pipeline schema before they are decoded.
func Load(path string) (*Pipeline, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: "failed to read pipeline file", Err: err}
	}

	var p *Pipeline
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		p, err = ParseYAML(data)
	case ".cue":
		p, err = ParseCUE(path, data)
	default:
		return nil, &LoadError{Code: ErrCodeFormat,
			Message: fmt.Sprintf("unsupported pipeline file extension %q, expected .yaml, .yml or .cue", ext)}
	}
	if err != nil {
		return nil, err
	}

	slog.Debug("loaded pipeline",
		"path", path,
		"pipeline", p.Name,
		"checkpoints", len(p.Checkpoints))
	return p, nil
}

// ParseYAML decodes and validates a YAML pipeline definition.
func ParseYAML(data []byte) (*Pipeline, error) {
	var p Pipeline
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&p); err != nil {
		return nil, &LoadError{Code: ErrCodeParse, Message: "failed to parse YAML", Err: err}
	}
	return finish(&p)
}

// ParseCUE checks a CUE pipeline definition against the #Pipeline schema
// and decodes it. filename is only used in error positions.
func ParseCUE(filename string, data []byte) (*Pipeline, error) {
	ctx := cuecontext.New()

	schema := ctx.CompileString(schemaSource, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return nil, cueError(ErrCodeSchema, err)
	}

	value := ctx.CompileBytes(data, cue.Filename(filename))
	if err := value.Err(); err != nil {
		return nil, cueError(ErrCodeParse, err)
	}

	unified := schema.LookupPath(cue.ParsePath("#Pipeline")).Unify(value)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return nil, cueError(ErrCodeSchema, err)
	}

	var p Pipeline
	if err := unified.Decode(&p); err != nil {
		return nil, cueError(ErrCodeSchema, err)
	}
	return finish(&p)
}

func finish(p *Pipeline) (*Pipeline, error) {
	p.applyDefaults()
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}
