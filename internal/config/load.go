package config

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"
	"gopkg.in/yaml.v3"
)

//go:embed schema.cue
var schemaSrc string

// Error codes for configuration problems.
const (
	ErrCodeNotFound = "C001" // Config file missing or unreadable
	ErrCodeFormat   = "C002" // Unsupported extension
	ErrCodeParse    = "C003" // YAML or CUE syntax error
	ErrCodeSchema   = "C004" // Value does not satisfy #Config
	ErrCodeInvalid  = "C005" // Semantic check failed
)

// LoadError describes a configuration problem, with a source position
// when CUE can provide one.
type LoadError struct {
	Code    string
	Message string
	Pos     token.Pos
}

func (e *LoadError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Load reads a configuration file. YAML (.yaml, .yml) and CUE (.cue)
// are accepted; both are checked against the embedded #Config schema
// before decoding, so defaults come from the schema.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("reading config: %v", err)}
	}
	return Parse(path, data)
}

// Parse decodes configuration bytes; name selects the format by extension
// and is used in error positions.
func Parse(name string, data []byte) (Config, error) {
	ctx := cuecontext.New()

	var value cue.Value
	switch filepath.Ext(name) {
	case ".yaml", ".yml":
		var raw map[string]any
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return Config{}, &LoadError{Code: ErrCodeParse, Message: fmt.Sprintf("%s: %v", name, err)}
		}
		if raw == nil {
			raw = map[string]any{}
		}
		value = ctx.Encode(raw)
	case ".cue":
		value = ctx.CompileBytes(data, cue.Filename(name))
	default:
		return Config{}, &LoadError{Code: ErrCodeFormat, Message: fmt.Sprintf("unsupported config format %q", filepath.Ext(name))}
	}
	if err := value.Err(); err != nil {
		return Config{}, cueLoadError(ErrCodeParse, err)
	}

	schema := ctx.CompileString(schemaSrc, cue.Filename("schema.cue")).LookupPath(cue.ParsePath("#Config"))
	if err := schema.Err(); err != nil {
		return Config{}, fmt.Errorf("compile config schema: %w", err)
	}

	unified := schema.Unify(value)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return Config{}, cueLoadError(ErrCodeSchema, err)
	}

	var cfg Config
	if err := unified.Decode(&cfg); err != nil {
		return Config{}, cueLoadError(ErrCodeSchema, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// cueLoadError reports the first CUE error with its position, if any.
func cueLoadError(code string, err error) error {
	errs := cueerrors.Errors(err)
	if len(errs) == 0 {
		return &LoadError{Code: code, Message: err.Error()}
	}
	first := errs[0]
	le := &LoadError{Code: code, Message: first.Error()}
	if positions := cueerrors.Positions(first); len(positions) > 0 {
		le.Pos = positions[0]
	}
	return le
}
