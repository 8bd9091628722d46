// Package backup encodes and decodes ledger snapshots for export, import and
// persistence, and writes scheduled backup files.
package backup

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"financeiro/internal/core"
	"financeiro/internal/validation"
)

// ErrMalformedSnapshot is returned when text cannot be read as a snapshot.
var ErrMalformedSnapshot = errors.New("malformed snapshot")

// Format is a snapshot text encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ParseFormat accepts "json", "yaml" or "yml"; empty means JSON.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("unsupported format %q: must be json or yaml", s)
	}
}

// Extension returns the file extension without the dot.
func (f Format) Extension() string { return string(f) }

// ContentType returns the MIME type used when serving the format.
func (f Format) ContentType() string {
	if f == FormatYAML {
		return "application/yaml"
	}
	return "application/json"
}

// Codec converts snapshots to and from text, checking the shape of anything
// it reads.
type Codec struct {
	validator *validation.Validator
}

func NewCodec(v *validation.Validator) *Codec {
	if v == nil {
		v = validation.New()
	}
	return &Codec{validator: v}
}

// Encode renders data in format f. JSON output is indented with two spaces.
func (c *Codec) Encode(data core.AppData, f Format) ([]byte, error) {
	data = data.Clone()
	data.Normalize()
	switch f {
	case FormatYAML:
		var buf bytes.Buffer
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(data); err != nil {
			return nil, fmt.Errorf("encode yaml: %w", err)
		}
		if err := enc.Close(); err != nil {
			return nil, fmt.Errorf("encode yaml: %w", err)
		}
		return buf.Bytes(), nil
	default:
		out, err := json.MarshalIndent(data, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("encode json: %w", err)
		}
		return out, nil
	}
}

// Decode parses raw in format f and validates its structure. Any failure
// wraps ErrMalformedSnapshot. A missing watermark decodes as nil.
func (c *Codec) Decode(raw []byte, f Format) (core.AppData, error) {
	var data core.AppData
	var err error
	switch f {
	case FormatYAML:
		err = yaml.Unmarshal(raw, &data)
	default:
		err = json.Unmarshal(raw, &data)
	}
	if err != nil {
		return core.AppData{}, fmt.Errorf("%w: %v", ErrMalformedSnapshot, err)
	}

	if err := c.validator.Struct(data); err != nil {
		return core.AppData{}, fmt.Errorf("%w: %s", ErrMalformedSnapshot,
			strings.Join(validation.Describe(err), "; "))
	}

	data.Normalize()
	return data, nil
}

// FileName is the name an export made on day gets.
func FileName(f Format, day core.Date) string {
	return fmt.Sprintf("financeiro_backup_%s.%s", day.String(), f.Extension())
}
