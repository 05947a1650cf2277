// loader.go - Load render requests from TOML or JSON files.
package cover

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

// LoadRequest reads a request file. The format is inferred from the extension:
// ".toml" is parsed as TOML, anything else as JSON. Defaults are applied to
// every field the file leaves out. The returned request carries no image.
func LoadRequest(path string) (*RenderRequest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read request: %w", err)
	}

	format := "json"
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		format = "toml"
	}
	req, err := ParseRequest(data, format)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return req, nil
}

// ParseRequest decodes a request in "toml" or "json" over DefaultRequest, so
// absent fields keep their defaults and explicit zeros survive.
// JSON input rejects unknown fields.
func ParseRequest(data []byte, format string) (*RenderRequest, error) {
	req := DefaultRequest()
	switch format {
	case "toml":
		md, err := toml.Decode(string(data), &req)
		if err != nil {
			return nil, fmt.Errorf("%w: parse TOML: %v", ErrInvalidRequest, err)
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			return nil, fmt.Errorf("%w: unknown keys %v", ErrInvalidRequest, undecoded)
		}
	case "json":
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&req); err != nil {
			return nil, fmt.Errorf("%w: parse JSON: %v", ErrInvalidRequest, err)
		}
	default:
		return nil, fmt.Errorf("unsupported request format %q: use toml or json", format)
	}

	req.Background = req.Background.Normalized()
	ApplyDefaults(&req)
	return &req, nil
}
