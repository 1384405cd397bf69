package fixtures

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/getmockd/oidctest/pkg/oauth"
)

// Common errors for descriptor resolution and loading.
var (
	ErrDescriptorNotFound = errors.New("fixture descriptor not found")
	ErrPermissionDenied   = errors.New("permission denied")
	ErrEmptyDescriptor    = errors.New("fixture descriptor is empty")
	ErrInvalidDescriptor  = errors.New("invalid fixture descriptor")
)

// Extensions are tried in order when resolving a descriptor.
var Extensions = []string{".config.yaml", ".config.yml", ".config.json"}

// Format is the encoding of a descriptor file.
type Format string

// Descriptor formats.
const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

// Descriptor is the fixture data for one test package.
type Descriptor struct {
	Config  oauth.Configuration  `json:"config" yaml:"config"`
	Certs   []oauth.KeySpec      `json:"certs" yaml:"certs"`
	Clients []oauth.ClientConfig `json:"clients" yaml:"clients"`
}

// Resolve returns the descriptor path for dir and basename. An empty basename
// defaults to the last element of dir.
func Resolve(dir, basename string) (string, error) {
	if basename == "" {
		basename = filepath.Base(filepath.Clean(dir))
	}

	for _, ext := range Extensions {
		path := filepath.Join(dir, basename+ext)
		info, err := os.Stat(path)
		if err == nil && !info.IsDir() {
			return path, nil
		}
		if err != nil && os.IsPermission(err) {
			return "", fmt.Errorf("%w: %s", ErrPermissionDenied, path)
		}
	}
	return "", fmt.Errorf("%w: %s in %s", ErrDescriptorNotFound, basename+"{"+strings.Join(Extensions, ",")+"}", dir)
}

// Load reads and validates a descriptor file. The format is chosen by
// extension: .json is JSON, anything else YAML.
func Load(path string) (*Descriptor, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrDescriptorNotFound, path)
		}
		if os.IsPermission(err) {
			return nil, fmt.Errorf("%w: %s", ErrPermissionDenied, path)
		}
		return nil, fmt.Errorf("failed to read descriptor: %w", err)
	}

	format := FormatYAML
	if strings.EqualFold(filepath.Ext(path), ".json") {
		format = FormatJSON
	}

	desc, err := Parse(data, format)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return desc, nil
}

// Parse validates data against the descriptor schema and decodes it.
func Parse(data []byte, format Format) (*Descriptor, error) {
	if len(strings.TrimSpace(string(data))) == 0 {
		return nil, ErrEmptyDescriptor
	}

	var raw any
	switch format {
	case FormatJSON:
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidDescriptor, err)
		}
	default:
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidDescriptor, err)
		}
	}
	if raw == nil {
		return nil, ErrEmptyDescriptor
	}

	if err := Validate(raw); err != nil {
		return nil, err
	}

	desc := &Descriptor{}
	switch format {
	case FormatJSON:
		if err := json.Unmarshal(data, desc); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidDescriptor, err)
		}
	default:
		if err := yaml.Unmarshal(data, desc); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidDescriptor, err)
		}
	}
	return desc, nil
}
