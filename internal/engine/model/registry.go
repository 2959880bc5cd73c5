package model

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
)

var (
	// ErrUnsupportedExtension is returned for files no parser is registered for.
	ErrUnsupportedExtension = errors.New("unsupported model extension")
	// ErrNoParser is returned when the registry is empty for a known extension.
	ErrNoParser = errors.New("no parser registered")
)

// Extension is the only model file extension the rendering core accepts.
const Extension = ".mdx"

// Parser decodes model file bytes.
type Parser interface {
	Parse(name string, data []byte) (*Model, error)
}

// ParserFunc adapts a function to Parser.
type ParserFunc func(name string, data []byte) (*Model, error)

// Parse calls f.
func (f ParserFunc) Parse(name string, data []byte) (*Model, error) {
	return f(name, data)
}

// Registry maps lower-case file extensions to parsers.
type Registry struct {
	mu      sync.RWMutex
	parsers map[string]Parser
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{parsers: make(map[string]Parser)}
}

// Register installs p for ext (".mdx"). Extensions are case-insensitive.
func (r *Registry) Register(ext string, p Parser) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.parsers[strings.ToLower(ext)] = p
}

// CheckExtension returns ErrUnsupportedExtension unless path ends in .mdx.
func CheckExtension(path string) error {
	ext := filepath.Ext(strings.ReplaceAll(path, "\\", "/"))
	if !strings.EqualFold(ext, Extension) {
		return fmt.Errorf("%w: %q", ErrUnsupportedExtension, path)
	}
	return nil
}

// Parse checks the extension of name and runs the registered parser.
func (r *Registry) Parse(name string, data []byte) (*Model, error) {
	if err := CheckExtension(name); err != nil {
		return nil, err
	}
	r.mu.RLock()
	p, ok := r.parsers[Extension]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w for %s", ErrNoParser, Extension)
	}
	m, err := p.Parse(name, data)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", name, err)
	}
	return m, nil
}
