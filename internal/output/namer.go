// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package output resolves destination paths for locked PDFs: a fixed
// prefix on the input's stem, with deterministic numeric disambiguation
// so no pre-existing file is ever overwritten.
package output

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pdiddy/pdflock/pkg/types"
)

// maxAttempts bounds disambiguation before giving up on a pathological
// directory.
const maxAttempts = 10000

// Namer computes destination paths inside a single output directory.
type Namer struct {
	dir    string
	prefix string
}

// DefaultDir returns the default output directory, a "Locked PDFs"
// folder on the user's desktop.
func DefaultDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolving home directory: %w", err)
	}
	return filepath.Join(home, "Desktop", "Locked PDFs"), nil
}

// NewNamer creates the output directory if absent and returns a Namer
// for it. Creation is idempotent; an existing directory is not an error.
func NewNamer(cfg types.OutputConfig) (*Namer, error) {
	dir := cfg.Dir
	if dir == "" {
		var err error
		if dir, err = DefaultDir(); err != nil {
			return nil, err
		}
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating output directory %s: %w", dir, err)
	}

	prefix := cfg.Prefix
	if prefix == "" {
		prefix = types.DefaultOutputPrefix
	}
	return &Namer{dir: dir, prefix: prefix}, nil
}

// Dir returns the resolved output directory.
func (n *Namer) Dir() string { return n.dir }

// Resolve returns a free destination path for inputPath: prefix + stem +
// ".pdf", appending _1, _2, ... while the candidate already exists. The
// result is deterministic for a given directory state.
func (n *Namer) Resolve(inputPath string) (string, error) {
	stem := strings.TrimSuffix(filepath.Base(inputPath), filepath.Ext(inputPath))
	base := n.prefix + stem

	candidate := filepath.Join(n.dir, base+".pdf")
	for i := 1; ; i++ {
		if _, err := os.Stat(candidate); os.IsNotExist(err) {
			return candidate, nil
		}
		if i > maxAttempts {
			return "", fmt.Errorf("no free output name for %s after %d attempts", base, maxAttempts)
		}
		candidate = filepath.Join(n.dir, fmt.Sprintf("%s_%d.pdf", base, i))
	}
}
