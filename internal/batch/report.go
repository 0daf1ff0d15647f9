// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package batch

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/pdflock/pkg/types"
)

// WriteReport writes the batch result to path, as JSON when the
// extension is .json and as YAML otherwise. The report carries only
// paths, statuses, and taxonomy reasons, never passwords or raw
// backend error text.
func WriteReport(path string, result *types.BatchResult) error {
	var (
		data []byte
		err  error
	)
	if strings.EqualFold(filepath.Ext(path), ".json") {
		data, err = json.MarshalIndent(result, "", "  ")
	} else {
		data, err = yaml.Marshal(result)
	}
	if err != nil {
		return fmt.Errorf("marshaling report: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}
