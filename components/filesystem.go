// Package components implements the concrete Connector/Analyser/Classifier/
// Exporter components the orchestration engine dispatches: a filesystem
// source, a pattern-based detection analyser, an
// LLM-assisted classifier, and a JSON report exporter. Each is grounded on
// the corresponding original_source component it replaces, adapted onto the
// orchestration package's component interfaces.
package components

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/waivern/wct/message"
	"github.com/waivern/wct/schema"
)

// FilesystemFile is one file's content as read by FilesystemConnector.
type FilesystemFile struct {
	Path    string `json:"path"`
	Content string `json:"content"`
}

// FilesystemScan is the content of the Message a FilesystemConnector
// produces: every file found under the configured root, in walk order.
type FilesystemScan struct {
	Root  string           `json:"root"`
	Files []FilesystemFile `json:"files"`
}

// FilesystemSchema identifies FilesystemScan's wire schema.
var FilesystemSchema = schema.Get("filesystem_scan", "1.0.0")

// FilesystemConnector walks a directory tree and reads every regular file
// into a FilesystemScan Message. It implements orchestration.Connector.
type FilesystemConnector struct{}

// NewFilesystemConnector constructs a FilesystemConnector. It holds no
// state; the constructor exists for consistency with the registry's
// Factory-per-component-type convention.
func NewFilesystemConnector() *FilesystemConnector { return &FilesystemConnector{} }

// Connect reads properties["path"] (required) and, when set,
// properties["max_file_bytes"] (an int or float64, as decoded from runbook
// YAML or JSON)
// to cap how much of each file is read.
func (c *FilesystemConnector) Connect(ctx context.Context, properties map[string]any) (*message.Message, error) {
	root, _ := properties["path"].(string)
	if root == "" {
		return nil, fmt.Errorf("filesystem connector: properties.path is required")
	}

	maxBytes := int64(0)
	if v, ok := propInt(properties, "max_file_bytes"); ok && v > 0 {
		maxBytes = int64(v)
	}

	scan := FilesystemScan{Root: root, Files: []FilesystemFile{}}
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if d.IsDir() {
			return nil
		}
		data, readErr := os.ReadFile(path)
		if readErr != nil {
			return fmt.Errorf("read %s: %w", path, readErr)
		}
		if maxBytes > 0 && int64(len(data)) > maxBytes {
			data = data[:maxBytes]
		}
		scan.Files = append(scan.Files, FilesystemFile{Path: path, Content: string(data)})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("filesystem connector: scan %s: %w", root, err)
	}

	return message.New(FilesystemSchema, scan)
}
