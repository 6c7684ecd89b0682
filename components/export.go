package components

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/waivern/wct/message"
)

// JSONExporter writes every input Message to a JSON file under a configured
// output directory, one file per input keyed by the Message's schema name.
// It implements orchestration.Exporter.
//
// Framework-specific report formatting (GDPR/UK_GDPR/CCPA layouts) is
// deliberately not implemented here: it is a presentation concern outside
// the orchestration engine's scope, and a real deployment would register
// additional Exporter implementations under those names.
type JSONExporter struct{}

// NewJSONExporter constructs a JSONExporter.
func NewJSONExporter() *JSONExporter { return &JSONExporter{} }

// Export writes each input to "{properties[output_dir]}/{schema_name}.json".
// properties["output_dir"] is required; properties["indent"], if true,
// pretty-prints the output.
func (e *JSONExporter) Export(ctx context.Context, inputs []*message.Message, properties map[string]any) error {
	dir, _ := properties["output_dir"].(string)
	if dir == "" {
		return fmt.Errorf("json exporter: properties.output_dir is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("json exporter: create %s: %w", dir, err)
	}

	indent, _ := properties["indent"].(bool)

	for i, in := range inputs {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if in == nil {
			continue
		}

		var data []byte
		var err error
		if indent {
			data, err = json.MarshalIndent(in, "", "  ")
		} else {
			data, err = json.Marshal(in)
		}
		if err != nil {
			return fmt.Errorf("json exporter: marshal input %d: %w", i, err)
		}

		name := in.Schema.Name
		if name == "" {
			name = fmt.Sprintf("output-%d", i)
		}
		path := filepath.Join(dir, name+".json")
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return fmt.Errorf("json exporter: write %s: %w", path, err)
		}
	}
	return nil
}
