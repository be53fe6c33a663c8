package ingest

import (
	"fmt"
	"os"
	"strings"

	"github.com/gocarina/gocsv"
)

type mappingRow struct {
	SourceField string `csv:"source_field"`
	TargetField string `csv:"target_field"`
}

// LoadMapping reads the source→canonical field mapping. A missing or
// malformed mapping file is a structural error: the run aborts.
func LoadMapping(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read mapping file: %w", err)
	}

	header := strings.SplitN(string(data), "\n", 2)[0]
	for _, required := range []string{"source_field", "target_field"} {
		if !strings.Contains(header, required) {
			return nil, fmt.Errorf("mapping file must include 'source_field' and 'target_field' columns")
		}
	}

	var rows []*mappingRow
	if err := gocsv.UnmarshalBytes(data, &rows); err != nil {
		return nil, fmt.Errorf("failed to unmarshal mapping rows: %w", err)
	}

	mapping := make(map[string]string, len(rows))
	for _, row := range rows {
		src := strings.TrimSpace(row.SourceField)
		dst := strings.TrimSpace(row.TargetField)
		if src != "" && dst != "" {
			mapping[src] = dst
		}
	}
	return mapping, nil
}
