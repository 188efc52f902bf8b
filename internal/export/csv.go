package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
)

func renderCSV(table Table) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(table.Headers); err != nil {
		return nil, fmt.Errorf("failed to write csv header: %w", err)
	}
	if err := w.WriteAll(table.Rows); err != nil {
		return nil, fmt.Errorf("failed to write csv rows: %w", err)
	}

	return buf.Bytes(), nil
}
