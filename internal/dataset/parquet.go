package dataset

import (
	"bytes"
	"fmt"

	"github.com/parquet-go/parquet-go"
)

// EncodeParquet serializes customers into a single Parquet buffer suitable
// for DuckDB's read_parquet.
func EncodeParquet(customers []Customer) ([]byte, error) {
	if len(customers) == 0 {
		return nil, fmt.Errorf("customers are required")
	}

	buf := bytes.NewBuffer(nil)
	writer := parquet.NewGenericWriter[Customer](buf)
	if _, err := writer.Write(customers); err != nil {
		return nil, fmt.Errorf("write parquet rows: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("close parquet writer: %w", err)
	}
	return buf.Bytes(), nil
}
