// Package ingest loads table rows from YAML or JSON files.
package ingest

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/rshade/tablefold/internal/logging"
)

// rowsField is the wrapping key accepted around the row list.
const rowsField = "rows"

// ErrUnsupportedShape is returned when a document is neither a list of
// objects nor an object with a "rows" list.
var ErrUnsupportedShape = errors.New("unsupported data shape")

// ParseRows parses rows from YAML or JSON bytes.
func ParseRows(data []byte) ([]map[string]any, error) {
	return ParseRowsWithContext(context.Background(), data)
}

// ParseRowsWithContext parses rows using the logger carried in ctx.
// JSON is parsed by the YAML decoder. An empty document yields zero rows.
func ParseRowsWithContext(ctx context.Context, data []byte) ([]map[string]any, error) {
	log := logging.FromContext(ctx)
	log.Debug().
		Ctx(ctx).
		Str("component", "ingest").
		Str("operation", "parse_rows").
		Int("data_size_bytes", len(data)).
		Msg("parsing rows from bytes")

	var doc any
	if err := yaml.NewDecoder(bytes.NewReader(data)).Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return []map[string]any{}, nil
		}
		log.Error().
			Ctx(ctx).
			Str("component", "ingest").
			Str("operation", "parse_rows").
			Err(err).
			Msg("failed to parse rows")
		return nil, fmt.Errorf("parsing rows: %w", err)
	}

	rows, err := toRows(doc)
	if err != nil {
		return nil, err
	}

	log.Debug().
		Ctx(ctx).
		Str("component", "ingest").
		Int("row_count", len(rows)).
		Msg("rows parsed successfully")

	return rows, nil
}

// LoadRows reads and parses the rows file at path.
func LoadRows(ctx context.Context, path string) ([]map[string]any, error) {
	log := logging.FromContext(ctx)
	log.Debug().
		Ctx(ctx).
		Str("component", "ingest").
		Str("operation", "load_rows").
		Str("data_path", path).
		Msg("loading rows")

	data, err := os.ReadFile(path)
	if err != nil {
		log.Error().
			Ctx(ctx).
			Str("component", "ingest").
			Err(err).
			Str("data_path", path).
			Msg("failed to read data file")
		return nil, fmt.Errorf("reading data file: %w", err)
	}

	rows, err := ParseRowsWithContext(ctx, data)
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", path, err)
	}
	return rows, nil
}

func toRows(doc any) ([]map[string]any, error) {
	switch v := doc.(type) {
	case nil:
		return []map[string]any{}, nil
	case []any:
		return toRowList(v)
	case map[string]any:
		inner, ok := v[rowsField]
		if !ok {
			return nil, fmt.Errorf("%w: object without a %q list", ErrUnsupportedShape, rowsField)
		}
		if inner == nil {
			return []map[string]any{}, nil
		}
		list, ok := inner.([]any)
		if !ok {
			return nil, fmt.Errorf("%w: %q is %T, not a list", ErrUnsupportedShape, rowsField, inner)
		}
		return toRowList(list)
	default:
		return nil, fmt.Errorf("%w: top level is %T", ErrUnsupportedShape, doc)
	}
}

func toRowList(items []any) ([]map[string]any, error) {
	rows := make([]map[string]any, len(items))
	for i, item := range items {
		row, ok := item.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%w: row %d is %T, not an object", ErrUnsupportedShape, i, item)
		}
		rows[i] = row
	}
	return rows, nil
}
