package ingest_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rshade/tablefold/internal/ingest"
)

func TestParseRows(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    []map[string]any
		wantErr error
	}{
		{
			name:    "yaml_sequence",
			content: "- id: 1\n  name: alpha\n- id: 2\n  name: beta\n",
			want: []map[string]any{
				{"id": 1, "name": "alpha"},
				{"id": 2, "name": "beta"},
			},
		},
		{
			name:    "json_array",
			content: `[{"id": "a", "cost": 1.5}, {"id": "b", "tags": {"env": "dev"}}]`,
			want: []map[string]any{
				{"id": "a", "cost": 1.5},
				{"id": "b", "tags": map[string]any{"env": "dev"}},
			},
		},
		{
			name:    "wrapped_rows",
			content: "rows:\n  - id: 7\n",
			want:    []map[string]any{{"id": 7}},
		},
		{
			name:    "wrapped_null_rows",
			content: "rows:\n",
			want:    []map[string]any{},
		},
		{
			name:    "empty_document",
			content: "",
			want:    []map[string]any{},
		},
		{
			name:    "scalar",
			content: "42",
			wantErr: ingest.ErrUnsupportedShape,
		},
		{
			name:    "object_without_rows",
			content: "items:\n  - id: 1\n",
			wantErr: ingest.ErrUnsupportedShape,
		},
		{
			name:    "row_not_an_object",
			content: "- id: 1\n- just a string\n",
			wantErr: ingest.ErrUnsupportedShape,
		},
		{
			name:    "rows_not_a_list",
			content: "rows: 3\n",
			wantErr: ingest.ErrUnsupportedShape,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rows, err := ingest.ParseRows([]byte(tt.content))
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, rows)
		})
	}
}

func TestParseRows_InvalidSyntax(t *testing.T) {
	_, err := ingest.ParseRows([]byte("[{"))

	require.Error(t, err)
	assert.NotErrorIs(t, err, ingest.ErrUnsupportedShape)
	assert.Contains(t, err.Error(), "parsing rows")
}

func TestLoadRows(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rows.yaml")
	require.NoError(t, os.WriteFile(path, []byte("- id: 1\n- id: 2\n"), 0o600))

	rows, err := ingest.LoadRows(context.Background(), path)

	require.NoError(t, err)
	assert.Len(t, rows, 2)
}

func TestLoadRows_Errors(t *testing.T) {
	dir := t.TempDir()

	_, err := ingest.LoadRows(context.Background(), filepath.Join(dir, "missing.yaml"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("true"), 0o600))

	_, err = ingest.LoadRows(context.Background(), bad)
	require.ErrorIs(t, err, ingest.ErrUnsupportedShape)
	assert.Contains(t, err.Error(), bad)
}
