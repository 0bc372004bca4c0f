// Tests for JSONL loading and atomic writes.
package sqlite

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/mangashelf/pkg/types"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func TestLoadJSONL(t *testing.T) {
	tests := []struct {
		name       string
		files      map[string]string
		wantMangas int
		wantTags   int
		check      func(t *testing.T, b *Backend)
	}{
		{
			name: "unknown fields are ignored",
			files: map[string]string{
				mangasFile: `{"id":1,"title":"Berserk","chapters":364,"type":"manga","state":"reading","tags":[1],"created_at":"2024-01-01T00:00:00.000Z","updated_at":"2024-01-01T00:00:00.000Z","rating":10}` + "\n",
				tagsFile:   `{"id":1,"name":"Dark","color":"#000","priority":3}` + "\n",
			},
			wantMangas: 1,
			wantTags:   1,
			check: func(t *testing.T, b *Backend) {
				got, err := mustTable(t, b, types.MangasTable).Get(1)
				require.NoError(t, err)
				m := got.(*types.Manga)
				assert.Equal(t, 364, m.Chapters)
				assert.Equal(t, types.StateReading, m.State)
				assert.Equal(t, []int64{1}, m.Tags)
			},
		},
		{
			name: "malformed lines are skipped",
			files: map[string]string{
				mangasFile: "{not json}\n" +
					`{"id":2,"title":"Monster"}` + "\n" +
					`{"id":3,"title":""}` + "\n" +
					`{"id":0,"title":"No id"}` + "\n" +
					"\n",
			},
			wantMangas: 1,
			check: func(t *testing.T, b *Backend) {
				got, err := mustTable(t, b, types.MangasTable).Get(2)
				require.NoError(t, err)
				m := got.(*types.Manga)
				assert.Equal(t, types.TypeOther, m.Type)
				assert.Equal(t, types.StateNone, m.State)
				assert.Equal(t, []int64{}, m.Tags)
			},
		},
		{
			name: "duplicate ids keep the first record",
			files: map[string]string{
				tagsFile: `{"id":4,"name":"First"}` + "\n" + `{"id":4,"name":"Second"}` + "\n",
			},
			wantTags: 1,
			check: func(t *testing.T, b *Backend) {
				got, err := mustTable(t, b, types.TagsTable).Get(4)
				require.NoError(t, err)
				assert.Equal(t, "First", got.(*types.Tag).Name)
			},
		},
		{
			name: "documents with invalid json values are skipped",
			files: map[string]string{
				documentsFile: `{"key":"settings","value":"{\"language\":\"es\"}","updated_at":"x"}` + "\n" +
					`{"key":"broken","value":"{oops","updated_at":"x"}` + "\n",
			},
			check: func(t *testing.T, b *Backend) {
				_, err := b.ReadDocument("settings")
				assert.NoError(t, err)
				_, err = b.ReadDocument("broken")
				assert.ErrorIs(t, err, types.ErrNotFound)
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			for name, content := range tt.files {
				writeFile(t, dir, name, content)
			}
			b := NewBackend()
			require.NoError(t, b.Attach(types.Config{Backend: types.BackendSQLite, DataDir: dir}))
			t.Cleanup(func() { b.Detach() })

			mangas, err := mustTable(t, b, types.MangasTable).All()
			require.NoError(t, err)
			assert.Len(t, mangas, tt.wantMangas)
			tags, err := mustTable(t, b, types.TagsTable).All()
			require.NoError(t, err)
			assert.Len(t, tags, tt.wantTags)

			if tt.check != nil {
				tt.check(t, b)
			}
		})
	}
}

func TestWriteJSONLAtomic(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.jsonl")

	records := []json.RawMessage{json.RawMessage(`{"a":1}`), json.RawMessage(`{"b":2}`)}
	require.NoError(t, writeJSONL(path, records))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "{\"a\":1}\n{\"b\":2}\n", string(data))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temp files left behind")

	got, err := readJSONL(path)
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestReadJSONLMissingFile(t *testing.T) {
	got, err := readJSONL(filepath.Join(t.TempDir(), "absent.jsonl"))
	require.NoError(t, err)
	assert.Nil(t, got)
}
