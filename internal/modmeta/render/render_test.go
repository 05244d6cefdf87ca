package render

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/shiroemons/go-lspk/internal/modmeta/models"
	"github.com/shiroemons/go-lspk/pkg/meta"
)

func sampleResults() []models.ArchiveResult {
	m := meta.Meta{
		Entry:       "Mods/ExampleMod/meta.lsx",
		Name:        meta.Property{Type: "LSString", Value: "ExampleMod"},
		Folder:      meta.Property{Type: "LSString", Value: "ExampleMod"},
		UUID:        meta.Property{Type: "FixedString", Value: "00000000-0000-0000-0000-000000000000"},
		MD5:         meta.Property{Type: "LSString", Value: ""},
		Version64:   meta.Property{Type: "int64", Value: meta.DefaultVersion64},
		Version:     meta.Version{Major: 1},
		Description: "",
	}
	return []models.ArchiveResult{
		{
			Path:    "ExampleMod.pak",
			Metas:   []meta.Meta{m},
			Skipped: []models.Skipped{{Entry: "Mods/Bad/meta.lsx", Err: meta.ErrNotXML}},
		},
		{
			Path: "Empty.pak",
			Err:  meta.ErrNoMetadata,
		},
	}
}

func TestNew(t *testing.T) {
	tests := []struct {
		format  string
		wantExt string
		wantErr bool
	}{
		{"", "txt", false},
		{"text", "txt", false},
		{"JSON", "json", false},
		{"yaml", "yaml", false},
		{"xml", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			r, err := New(tt.format)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrUnknownFormat)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantExt, r.Extension())
		})
	}
}

func TestText_Render(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, (&Text{}).Render(&buf, sampleResults()))
	out := buf.String()

	for _, want := range []string{
		"#パッケージ: ExampleMod.pak\n",
		"#メタデータ: 1 件\n",
		"Entry: Mods/ExampleMod/meta.lsx\n",
		"Name: ExampleMod\n",
		"UUID: 00000000-0000-0000-0000-000000000000\n",
		"Description: \n",
		"Version64: 36028797018963968\n",
		"Version: 1.0.0.0\n",
		"#読み飛ばし: Mods/Bad/meta.lsx",
		"#パッケージ: Empty.pak\n",
		"#エラー: パッケージにメタデータが含まれていません",
	} {
		assert.Contains(t, out, want)
	}
	assert.Less(t, strings.Index(out, "ExampleMod.pak"), strings.Index(out, "Empty.pak"))
}

func TestJSON_Render(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, (&JSON{}).Render(&buf, sampleResults()))

	var got []map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	require.Len(t, got, 2)

	assert.Equal(t, "ExampleMod.pak", got[0]["archive"])
	metas := got[0]["metadata"].([]any)
	require.Len(t, metas, 1)
	first := metas[0].(map[string]any)
	assert.Equal(t, "ExampleMod", first["name"].(map[string]any)["value"])
	assert.Equal(t, "", first["description"])
	assert.Equal(t, float64(1), first["version"].(map[string]any)["major"])
	assert.Len(t, got[0]["skipped"], 1)
	assert.NotContains(t, got[0], "error")

	assert.Equal(t, []any{}, got[1]["metadata"])
	assert.Equal(t, "パッケージにメタデータが含まれていません", got[1]["error"])
}

func TestYAML_Render(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, (&YAML{}).Render(&buf, sampleResults()))

	var got []models.Report
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &got))
	require.Len(t, got, 2)

	require.Len(t, got[0].Metadata, 1)
	assert.Equal(t, "ExampleMod", got[0].Metadata[0].Name.Value)
	assert.Equal(t, meta.DefaultVersion64, got[0].Metadata[0].Version64.Value)
	assert.Equal(t, "Empty.pak", got[1].Archive)
	assert.NotEmpty(t, got[1].Error)
}

type failWriter struct{}

func (failWriter) Write([]byte) (int, error) { return 0, errors.New("write failed") }

func TestRender_WriteError(t *testing.T) {
	assert.Error(t, (&Text{}).Render(failWriter{}, sampleResults()))
	assert.Error(t, (&JSON{}).Render(failWriter{}, sampleResults()))
}
