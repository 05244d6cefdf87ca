package fileutil

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/shiroemons/go-lspk/internal/modmeta/mocks"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileExists(t *testing.T) {
	tmpfile, err := os.CreateTemp(t.TempDir(), "test")
	require.NoError(t, err)
	tmpfile.Close()

	assert.True(t, FileExists(tmpfile.Name()))
	assert.False(t, FileExists("/nonexistent/file/path"))
}

func TestGenerateOutputFilename(t *testing.T) {
	tests := []struct {
		input string
		ext   string
		want  string
	}{
		{"MyMod.pak", "txt", "modmeta_MyMod.txt"},
		{"/mods/Gustav.pak", "json", "modmeta_Gustav.json"},
		{"dir/Textures_1.pak", "yaml", "modmeta_Textures_1.yaml"},
		{"noext", "txt", "modmeta_noext.txt"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, GenerateOutputFilename(tt.input, tt.ext))
		})
	}
}

func TestPrimaryPartName(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"Textures_1.pak", "Textures.pak"},
		{"Textures_12.PAK", "Textures.PAK"},
		{"My_Mod_2.pak", "My_Mod.pak"},
		{"Textures.pak", ""},
		{"Textures_a.pak", ""},
		{"_1.pak", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, PrimaryPartName(tt.name))
		})
	}
}

func TestFilterPakFiles(t *testing.T) {
	got := filterPakFiles([]string{"A.pak", "a_1.pak", "B_1.pak", "c.txt", "D.PAK"})
	assert.Equal(t, []string{"A.pak", "B_1.pak", "D.PAK"}, got)
}

func TestSaveToFile(t *testing.T) {
	tests := []struct {
		name    string
		content []byte
		withBOM bool
		want    []byte
	}{
		{
			name:    "BOM付き",
			content: []byte("内容"),
			withBOM: true,
			want:    append([]byte{0xEF, 0xBB, 0xBF}, "内容"...),
		},
		{
			name:    "BOMは重ねない",
			content: append([]byte{0xEF, 0xBB, 0xBF}, "内容"...),
			withBOM: true,
			want:    append([]byte{0xEF, 0xBB, 0xBF}, "内容"...),
		},
		{
			name:    "BOMなし",
			content: []byte("内容"),
			withBOM: false,
			want:    []byte("内容"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "nested", "out.txt")
			require.NoError(t, SaveToFile(NewOSFileSystem(), path, tt.content, tt.withBOM))

			got, err := os.ReadFile(path)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSaveToFile_MockFileSystem(t *testing.T) {
	fs := mocks.NewMockFileSystem()
	require.NoError(t, SaveToFile(fs, "/out/modmeta_A.json", []byte("{}"), false))

	assert.True(t, fs.Dirs["/out"])
	assert.Equal(t, []byte("{}"), fs.Files["/out/modmeta_A.json"])
}

func TestSaveToFile_CreateError(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	require.NoError(t, os.WriteFile(blocker, nil, 0o644))

	err := SaveToFile(NewOSFileSystem(), filepath.Join(blocker, "out.txt"), []byte("x"), false)
	assert.ErrorIs(t, err, ErrCreateDirectory)
}

func TestSaveToFile_FileSystemError(t *testing.T) {
	fs := mocks.NewMockFileSystem()
	fs.Error = errors.New("disk full")

	err := SaveToFile(fs, "/out/a.txt", []byte("x"), false)
	assert.ErrorIs(t, err, ErrCreateDirectory)
}
