package app

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shiroemons/go-lspk/internal/modmeta/config"
	"github.com/shiroemons/go-lspk/internal/modmeta/fileutil"
	"github.com/shiroemons/go-lspk/internal/modmeta/mocks"
	"github.com/shiroemons/go-lspk/internal/modmeta/models"
	"github.com/shiroemons/go-lspk/internal/testutil/pakbuild"
	"github.com/shiroemons/go-lspk/pkg/lspk"
	"github.com/shiroemons/go-lspk/pkg/meta"
)

func sampleMeta(name string) meta.Meta {
	return meta.Meta{
		Entry:     "Mods/" + name + "/meta.lsx",
		Name:      meta.Property{Type: "LSString", Value: name},
		Folder:    meta.Property{Type: "LSString", Value: name},
		UUID:      meta.Property{Type: "FixedString", Value: "uuid-" + name},
		MD5:       meta.Property{Type: "LSString"},
		Version64: meta.Property{Type: "int64", Value: meta.DefaultVersion64},
		Version:   meta.Version{Major: 1},
	}
}

type harness struct {
	app       *App
	fs        *mocks.MockFileSystem
	finder    *mocks.MockPakFileFinder
	extractor *mocks.MockExtractor
	stdout    *bytes.Buffer
	stderr    *bytes.Buffer
}

func newHarness(cfg *config.Config) *harness {
	h := &harness{
		fs:        mocks.NewMockFileSystem(),
		finder:    &mocks.MockPakFileFinder{AllFiles: map[string][]string{}},
		extractor: &mocks.MockExtractor{Results: map[string]models.ArchiveResult{}},
		stdout:    &bytes.Buffer{},
		stderr:    &bytes.Buffer{},
	}
	if cfg.Format == "" {
		cfg.Format = config.FormatText
	}
	if cfg.OutputDir == "" {
		cfg.OutputDir = "/out"
	}
	h.app = NewWithOptions(cfg, Options{
		FileSystem:    h.fs,
		Extractor:     h.extractor,
		PakFileFinder: h.finder,
		Stdout:        h.stdout,
		Stderr:        h.stderr,
	})
	return h
}

func TestApp_Run_ArchivePath(t *testing.T) {
	h := newHarness(&config.Config{ArchivePath: "/mods/ExampleMod.pak"})
	h.fs.Files["/mods/ExampleMod.pak"] = nil
	h.extractor.Results["/mods/ExampleMod.pak"] = models.ArchiveResult{Metas: []meta.Meta{sampleMeta("ExampleMod")}}

	require.NoError(t, h.app.Run(context.Background()))

	assert.Equal(t, []string{"/mods/ExampleMod.pak"}, h.extractor.Paths)
	assert.Contains(t, h.stdout.String(), "Name: ExampleMod")

	saved, ok := h.fs.Files["/out/modmeta_ExampleMod.txt"]
	require.True(t, ok, "出力ファイルが保存されていません")
	assert.True(t, bytes.HasPrefix(saved, []byte{0xEF, 0xBB, 0xBF}))
	assert.Contains(t, string(saved), "UUID: uuid-ExampleMod")
}

func TestApp_Run_ArchiveNotFound(t *testing.T) {
	h := newHarness(&config.Config{ArchivePath: "/mods/missing.pak"})

	err := h.app.Run(context.Background())
	assert.ErrorIs(t, err, ErrArchiveNotFound)
	assert.Zero(t, h.extractor.CallCount)
}

func TestApp_Run_AutoDetect(t *testing.T) {
	tests := []struct {
		name      string
		foundFile string
		findErr   error
		wantErr   error
	}{
		{
			name:      "1つ見つかる",
			foundFile: "/test/dir/Auto.pak",
		},
		{
			name:    "見つからない",
			wantErr: ErrNoPakFile,
		},
		{
			name:    "複数見つかる",
			findErr: fileutil.ErrMultiplePakFiles,
			wantErr: fileutil.ErrMultiplePakFiles,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(&config.Config{DryRun: true})
			h.finder.FoundFile = tt.foundFile
			h.finder.Error = tt.findErr
			h.extractor.Results[tt.foundFile] = models.ArchiveResult{Metas: []meta.Meta{sampleMeta("Auto")}}

			err := h.app.Run(context.Background())
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Zero(t, h.extractor.CallCount)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, []string{tt.foundFile}, h.extractor.Paths)
		})
	}
}

func TestApp_Run_All(t *testing.T) {
	t.Run("検索ディレクトリ指定", func(t *testing.T) {
		h := newHarness(&config.Config{All: true, SearchDir: "/mods", Format: config.FormatJSON})
		h.finder.AllFiles["/mods"] = []string{"/mods/A.pak", "/mods/B.pak"}
		h.extractor.Results["/mods/A.pak"] = models.ArchiveResult{Metas: []meta.Meta{sampleMeta("A")}}
		h.extractor.Results["/mods/B.pak"] = models.ArchiveResult{Metas: []meta.Meta{sampleMeta("B")}}

		require.NoError(t, h.app.Run(context.Background()))

		assert.Equal(t, []string{"/mods"}, h.finder.Dirs)
		assert.Equal(t, []string{"/mods/A.pak", "/mods/B.pak"}, h.extractor.Paths)
		assert.Contains(t, h.fs.Files, "/out/modmeta_A.json")
		assert.Contains(t, h.fs.Files, "/out/modmeta_B.json")
		assert.False(t, bytes.HasPrefix(h.fs.Files["/out/modmeta_A.json"], []byte{0xEF}))
	})

	t.Run("カレントディレクトリ", func(t *testing.T) {
		h := newHarness(&config.Config{All: true, DryRun: true})
		h.finder.AllFiles["/test/dir"] = []string{"/test/dir/A.pak"}
		h.extractor.Results["/test/dir/A.pak"] = models.ArchiveResult{Metas: []meta.Meta{sampleMeta("A")}}

		require.NoError(t, h.app.Run(context.Background()))
		assert.Equal(t, []string{"/test/dir"}, h.finder.Dirs)
	})

	t.Run("pakファイルがない", func(t *testing.T) {
		h := newHarness(&config.Config{All: true, SearchDir: "/empty"})

		err := h.app.Run(context.Background())
		assert.ErrorIs(t, err, ErrNoPakFile)
	})
}

func TestApp_Run_Failures(t *testing.T) {
	h := newHarness(&config.Config{All: true, SearchDir: "/mods"})
	h.finder.AllFiles["/mods"] = []string{"/mods/Good.pak", "/mods/Bad.pak"}
	h.extractor.Results["/mods/Good.pak"] = models.ArchiveResult{Metas: []meta.Meta{sampleMeta("Good")}}
	h.extractor.Results["/mods/Bad.pak"] = models.ArchiveResult{Err: lspk.ErrUnsupportedVersionDOS2}

	err := h.app.Run(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrExtract)
	assert.ErrorIs(t, err, lspk.ErrUnsupportedVersionDOS2)
	assert.Contains(t, err.Error(), "Bad.pak")

	assert.Contains(t, h.stdout.String(), "#パッケージ: /mods/Bad.pak")
	assert.Contains(t, h.fs.Files, "/out/modmeta_Good.txt")
	assert.NotContains(t, h.fs.Files, "/out/modmeta_Bad.txt")
}

func TestApp_Run_Skipped(t *testing.T) {
	h := newHarness(&config.Config{ArchivePath: "/mods/Mixed.pak", SkipInvalid: true, DryRun: true})
	h.fs.Files["/mods/Mixed.pak"] = nil
	h.extractor.Results["/mods/Mixed.pak"] = models.ArchiveResult{
		Metas:   []meta.Meta{sampleMeta("Good")},
		Skipped: []models.Skipped{{Entry: "Mods/Bad/meta.lsx", Err: meta.ErrNotUTF8}},
	}

	require.NoError(t, h.app.Run(context.Background()))
	assert.Contains(t, h.stderr.String(), "警告: Mixed.pak の Mods/Bad/meta.lsx を読み飛ばしました")
}

func TestApp_Run_DryRun(t *testing.T) {
	h := newHarness(&config.Config{ArchivePath: "/mods/A.pak", DryRun: true})
	h.fs.Files["/mods/A.pak"] = nil
	h.extractor.Results["/mods/A.pak"] = models.ArchiveResult{Metas: []meta.Meta{sampleMeta("A")}}

	require.NoError(t, h.app.Run(context.Background()))
	assert.NotContains(t, h.fs.Files, "/out/modmeta_A.txt")
	assert.NotEmpty(t, h.stdout.String())
}

func TestApp_Run_Gustav(t *testing.T) {
	h := newHarness(&config.Config{ShowGustav: true, Format: config.FormatYAML})

	require.NoError(t, h.app.Run(context.Background()))
	assert.Contains(t, h.stdout.String(), "GustavDev")
	assert.Contains(t, h.stdout.String(), "28ac9ce2-2aba-8cda-b3b5-6e922f71b6b8")
	assert.Zero(t, h.extractor.CallCount)
}

func TestApp_Run_InvalidConfig(t *testing.T) {
	h := newHarness(&config.Config{Format: "xml"})

	err := h.app.Run(context.Background())
	assert.ErrorIs(t, err, config.ErrInvalidFormat)
}

func TestApp_Run_SaveError(t *testing.T) {
	h := newHarness(&config.Config{ArchivePath: "/mods/A.pak"})
	h.fs.Files["/mods/A.pak"] = nil
	h.extractor.Results["/mods/A.pak"] = models.ArchiveResult{Metas: []meta.Meta{sampleMeta("A")}}
	h.fs.Error = errors.New("read-only")

	err := h.app.Run(context.Background())
	assert.ErrorIs(t, err, ErrSaveFile)
}

func TestApp_Run_ExtractorError(t *testing.T) {
	h := newHarness(&config.Config{ArchivePath: "/mods/A.pak"})
	h.fs.Files["/mods/A.pak"] = nil
	h.extractor.Error = context.Canceled

	err := h.app.Run(context.Background())
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, h.stdout.String())
}

func TestApp_Run_EndToEnd(t *testing.T) {
	dir := t.TempDir()
	path := pakbuild.Write(t, dir, "ExampleMod.pak", pakbuild.Package{
		Version: uint32(lspk.VersionBG3),
		Files: []pakbuild.File{
			{
				Name: "Mods/ExampleMod/meta.lsx",
				Data: []byte(`<save><region id="ModuleInfo"><node id="ModuleInfo">` +
					`<attribute id="Name" type="LSString" value="ExampleMod"/>` +
					`<attribute id="Folder" type="LSString" value="ExampleMod"/>` +
					`<attribute id="UUID" type="FixedString" value="00000000-0000-0000-0000-000000000000"/>` +
					`</node></region></save>`),
				Compression: lspk.CompressionLZ4,
			},
		},
	})

	var stdout, stderr bytes.Buffer
	cfg := &config.Config{
		ArchivePath: path,
		Format:      config.FormatJSON,
		Generation:  config.GenerationV64,
		Workers:     2,
		OutputDir:   dir,
	}
	app := NewWithOptions(cfg, Options{Stdout: &stdout, Stderr: &stderr})

	require.NoError(t, app.Run(context.Background()))
	assert.Contains(t, stdout.String(), `"value": "ExampleMod"`)
	assert.True(t, fileutil.FileExists(dir+"/modmeta_ExampleMod.json"))
	assert.False(t, strings.Contains(stderr.String(), "警告"))
}

func TestApp_Run_SkippedEndToEnd(t *testing.T) {
	tests := []struct {
		name  string
		debug bool
	}{
		{"通常モード", false},
		{"デバッグモード", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			path := pakbuild.Write(t, dir, "Mixed.pak", pakbuild.Package{
				Version: uint32(lspk.VersionBG3),
				Files: []pakbuild.File{
					{
						Name: "Mods/Good/meta.lsx",
						Data: []byte(`<save><node id="ModuleInfo">` +
							`<attribute id="Name" type="LSString" value="Good"/>` +
							`<attribute id="Folder" type="LSString" value="Good"/>` +
							`<attribute id="UUID" type="FixedString" value="uuid-good"/>` +
							`</node></save>`),
					},
					{Name: "Mods/Bad/meta.lsx", Data: []byte{0xFF, 0xFE, 0x00}},
				},
			})

			var stdout, stderr bytes.Buffer
			cfg := &config.Config{
				ArchivePath: path,
				Format:      config.FormatText,
				Generation:  config.GenerationV64,
				SkipInvalid: true,
				DryRun:      true,
				DebugMode:   tt.debug,
				Workers:     2,
			}
			app := NewWithOptions(cfg, Options{Stdout: &stdout, Stderr: &stderr})

			require.NoError(t, app.Run(context.Background()))
			assert.Contains(t, stdout.String(), "Name: Good")
			assert.Equal(t, 1, strings.Count(stderr.String(), "Mods/Bad/meta.lsx"))
			assert.Contains(t, stderr.String(), "警告: Mixed.pak の Mods/Bad/meta.lsx を読み飛ばしました")
		})
	}
}
