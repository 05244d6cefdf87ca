package archive

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shiroemons/go-lspk/internal/modmeta/config"
	apperrors "github.com/shiroemons/go-lspk/internal/modmeta/errors"
	"github.com/shiroemons/go-lspk/internal/modmeta/mocks"
	"github.com/shiroemons/go-lspk/internal/testutil/pakbuild"
	"github.com/shiroemons/go-lspk/pkg/lspk"
	"github.com/shiroemons/go-lspk/pkg/meta"
)

func modMeta(name string) []byte {
	return []byte(`<save><node id="ModuleInfo">` +
		`<attribute id="Name" type="LSString" value="` + name + `"/>` +
		`<attribute id="Folder" type="LSString" value="` + name + `"/>` +
		`<attribute id="UUID" type="FixedString" value="uuid-` + name + `"/>` +
		`</node></save>`)
}

func quietLogger() *config.DebugLogger {
	return config.NewDebugLogger(false)
}

func TestExtractor_ExtractAll(t *testing.T) {
	opener := &mocks.MockOpener{
		Archives: map[string]*mocks.MockArchive{
			"a.pak": mocks.NewMockArchive().
				Add("Mods/A/meta.lsx", modMeta("A")).
				Add("Public/A/readme.txt", []byte("x")),
			"b.pak": mocks.NewMockArchive().
				Add("Mods/B1/meta.lsx", modMeta("B1")).
				Add("Mods/B2/meta.lsx", modMeta("B2")),
			"empty.pak": mocks.NewMockArchive().
				Add("Public/readme.txt", []byte("x")),
		},
		Errors: map[string]error{
			"broken.pak": lspk.ErrNoValidSignature,
		},
	}

	extractor := NewExtractorWithOpener(quietLogger(), opener, 2)
	paths := []string{"a.pak", "broken.pak", "b.pak", "empty.pak"}

	results, err := extractor.ExtractAll(context.Background(), paths)
	require.NoError(t, err)
	require.Len(t, results, len(paths))

	t.Run("入力順に結果が並ぶ", func(t *testing.T) {
		for i, path := range paths {
			assert.Equal(t, path, results[i].Path)
		}
	})

	t.Run("1件のメタデータ", func(t *testing.T) {
		require.False(t, results[0].Failed())
		require.Len(t, results[0].Metas, 1)
		assert.Equal(t, "A", results[0].Metas[0].Name.Value)
		assert.Equal(t, "Mods/A/meta.lsx", results[0].Metas[0].Entry)
	})

	t.Run("開けないパッケージ", func(t *testing.T) {
		assert.True(t, results[1].Failed())
		assert.ErrorIs(t, results[1].Err, lspk.ErrNoValidSignature)

		var archErr *apperrors.ArchiveError
		require.ErrorAs(t, results[1].Err, &archErr)
		assert.Equal(t, "open", archErr.Op)
		assert.Equal(t, "broken.pak", archErr.Path)
	})

	t.Run("複数のメタデータ", func(t *testing.T) {
		require.Len(t, results[2].Metas, 2)
		assert.Equal(t, "B1", results[2].Metas[0].Name.Value)
		assert.Equal(t, "B2", results[2].Metas[1].Name.Value)
	})

	t.Run("メタデータがない", func(t *testing.T) {
		assert.ErrorIs(t, results[3].Err, meta.ErrNoMetadata)
	})

	t.Run("全てのパッケージを閉じる", func(t *testing.T) {
		for name, a := range opener.Archives {
			assert.True(t, a.Closed(), name)
		}
	})
}

func TestExtractor_Policy(t *testing.T) {
	newOpener := func() *mocks.MockOpener {
		return &mocks.MockOpener{
			Archives: map[string]*mocks.MockArchive{
				"mixed.pak": mocks.NewMockArchive().
					Add("Mods/Bad/meta.lsx", []byte("not xml")).
					Add("Mods/Good/meta.lsx", modMeta("Good")),
			},
		}
	}

	t.Run("既定では最初のエラーで中断", func(t *testing.T) {
		extractor := NewExtractorWithOpener(quietLogger(), newOpener(), 1)
		results, err := extractor.ExtractAll(context.Background(), []string{"mixed.pak"})
		require.NoError(t, err)

		var entryErr *meta.EntryError
		require.ErrorAs(t, results[0].Err, &entryErr)
		assert.Equal(t, "Mods/Bad/meta.lsx", entryErr.Name)
		assert.Empty(t, results[0].Metas)
	})

	t.Run("SkipInvalidでは読み飛ばしを記録", func(t *testing.T) {
		extractor := NewExtractorWithOpener(quietLogger(), newOpener(), 1, meta.WithPolicy(meta.SkipInvalid))
		results, err := extractor.ExtractAll(context.Background(), []string{"mixed.pak"})
		require.NoError(t, err)

		r := results[0]
		require.False(t, r.Failed())
		require.Len(t, r.Metas, 1)
		assert.Equal(t, "Good", r.Metas[0].Name.Value)
		require.Len(t, r.Skipped, 1)
		assert.Equal(t, "Mods/Bad/meta.lsx", r.Skipped[0].Entry)
		assert.ErrorIs(t, r.Skipped[0].Err, meta.ErrNotXML)
	})
}

func TestExtractor_ContextCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	opener := &mocks.MockOpener{Archives: map[string]*mocks.MockArchive{}}
	extractor := NewExtractorWithOpener(quietLogger(), opener, 1)

	results, err := extractor.ExtractAll(ctx, []string{"a.pak", "b.pak"})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, results)
	assert.Empty(t, opener.Opened)
}

func TestExtractor_ManyArchives(t *testing.T) {
	opener := &mocks.MockOpener{Archives: map[string]*mocks.MockArchive{}}
	var paths []string
	for i := range 20 {
		name := fmt.Sprintf("Mod%02d", i)
		path := name + ".pak"
		opener.Archives[path] = mocks.NewMockArchive().Add("Mods/"+name+"/meta.lsx", modMeta(name))
		paths = append(paths, path)
	}

	extractor := NewExtractorWithOpener(quietLogger(), opener, 3)
	results, err := extractor.ExtractAll(context.Background(), paths)
	require.NoError(t, err)

	for i, r := range results {
		require.Len(t, r.Metas, 1, r.Path)
		assert.Equal(t, fmt.Sprintf("Mod%02d", i), r.Metas[0].Name.Value)
	}
	assert.Len(t, opener.Opened, len(paths))
}

func TestNewExtractorWithOpener_DefaultWorkers(t *testing.T) {
	e := NewExtractorWithOpener(quietLogger(), &mocks.MockOpener{}, 0)
	assert.Equal(t, DefaultWorkers, e.workers)
}

func TestExtractor_RealArchives(t *testing.T) {
	dir := t.TempDir()
	good := pakbuild.Write(t, dir, "Good.pak", pakbuild.Package{
		Version: uint32(lspk.VersionBG3),
		Files: []pakbuild.File{
			{Name: "Mods/Good/meta.lsx", Data: modMeta("Good"), Compression: lspk.CompressionLZ4},
		},
	})
	legacy := pakbuild.WriteRaw(t, dir, "Legacy.pak", pakbuild.Legacy(uint32(lspk.VersionDOS)))

	extractor := NewExtractor(quietLogger(), 2)
	results, err := extractor.ExtractAll(context.Background(), []string{good, legacy, dir + "/missing.pak"})
	require.NoError(t, err)

	require.Len(t, results[0].Metas, 1)
	assert.Equal(t, "uuid-Good", results[0].Metas[0].UUID.Value)

	assert.ErrorIs(t, results[1].Err, lspk.ErrUnsupportedVersionDOS)
	assert.ErrorIs(t, results[2].Err, lspk.ErrCannotReadFile)
}
