// Package archive はパッケージからメタデータを取り出します
package archive

import (
	"context"
	"slices"

	"golang.org/x/sync/errgroup"

	"github.com/shiroemons/go-lspk/internal/modmeta/config"
	apperrors "github.com/shiroemons/go-lspk/internal/modmeta/errors"
	"github.com/shiroemons/go-lspk/internal/modmeta/interfaces"
	"github.com/shiroemons/go-lspk/internal/modmeta/models"
	"github.com/shiroemons/go-lspk/pkg/lspk"
	"github.com/shiroemons/go-lspk/pkg/meta"
)

// DefaultWorkers は同時に開くパッケージ数の既定値
const DefaultWorkers = 4

// Extractor は複数のパッケージからメタデータを並行して取り出します
type Extractor struct {
	logger  *config.DebugLogger
	opener  interfaces.ArchiveOpener
	workers int
	opts    []meta.Option
}

// NewExtractor は新しいExtractorを作成します
func NewExtractor(logger *config.DebugLogger, workers int, opts ...meta.Option) *Extractor {
	return NewExtractorWithOpener(logger, &DefaultOpener{logger: logger}, workers, opts...)
}

// NewExtractorWithOpener はパッケージの開き方を指定してExtractorを作成します
func NewExtractorWithOpener(logger *config.DebugLogger, opener interfaces.ArchiveOpener, workers int, opts ...meta.Option) *Extractor {
	if workers <= 0 {
		workers = DefaultWorkers
	}
	return &Extractor{
		logger:  logger,
		opener:  opener,
		workers: workers,
		opts:    opts,
	}
}

// ExtractAll は指定されたパッケージ全てからメタデータを取り出します。
// 結果は archivePaths と同じ順序で返します。個々のパッケージの失敗は結果の Err に記録し、
// 戻り値のエラーはコンテキストのキャンセルのみです。
func (e *Extractor) ExtractAll(ctx context.Context, archivePaths []string) ([]models.ArchiveResult, error) {
	results := make([]models.ArchiveResult, len(archivePaths))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)

	for i, path := range archivePaths {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = e.extractOne(path)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	// Wait 後の gctx は常にキャンセル済み
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return results, nil
}

// extractOne は1つのパッケージを開いてメタデータを取り出します
func (e *Extractor) extractOne(path string) models.ArchiveResult {
	result := models.ArchiveResult{Path: path}

	e.logger.Printf("パッケージ %s を開いています\n", path)
	arc, err := e.opener.Open(path)
	if err != nil {
		result.Err = apperrors.NewArchiveError("open", path, err)
		return result
	}
	defer arc.Close()

	opts := append(slices.Clone(e.opts), meta.WithSkipHandler(func(entry string, err error) {
		result.Skipped = append(result.Skipped, models.Skipped{Entry: entry, Err: err})
	}))

	metas, err := meta.ExtractAll(arc, opts...)
	if err != nil {
		result.Err = apperrors.NewArchiveError("extract", path, err)
		return result
	}

	result.Metas = metas
	e.logger.Printf("パッケージ %s から %d 件のメタデータを取り出しました\n", path, len(metas))
	return result
}

// DefaultOpener は lspk.Open でパッケージを開きます
type DefaultOpener struct {
	logger *config.DebugLogger
}

// Open はパッケージを開きます
func (o *DefaultOpener) Open(path string) (interfaces.Archive, error) {
	arc, err := lspk.Open(path, lspk.WithLogger(o.logger.Slog()))
	if err != nil {
		return nil, err
	}
	if o.logger.Enabled() {
		h := arc.Header()
		o.logger.Printf("バージョン: %s, パート数: %d, エントリ数: %d\n", h.Version, h.PartCount, len(arc.Entries()))
	}
	return arc, nil
}
