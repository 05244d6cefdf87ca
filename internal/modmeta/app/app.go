// Package app はアプリケーションのメインロジックを実装します
package app

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/shiroemons/go-lspk/internal/modmeta/archive"
	"github.com/shiroemons/go-lspk/internal/modmeta/config"
	apperrors "github.com/shiroemons/go-lspk/internal/modmeta/errors"
	"github.com/shiroemons/go-lspk/internal/modmeta/fileutil"
	"github.com/shiroemons/go-lspk/internal/modmeta/interfaces"
	"github.com/shiroemons/go-lspk/internal/modmeta/models"
	"github.com/shiroemons/go-lspk/internal/modmeta/render"
	"github.com/shiroemons/go-lspk/pkg/meta"
)

// App はアプリケーションのメインロジックを管理します
type App struct {
	config    *config.Config
	logger    *config.DebugLogger
	extractor interfaces.Extractor
	finder    interfaces.PakFileFinder
	fs        interfaces.FileSystem
	stdout    io.Writer
	stderr    io.Writer
}

// Options はAppの設定オプション
type Options struct {
	FileSystem    interfaces.FileSystem
	Extractor     interfaces.Extractor
	PakFileFinder interfaces.PakFileFinder
	Stdout        io.Writer
	Stderr        io.Writer
}

// New は新しいAppを作成します
func New(cfg *config.Config) *App {
	return NewWithOptions(cfg, Options{})
}

// NewWithOptions は新しいAppをオプション付きで作成します
func NewWithOptions(cfg *config.Config, opts Options) *App {
	stderr := opts.Stderr
	if stderr == nil {
		stderr = os.Stderr
	}
	logger := config.NewDebugLoggerTo(stderr, cfg.DebugMode)

	// デフォルトのファイルシステムを設定
	fs := opts.FileSystem
	if fs == nil {
		fs = fileutil.NewOSFileSystem()
	}

	// デフォルトのExtractorを設定
	var extractor interfaces.Extractor
	if opts.Extractor != nil {
		extractor = opts.Extractor
	} else {
		// 不正な値は Run の Validate で報告する。
		// 読み飛ばしたエントリは reportSkipped が表示する
		gen, _ := cfg.MetaGeneration()
		extractor = archive.NewExtractor(logger, cfg.Workers,
			meta.WithGeneration(gen),
			meta.WithPolicy(cfg.MetaPolicy()),
		)
	}

	// デフォルトのPakFileFinderを設定
	var finder interfaces.PakFileFinder
	if opts.PakFileFinder != nil {
		finder = opts.PakFileFinder
	} else {
		finder = fileutil.NewPakFileFinder(fs, cfg.SearchDir)
	}

	stdout := opts.Stdout
	if stdout == nil {
		stdout = os.Stdout
	}

	return &App{
		config:    cfg,
		logger:    logger,
		extractor: extractor,
		finder:    finder,
		fs:        fs,
		stdout:    stdout,
		stderr:    stderr,
	}
}

// Run はアプリケーションを実行します
func (a *App) Run(ctx context.Context) error {
	if err := a.config.Validate(); err != nil {
		return err
	}
	renderer, err := render.New(a.config.Format)
	if err != nil {
		return err
	}

	if a.config.ShowGustav {
		results := []models.ArchiveResult{{Path: "GustavDev", Metas: []meta.Meta{meta.GustavDev()}}}
		if err := renderer.Render(a.stdout, results); err != nil {
			return fmt.Errorf("%w: %w", ErrRender, err)
		}
		return nil
	}

	paths, err := a.archivePaths()
	if err != nil {
		return err
	}
	a.logger.Printf("%d 件のパッケージを処理します\n", len(paths))

	results, err := a.extractor.ExtractAll(ctx, paths)
	if err != nil {
		return err
	}

	a.reportSkipped(results)

	if err := renderer.Render(a.stdout, results); err != nil {
		return fmt.Errorf("%w: %w", ErrRender, err)
	}

	if !a.config.DryRun {
		if err := a.saveResults(renderer, results); err != nil {
			return err
		}
	}

	return failures(results)
}

// archivePaths は処理するパッケージのパスを決定します
func (a *App) archivePaths() ([]string, error) {
	if a.config.ArchivePath != "" {
		if !a.fs.FileExists(a.config.ArchivePath) {
			return nil, fmt.Errorf("%w: %s", ErrArchiveNotFound, a.config.ArchivePath)
		}
		return []string{a.config.ArchivePath}, nil
	}

	if a.config.All {
		dir := a.config.SearchDir
		if dir == "" {
			wd, err := a.fs.Getwd()
			if err != nil {
				return nil, fmt.Errorf("%w: %w", fileutil.ErrGetCurrentDirectory, err)
			}
			dir = wd
		}
		paths, err := a.finder.FindAll(dir)
		if err != nil {
			return nil, err
		}
		if len(paths) == 0 {
			return nil, ErrNoPakFile
		}
		return paths, nil
	}

	path, err := a.finder.Find()
	if err != nil {
		return nil, err
	}
	if path == "" {
		return nil, ErrNoPakFile
	}
	a.logger.Printf("自動検出したパッケージファイル %s を使用します\n", filepath.Base(path))
	return []string{path}, nil
}

// reportSkipped は読み飛ばしたエントリを警告として表示します
func (a *App) reportSkipped(results []models.ArchiveResult) {
	for _, r := range results {
		for _, s := range r.Skipped {
			fmt.Fprintf(a.stderr, "警告: %s の %s を読み飛ばしました: %s\n", filepath.Base(r.Path), s.Entry, apperrors.Describe(s.Err))
		}
	}
}

// saveResults は成功したパッケージごとに出力ファイルを保存します
func (a *App) saveResults(renderer interfaces.Renderer, results []models.ArchiveResult) error {
	withBOM := renderer.Extension() == "txt"
	for _, r := range results {
		if r.Failed() {
			continue
		}
		var buf bytes.Buffer
		if err := renderer.Render(&buf, []models.ArchiveResult{r}); err != nil {
			return fmt.Errorf("%w: %w", ErrRender, err)
		}

		outputPath := filepath.Join(a.config.OutputDir, fileutil.GenerateOutputFilename(r.Path, renderer.Extension()))
		if err := fileutil.SaveToFile(a.fs, outputPath, buf.Bytes(), withBOM); err != nil {
			return fmt.Errorf("%w: %w", ErrSaveFile, err)
		}
		a.logger.Printf("データを %s に保存しました\n", outputPath)
	}
	return nil
}

// failures は失敗したパッケージのエラーをまとめます
func failures(results []models.ArchiveResult) error {
	var errs []error
	for _, r := range results {
		if r.Failed() {
			errs = append(errs, fmt.Errorf("%s: %s: %w", filepath.Base(r.Path), apperrors.Describe(r.Err), r.Err))
		}
	}
	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrExtract, errors.Join(errs...))
}
