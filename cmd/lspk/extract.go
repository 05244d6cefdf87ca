package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/shiroemons/go-lspk/pkg/lspk"
)

var errUnsafePath = errors.New("出力先がディレクトリの外を指しています")

// entryReader はエントリを展開して読み込みます
type entryReader interface {
	ReadFile(e lspk.Entry) ([]byte, error)
}

// selectEntries は抽出対象のエントリと、見つからなかった名前を返します。
// names が空の場合は全エントリが対象です。
func selectEntries(entries []lspk.Entry, names []string) (selected []lspk.Entry, notFound []string) {
	if len(names) == 0 {
		return entries, nil
	}

	extractSet := make(map[string]bool, len(names))
	for _, n := range names {
		extractSet[n] = true
	}
	found := make(map[string]bool)
	for _, e := range entries {
		if extractSet[e.Name] {
			selected = append(selected, e)
			found[e.Name] = true
		}
	}
	for _, n := range names {
		if !found[n] {
			notFound = append(notFound, n)
			found[n] = true
		}
	}
	return selected, notFound
}

// outputPath はエントリの出力先パスを返します
func outputPath(outDir, name string) (string, error) {
	rel := filepath.FromSlash(name)
	if !filepath.IsLocal(rel) {
		return "", fmt.Errorf("%w: %s", errUnsafePath, name)
	}
	return filepath.Join(outDir, rel), nil
}

// extractEntry は1つのエントリをファイルに書き出します
func extractEntry(r entryReader, e lspk.Entry, outDir string) error {
	outPath, err := outputPath(outDir, e.Name)
	if err != nil {
		return err
	}
	data, err := r.ReadFile(e)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(outPath), 0755); err != nil {
		return fmt.Errorf("ディレクトリを作成できません: %w", err)
	}
	if err := os.WriteFile(outPath, data, 0644); err != nil {
		return fmt.Errorf("ファイルを作成できません: %w", err)
	}
	return nil
}

// extractSequential は並列処理なしでエントリを抽出します
func extractSequential(r entryReader, entries []lspk.Entry, outDir string) (successCount int, err error) {
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return 0, fmt.Errorf("出力ディレクトリを作成できません: %w", err)
	}

	var firstError error
	for _, e := range entries {
		if err := extractEntry(r, e, outDir); err != nil {
			fmt.Fprintf(os.Stderr, "抽出に失敗しました: %s - %v\n", e.Name, err)
			if firstError == nil {
				firstError = fmt.Errorf("抽出エラー: %s: %w", e.Name, err)
			}
			continue
		}
		successCount++
		if *debugFlag {
			fmt.Printf("成功: %s\n", e.Name)
		}
	}
	return successCount, firstError
}

// extractParallel は複数のワーカーでエントリを抽出します。
// ワーカーごとにパッケージを開き直し、ファイルハンドルを共有しません。
func extractParallel(path string, entries []lspk.Entry, outDir string, numWorkers int, logger *slog.Logger) (successCount int, err error) {
	if numWorkers <= 0 {
		numWorkers = 4
	}
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return 0, fmt.Errorf("出力ディレクトリを作成できません: %w", err)
	}

	jobs := make(chan lspk.Entry, numWorkers*2)
	var (
		mu         sync.Mutex
		firstError error
	)
	record := func(e lspk.Entry, err error) {
		mu.Lock()
		defer mu.Unlock()
		if err != nil {
			fmt.Fprintf(os.Stderr, "抽出に失敗しました: %s - %v\n", e.Name, err)
			if firstError == nil {
				firstError = fmt.Errorf("抽出エラー: %s: %w", e.Name, err)
			}
			return
		}
		successCount++
		if *debugFlag {
			fmt.Printf("成功: %s\n", e.Name)
		}
	}

	var g errgroup.Group
	for range numWorkers {
		g.Go(func() error {
			archive, err := lspk.Open(path, lspk.WithLogger(logger))
			if err != nil {
				// 残りのジョブを消費して送信側を止めない
				for e := range jobs {
					record(e, err)
				}
				return err
			}
			defer archive.Close()

			for e := range jobs {
				record(e, extractEntry(archive, e, outDir))
			}
			return nil
		})
	}

	for _, e := range entries {
		jobs <- e
	}
	close(jobs)

	if err := g.Wait(); err != nil && firstError == nil {
		firstError = err
	}
	return successCount, firstError
}
