package main

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/shiroemons/go-lspk/internal/modmeta/models"
	"github.com/shiroemons/go-lspk/internal/modmeta/render"
	"github.com/shiroemons/go-lspk/pkg/lspk"
	"github.com/shiroemons/go-lspk/pkg/meta"
)

var (
	extractFlag  = flag.Bool("x", false, "extract files")
	listFlag     = flag.Bool("l", false, "list files")
	metaFlag     = flag.Bool("m", false, "print mod metadata (Mods/*/meta.lsx)")
	outputDir    = flag.String("o", ".", "output directory")
	debugFlag    = flag.Bool("d", false, "debug mode (show more info)")
	parallelFlag = flag.Bool("p", false, "use parallel extraction")
	workerCount  = flag.Int("w", 4, "number of worker threads for parallel extraction")
)

func main() {
	flag.Parse()

	// 引数チェック
	args := flag.Args()
	if len(args) < 1 {
		fmt.Println("使用方法: lspk [オプション] <パッケージファイル> [ファイル名...]")
		fmt.Println("オプション:")
		flag.PrintDefaults()
		os.Exit(1)
	}

	filename := args[0]
	logger := newLogger(*debugFlag)

	// デバッグモードの場合、ファイル情報を表示
	if *debugFlag {
		printFileInfo(filename)
	}

	archive, err := lspk.Open(filename, lspk.WithLogger(logger))
	if err != nil {
		fmt.Fprintf(os.Stderr, "エラー: %v\n", err)
		os.Exit(1)
	}
	defer archive.Close()

	h := archive.Header()
	fmt.Printf("%s パッケージを開きました: %s (パート数 %d, エントリ数 %d)\n",
		h.Version, filename, h.PartCount, len(archive.Entries()))

	if *listFlag {
		listArchive(os.Stdout, archive)
	}

	if *metaFlag {
		if err := printMetadata(os.Stdout, archive, logger); err != nil {
			fmt.Fprintf(os.Stderr, "エラー: %v\n", err)
			archive.Close()
			os.Exit(1)
		}
	}

	// 抽出対象ファイル名を取得 (パッケージファイル名の後の引数)
	filesToExtract := args[1:]

	// 抽出する (-x フラグまたはファイル指定がある場合)
	if *extractFlag || len(filesToExtract) > 0 {
		if len(filesToExtract) > 0 {
			fmt.Printf("%d 個の指定されたファイルを抽出中...\n", len(filesToExtract))
		} else {
			fmt.Println("パッケージ内の全ファイルを抽出中...")
		}

		entries, notFound := selectEntries(archive.Entries(), filesToExtract)

		var count int
		var extractErr error
		if *parallelFlag {
			count, extractErr = extractParallel(filename, entries, *outputDir, *workerCount, logger)
		} else {
			count, extractErr = extractSequential(archive, entries, *outputDir)
		}

		if extractErr != nil {
			fmt.Fprintf(os.Stderr, "抽出処理中にエラーが発生しました: %v\n", extractErr)
		}

		if len(notFound) > 0 {
			fmt.Fprintf(os.Stderr, "\n警告: 指定されたファイルのうち、以下は見つかりませんでした:\n")
			for _, f := range notFound {
				fmt.Fprintf(os.Stderr, "- %s\n", f)
			}
		}

		if extractErr == nil || count > 0 {
			fmt.Printf("\n%d 個のファイルを抽出しました\n", count)
		}
		if extractErr != nil && count == 0 {
			archive.Close()
			os.Exit(1)
		}
	}
}

// newLogger はライブラリに渡すロガーを作成します
func newLogger(debug bool) *slog.Logger {
	level := slog.LevelWarn
	if debug {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// printFileInfo はファイルサイズと先頭のバイト列を表示します
func printFileInfo(filename string) {
	fileInfo, err := os.Stat(filename)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ファイル情報の取得に失敗: %v\n", err)
		return
	}
	fmt.Printf("ファイル: %s\n", filename)
	fmt.Printf("サイズ: %d バイト\n", fileInfo.Size())
	fmt.Printf("更新時間: %v\n", fileInfo.ModTime())

	file, err := os.Open(filename)
	if err != nil {
		return
	}
	defer file.Close()

	header := make([]byte, 16)
	n, err := io.ReadFull(file, header)
	if n > 0 && (err == nil || err == io.ErrUnexpectedEOF) {
		fmt.Printf("ファイルヘッダ (hex): % x\n", header[:n])
	}
	fmt.Println()
}

// listArchive はパッケージ内のファイル一覧を表示します
func listArchive(w io.Writer, archive *lspk.Archive) {
	fmt.Fprintln(w, "パッケージ内のファイル一覧:")
	fmt.Fprintln(w, "----------------------------")
	fmt.Fprintf(w, "%-48s %4s %-5s %10s %10s\n", "ファイル名", "パート", "圧縮", "元サイズ", "格納サイズ")
	fmt.Fprintln(w, "----------------------------")

	entries := archive.Entries()
	if len(entries) == 0 {
		fmt.Fprintln(w, "ファイルがありません")
		return
	}
	for _, e := range entries {
		fmt.Fprintf(w, "%-48s %4d %-5s %10d %10d\n",
			e.Name, e.ArchivePart, e.Compression(), e.UncompressedSize, e.SizeOnDisk)
	}
	fmt.Fprintln(w, "----------------------------")
}

// printMetadata はパッケージに含まれるメタデータを表示します。
// 読めないエントリは読み飛ばして警告を出します。
func printMetadata(w io.Writer, archive *lspk.Archive, logger *slog.Logger) error {
	result := models.ArchiveResult{Path: archive.Path()}
	metas, err := meta.ExtractAll(archive,
		meta.WithPolicy(meta.SkipInvalid),
		meta.WithLogger(logger),
		meta.WithSkipHandler(func(entry string, err error) {
			result.Skipped = append(result.Skipped, models.Skipped{Entry: entry, Err: err})
		}),
	)
	if err != nil {
		return err
	}
	result.Metas = metas
	return (&render.Text{}).Render(w, []models.ArchiveResult{result})
}
