// Package config はmodmetaコマンドの設定管理を行います
package config

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"

	"github.com/shiroemons/go-lspk/pkg/meta"
)

const Version = "0.1.0"

// 出力形式
const (
	FormatText = "text"
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// バージョンの読み方
const (
	GenerationV64 = "v64"
	GenerationDoc = "doc"
)

var (
	// ErrInvalidFormat は出力形式が不正な場合のエラー
	ErrInvalidFormat = errors.New("出力形式は text, json, yaml のいずれかを指定してください")

	// ErrInvalidGeneration はバージョンの読み方が不正な場合のエラー
	ErrInvalidGeneration = errors.New("バージョンの読み方は v64 または doc を指定してください")
)

// Config はアプリケーションの設定を保持します
type Config struct {
	ArchivePath string
	SearchDir   string
	Format      string
	Generation  string
	SkipInvalid bool
	All         bool
	Workers     int
	OutputDir   string
	DebugMode   bool
	DryRun      bool
	ShowGustav  bool
	ShowVersion bool
}

// ParseFlags はコマンドライン引数を解析して設定を返します
func ParseFlags() *Config {
	config := &Config{}

	// カスタムUsage関数を設定（ダブルハイフン表示）
	flag.Usage = func() {
		out := flag.CommandLine.Output()
		fmt.Fprintf(out, "Usage of %s:\n", os.Args[0])
		fmt.Fprintln(out, "  --archive string")
		fmt.Fprintln(out, "    \tpath to .pak package file (e.g. ExampleMod.pak)")
		fmt.Fprintln(out, "  -a string")
		fmt.Fprintln(out, "    \tpath to .pak package file (shorthand)")
		fmt.Fprintln(out, "  --dir string")
		fmt.Fprintln(out, "    \tdirectory to search for .pak files (default: current and executable directory)")
		fmt.Fprintln(out, "  --all")
		fmt.Fprintln(out, "    \tprocess every .pak file in the search directory")
		fmt.Fprintln(out, "  --format string")
		fmt.Fprintln(out, "    \toutput format: text, json or yaml (default \"text\")")
		fmt.Fprintln(out, "  -f string")
		fmt.Fprintln(out, "    \toutput format (shorthand)")
		fmt.Fprintln(out, "  --generation string")
		fmt.Fprintln(out, "    \tversion source: v64 (Version64 property) or doc (<version> element) (default \"v64\")")
		fmt.Fprintln(out, "  -g string")
		fmt.Fprintln(out, "    \tversion source (shorthand)")
		fmt.Fprintln(out, "  --skip-invalid")
		fmt.Fprintln(out, "    \tskip unreadable metadata entries instead of failing")
		fmt.Fprintln(out, "  --workers int")
		fmt.Fprintln(out, "    \tnumber of packages processed concurrently with --all (default 4)")
		fmt.Fprintln(out, "  -w int")
		fmt.Fprintln(out, "    \tnumber of workers (shorthand)")
		fmt.Fprintln(out, "  -o string")
		fmt.Fprintln(out, "    \toutput directory for the generated files (default \".\")")
		fmt.Fprintln(out, "  --gustav")
		fmt.Fprintln(out, "    \tprint the base game metadata")
		fmt.Fprintln(out, "  --debug")
		fmt.Fprintln(out, "    \tenable debug output")
		fmt.Fprintln(out, "  -d\tenable debug output (shorthand)")
		fmt.Fprintln(out, "  --dry-run")
		fmt.Fprintln(out, "    \tperform a dry run without writing output files")
		fmt.Fprintln(out, "  -n\tperform a dry run without writing output files (shorthand)")
		fmt.Fprintln(out, "  --version")
		fmt.Fprintln(out, "    \tshow version information")
		fmt.Fprintln(out, "  -v\tshow version information (shorthand)")
	}

	// アーカイブフラグ
	flag.StringVar(&config.ArchivePath, "archive", "", "path to .pak package file (e.g. ExampleMod.pak)")
	flag.StringVar(&config.ArchivePath, "a", "", "path to .pak package file (shorthand)")

	// 検索ディレクトリ
	flag.StringVar(&config.SearchDir, "dir", "", "directory to search for .pak files")
	flag.BoolVar(&config.All, "all", false, "process every .pak file in the search directory")

	// 出力形式
	flag.StringVar(&config.Format, "format", FormatText, "output format: text, json or yaml")
	flag.StringVar(&config.Format, "f", FormatText, "output format (shorthand)")

	// バージョンの読み方
	flag.StringVar(&config.Generation, "generation", GenerationV64, "version source: v64 or doc")
	flag.StringVar(&config.Generation, "g", GenerationV64, "version source (shorthand)")

	flag.BoolVar(&config.SkipInvalid, "skip-invalid", false, "skip unreadable metadata entries instead of failing")

	// 並列数
	flag.IntVar(&config.Workers, "workers", 4, "number of packages processed concurrently with --all")
	flag.IntVar(&config.Workers, "w", 4, "number of workers (shorthand)")

	// 出力ディレクトリ
	flag.StringVar(&config.OutputDir, "o", ".", "output directory for the generated files")

	flag.BoolVar(&config.ShowGustav, "gustav", false, "print the base game metadata")

	// デバッグモード
	flag.BoolVar(&config.DebugMode, "debug", false, "enable debug output")
	flag.BoolVar(&config.DebugMode, "d", false, "enable debug output (shorthand)")

	// ドライランモード
	flag.BoolVar(&config.DryRun, "dry-run", false, "perform a dry run without writing output files")
	flag.BoolVar(&config.DryRun, "n", false, "perform a dry run without writing output files (shorthand)")

	// バージョン表示
	flag.BoolVar(&config.ShowVersion, "version", false, "show version information")
	flag.BoolVar(&config.ShowVersion, "v", false, "show version information (shorthand)")

	flag.Parse()

	return config
}

// Validate は設定値を検証します
func (c *Config) Validate() error {
	switch c.Format {
	case FormatText, FormatJSON, FormatYAML:
	default:
		return fmt.Errorf("%w: %q", ErrInvalidFormat, c.Format)
	}
	if _, err := c.MetaGeneration(); err != nil {
		return err
	}
	return nil
}

// MetaGeneration は設定に対応する meta.Generation を返します
func (c *Config) MetaGeneration() (meta.Generation, error) {
	switch c.Generation {
	case GenerationV64, "":
		return meta.GenerationVersion64, nil
	case GenerationDoc:
		return meta.GenerationDocumentVersion, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrInvalidGeneration, c.Generation)
	}
}

// MetaPolicy は設定に対応する meta.Policy を返します
func (c *Config) MetaPolicy() meta.Policy {
	if c.SkipInvalid {
		return meta.SkipInvalid
	}
	return meta.AbortOnError
}

// HandleVersion はバージョン表示を処理します
func HandleVersion(showVersion bool) {
	if showVersion {
		fmt.Printf("modmeta version %s\n", Version)
		os.Exit(0)
	}
}

// DebugLogger はデバッグ出力を管理します
type DebugLogger struct {
	enabled bool
	out     *lockedWriter
	slog    *slog.Logger
}

// lockedWriter は Printf と slog の書き込みを直列化します
type lockedWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (l *lockedWriter) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.w.Write(p)
}

// NewDebugLogger は標準エラー出力に書き込む DebugLogger を作成します
func NewDebugLogger(enabled bool) *DebugLogger {
	return NewDebugLoggerTo(os.Stderr, enabled)
}

// NewDebugLoggerTo は出力先を指定して DebugLogger を作成します
func NewDebugLoggerTo(out io.Writer, enabled bool) *DebugLogger {
	level := slog.LevelWarn
	if enabled {
		level = slog.LevelDebug
	}
	lw := &lockedWriter{w: out}
	return &DebugLogger{
		enabled: enabled,
		out:     lw,
		slog:    slog.New(slog.NewTextHandler(lw, &slog.HandlerOptions{Level: level})),
	}
}

// Printf はデバッグモードが有効な場合のみメッセージを表示します
func (d *DebugLogger) Printf(format string, a ...any) {
	if d.enabled {
		fmt.Fprintf(d.out, format, a...)
	}
}

// Enabled はデバッグモードが有効かどうかを返します
func (d *DebugLogger) Enabled() bool {
	return d.enabled
}

// Slog はライブラリに渡す *slog.Logger を返します。
// デバッグモードが無効な場合は警告のみを出力します。
// 返すロガーは全ての呼び出しで同一で、複数のゴルーチンから使えます。
func (d *DebugLogger) Slog() *slog.Logger {
	return d.slog
}
