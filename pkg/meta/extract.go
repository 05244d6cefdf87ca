package meta

import (
	"fmt"
	"log/slog"
	"regexp"

	"github.com/shiroemons/go-lspk/pkg/lspk"
)

// Source はメタデータを取り出すパッケージです。*lspk.Archive が実装します。
type Source interface {
	Entries() []lspk.Entry
	ReadFile(entry lspk.Entry) ([]byte, error)
}

var metaPathPattern = regexp.MustCompile(`^Mods/[^/]+/meta\.lsx$`)

// IsMetaPath はエントリ名がメタデータファイルかどうかを返します
func IsMetaPath(name string) bool {
	return metaPathPattern.MatchString(name)
}

// Generation はバージョン情報の読み方です。
type Generation int

const (
	// GenerationVersion64 は ModuleInfo の Version64 プロパティからバージョンを読みます
	GenerationVersion64 Generation = iota
	// GenerationDocumentVersion は文書直下の version 要素からバージョンを読みます
	GenerationDocumentVersion
)

// String は名前を返します
func (g Generation) String() string {
	switch g {
	case GenerationDocumentVersion:
		return "doc"
	default:
		return "v64"
	}
}

// Policy はメタデータが複数ある場合のエラーの扱いです。
type Policy int

const (
	// AbortOnError は最初のエラーで中断します
	AbortOnError Policy = iota
	// SkipInvalid は解析できないエントリを読み飛ばします
	SkipInvalid
)

// String は名前を返します
func (p Policy) String() string {
	switch p {
	case SkipInvalid:
		return "skip-invalid"
	default:
		return "abort-on-error"
	}
}

// SkipHandler は SkipInvalid で読み飛ばしたエントリを受け取ります
type SkipHandler func(entry string, err error)

// Option は取り出しの設定を行います
type Option func(*options)

type options struct {
	generation Generation
	policy     Policy
	onSkip     SkipHandler
	logger     *slog.Logger
}

func newOptions(opts []Option) options {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = slog.New(slog.DiscardHandler)
	}
	return o
}

// WithGeneration はバージョン情報の読み方を設定します
func WithGeneration(g Generation) Option {
	return func(o *options) {
		o.generation = g
	}
}

// WithPolicy はエラーの扱いを設定します
func WithPolicy(p Policy) Option {
	return func(o *options) {
		o.policy = p
	}
}

// WithSkipHandler は読み飛ばしたエントリの通知先を設定します
func WithSkipHandler(h SkipHandler) Option {
	return func(o *options) {
		o.onSkip = h
	}
}

// WithLogger はロガーを設定します
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// ExtractAll はパッケージ内の全メタデータをインデックス順で返します。
// メタデータが見つからない場合は空のスライスを返します。
func ExtractAll(src Source, opts ...Option) ([]Meta, error) {
	return extract(src, newOptions(opts), -1)
}

// ExtractFirst は最初のメタデータを返します。
// 見つからない場合は ErrNoMetadata を返します。
func ExtractFirst(src Source, opts ...Option) (Meta, error) {
	metas, err := extract(src, newOptions(opts), 1)
	if err != nil {
		return Meta{}, err
	}
	if len(metas) == 0 {
		return Meta{}, ErrNoMetadata
	}
	return metas[0], nil
}

// extract は最大 limit 件 (負の値は無制限) のメタデータを取り出します
func extract(src Source, o options, limit int) ([]Meta, error) {
	var metas []Meta
	for _, entry := range src.Entries() {
		if limit >= 0 && len(metas) >= limit {
			break
		}
		if !IsMetaPath(entry.Name) {
			continue
		}
		o.logger.Debug("metadata entry found", "entry", entry.Name)

		m, err := extractEntry(src, entry, o.generation)
		if err != nil {
			if o.policy == SkipInvalid {
				o.logger.Warn("skipping invalid metadata", "entry", entry.Name, "error", err)
				if o.onSkip != nil {
					o.onSkip(entry.Name, err)
				}
				continue
			}
			return nil, &EntryError{Name: entry.Name, Err: err}
		}
		metas = append(metas, m)
	}
	return metas, nil
}

func extractEntry(src Source, entry lspk.Entry, gen Generation) (Meta, error) {
	data, err := src.ReadFile(entry)
	if err != nil {
		return Meta{}, fmt.Errorf("read metadata: %w", err)
	}
	m, err := parse(data, gen)
	if err != nil {
		return Meta{}, err
	}
	m.Entry = entry.Name
	return m, nil
}
