// Package models はmodmetaコマンドで使用するデータモデルを定義します
package models

import "github.com/shiroemons/go-lspk/pkg/meta"

// ArchiveResult は1つのパッケージから取り出した結果を表します
type ArchiveResult struct {
	Path    string
	Metas   []meta.Meta
	Skipped []Skipped // SkipInvalid で読み飛ばしたエントリ
	Err     error
}

// Failed は取り出しに失敗したかどうかを返します
func (r ArchiveResult) Failed() bool {
	return r.Err != nil
}

// Skipped は読み飛ばしたメタデータエントリを表します
type Skipped struct {
	Entry string
	Err   error
}

// Report は出力用の結果です
type Report struct {
	Archive  string      `json:"archive" yaml:"archive"`
	Metadata []meta.Meta `json:"metadata" yaml:"metadata"`
	Skipped  []string    `json:"skipped,omitempty" yaml:"skipped,omitempty"`
	Error    string      `json:"error,omitempty" yaml:"error,omitempty"`
}
