// Package errors はカスタムエラータイプを提供します
package errors

import (
	"errors"
	"fmt"

	"github.com/shiroemons/go-lspk/pkg/lspk"
	"github.com/shiroemons/go-lspk/pkg/meta"
)

// ArchiveError はパッケージ関連のエラー
type ArchiveError struct {
	Op   string // 実行していた操作
	Path string // ファイルパス
	Err  error  // 元のエラー
}

// Error はエラーメッセージを返します
func (e *ArchiveError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

// Unwrap は元のエラーを返します
func (e *ArchiveError) Unwrap() error {
	return e.Err
}

// NewArchiveError は新しいArchiveErrorを作成します
func NewArchiveError(op, path string, err error) *ArchiveError {
	return &ArchiveError{
		Op:   op,
		Path: path,
		Err:  err,
	}
}

// Describe はエラーの処理段階に応じた利用者向けの説明を返します
func Describe(err error) string {
	if err == nil {
		return ""
	}
	var verErr *lspk.UnsupportedVersionError
	switch {
	case errors.As(err, &verErr):
		return fmt.Sprintf("未対応のパッケージバージョンです (%d)", verErr.Version)
	case errors.Is(err, lspk.ErrUnsupportedVersionDOS),
		errors.Is(err, lspk.ErrUnsupportedVersionDOSEE),
		errors.Is(err, lspk.ErrUnsupportedVersionDOS2),
		errors.Is(err, lspk.ErrUnsupportedVersionDOS2DE):
		return "旧作のパッケージ形式には対応していません"
	case errors.Is(err, meta.ErrNoMetadata):
		return "パッケージにメタデータが含まれていません"
	}

	switch meta.PhaseOf(err) {
	case lspk.PhaseOpen:
		return "パッケージを開けませんでした"
	case lspk.PhaseIndex:
		return "パッケージのファイル一覧が壊れています"
	case lspk.PhaseFile:
		return "パッケージ内のファイルを展開できませんでした"
	case lspk.PhaseMetadata:
		return "メタデータが不正です"
	default:
		return "処理中にエラーが発生しました"
	}
}
