// Package interfaces はmodmetaコマンドで使用するインターフェースを定義します
package interfaces

import (
	"context"
	"io"

	"github.com/shiroemons/go-lspk/internal/modmeta/models"
	"github.com/shiroemons/go-lspk/pkg/meta"
)

// FileSystem はファイルシステム操作のインターフェース
type FileSystem interface {
	FileExists(filename string) bool
	WriteFile(filename string, data []byte, perm uint32) error
	MkdirAll(path string, perm uint32) error
	ReadDir(dirname string) ([]DirEntry, error)
	Getwd() (string, error)
	Executable() (string, error)
}

// DirEntry はディレクトリエントリのインターフェース
type DirEntry interface {
	Name() string
	IsDir() bool
}

// Extractor はパッケージからメタデータを取り出すインターフェースです
type Extractor interface {
	ExtractAll(ctx context.Context, archivePaths []string) ([]models.ArchiveResult, error)
}

// PakFileFinder は.pakファイルを検索するインターフェースです
type PakFileFinder interface {
	Find() (string, error)
	FindAll(dir string) ([]string, error)
}

// Archive は開いたパッケージのインターフェースです
type Archive interface {
	meta.Source
	io.Closer
}

// ArchiveOpener はパッケージを開くインターフェースです
type ArchiveOpener interface {
	Open(path string) (Archive, error)
}

// Renderer は取り出した結果を出力するインターフェースです
type Renderer interface {
	Render(w io.Writer, results []models.ArchiveResult) error
	Extension() string
}
