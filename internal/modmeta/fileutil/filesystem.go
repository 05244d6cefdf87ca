package fileutil

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/shiroemons/go-lspk/internal/modmeta/interfaces"
)

// OSFileSystem は実際のOSファイルシステムを使用する実装
type OSFileSystem struct{}

// NewOSFileSystem は新しいOSFileSystemを作成します
func NewOSFileSystem() *OSFileSystem {
	return &OSFileSystem{}
}

// FileExists はファイルが存在するか確認します
func (fs *OSFileSystem) FileExists(filename string) bool {
	return FileExists(filename)
}

// WriteFile はファイルを書き込みます
func (fs *OSFileSystem) WriteFile(filename string, data []byte, perm uint32) error {
	return os.WriteFile(filename, data, os.FileMode(perm))
}

// MkdirAll はディレクトリを作成します
func (fs *OSFileSystem) MkdirAll(path string, perm uint32) error {
	return os.MkdirAll(path, os.FileMode(perm))
}

// ReadDir はディレクトリを読み込みます
func (fs *OSFileSystem) ReadDir(dirname string) ([]interfaces.DirEntry, error) {
	entries, err := os.ReadDir(dirname)
	if err != nil {
		return nil, err
	}

	result := make([]interfaces.DirEntry, len(entries))
	for i, entry := range entries {
		result[i] = entry
	}
	return result, nil
}

// Getwd は現在の作業ディレクトリを取得します
func (fs *OSFileSystem) Getwd() (string, error) {
	return os.Getwd()
}

// Executable は実行ファイルのパスを取得します
func (fs *OSFileSystem) Executable() (string, error) {
	return os.Executable()
}

// PakFileFinder は.pakファイルの検索を行います
type PakFileFinder struct {
	fs  interfaces.FileSystem
	dir string
}

// NewPakFileFinder は新しいPakFileFinderを作成します。
// dir が空の場合はカレントディレクトリと実行ファイルのディレクトリを検索します。
func NewPakFileFinder(fs interfaces.FileSystem, dir string) *PakFileFinder {
	return &PakFileFinder{fs: fs, dir: dir}
}

// Find は.pakファイルを1つ検索します。
// 見つからない場合は空文字列、複数見つかった場合はエラーを返します。
func (f *PakFileFinder) Find() (string, error) {
	if f.dir != "" {
		files, err := f.FindAll(f.dir)
		if err != nil {
			return "", err
		}
		return f.single(files)
	}

	// まずカレントディレクトリを検索
	currentDir, err := f.fs.Getwd()
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrGetCurrentDirectory, err)
	}
	files, err := f.FindAll(currentDir)
	if err != nil {
		return "", err
	}

	// カレントディレクトリで見つかった場合は他のディレクトリは検索しない
	if len(files) > 0 {
		return f.single(files)
	}

	// 実行ファイルのディレクトリを検索
	execPath, err := f.fs.Executable()
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrGetExecutablePath, err)
	}
	files, err = f.FindAll(filepath.Dir(execPath))
	if err != nil {
		return "", err
	}
	return f.single(files)
}

// FindAll は指定されたディレクトリ内の.pakファイルを名前順で返します。
// 分割パッケージの2番目以降のパートは含みません。
func (f *PakFileFinder) FindAll(dir string) ([]string, error) {
	entries, err := f.fs.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrReadDirectory, dir, err)
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		names = append(names, entry.Name())
	}
	names = filterPakFiles(names)
	sort.Strings(names)

	paths := make([]string, len(names))
	for i, name := range names {
		paths[i] = filepath.Join(dir, name)
	}
	return paths, nil
}

// single は見つかったファイルが1つならそのパスを返します
func (f *PakFileFinder) single(files []string) (string, error) {
	switch len(files) {
	case 0:
		return "", nil
	case 1:
		return files[0], nil
	default:
		return "", f.createMultipleFilesError(files)
	}
}

// createMultipleFilesError は複数の.pakファイルが見つかった場合のエラーを生成します
func (f *PakFileFinder) createMultipleFilesError(pakFiles []string) error {
	fileNames := make([]string, len(pakFiles))
	for i, path := range pakFiles {
		fileNames[i] = filepath.Base(path)
	}
	return fmt.Errorf("%w: %s", ErrMultiplePakFiles, strings.Join(fileNames, ", "))
}
