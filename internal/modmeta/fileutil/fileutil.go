// Package fileutil はファイル操作のユーティリティ関数を提供します
package fileutil

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/shiroemons/go-lspk/internal/modmeta/interfaces"
)

var (
	// PakFilePattern は .pak ファイルのパターン
	PakFilePattern = regexp.MustCompile(`(?i)^.+\.pak$`)

	// partFilePattern は分割パッケージの2番目以降のパート (Foo_1.pak など)
	partFilePattern = regexp.MustCompile(`(?i)^(.+)_\d+(\.pak)$`)
)

// utf8BOM はテキスト出力の先頭に付ける BOM
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// FileExists はファイルが存在するか確認します
func FileExists(filename string) bool {
	_, err := os.Stat(filename)
	return err == nil
}

// SaveToFile はファイルに保存します。withBOM が true の場合は UTF-8 BOM を付けます。
func SaveToFile(fs interfaces.FileSystem, outputPath string, content []byte, withBOM bool) error {
	// 出力先ディレクトリを作成（存在しない場合）
	dir := filepath.Dir(outputPath)
	if err := fs.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("%w: %w", ErrCreateDirectory, err)
	}

	data := content
	if withBOM && !bytes.HasPrefix(content, utf8BOM) {
		data = make([]byte, 0, len(utf8BOM)+len(content))
		data = append(data, utf8BOM...)
		data = append(data, content...)
	}

	if err := fs.WriteFile(outputPath, data, 0644); err != nil {
		return fmt.Errorf("%w: %w", ErrWriteContent, err)
	}

	return nil
}

// GenerateOutputFilename は入力ファイル名から出力ファイル名を生成します
func GenerateOutputFilename(inputPath, ext string) string {
	// ファイル名の部分だけを取得（拡張子なし）
	baseName := filepath.Base(inputPath)
	baseName = strings.TrimSuffix(baseName, filepath.Ext(baseName))

	// modmeta_XXX.ext 形式の名前を生成
	return fmt.Sprintf("modmeta_%s.%s", baseName, ext)
}

// PrimaryPartName は分割パッケージのパート名からプライマリのファイル名を返します。
// パート名でなければ空文字列を返します。
func PrimaryPartName(name string) string {
	m := partFilePattern.FindStringSubmatch(name)
	if m == nil {
		return ""
	}
	return m[1] + m[2]
}

// filterPakFiles は .pak ファイルのうち、プライマリが同じ一覧にあるパートファイルを除外します
func filterPakFiles(names []string) []string {
	present := make(map[string]bool, len(names))
	for _, name := range names {
		present[strings.ToLower(name)] = true
	}

	var result []string
	for _, name := range names {
		if !PakFilePattern.MatchString(name) {
			continue
		}
		if primary := PrimaryPartName(name); primary != "" && present[strings.ToLower(primary)] {
			continue
		}
		result = append(result, name)
	}
	return result
}
