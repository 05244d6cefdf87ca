package lspk

import (
	"path/filepath"
	"strconv"
	"strings"
)

// PartPath はパート番号に対応するファイルパスを返します。
// パート0は path そのもので、それ以外は同じディレクトリの "{stem}_{part}{ext}" です。
//
//	PartPath("Mods/Foo.pak", 3) // "Mods/Foo_3.pak"
func PartPath(path string, part int) string {
	if part == 0 {
		return path
	}
	base := filepath.Base(path)
	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)
	dir := strings.TrimSuffix(path, base)
	return dir + stem + "_" + strconv.Itoa(part) + ext
}

// partPaths はプライマリを含む全パートのパスを返します
func partPaths(path string, count uint16) []string {
	n := max(int(count), 1)
	paths := make([]string, n)
	for i := range n {
		paths[i] = PartPath(path, i)
	}
	return paths
}
