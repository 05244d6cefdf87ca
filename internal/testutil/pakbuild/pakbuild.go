// Package pakbuild はテスト用の LSPK パッケージファイルを組み立てます。
package pakbuild

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/zlib"
	"github.com/pierrec/lz4/v4"
	"github.com/shiroemons/go-lspk/pkg/lspk"
)

// File はパッケージに格納するファイル
type File struct {
	Name        string
	Data        []byte
	Compression lspk.CompressionMethod // ZLib/LZ4 以外はそのまま格納し、値をフラグに書き込む
	Part        uint32

	// NameField が nil でなければ名前フィールド256バイトをこの値で上書きする
	NameField []byte
	// SizeOnDisk が0以外ならレコードの格納サイズを上書きする
	SizeOnDisk uint64
	// UncompressedSize が0以外ならレコードの展開後サイズを上書きする
	UncompressedSize uint64
}

// Package は組み立てるパッケージの内容
type Package struct {
	Version  uint32
	Flags    uint8
	Priority uint8
	// NumParts が0ならファイルが使う最大のパート番号から決める
	NumParts uint16
	Files    []File

	// Trailer は末尾に DOS2:DE 形式のシグネチャを付ける
	Trailer bool
	// CountDelta はインデックスのエントリ数に加算する値
	CountDelta int
	// MutateIndex は圧縮済みインデックスを書き換える
	MutateIndex func(compressed []byte) []byte
}

// Build はパートごとのバイト列を返します。先頭がプライマリパートです。
func Build(p Package) ([][]byte, error) {
	parts := int(p.NumParts)
	for _, f := range p.Files {
		parts = max(parts, int(f.Part)+1)
	}
	parts = max(parts, 1)
	numParts := p.NumParts
	if numParts == 0 {
		numParts = uint16(parts)
	}

	wide := p.Version == uint32(lspk.VersionBG3)
	headerSize := 4 + 8 + 4 + 1 + 1 + 16
	if p.Version != uint32(lspk.VersionBG3EarlyAccess) {
		headerSize += 2
	}

	bufs := make([]*bytes.Buffer, parts)
	for i := range bufs {
		bufs[i] = &bytes.Buffer{}
	}
	// プライマリはシグネチャとヘッダの分を空けておく
	bufs[0].Write(make([]byte, 4+headerSize))

	var index bytes.Buffer
	for _, f := range p.Files {
		stored, err := compress(f.Compression, f.Data)
		if err != nil {
			return nil, fmt.Errorf("compress %s: %w", f.Name, err)
		}
		if int(f.Part) >= parts {
			return nil, fmt.Errorf("part %d out of range", f.Part)
		}
		buf := bufs[f.Part]
		offset := uint64(buf.Len())
		buf.Write(stored)

		sizeOnDisk := uint64(len(stored))
		if f.SizeOnDisk != 0 {
			sizeOnDisk = f.SizeOnDisk
		}
		uncompressed := uint64(len(f.Data))
		if f.UncompressedSize != 0 {
			uncompressed = f.UncompressedSize
		}

		name := make([]byte, 256)
		if f.NameField != nil {
			copy(name, f.NameField)
		} else {
			copy(name, f.Name)
		}
		index.Write(name)
		if wide {
			writeLE(&index, uint32(offset), uint16(offset>>32), uint8(f.Part), uint8(f.Compression),
				uint32(sizeOnDisk), uint32(uncompressed))
		} else {
			writeLE(&index, offset, sizeOnDisk, uncompressed, f.Part, uint32(f.Compression), uint32(0), uint32(0))
		}
	}

	compressed := make([]byte, lz4.CompressBlockBound(index.Len()))
	n, err := lz4.CompressBlock(index.Bytes(), compressed, nil)
	if err != nil {
		return nil, fmt.Errorf("compress index: %w", err)
	}
	compressed = compressed[:n]
	if p.MutateIndex != nil {
		compressed = p.MutateIndex(compressed)
	}

	primary := bufs[0]
	indexOffset := uint64(primary.Len())
	count := uint32(len(p.Files) + p.CountDelta)
	writeLE(primary, count, uint32(len(compressed)))
	primary.Write(compressed)
	if p.Trailer {
		writeLE(primary, uint32(primary.Len()+8), lspk.Signature)
	}

	var head bytes.Buffer
	writeLE(&head, lspk.Signature, p.Version, indexOffset, uint32(len(compressed)+8), p.Flags, p.Priority)
	head.Write(make([]byte, 16))
	if p.Version != uint32(lspk.VersionBG3EarlyAccess) {
		writeLE(&head, numParts)
	}
	out := make([][]byte, parts)
	for i, b := range bufs {
		out[i] = b.Bytes()
	}
	copy(out[0], head.Bytes())
	return out, nil
}

// Write はパッケージを dir に書き込み、プライマリパートのパスを返します
func Write(t testing.TB, dir, name string, p Package) string {
	t.Helper()
	parts, err := Build(p)
	if err != nil {
		t.Fatalf("build package: %v", err)
	}
	path := filepath.Join(dir, name)
	for i, data := range parts {
		if err := os.WriteFile(lspk.PartPath(path, i), data, 0o644); err != nil {
			t.Fatalf("write part %d: %v", i, err)
		}
	}
	return path
}

// WriteRaw は任意のバイト列をファイルとして書き込みます
func WriteRaw(t testing.TB, dir, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

// Legacy はシグネチャを持たない旧形式の先頭バイト列を返します
func Legacy(version uint32) []byte {
	var b bytes.Buffer
	writeLE(&b, version)
	b.Write(make([]byte, 60))
	return b.Bytes()
}

// Compress はテスト用にデータを圧縮します
func Compress(t testing.TB, method lspk.CompressionMethod, data []byte) []byte {
	t.Helper()
	out, err := compress(method, data)
	if err != nil {
		t.Fatalf("compress: %v", err)
	}
	return out
}

func compress(method lspk.CompressionMethod, data []byte) ([]byte, error) {
	switch method {
	case lspk.CompressionZLib:
		var buf bytes.Buffer
		zw := zlib.NewWriter(&buf)
		if _, err := zw.Write(data); err != nil {
			return nil, err
		}
		if err := zw.Close(); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	case lspk.CompressionLZ4:
		dst := make([]byte, lz4.CompressBlockBound(len(data)))
		n, err := lz4.CompressBlock(data, dst, nil)
		if err != nil {
			return nil, err
		}
		return dst[:n], nil
	default:
		return bytes.Clone(data), nil
	}
}

func writeLE(b *bytes.Buffer, values ...any) {
	for _, v := range values {
		// bytes.Buffer への書き込みは失敗しない
		_ = binary.Write(b, binary.LittleEndian, v)
	}
}
