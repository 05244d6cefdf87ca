package lspk

import (
	"bytes"
	"fmt"
	"unicode/utf8"

	"golang.org/x/text/encoding/unicode"
)

// ファイル名フィールドとレコードのサイズ
const (
	nameFieldSize = 256
	recordV15Size = nameFieldSize + 8 + 8 + 8 + 4 + 4 + 4 + 4 // 300
	recordV18Size = nameFieldSize + 4 + 2 + 1 + 1 + 4 + 4     // 272
)

// Entry はバージョンに依存しないファイルエントリ
type Entry struct {
	Name             string // パッケージ内のパス（"/" 区切り）
	Offset           uint64 // パートファイル内のデータ位置
	SizeOnDisk       uint64 // 格納サイズ
	UncompressedSize uint64 // 展開後サイズ
	ArchivePart      uint32 // データを格納するパート番号
	Flags            uint32 // 下位4ビットが圧縮方式
	CRC              uint32
}

// Compression はエントリの圧縮方式を返します
func (e Entry) Compression() CompressionMethod {
	return MethodOf(e.Flags)
}

// recordV15 はバージョン15/16のインデックスレコード
type recordV15 struct {
	name             string
	offset           uint64
	sizeOnDisk       uint64
	uncompressedSize uint64
	archivePart      uint32
	flags            uint32
	crc              uint32
	unknown          uint32
}

// recordV18 はバージョン18のインデックスレコード
// オフセットは下位32ビットと上位16ビットに分割されています
type recordV18 struct {
	name             string
	offsetLow        uint32
	offsetHigh       uint16
	archivePart      uint8
	flags            uint8
	sizeOnDisk       uint32
	uncompressedSize uint32
}

func decodeRecordV15(d *fieldDecoder) (recordV15, error) {
	var r recordV15
	raw := d.bytes(nameFieldSize)
	r.offset = d.u64()
	r.sizeOnDisk = d.u64()
	r.uncompressedSize = d.u64()
	r.archivePart = d.u32()
	r.flags = d.u32()
	r.crc = d.u32()
	r.unknown = d.u32()
	if d.err != nil {
		return recordV15{}, d.err
	}
	name, err := decodeName(raw)
	if err != nil {
		return recordV15{}, err
	}
	r.name = name
	return r, nil
}

func decodeRecordV18(d *fieldDecoder) (recordV18, error) {
	var r recordV18
	raw := d.bytes(nameFieldSize)
	r.offsetLow = d.u32()
	r.offsetHigh = d.u16()
	r.archivePart = d.u8()
	r.flags = d.u8()
	r.sizeOnDisk = d.u32()
	r.uncompressedSize = d.u32()
	if d.err != nil {
		return recordV18{}, d.err
	}
	name, err := decodeName(raw)
	if err != nil {
		return recordV18{}, err
	}
	r.name = name
	return r, nil
}

func (r recordV15) normalize() Entry {
	return Entry{
		Name:             r.name,
		Offset:           r.offset,
		SizeOnDisk:       r.sizeOnDisk,
		UncompressedSize: r.uncompressedSize,
		ArchivePart:      r.archivePart,
		Flags:            r.flags,
		CRC:              r.crc,
	}
}

func (r recordV18) normalize() Entry {
	return Entry{
		Name:             r.name,
		Offset:           uint64(r.offsetLow) | uint64(r.offsetHigh)<<32,
		SizeOnDisk:       uint64(r.sizeOnDisk),
		UncompressedSize: uint64(r.uncompressedSize),
		ArchivePart:      uint32(r.archivePart),
		Flags:            uint32(r.flags),
	}
}

// decodeName は NUL 終端のファイル名を文字列に変換します。
// 不正な UTF-8 は置換文字に変換されます。
func decodeName(raw []byte) (string, error) {
	end := bytes.IndexByte(raw, 0)
	if end < 0 {
		return "", ErrNameNotTerminated
	}
	name := raw[:end]
	if utf8.Valid(name) {
		return string(name), nil
	}
	fixed, err := unicode.UTF8.NewDecoder().Bytes(name)
	if err != nil {
		return "", fmt.Errorf("lspk: decode file name: %w", err)
	}
	return string(fixed), nil
}

// recordShape はインデックスレコードの形式
type recordShape uint8

const (
	recordShapeV15 recordShape = iota
	recordShapeV18
)

// size はレコード1件のバイト数を返します
func (s recordShape) size() int {
	switch s {
	case recordShapeV18:
		return recordV18Size
	default:
		return recordV15Size
	}
}

// decode は r からレコードを1件読み込みます。
// 読み込みが足りない場合は ErrRecordOverrun を返します。
func (s recordShape) decode(r fieldReader) (Entry, error) {
	d := &fieldDecoder{r: r}
	var (
		e   Entry
		err error
	)
	switch s {
	case recordShapeV15:
		var rec recordV15
		rec, err = decodeRecordV15(d)
		e = rec.normalize()
	case recordShapeV18:
		var rec recordV18
		rec, err = decodeRecordV18(d)
		e = rec.normalize()
	default:
		return Entry{}, fmt.Errorf("lspk: unknown record shape %d", s)
	}
	if d.err != nil {
		return Entry{}, fmt.Errorf("%w: %w", ErrRecordOverrun, d.err)
	}
	if err != nil {
		return Entry{}, err
	}
	return e, nil
}

// layout はバージョンごとのヘッダ形式とレコード形式の組み合わせ
type layout struct {
	version Version
	header  headerShape
	record  recordShape
}

// resolveLayout はバージョン番号からレイアウトを決定します。
// 識別済みの非対応バージョンはそれぞれ専用のエラーを返します。
func resolveLayout(version uint32) (layout, error) {
	switch Version(version) {
	case VersionDOS:
		return layout{}, ErrUnsupportedVersionDOS
	case VersionDOSEE:
		return layout{}, ErrUnsupportedVersionDOSEE
	case VersionDOS2:
		return layout{}, ErrUnsupportedVersionDOS2
	case VersionDOS2DE:
		return layout{}, ErrUnsupportedVersionDOS2DE
	case VersionBG3EarlyAccess:
		return layout{version: VersionBG3EarlyAccess, header: headerShapeV15, record: recordShapeV15}, nil
	case VersionBG3EarlyAccessPatch4:
		return layout{version: VersionBG3EarlyAccessPatch4, header: headerShapeV16, record: recordShapeV15}, nil
	case VersionBG3:
		return layout{version: VersionBG3, header: headerShapeV16, record: recordShapeV18}, nil
	default:
		return layout{}, &UnsupportedVersionError{Version: version}
	}
}
