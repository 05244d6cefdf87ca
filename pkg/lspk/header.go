package lspk

import (
	"errors"
	"fmt"

	"github.com/shiroemons/go-lspk/pkg/bincursor"
)

// fieldReader は bincursor.Cursor と bincursor.Reader の共通インターフェース
type fieldReader interface {
	U8() (uint8, error)
	U16() (uint16, error)
	U32() (uint32, error)
	U64() (uint64, error)
	Bytes(n int) ([]byte, error)
}

// fieldDecoder は最初のエラーで読み込みを止める fieldReader のラッパー
type fieldDecoder struct {
	r   fieldReader
	err error
}

func (d *fieldDecoder) u8() uint8 {
	if d.err != nil {
		return 0
	}
	var v uint8
	v, d.err = d.r.U8()
	return v
}

func (d *fieldDecoder) u16() uint16 {
	if d.err != nil {
		return 0
	}
	var v uint16
	v, d.err = d.r.U16()
	return v
}

func (d *fieldDecoder) u32() uint32 {
	if d.err != nil {
		return 0
	}
	var v uint32
	v, d.err = d.r.U32()
	return v
}

func (d *fieldDecoder) u64() uint64 {
	if d.err != nil {
		return 0
	}
	var v uint64
	v, d.err = d.r.U64()
	return v
}

func (d *fieldDecoder) bytes(n int) []byte {
	if d.err != nil {
		return nil
	}
	var v []byte
	v, d.err = d.r.Bytes(n)
	return v
}

// overrunAs は終端超過を kind に置き換え、それ以外の I/O エラーは fallback でラップします
func overrunAs(err error, kind, fallback error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, bincursor.ErrOverrun) {
		return fmt.Errorf("%w: %w", kind, err)
	}
	return fmt.Errorf("%w: %w", fallback, err)
}

// Header はバージョンに依存しないパッケージヘッダ
type Header struct {
	Version     Version
	IndexOffset uint64   // ファイルインデックスの位置
	IndexSize   uint32   // ヘッダに記録されたインデックスサイズ
	Flags       uint8    // パッケージフラグ
	Priority    uint8    // ロード優先度
	Checksum    [16]byte // MD5
	PartCount   uint16   // パートファイル数（プライマリを含む、最低1）
}

// headerV15 はバージョン15のヘッダ（シグネチャの直後から）
type headerV15 struct {
	version     uint32
	indexOffset uint64
	indexSize   uint32
	flags       uint8
	priority    uint8
	md5         [16]byte
}

// headerV16 はバージョン16以降のヘッダ
type headerV16 struct {
	headerV15
	numParts uint16
}

func decodeHeaderV15(d *fieldDecoder) headerV15 {
	var h headerV15
	h.version = d.u32()
	h.indexOffset = d.u64()
	h.indexSize = d.u32()
	h.flags = d.u8()
	h.priority = d.u8()
	copy(h.md5[:], d.bytes(len(h.md5)))
	return h
}

func decodeHeaderV16(d *fieldDecoder) headerV16 {
	h := headerV16{headerV15: decodeHeaderV15(d)}
	h.numParts = d.u16()
	return h
}

func (h headerV15) normalize() Header {
	return Header{
		Version:     Version(h.version),
		IndexOffset: h.indexOffset,
		IndexSize:   h.indexSize,
		Flags:       h.flags,
		Priority:    h.priority,
		Checksum:    h.md5,
		PartCount:   1,
	}
}

func (h headerV16) normalize() Header {
	out := h.headerV15.normalize()
	out.PartCount = max(h.numParts, 1)
	return out
}

// headerShape はヘッダの形式
type headerShape uint8

const (
	headerShapeV15 headerShape = iota
	headerShapeV16
)

// decode は r からヘッダを読み込みます。
// 読み込みが足りない場合は ErrHeaderOverrun を返します。
func (s headerShape) decode(r fieldReader) (Header, error) {
	d := &fieldDecoder{r: r}
	var h Header
	switch s {
	case headerShapeV15:
		h = decodeHeaderV15(d).normalize()
	case headerShapeV16:
		h = decodeHeaderV16(d).normalize()
	default:
		return Header{}, fmt.Errorf("lspk: unknown header shape %d", s)
	}
	if d.err != nil {
		return Header{}, overrunAs(d.err, ErrHeaderOverrun, ErrCannotReadFile)
	}
	return h, nil
}
