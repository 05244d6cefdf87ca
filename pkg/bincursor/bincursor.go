// Package bincursor はリトルエンディアンのバイナリデータを型付きで読み込むためのパッケージです。
//
// メモリ上のバイト列を読む Cursor と、ファイルハンドルなどの io.Reader から
// 読む Reader の2種類を提供します。どちらも要求されたバイト数を読み切れない場合は
// ErrOverrun をラップしたエラーを返し、途中まで読めた値は返しません。
package bincursor

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// ErrOverrun はデータの終端を越えて読み込もうとした場合のエラー
var ErrOverrun = errors.New("bincursor: read past end of data")

// Cursor はバイト列の先頭から順に値を読み込みます。
type Cursor struct {
	data []byte
	pos  int
}

// NewCursor は新しい Cursor を作成します。
func NewCursor(data []byte) *Cursor {
	return &Cursor{data: data}
}

// Pos は現在の読み込み位置を返します。
func (c *Cursor) Pos() int {
	return c.pos
}

// Remaining は未読のバイト数を返します。
func (c *Cursor) Remaining() int {
	return len(c.data) - c.pos
}

// take は n バイトを切り出して位置を進めます
func (c *Cursor) take(n int) ([]byte, error) {
	if n < 0 || c.Remaining() < n {
		return nil, fmt.Errorf("%w: need %d bytes at offset %d, have %d", ErrOverrun, n, c.pos, c.Remaining())
	}
	b := c.data[c.pos : c.pos+n]
	c.pos += n
	return b, nil
}

// U8 は1バイトを読み込みます。
func (c *Cursor) U8() (uint8, error) {
	b, err := c.take(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

// U16 は2バイトを読み込みます。
func (c *Cursor) U16() (uint16, error) {
	b, err := c.take(2)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(b), nil
}

// U32 は4バイトを読み込みます。
func (c *Cursor) U32() (uint32, error) {
	b, err := c.take(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

// U64 は8バイトを読み込みます。
func (c *Cursor) U64() (uint64, error) {
	b, err := c.take(8)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b), nil
}

// Bytes は n バイトを読み込みます。
// 返されるスライスは元のバッファを共有しません。
func (c *Cursor) Bytes(n int) ([]byte, error) {
	b, err := c.take(n)
	if err != nil {
		return nil, err
	}
	out := make([]byte, n)
	copy(out, b)
	return out, nil
}

// Skip は n バイト読み飛ばします。
func (c *Cursor) Skip(n int) error {
	_, err := c.take(n)
	return err
}

// Reader は io.Reader から値を読み込みます。
// 各読み込みは io.ReadFull で行われ、足りない場合は ErrOverrun になります。
type Reader struct {
	r   io.Reader
	buf [8]byte
}

// NewReader は新しい Reader を作成します。
func NewReader(r io.Reader) *Reader {
	return &Reader{r: r}
}

// fill は buf の先頭 n バイトを埋めます
func (r *Reader) fill(n int) ([]byte, error) {
	b := r.buf[:n]
	if err := readFull(r.r, b); err != nil {
		return nil, err
	}
	return b, nil
}

// U8 は1バイトを読み込みます。
func (r *Reader) U8() (uint8, error) {
	b, err := r.fill(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

// U16 は2バイトを読み込みます。
func (r *Reader) U16() (uint16, error) {
	b, err := r.fill(2)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(b), nil
}

// U32 は4バイトを読み込みます。
func (r *Reader) U32() (uint32, error) {
	b, err := r.fill(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

// U64 は8バイトを読み込みます。
func (r *Reader) U64() (uint64, error) {
	b, err := r.fill(8)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b), nil
}

// Bytes は n バイトを読み込みます。
func (r *Reader) Bytes(n int) ([]byte, error) {
	if n < 0 {
		return nil, fmt.Errorf("%w: negative length %d", ErrOverrun, n)
	}
	out := make([]byte, n)
	if err := readFull(r.r, out); err != nil {
		return nil, err
	}
	return out, nil
}

// readFull は EOF 系のエラーを ErrOverrun に変換します
func readFull(r io.Reader, b []byte) error {
	n, err := io.ReadFull(r, b)
	if err == nil {
		return nil
	}
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return fmt.Errorf("%w: got %d of %d bytes", ErrOverrun, n, len(b))
	}
	return err
}
