package lspk

import (
	"bytes"
	"fmt"
	"io"
	"math"

	"github.com/klauspost/compress/zlib"
	"github.com/pierrec/lz4/v4"
)

// CompressionMethod はエントリの圧縮方式です。
// 0〜2 以外の値は不正な方式で、元のコード値をそのまま保持します。
type CompressionMethod uint32

const (
	CompressionNone CompressionMethod = 0
	CompressionZLib CompressionMethod = 1
	CompressionLZ4  CompressionMethod = 2
)

// compressionMask はフラグのうち圧縮方式を表すビット
const compressionMask = 0x0F

// 展開先バッファの事前確保の上限
const maxPrealloc = 64 << 20

// MethodOf はエントリフラグの下位4ビットから圧縮方式を決定します
func MethodOf(flags uint32) CompressionMethod {
	return CompressionMethod(flags & compressionMask)
}

// Valid は既知の圧縮方式かどうかを返します
func (m CompressionMethod) Valid() bool {
	return m <= CompressionLZ4
}

// String は圧縮方式の名前を返します
func (m CompressionMethod) String() string {
	switch m {
	case CompressionNone:
		return "none"
	case CompressionZLib:
		return "zlib"
	case CompressionLZ4:
		return "lz4"
	default:
		return fmt.Sprintf("invalid(%d)", uint32(m))
	}
}

// Decompress は指定された方式でデータを展開します。
// 失敗した場合、部分的な出力は返しません。
//
// CompressionNone はデータをそのまま返します。
// CompressionLZ4 は LZ4 ブロック形式で、展開後サイズが uncompressedSize と
// 一致しない場合はエラーになります。
// CompressionZLib は zlib ストリームを最後まで展開します。
func Decompress(method CompressionMethod, data []byte, uncompressedSize uint64) ([]byte, error) {
	switch method {
	case CompressionNone:
		return data, nil
	case CompressionZLib:
		return inflateZlib(data, uncompressedSize)
	case CompressionLZ4:
		return decompressLZ4(data, uncompressedSize)
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnknownCompression, uint32(method))
	}
}

func inflateZlib(data []byte, sizeHint uint64) ([]byte, error) {
	zr, err := zlib.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrZlibDecompress, err)
	}
	defer zr.Close()

	var buf bytes.Buffer
	buf.Grow(int(min(sizeHint, maxPrealloc)))
	if _, err := io.Copy(&buf, zr); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrZlibDecompress, err)
	}
	return buf.Bytes(), nil
}

func decompressLZ4(data []byte, size uint64) ([]byte, error) {
	if size > math.MaxInt32 {
		return nil, fmt.Errorf("%w: uncompressed size %d too large", ErrLZ4Decompress, size)
	}
	if size == 0 {
		// 空のブロックは0バイト、またはトークン1バイトのみ
		if len(data) <= 1 {
			return []byte{}, nil
		}
		return nil, fmt.Errorf("%w: %d bytes of input for empty output", ErrLZ4Decompress, len(data))
	}

	dst := make([]byte, size)
	n, err := lz4.UncompressBlock(data, dst)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLZ4Decompress, err)
	}
	if n != len(dst) {
		return nil, fmt.Errorf("%w: got %d bytes, want %d", ErrLZ4Decompress, n, len(dst))
	}
	return dst, nil
}

// decompressIndex はファイルインデックスを展開します。
// 展開後のサイズが want と一致しない場合はエラーになります。
func decompressIndex(data []byte, want int) ([]byte, error) {
	if want == 0 {
		return []byte{}, nil
	}
	dst := make([]byte, want)
	n, err := lz4.UncompressBlock(data, dst)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrIndexDecompress, err)
	}
	if n != want {
		return nil, fmt.Errorf("%w: got %d bytes, want %d", ErrIndexDecompress, n, want)
	}
	return dst, nil
}
