package lspk

import (
	"errors"
	"fmt"
)

// オープン・ヘッダ段階のエラー
var (
	// ErrCannotReadFile はパッケージファイルを開けない場合のエラー
	ErrCannotReadFile = errors.New("lspk: could not read file")

	// ErrHeaderOverrun はヘッダの読み込みがファイル終端を越えた場合のエラー
	ErrHeaderOverrun = errors.New("lspk: package header overran end of file")

	// ErrNoValidSignature は LSPK シグネチャも旧形式のバージョン番号も見つからない場合のエラー
	ErrNoValidSignature = errors.New("lspk: no valid signature found")

	// ErrUnsupportedVersionDOS は Divinity: Original Sin 形式の場合のエラー
	ErrUnsupportedVersionDOS = errors.New("lspk: unsupported version: Divinity: Original Sin")

	// ErrUnsupportedVersionDOSEE は Divinity: Original Sin Enhanced Edition 形式の場合のエラー
	ErrUnsupportedVersionDOSEE = errors.New("lspk: unsupported version: Divinity: Original Sin Enhanced Edition")

	// ErrUnsupportedVersionDOS2 は Divinity: Original Sin 2 形式の場合のエラー
	ErrUnsupportedVersionDOS2 = errors.New("lspk: unsupported version: Divinity: Original Sin 2")

	// ErrUnsupportedVersionDOS2DE は Divinity: Original Sin 2 Definitive Edition 形式の場合のエラー
	ErrUnsupportedVersionDOS2DE = errors.New("lspk: unsupported version: Divinity: Original Sin 2 Definitive Edition")

	// ErrUnsupportedVersion は未知のバージョン番号の場合のエラー
	// 実際には *UnsupportedVersionError が返され、errors.Is でこの値と一致します
	ErrUnsupportedVersion = errors.New("lspk: unsupported version")
)

// ファイルインデックス段階のエラー
var (
	// ErrIndexOverrun はインデックスの読み込みがファイル終端を越えた場合のエラー
	ErrIndexOverrun = errors.New("lspk: file index overran end of file")

	// ErrRecordOverrun はレコードの読み込みが展開済みインデックスの終端を越えた場合のエラー
	ErrRecordOverrun = errors.New("lspk: file index record overran end of index")

	// ErrIndexDecompress はインデックスの展開に失敗した、または展開後のサイズが一致しない場合のエラー
	ErrIndexDecompress = errors.New("lspk: could not decompress file index")

	// ErrIndexTooLarge はインデックスのエントリ数が上限を超えた場合のエラー
	ErrIndexTooLarge = errors.New("lspk: file index has too many entries")

	// ErrNameNotTerminated はファイル名フィールドが NUL で終端していない場合のエラー
	ErrNameNotTerminated = errors.New("lspk: file name not null terminated")
)

// ファイル読み込み・展開段階のエラー
var (
	// ErrInvalidArchivePart はエントリのパート番号が範囲外の場合のエラー
	ErrInvalidArchivePart = errors.New("lspk: invalid archive part")

	// ErrCannotReadPart はパートファイルを開けない場合のエラー
	ErrCannotReadPart = errors.New("lspk: could not read archive part")

	// ErrFileOffsetOverrun はエントリのデータがパートファイルの終端を越える場合のエラー
	ErrFileOffsetOverrun = errors.New("lspk: file offset overruns file")

	// ErrUnknownCompression は未知の圧縮方式の場合のエラー
	ErrUnknownCompression = errors.New("lspk: unknown compression method")

	// ErrZlibDecompress は zlib の展開に失敗した場合のエラー
	ErrZlibDecompress = errors.New("lspk: could not decompress zlib file")

	// ErrLZ4Decompress は LZ4 の展開に失敗した場合のエラー
	ErrLZ4Decompress = errors.New("lspk: could not decompress lz4 file")
)

// UnsupportedVersionError は未知のバージョン番号を保持するエラー
type UnsupportedVersionError struct {
	Version uint32
}

// Error はエラーメッセージを返します
func (e *UnsupportedVersionError) Error() string {
	return fmt.Sprintf("lspk: unsupported version %d", e.Version)
}

// Is は ErrUnsupportedVersion との比較を可能にします
func (e *UnsupportedVersionError) Is(target error) bool {
	return target == ErrUnsupportedVersion
}

// Phase はエラーが発生した処理段階です。
type Phase int

const (
	PhaseUnknown  Phase = iota
	PhaseOpen           // シグネチャ・バージョン・ヘッダ
	PhaseIndex          // ファイルインデックス
	PhaseFile           // 個別ファイルの読み込み・展開
	PhaseMetadata       // メタデータの解析 (pkg/meta が使用)
)

// String は段階名を返します
func (p Phase) String() string {
	switch p {
	case PhaseOpen:
		return "open"
	case PhaseIndex:
		return "index"
	case PhaseFile:
		return "file"
	case PhaseMetadata:
		return "metadata"
	default:
		return "unknown"
	}
}

var phaseErrors = map[Phase][]error{
	PhaseOpen: {
		ErrCannotReadFile,
		ErrHeaderOverrun,
		ErrNoValidSignature,
		ErrUnsupportedVersionDOS,
		ErrUnsupportedVersionDOSEE,
		ErrUnsupportedVersionDOS2,
		ErrUnsupportedVersionDOS2DE,
		ErrUnsupportedVersion,
	},
	PhaseIndex: {
		ErrIndexOverrun,
		ErrRecordOverrun,
		ErrIndexDecompress,
		ErrIndexTooLarge,
		ErrNameNotTerminated,
	},
	PhaseFile: {
		ErrInvalidArchivePart,
		ErrCannotReadPart,
		ErrFileOffsetOverrun,
		ErrUnknownCompression,
		ErrZlibDecompress,
		ErrLZ4Decompress,
	},
}

// PhaseOf はエラーがどの処理段階で発生したかを返します
func PhaseOf(err error) Phase {
	if err == nil {
		return PhaseUnknown
	}
	for _, phase := range []Phase{PhaseOpen, PhaseIndex, PhaseFile} {
		for _, target := range phaseErrors[phase] {
			if errors.Is(err, target) {
				return phase
			}
		}
	}
	return PhaseUnknown
}

// IsArchiveWide はアーカイブ全体が読めないエラーかどうかを返します。
// false の場合は特定のエントリだけが読めない可能性があります。
func IsArchiveWide(err error) bool {
	switch PhaseOf(err) {
	case PhaseOpen, PhaseIndex:
		return true
	default:
		return false
	}
}
