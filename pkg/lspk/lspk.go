// Package lspk は LSPK パッケージファイル（.pak）を読み込むためのパッケージです。
//
// LSPK はいくつかの関連するゲームで使われているアーカイブ形式で、複数のパートファイルに
// 格納された多数のファイルと、LZ4 で圧縮されたファイルインデックスを持ちます。
// ファイル先頭のバージョン番号によってヘッダとインデックスレコードの形式が異なります。
//
// サポートするバージョン:
//   - 15: Baldur's Gate 3 アーリーアクセス
//   - 16: Baldur's Gate 3 アーリーアクセス パッチ4
//   - 18: Baldur's Gate 3
//
// 以下のバージョンは識別したうえで拒否します:
//   - 7:  Divinity: Original Sin
//   - 9:  Divinity: Original Sin Enhanced Edition
//   - 10: Divinity: Original Sin 2
//   - 13: Divinity: Original Sin 2 Definitive Edition
//
// 基本的な使い方:
//
//	archive, err := lspk.Open("ExampleMod.pak")
//	if err != nil {
//	    return err
//	}
//	defer archive.Close()
//	for _, entry := range archive.Entries() {
//	    data, err := archive.ReadFile(entry)
//	    // エントリを処理...
//	}
//
// Archive は内部で同期を行いません。複数の goroutine から同じ Archive を使う場合は
// 呼び出し側で排他制御するか、goroutine ごとに Open してください。
package lspk

// Signature は LSPK パッケージの識別子 'LSPK' (リトルエンディアン)
const Signature uint32 = 0x4B50534C

// Version はパッケージのバージョン番号です。
type Version uint32

// バージョン定数
const (
	VersionDOS                  Version = 7  // Divinity: Original Sin
	VersionDOSEE                Version = 9  // Divinity: Original Sin Enhanced Edition
	VersionDOS2                 Version = 10 // Divinity: Original Sin 2
	VersionDOS2DE               Version = 13 // Divinity: Original Sin 2 Definitive Edition
	VersionBG3EarlyAccess       Version = 15 // Baldur's Gate 3 Early Access
	VersionBG3EarlyAccessPatch4 Version = 16 // Baldur's Gate 3 Early Access Patch 4
	VersionBG3                  Version = 18 // Baldur's Gate 3
)

// String はバージョンの名前を返します
func (v Version) String() string {
	switch v {
	case VersionDOS:
		return "Divinity: Original Sin"
	case VersionDOSEE:
		return "Divinity: Original Sin Enhanced Edition"
	case VersionDOS2:
		return "Divinity: Original Sin 2"
	case VersionDOS2DE:
		return "Divinity: Original Sin 2 Definitive Edition"
	case VersionBG3EarlyAccess:
		return "Baldur's Gate 3 Early Access"
	case VersionBG3EarlyAccessPatch4:
		return "Baldur's Gate 3 Early Access Patch 4"
	case VersionBG3:
		return "Baldur's Gate 3"
	default:
		return "unknown"
	}
}

// Supported はこのパッケージで読み込めるバージョンかどうかを返します
func (v Version) Supported() bool {
	_, err := resolveLayout(uint32(v))
	return err == nil
}
