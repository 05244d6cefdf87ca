// Package meta は LSPK パッケージに含まれる meta.lsx からモジュール情報を取り出します。
//
// meta.lsx は ModuleInfo ノードを持つ LSX (XML) 文書で、Name・Folder・UUID などの
// プロパティが attribute 要素として格納されています。
package meta

import (
	"fmt"
	"strconv"
)

// Property は LSX の attribute 要素の型と値です。
type Property struct {
	Type  string `json:"type" yaml:"type"`
	Value string `json:"value" yaml:"value"`
}

// Meta は1つのモジュールのメタデータです。
type Meta struct {
	Entry       string   `json:"entry,omitempty" yaml:"entry,omitempty"` // 取り出し元のエントリ名
	Name        Property `json:"name" yaml:"name"`
	Description string   `json:"description" yaml:"description"`
	Folder      Property `json:"folder" yaml:"folder"`
	UUID        Property `json:"uuid" yaml:"uuid"`
	MD5         Property `json:"md5" yaml:"md5"`
	Version64   Property `json:"version64" yaml:"version64"`
	Version     Version  `json:"version" yaml:"version"`
}

// デフォルト値
const (
	DefaultVersion64 = "36028797018963968"
	typeLSString     = "LSString"
	typeFixedString  = "FixedString"
	typeInt64        = "int64"
)

// GustavDev はベースゲームのメタデータを返します。
// パッケージから取り出した結果として返されることはありません。
func GustavDev() Meta {
	return Meta{
		Name:        Property{Type: typeLSString, Value: "GustavDev"},
		Description: "",
		Folder:      Property{Type: typeLSString, Value: "GustavDev"},
		UUID:        Property{Type: typeFixedString, Value: "28ac9ce2-2aba-8cda-b3b5-6e922f71b6b8"},
		MD5:         Property{Type: typeLSString, Value: ""},
		Version64:   Property{Type: typeInt64, Value: DefaultVersion64},
		Version:     Version{Major: 1},
	}
}

// Version は4要素のバージョンです。
type Version struct {
	Major    uint32 `json:"major" yaml:"major"`
	Minor    uint32 `json:"minor" yaml:"minor"`
	Revision uint32 `json:"revision" yaml:"revision"`
	Build    uint32 `json:"build" yaml:"build"`
}

// Version64 のビット配置
const (
	majorShift    = 55
	minorShift    = 47
	revisionShift = 31
	majorMask     = 0x1FF
	minorMask     = 0xFF
	revisionMask  = 0xFFFF
	buildMask     = 0x7FFFFFFF
)

// String は "major.minor.revision.build" 形式の文字列を返します
func (v Version) String() string {
	return fmt.Sprintf("%d.%d.%d.%d", v.Major, v.Minor, v.Revision, v.Build)
}

// Pack は Version64 形式の値に変換します。
// 各要素はビット幅に収まるように切り詰められます。
func (v Version) Pack() int64 {
	return int64(uint64(v.Major&majorMask)<<majorShift |
		uint64(v.Minor&minorMask)<<minorShift |
		uint64(v.Revision&revisionMask)<<revisionShift |
		uint64(v.Build&buildMask))
}

// UnpackVersion は Version64 形式の値を4要素に分解します
func UnpackVersion(v64 int64) Version {
	u := uint64(v64)
	return Version{
		Major:    uint32(u >> majorShift & majorMask),
		Minor:    uint32(u >> minorShift & minorMask),
		Revision: uint32(u >> revisionShift & revisionMask),
		Build:    uint32(u & buildMask),
	}
}

// ParseVersion64 は Version64 プロパティの値を解析します
func ParseVersion64(s string) (Version, error) {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return Version{}, fmt.Errorf("%w: Version64 %q: %w", ErrInvalidVersion, s, err)
	}
	return UnpackVersion(n), nil
}
