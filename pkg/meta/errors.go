package meta

import (
	"errors"
	"fmt"

	"github.com/shiroemons/go-lspk/pkg/lspk"
)

var (
	// ErrNotUTF8 はメタデータが UTF-8 として不正な場合のエラー
	ErrNotUTF8 = errors.New("meta: metadata not valid UTF-8")

	// ErrNotXML はメタデータが XML として解析できない場合のエラー
	ErrNotXML = errors.New("meta: metadata not valid XML")

	// ErrMissingModuleInfo は ModuleInfo ノードが見つからない場合のエラー
	ErrMissingModuleInfo = errors.New("meta: metadata missing ModuleInfo")

	// ErrMissingProperty は必須プロパティが見つからない場合のエラー
	// 実際には *MissingPropertyError が返されます
	ErrMissingProperty = errors.New("meta: metadata missing required property")

	// ErrInvalidVersion はバージョンが欠落している、または整数でない場合のエラー
	ErrInvalidVersion = errors.New("meta: invalid version")

	// ErrNoMetadata はパッケージにメタデータが含まれていない場合のエラー
	ErrNoMetadata = errors.New("meta: no metadata found")
)

// MissingPropertyError は欠落した必須プロパティを示すエラー
type MissingPropertyError struct {
	Property  string // プロパティ名 (Name, Folder, UUID)
	Attribute string // 欠落した属性 (空の場合は要素自体がない)
}

// Error はエラーメッセージを返します
func (e *MissingPropertyError) Error() string {
	if e.Attribute == "" {
		return fmt.Sprintf("meta: metadata missing required property %s", e.Property)
	}
	return fmt.Sprintf("meta: property %s missing %s attribute", e.Property, e.Attribute)
}

// Is は ErrMissingProperty との比較を可能にします
func (e *MissingPropertyError) Is(target error) bool {
	return target == ErrMissingProperty
}

// EntryError はどのエントリで失敗したかを保持するエラー
type EntryError struct {
	Name string
	Err  error
}

// Error はエラーメッセージを返します
func (e *EntryError) Error() string {
	return fmt.Sprintf("%s: %v", e.Name, e.Err)
}

// Unwrap は元のエラーを返します
func (e *EntryError) Unwrap() error {
	return e.Err
}

var metadataErrors = []error{
	ErrNotUTF8,
	ErrNotXML,
	ErrMissingModuleInfo,
	ErrMissingProperty,
	ErrInvalidVersion,
	ErrNoMetadata,
}

// PhaseOf はエラーの処理段階を返します。
// メタデータの解析エラーは lspk.PhaseMetadata、それ以外は lspk.PhaseOf に従います。
func PhaseOf(err error) lspk.Phase {
	for _, target := range metadataErrors {
		if errors.Is(err, target) {
			return lspk.PhaseMetadata
		}
	}
	return lspk.PhaseOf(err)
}
