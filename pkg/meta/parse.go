package meta

import (
	"fmt"
	"strconv"
	"unicode/utf8"

	"github.com/beevik/etree"
	"golang.org/x/text/encoding/unicode"
)

// Parse は meta.lsx の内容を1件解析します
func Parse(data []byte, opts ...Option) (Meta, error) {
	o := newOptions(opts)
	return parse(data, o.generation)
}

func parse(data []byte, gen Generation) (Meta, error) {
	if !utf8.Valid(data) {
		return Meta{}, ErrNotUTF8
	}
	text, err := unicode.UTF8BOM.NewDecoder().Bytes(data)
	if err != nil {
		return Meta{}, fmt.Errorf("%w: %w", ErrNotUTF8, err)
	}

	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(text); err != nil {
		return Meta{}, fmt.Errorf("%w: %w", ErrNotXML, err)
	}
	switch n := len(doc.ChildElements()); n {
	case 0:
		return Meta{}, fmt.Errorf("%w: no root element", ErrNotXML)
	case 1:
	default:
		return Meta{}, fmt.Errorf("%w: %d root elements", ErrNotXML, n)
	}

	info := findModuleInfo(doc)
	if info == nil {
		return Meta{}, ErrMissingModuleInfo
	}

	m, err := readModuleInfo(info)
	if err != nil {
		return Meta{}, err
	}

	switch gen {
	case GenerationDocumentVersion:
		m.Version, err = documentVersion(doc.Root())
	default:
		m.Version, err = ParseVersion64(m.Version64.Value)
	}
	if err != nil {
		return Meta{}, err
	}
	return m, nil
}

// findModuleInfo は id="ModuleInfo" の node 要素を探します。
// node 要素がなければ同じ id を持つ任意の要素を返します。
func findModuleInfo(doc *etree.Document) *etree.Element {
	if el := doc.FindElement("//node[@id='ModuleInfo']"); el != nil {
		return el
	}
	return doc.FindElement("//*[@id='ModuleInfo']")
}

func readModuleInfo(info *etree.Element) (Meta, error) {
	var m Meta
	var err error
	if m.Name, err = requiredProperty(info, "Name"); err != nil {
		return Meta{}, err
	}
	if m.Folder, err = requiredProperty(info, "Folder"); err != nil {
		return Meta{}, err
	}
	if m.UUID, err = requiredProperty(info, "UUID"); err != nil {
		return Meta{}, err
	}
	m.MD5 = optionalProperty(info, "MD5", Property{Type: typeLSString})
	m.Version64 = optionalProperty(info, "Version64", Property{Type: typeInt64, Value: DefaultVersion64})
	m.Description = optionalProperty(info, "Description", Property{}).Value
	return m, nil
}

// childByID は id 属性が一致する最初の子要素を返します
func childByID(parent *etree.Element, id string) *etree.Element {
	for _, child := range parent.ChildElements() {
		if attr := child.SelectAttr("id"); attr != nil && attr.Value == id {
			return child
		}
	}
	return nil
}

func requiredProperty(info *etree.Element, id string) (Property, error) {
	el := childByID(info, id)
	if el == nil {
		return Property{}, &MissingPropertyError{Property: id}
	}
	typ := el.SelectAttr("type")
	if typ == nil {
		return Property{}, &MissingPropertyError{Property: id, Attribute: "type"}
	}
	value := el.SelectAttr("value")
	if value == nil {
		return Property{}, &MissingPropertyError{Property: id, Attribute: "value"}
	}
	return Property{Type: typ.Value, Value: value.Value}, nil
}

func optionalProperty(info *etree.Element, id string, def Property) Property {
	p, err := requiredProperty(info, id)
	if err != nil {
		return def
	}
	return p
}

// documentVersion はルート直下の version 要素から4要素のバージョンを読み込みます
func documentVersion(root *etree.Element) (Version, error) {
	el := root.SelectElement("version")
	if el == nil {
		return Version{}, fmt.Errorf("%w: missing version element", ErrInvalidVersion)
	}
	var parts [4]uint32
	for i, name := range []string{"major", "minor", "revision", "build"} {
		attr := el.SelectAttr(name)
		if attr == nil {
			return Version{}, fmt.Errorf("%w: missing %s", ErrInvalidVersion, name)
		}
		n, err := strconv.ParseUint(attr.Value, 10, 32)
		if err != nil {
			return Version{}, fmt.Errorf("%w: %s %q: %w", ErrInvalidVersion, name, attr.Value, err)
		}
		parts[i] = uint32(n)
	}
	return Version{Major: parts[0], Minor: parts[1], Revision: parts[2], Build: parts[3]}, nil
}
