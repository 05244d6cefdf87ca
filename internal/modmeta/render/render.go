// Package render は取り出したメタデータを text / json / yaml で出力します
package render

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"

	apperrors "github.com/shiroemons/go-lspk/internal/modmeta/errors"
	"github.com/shiroemons/go-lspk/internal/modmeta/interfaces"
	"github.com/shiroemons/go-lspk/internal/modmeta/models"
	"github.com/shiroemons/go-lspk/pkg/meta"
)

// ErrUnknownFormat は未対応の出力形式の場合のエラー
var ErrUnknownFormat = errors.New("未対応の出力形式です")

// New は出力形式に対応する Renderer を返します
func New(format string) (interfaces.Renderer, error) {
	switch strings.ToLower(format) {
	case "", "text":
		return &Text{}, nil
	case "json":
		return &JSON{}, nil
	case "yaml":
		return &YAML{}, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownFormat, format)
	}
}

// Reports は結果を出力用の Report に変換します
func Reports(results []models.ArchiveResult) []models.Report {
	reports := make([]models.Report, len(results))
	for i, r := range results {
		rep := models.Report{
			Archive:  r.Path,
			Metadata: r.Metas,
		}
		if rep.Metadata == nil {
			rep.Metadata = []meta.Meta{}
		}
		for _, s := range r.Skipped {
			rep.Skipped = append(rep.Skipped, fmt.Sprintf("%s: %v", s.Entry, s.Err))
		}
		if r.Err != nil {
			rep.Error = apperrors.Describe(r.Err)
		}
		reports[i] = rep
	}
	return reports
}

// Text はテキスト形式で出力します
type Text struct{}

// Extension は出力ファイルの拡張子を返します
func (*Text) Extension() string { return "txt" }

// Render は結果をテキスト形式で書き込みます
func (*Text) Render(w io.Writer, results []models.ArchiveResult) error {
	var b strings.Builder
	for i, r := range results {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "#パッケージ: %s\n", r.Path)
		if r.Err != nil {
			fmt.Fprintf(&b, "#エラー: %s (%v)\n", apperrors.Describe(r.Err), r.Err)
			continue
		}
		fmt.Fprintf(&b, "#メタデータ: %d 件\n", len(r.Metas))
		for _, m := range r.Metas {
			writeMeta(&b, m)
		}
		for _, s := range r.Skipped {
			fmt.Fprintf(&b, "#読み飛ばし: %s: %v\n", s.Entry, s.Err)
		}
	}
	_, err := io.WriteString(w, b.String())
	return err
}

func writeMeta(b *strings.Builder, m meta.Meta) {
	b.WriteString("\n")
	if m.Entry != "" {
		fmt.Fprintf(b, "Entry: %s\n", m.Entry)
	}
	fmt.Fprintf(b, "Name: %s\n", m.Name.Value)
	fmt.Fprintf(b, "Folder: %s\n", m.Folder.Value)
	fmt.Fprintf(b, "UUID: %s\n", m.UUID.Value)
	fmt.Fprintf(b, "Description: %s\n", m.Description)
	fmt.Fprintf(b, "MD5: %s\n", m.MD5.Value)
	fmt.Fprintf(b, "Version64: %s\n", m.Version64.Value)
	fmt.Fprintf(b, "Version: %s\n", m.Version)
}

// JSON は JSON 形式で出力します
type JSON struct{}

// Extension は出力ファイルの拡張子を返します
func (*JSON) Extension() string { return "json" }

// Render は結果を JSON 配列として書き込みます
func (*JSON) Render(w io.Writer, results []models.ArchiveResult) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(Reports(results))
}

// YAML は YAML 形式で出力します
type YAML struct{}

// Extension は出力ファイルの拡張子を返します
func (*YAML) Extension() string { return "yaml" }

// Render は結果を YAML のシーケンスとして書き込みます
func (*YAML) Render(w io.Writer, results []models.ArchiveResult) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(Reports(results)); err != nil {
		return err
	}
	return enc.Close()
}
