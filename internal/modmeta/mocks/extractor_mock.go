package mocks

import (
	"context"
	"errors"
	"sync"

	"github.com/shiroemons/go-lspk/internal/modmeta/interfaces"
	"github.com/shiroemons/go-lspk/internal/modmeta/models"
	"github.com/shiroemons/go-lspk/pkg/lspk"
)

// MockExtractor はExtractorのモック実装です
type MockExtractor struct {
	Results   map[string]models.ArchiveResult
	Error     error
	CallCount int
	Paths     []string
}

// ExtractAll はモック実装です
func (m *MockExtractor) ExtractAll(ctx context.Context, archivePaths []string) ([]models.ArchiveResult, error) {
	m.CallCount++
	m.Paths = append(m.Paths, archivePaths...)
	if m.Error != nil {
		return nil, m.Error
	}
	results := make([]models.ArchiveResult, len(archivePaths))
	for i, path := range archivePaths {
		r, ok := m.Results[path]
		if !ok {
			r = models.ArchiveResult{Err: lspk.ErrCannotReadFile}
		}
		r.Path = path
		results[i] = r
	}
	return results, nil
}

// MockArchive はテスト用のメモリ上のパッケージです
type MockArchive struct {
	Items   []lspk.Entry
	Data    map[string][]byte
	Errors  map[string]error
	mu      sync.Mutex
	closed  bool
	ReadLog []string
}

// NewMockArchive は新しいMockArchiveを作成します
func NewMockArchive() *MockArchive {
	return &MockArchive{Data: map[string][]byte{}, Errors: map[string]error{}}
}

// Add はエントリを追加します
func (a *MockArchive) Add(name string, data []byte) *MockArchive {
	a.Items = append(a.Items, lspk.Entry{Name: name, UncompressedSize: uint64(len(data))})
	a.Data[name] = data
	return a
}

// Entries はエントリ一覧を返します
func (a *MockArchive) Entries() []lspk.Entry {
	return a.Items
}

// ReadFile はエントリの内容を返します
func (a *MockArchive) ReadFile(e lspk.Entry) ([]byte, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return nil, errors.New("archive closed")
	}
	a.ReadLog = append(a.ReadLog, e.Name)
	if err, ok := a.Errors[e.Name]; ok {
		return nil, err
	}
	return a.Data[e.Name], nil
}

// Close はパッケージを閉じます
func (a *MockArchive) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.closed = true
	return nil
}

// Closed は Close が呼ばれたかどうかを返します
func (a *MockArchive) Closed() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.closed
}

// MockOpener はArchiveOpenerのモック実装です
type MockOpener struct {
	Archives map[string]*MockArchive
	Errors   map[string]error
	mu       sync.Mutex
	Opened   []string
}

// Open はパスに対応する MockArchive を返します
func (o *MockOpener) Open(path string) (interfaces.Archive, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.Opened = append(o.Opened, path)
	if err, ok := o.Errors[path]; ok {
		return nil, err
	}
	a, ok := o.Archives[path]
	if !ok {
		return nil, lspk.ErrCannotReadFile
	}
	return a, nil
}
