package mocks

// MockPakFileFinder はPakFileFinderのモック実装です
type MockPakFileFinder struct {
	FoundFile string
	AllFiles  map[string][]string
	Error     error
	Dirs      []string // FindAll に渡されたディレクトリ
}

// Find はモック実装です
func (m *MockPakFileFinder) Find() (string, error) {
	if m.Error != nil {
		return "", m.Error
	}
	return m.FoundFile, nil
}

// FindAll はモック実装です
func (m *MockPakFileFinder) FindAll(dir string) ([]string, error) {
	m.Dirs = append(m.Dirs, dir)
	if m.Error != nil {
		return nil, m.Error
	}
	return m.AllFiles[dir], nil
}
