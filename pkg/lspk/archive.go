package lspk

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"

	"github.com/shiroemons/go-lspk/pkg/bincursor"
)

// DefaultMaxIndexEntries はインデックスのエントリ数のデフォルト上限
const DefaultMaxIndexEntries = 1 << 20

// Archive は開いた LSPK パッケージを表します。
// ヘッダとファイルインデックスは Open 時に読み込まれ、
// パートファイルは最初に読み込みが必要になった時点で開かれます。
// 複数の goroutine から同時に ReadFile を呼ぶ場合は goroutine ごとに Open してください。
type Archive struct {
	path    string
	header  Header
	entries []Entry
	parts   []string
	handles []*os.File
	sizes   []int64
	logger  *slog.Logger
}

// Option は Open の設定を行います
type Option func(*options)

type options struct {
	logger     *slog.Logger
	maxEntries uint32
}

// WithLogger はデバッグ用のロガーを設定します。
// 設定しない場合はログを出力しません。
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithMaxIndexEntries はインデックスのエントリ数の上限を設定します。
// 0 を指定すると上限を無効にします。
func WithMaxIndexEntries(n uint32) Option {
	return func(o *options) {
		o.maxEntries = n
	}
}

// Open はパッケージファイルを開き、ヘッダとファイルインデックスを読み込みます。
// 返された Archive は使い終わったら Close してください。
func Open(path string, opts ...Option) (*Archive, error) {
	o := options{maxEntries: DefaultMaxIndexEntries}
	for _, opt := range opts {
		opt(&o)
	}
	logger := o.logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCannotReadFile, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCannotReadFile, err)
	}

	if err := checkTrailer(f, info.Size()); err != nil {
		return nil, err
	}

	lay, err := detectLayout(f)
	if err != nil {
		return nil, err
	}
	logger.Debug("package version detected", "path", path, "version", uint32(lay.version))

	if _, err := f.Seek(4, io.SeekStart); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCannotReadFile, err)
	}
	header, err := lay.header.decode(bincursor.NewReader(f))
	if err != nil {
		return nil, err
	}
	logger.Debug("package header read",
		"index_offset", header.IndexOffset,
		"parts", header.PartCount,
		"priority", header.Priority,
	)

	entries, err := readIndex(f, info.Size(), header.IndexOffset, lay.record, o.maxEntries)
	if err != nil {
		return nil, err
	}
	logger.Debug("file index read", "entries", len(entries))

	parts := partPaths(path, header.PartCount)
	return &Archive{
		path:    path,
		header:  header,
		entries: entries,
		parts:   parts,
		handles: make([]*os.File, len(parts)),
		sizes:   make([]int64, len(parts)),
		logger:  logger,
	}, nil
}

// checkTrailer はファイル末尾の DOS2:DE 形式のシグネチャを検出します
func checkTrailer(f *os.File, size int64) error {
	if size < 8 {
		return fmt.Errorf("%w: file is %d bytes", ErrHeaderOverrun, size)
	}
	if _, err := f.Seek(-8, io.SeekEnd); err != nil {
		return fmt.Errorf("%w: %w", ErrCannotReadFile, err)
	}
	r := bincursor.NewReader(f)
	if _, err := r.U32(); err != nil {
		return overrunAs(err, ErrHeaderOverrun, ErrCannotReadFile)
	}
	sig, err := r.U32()
	if err != nil {
		return overrunAs(err, ErrHeaderOverrun, ErrCannotReadFile)
	}
	if sig == Signature {
		return ErrUnsupportedVersionDOS2DE
	}
	return nil
}

// detectLayout は先頭のシグネチャとバージョンからレイアウトを決定します。
// シグネチャがない場合、先頭の値を旧形式のバージョン番号として扱います。
func detectLayout(f *os.File) (layout, error) {
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return layout{}, fmt.Errorf("%w: %w", ErrCannotReadFile, err)
	}
	r := bincursor.NewReader(f)
	lead, err := r.U32()
	if err != nil {
		return layout{}, overrunAs(err, ErrHeaderOverrun, ErrCannotReadFile)
	}
	if lead != Signature {
		switch Version(lead) {
		case VersionDOS:
			return layout{}, ErrUnsupportedVersionDOS
		case VersionDOSEE:
			return layout{}, ErrUnsupportedVersionDOSEE
		default:
			return layout{}, ErrNoValidSignature
		}
	}
	version, err := r.U32()
	if err != nil {
		return layout{}, overrunAs(err, ErrHeaderOverrun, ErrCannotReadFile)
	}
	return resolveLayout(version)
}

// readIndex はファイルインデックスを読み込んで展開し、全エントリを返します
func readIndex(f *os.File, fileSize int64, offset uint64, shape recordShape, maxEntries uint32) ([]Entry, error) {
	if offset > math.MaxInt64 || int64(offset) > fileSize {
		return nil, fmt.Errorf("%w: index offset %d beyond file size %d", ErrIndexOverrun, offset, fileSize)
	}
	if _, err := f.Seek(int64(offset), io.SeekStart); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCannotReadFile, err)
	}

	r := bincursor.NewReader(f)
	count, err := r.U32()
	if err != nil {
		return nil, overrunAs(err, ErrIndexOverrun, ErrCannotReadFile)
	}
	compressedSize, err := r.U32()
	if err != nil {
		return nil, overrunAs(err, ErrIndexOverrun, ErrCannotReadFile)
	}
	if maxEntries > 0 && count > maxEntries {
		return nil, fmt.Errorf("%w: %d entries, limit %d", ErrIndexTooLarge, count, maxEntries)
	}
	if remaining := fileSize - int64(offset) - 8; int64(compressedSize) > remaining {
		return nil, fmt.Errorf("%w: compressed index is %d bytes, %d remain", ErrIndexOverrun, compressedSize, remaining)
	}
	compressed, err := r.Bytes(int(compressedSize))
	if err != nil {
		return nil, overrunAs(err, ErrIndexOverrun, ErrCannotReadFile)
	}

	want := uint64(count) * uint64(shape.size())
	if want > math.MaxInt32 {
		return nil, fmt.Errorf("%w: index of %d entries is too large", ErrIndexDecompress, count)
	}
	raw, err := decompressIndex(compressed, int(want))
	if err != nil {
		return nil, err
	}

	c := bincursor.NewCursor(raw)
	entries := make([]Entry, 0, count)
	for i := range count {
		e, err := shape.decode(c)
		if err != nil {
			return nil, fmt.Errorf("entry %d: %w", i, err)
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// Path はプライマリパートのパスを返します
func (a *Archive) Path() string {
	return a.path
}

// Header はパッケージヘッダを返します
func (a *Archive) Header() Header {
	return a.header
}

// Version はパッケージのバージョンを返します
func (a *Archive) Version() Version {
	return a.header.Version
}

// Flags はパッケージフラグを返します
func (a *Archive) Flags() uint8 {
	return a.header.Flags
}

// Priority はロード優先度を返します
func (a *Archive) Priority() uint8 {
	return a.header.Priority
}

// Entries はファイルインデックスの全エントリをインデックス順で返します
func (a *Archive) Entries() []Entry {
	out := make([]Entry, len(a.entries))
	copy(out, a.entries)
	return out
}

// Parts は全パートファイルのパスを返します
func (a *Archive) Parts() []string {
	out := make([]string, len(a.parts))
	copy(out, a.parts)
	return out
}

// Find は名前が一致する最初のエントリを返します
func (a *Archive) Find(name string) (Entry, bool) {
	for _, e := range a.entries {
		if e.Name == name {
			return e, true
		}
	}
	return Entry{}, false
}

// ReadFile はエントリのデータを読み込み、展開して返します
func (a *Archive) ReadFile(e Entry) ([]byte, error) {
	raw, err := a.readRaw(e)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", e.Name, err)
	}
	data, err := Decompress(e.Compression(), raw, e.UncompressedSize)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", e.Name, err)
	}
	return data, nil
}

// ReadRaw はエントリの格納データを展開せずに返します
func (a *Archive) ReadRaw(e Entry) ([]byte, error) {
	raw, err := a.readRaw(e)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", e.Name, err)
	}
	return raw, nil
}

func (a *Archive) readRaw(e Entry) ([]byte, error) {
	f, size, err := a.part(e.ArchivePart)
	if err != nil {
		return nil, err
	}
	if e.Offset > math.MaxInt64 || e.SizeOnDisk > math.MaxInt64 ||
		e.Offset+e.SizeOnDisk < e.Offset || e.Offset+e.SizeOnDisk > uint64(size) {
		return nil, fmt.Errorf("%w: offset %d size %d in part of %d bytes",
			ErrFileOffsetOverrun, e.Offset, e.SizeOnDisk, size)
	}

	buf := make([]byte, e.SizeOnDisk)
	if _, err := f.ReadAt(buf, int64(e.Offset)); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: %w", ErrFileOffsetOverrun, err)
		}
		return nil, fmt.Errorf("%w: %w", ErrCannotReadPart, err)
	}
	return buf, nil
}

// part はパートファイルのハンドルを返します。未オープンであればここで開きます。
func (a *Archive) part(i uint32) (*os.File, int64, error) {
	if uint64(i) >= uint64(len(a.parts)) {
		return nil, 0, fmt.Errorf("%w: part %d of %d", ErrInvalidArchivePart, i, len(a.parts))
	}
	if f := a.handles[i]; f != nil {
		return f, a.sizes[i], nil
	}

	path := a.parts[i]
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %w", ErrCannotReadPart, err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, 0, fmt.Errorf("%w: %w", ErrCannotReadPart, err)
	}
	a.logger.Debug("archive part opened", "part", i, "path", path)
	a.handles[i] = f
	a.sizes[i] = info.Size()
	return f, info.Size(), nil
}

// Close は開いている全パートファイルを閉じます
func (a *Archive) Close() error {
	var errs []error
	for i, f := range a.handles {
		if f == nil {
			continue
		}
		if err := f.Close(); err != nil {
			errs = append(errs, err)
		}
		a.handles[i] = nil
	}
	return errors.Join(errs...)
}
