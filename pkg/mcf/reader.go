package mcf

import (
	"fmt"
	"io"
	"math"
	"os"

	"golang.org/x/sys/unix"
)

// File is an opened MCF container. Section slices alias Data and must not
// be retained after Close.
type File struct {
	Data     []byte
	Header   *Header
	Sections []Entry

	unmap func([]byte) error
}

// Open maps an MCF file read-only and validates its structure. Files that
// cannot be mapped are read into memory instead.
func Open(path string) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	st, err := f.Stat()
	if err != nil {
		return nil, err
	}
	size, err := checkSize(st.Size())
	if err != nil {
		return nil, err
	}

	data, err := unix.Mmap(int(f.Fd()), 0, size, unix.PROT_READ, unix.MAP_SHARED)
	if err != nil {
		return OpenReaderAt(f, st.Size())
	}
	mf, err := parse(data)
	if err != nil {
		_ = unix.Munmap(data)
		return nil, err
	}
	mf.unmap = unix.Munmap
	return mf, nil
}

// OpenReaderAt copies size bytes from r and validates them.
func OpenReaderAt(r io.ReaderAt, size int64) (*File, error) {
	n, err := checkSize(size)
	if err != nil {
		return nil, err
	}
	data := make([]byte, n)
	if _, err := io.ReadFull(io.NewSectionReader(r, 0, size), data); err != nil {
		return nil, err
	}
	return parse(data)
}

func checkSize(size int64) (int, error) {
	if size < headerSize || size > math.MaxInt {
		return 0, ErrCorruptFile
	}
	return int(size), nil
}

func parse(data []byte) (*File, error) {
	hdr, err := parseHeader(data)
	if err != nil {
		return nil, err
	}
	size := uint64(len(data))
	if hdr.FileSize != size || uint64(hdr.HeaderSize) > size {
		return nil, ErrCorruptFile
	}

	dirLen, ok := mulUint64(uint64(hdr.SectionCount), entrySize)
	dirStart := hdr.SectionDirOffset
	if !ok || dirStart < uint64(hdr.HeaderSize) || dirStart > size || dirLen > size-dirStart {
		return nil, fmt.Errorf("%w: section directory out of bounds", ErrCorruptFile)
	}
	dirEnd := dirStart + dirLen

	entries := make([]Entry, hdr.SectionCount)
	for i := range entries {
		off := int(dirStart) + i*entrySize
		e := parseEntry(data[off : off+entrySize])
		for _, prev := range entries[:i] {
			if prev.Type == e.Type {
				return nil, fmt.Errorf("%w: duplicate %s section", ErrCorruptFile, e.Type)
			}
		}
		switch {
		case e.end() < e.Offset || e.end() > size:
			return nil, fmt.Errorf("%w: %s section out of bounds", ErrCorruptFile, e.Type)
		case e.Offset < uint64(hdr.HeaderSize):
			return nil, fmt.Errorf("%w: %s section overlaps header", ErrCorruptFile, e.Type)
		case e.Offset < dirEnd && dirStart < e.end():
			return nil, fmt.Errorf("%w: %s section overlaps directory", ErrCorruptFile, e.Type)
		case e.Offset%align != 0:
			return nil, fmt.Errorf("%w: %s section not %d-byte aligned", ErrCorruptFile, e.Type, align)
		}
		entries[i] = e
	}

	return &File{Data: data, Header: &hdr, Sections: entries}, nil
}

// Close releases the mapping, if any.
func (f *File) Close() error {
	if f == nil {
		return nil
	}
	var err error
	if f.unmap != nil && f.Data != nil {
		err = f.unmap(f.Data)
	}
	*f = File{}
	return err
}

// Compressed reports whether parameter payloads are zstd-compressed.
func (f *File) Compressed() bool {
	return f != nil && f.Header != nil && f.Header.Flags&FlagPayloadZstd != 0
}

// Section returns the directory entry of the given type, or nil.
func (f *File) Section(t SectionType) *Entry {
	for i := range f.Sections {
		if f.Sections[i].Type == t {
			return &f.Sections[i]
		}
	}
	return nil
}

// SectionData returns the raw bytes of a section without copying.
func (f *File) SectionData(e *Entry) []byte {
	if f == nil || e == nil || e.end() > uint64(len(f.Data)) {
		return nil
	}
	return f.Data[e.Offset:e.end()]
}

// Payload returns the decompressed payload of a section written with
// Writer.WritePayload. Uncompressed payloads are returned without copying.
func (f *File) Payload(t SectionType) ([]byte, error) {
	e := f.Section(t)
	if e == nil {
		return nil, fmt.Errorf("%w: missing %s section", ErrCorruptFile, t)
	}
	data := f.SectionData(e)
	if !f.Compressed() {
		return data, nil
	}
	return decompressPayload(data)
}

func mulUint64(a, b uint64) (uint64, bool) {
	if a != 0 && b > math.MaxUint64/a {
		return 0, false
	}
	return a * b, true
}
