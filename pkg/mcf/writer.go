package mcf

import (
	"cmp"
	"errors"
	"fmt"
	"io"
	"slices"
	"sync"
)

var errFinalised = errors.New("mcf: writer already finalised")

// Writer assembles an MCF file in memory and emits it with a single write
// on Finalise. The header is patched once every section offset is known.
type Writer struct {
	mu      sync.Mutex
	out     io.Writer
	buf     []byte
	entries []Entry
	flags   uint64
	done    bool
}

// NewWriter returns a writer that emits the finished file to out.
func NewWriter(out io.Writer) (*Writer, error) {
	if out == nil {
		return nil, errors.New("mcf: nil output")
	}
	return &Writer{out: out, buf: make([]byte, headerSize, 512)}, nil
}

// AddFlags sets header flags. FlagPayloadZstd must be set before the first
// section is written.
func (w *Writer) AddFlags(flags uint64) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.done {
		return errFinalised
	}
	if flags&FlagPayloadZstd != 0 && w.flags&FlagPayloadZstd == 0 && len(w.entries) > 0 {
		return errors.New("mcf: compression must be enabled before any section is written")
	}
	w.flags |= flags
	return nil
}

// WriteSection appends a section verbatim. Each section type may appear
// once.
func (w *Writer) WriteSection(typ SectionType, version uint32, data []byte) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.appendSection(typ, version, data)
}

// WritePayload appends a parameter payload, compressed when the writer
// carries FlagPayloadZstd.
func (w *Writer) WritePayload(typ SectionType, version uint32, data []byte) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.flags&FlagPayloadZstd != 0 {
		data = compressPayload(data)
	}
	return w.appendSection(typ, version, data)
}

func (w *Writer) appendSection(typ SectionType, version uint32, data []byte) error {
	if w.done {
		return errFinalised
	}
	if slices.ContainsFunc(w.entries, func(e Entry) bool { return e.Type == typ }) {
		return fmt.Errorf("mcf: duplicate %s section", typ)
	}
	w.pad()
	w.entries = append(w.entries, Entry{
		Type:    typ,
		Version: version,
		Offset:  uint64(len(w.buf)),
		Size:    uint64(len(data)),
	})
	w.buf = append(w.buf, data...)
	return nil
}

// Finalise appends the section directory, fills in the header and writes
// the file. The writer cannot be reused afterwards.
func (w *Writer) Finalise() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.done {
		return errFinalised
	}
	if len(w.entries) == 0 {
		return errors.New("mcf: no sections written")
	}
	w.done = true

	slices.SortFunc(w.entries, func(a, b Entry) int { return cmp.Compare(a.Type, b.Type) })
	w.pad()
	dirOffset := len(w.buf)
	for _, e := range w.entries {
		w.buf = appendEntry(w.buf, e)
	}

	h := Header{
		Major:            CurrentMajor,
		Minor:            CurrentMinor,
		HeaderSize:       headerSize,
		SectionCount:     uint32(len(w.entries)),
		SectionDirOffset: uint64(dirOffset),
		FileSize:         uint64(len(w.buf)),
		Flags:            w.flags,
	}
	copy(h.Magic[:], MagicMCF)
	putHeader(w.buf[:headerSize], h)

	_, err := w.out.Write(w.buf)
	w.buf = nil
	return err
}

func (w *Writer) pad() {
	if rem := len(w.buf) % align; rem != 0 {
		w.buf = append(w.buf, make([]byte, align-rem)...)
	}
}
