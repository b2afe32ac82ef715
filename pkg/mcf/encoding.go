package mcf

import (
	"encoding/binary"
	"fmt"
)

func putHeader(dst []byte, h Header) {
	_ = dst[headerSize-1]
	copy(dst[0:4], h.Magic[:])
	binary.LittleEndian.PutUint16(dst[4:6], h.Major)
	binary.LittleEndian.PutUint16(dst[6:8], h.Minor)
	binary.LittleEndian.PutUint32(dst[8:12], h.HeaderSize)
	binary.LittleEndian.PutUint32(dst[12:16], h.SectionCount)
	binary.LittleEndian.PutUint64(dst[16:24], h.SectionDirOffset)
	binary.LittleEndian.PutUint64(dst[24:32], h.FileSize)
	binary.LittleEndian.PutUint64(dst[32:40], h.Flags)
}

// parseHeader decodes and sanity-checks the header at the start of src.
func parseHeader(src []byte) (Header, error) {
	var h Header
	if len(src) < headerSize {
		return h, ErrCorruptFile
	}
	copy(h.Magic[:], src[0:4])
	if string(h.Magic[:]) != MagicMCF {
		return h, ErrInvalidMagic
	}
	le := binary.LittleEndian
	h.Major = le.Uint16(src[4:6])
	h.Minor = le.Uint16(src[6:8])
	h.HeaderSize = le.Uint32(src[8:12])
	h.SectionCount = le.Uint32(src[12:16])
	h.SectionDirOffset = le.Uint64(src[16:24])
	h.FileSize = le.Uint64(src[24:32])
	h.Flags = le.Uint64(src[32:40])

	if h.Major != CurrentMajor {
		return h, fmt.Errorf("%w: %d", ErrUnsupportedMajor, h.Major)
	}
	if h.HeaderSize < headerSize || h.SectionCount == 0 {
		return h, ErrCorruptFile
	}
	return h, nil
}

func appendEntry(dst []byte, e Entry) []byte {
	dst = binary.LittleEndian.AppendUint32(dst, uint32(e.Type))
	dst = binary.LittleEndian.AppendUint32(dst, e.Version)
	dst = binary.LittleEndian.AppendUint64(dst, e.Offset)
	return binary.LittleEndian.AppendUint64(dst, e.Size)
}

func parseEntry(src []byte) Entry {
	_ = src[entrySize-1]
	return Entry{
		Type:    SectionType(binary.LittleEndian.Uint32(src[0:4])),
		Version: binary.LittleEndian.Uint32(src[4:8]),
		Offset:  binary.LittleEndian.Uint64(src[8:16]),
		Size:    binary.LittleEndian.Uint64(src[16:24]),
	}
}
