// Package mcf implements the Model Container File format.
//
// MCF is a single-file, memory-mappable container for model parameters. A
// file is a fixed header, a set of 8-byte aligned sections and a section
// directory. It describes structure and data only and never implies runtime
// behaviour.
package mcf

import "fmt"

// MCF global constants must never change.
const (
	// MagicMCF is the file magic for all MCF containers.
	MagicMCF = "MCF\x00"

	// CurrentMajor changes only with a breaking format change.
	CurrentMajor uint16 = 1

	// CurrentMinor may add new optional sections or fields.
	CurrentMinor uint16 = 0

	// FlagPayloadZstd marks parameter payloads as zstd-compressed.
	FlagPayloadZstd uint64 = 1 << 0
)

const (
	headerSize = 40
	entrySize  = 24
	align      = 8
)

type SectionType uint32

const (
	SectionModelInfo SectionType = 0x0001
	SectionQuantInfo SectionType = 0x0002
	SectionParams    SectionType = 0x0003
)

func (t SectionType) String() string {
	switch t {
	case SectionModelInfo:
		return "model_info"
	case SectionQuantInfo:
		return "quant_info"
	case SectionParams:
		return "params"
	default:
		return fmt.Sprintf("section(%#x)", uint32(t))
	}
}

// Header is the fixed 40-byte file header.
//
//	[0:4]   magic
//	[4:6]   major
//	[6:8]   minor
//	[8:12]  header size
//	[12:16] section count
//	[16:24] section directory offset
//	[24:32] file size
//	[32:40] flags
type Header struct {
	Magic            [4]byte
	Major            uint16
	Minor            uint16
	HeaderSize       uint32
	SectionCount     uint32
	SectionDirOffset uint64
	FileSize         uint64
	Flags            uint64
}

// Entry is one 24-byte section directory record.
type Entry struct {
	Type    SectionType
	Version uint32
	Offset  uint64
	Size    uint64
}

func (e Entry) end() uint64 { return e.Offset + e.Size }
