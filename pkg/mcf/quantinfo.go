package mcf

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
)

const (
	QuantInfoVersion uint32 = 1

	quantInfoSize = 24
)

// QuantMethod records how the scale was chosen.
type QuantMethod uint8

const (
	MethodUnknown QuantMethod = iota
	MethodSymInt8             // scale derived from the data, never clips
	MethodFixed               // externally supplied scale, may clip
)

func (m QuantMethod) String() string {
	switch m {
	case MethodSymInt8:
		return "sym-int8"
	case MethodFixed:
		return "fixed"
	default:
		return fmt.Sprintf("method(%d)", uint8(m))
	}
}

// QuantInfo is the fixed-size metadata paired with a quantized params section.
//
// Layout (24 bytes, little-endian):
//
//	[0:4]   version
//	[4]     method
//	[5:8]   reserved, zero
//	[8:12]  clipped element count
//	[12:16] reserved, zero
//	[16:24] scale (float64)
type QuantInfo struct {
	Method  QuantMethod
	Clipped uint32
	Scale   float64
}

// EncodeQuantInfo builds a QuantInfo section payload (v1).
func EncodeQuantInfo(qi QuantInfo) ([]byte, error) {
	if math.IsNaN(qi.Scale) || math.IsInf(qi.Scale, 0) {
		return nil, errors.New("mcf: quant scale must be finite")
	}
	out := make([]byte, quantInfoSize)
	binary.LittleEndian.PutUint32(out[0:4], QuantInfoVersion)
	out[4] = byte(qi.Method)
	binary.LittleEndian.PutUint32(out[8:12], qi.Clipped)
	binary.LittleEndian.PutUint64(out[16:24], math.Float64bits(qi.Scale))
	return out, nil
}

// ParseQuantInfo decodes a QuantInfo section payload. The scale is returned
// as stored; callers validate it against the quantized values it belongs to.
func ParseQuantInfo(sec []byte) (QuantInfo, error) {
	if len(sec) != quantInfoSize {
		return QuantInfo{}, ErrCorruptFile
	}
	if binary.LittleEndian.Uint32(sec[0:4]) != QuantInfoVersion {
		return QuantInfo{}, ErrUnsupportedMinor
	}
	if sec[5] != 0 || sec[6] != 0 || sec[7] != 0 || binary.LittleEndian.Uint32(sec[12:16]) != 0 {
		return QuantInfo{}, ErrCorruptFile
	}
	qi := QuantInfo{
		Method:  QuantMethod(sec[4]),
		Clipped: binary.LittleEndian.Uint32(sec[8:12]),
		Scale:   math.Float64frombits(binary.LittleEndian.Uint64(sec[16:24])),
	}
	if qi.Method > MethodFixed {
		return QuantInfo{}, ErrCorruptFile
	}
	return qi, nil
}
