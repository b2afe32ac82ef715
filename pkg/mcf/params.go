package mcf

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"github.com/samcharles93/qlinear/pkg/quant"
)

// ParamsVersion is the on-disk version of the params section payload.
const ParamsVersion uint32 = 1

// Params payload format (v1), little-endian.
//
// Layout:
//   u32 record_count
//   record_count x {
//     u16 name_len
//     []byte name
//     u8  kind   (ParamScalar / ParamVector)
//     u8  dtype  (DTypeF64 / DTypeI8)
//     u32 count
//     count x element (8 bytes for f64, 1 byte for i8)
//   }
//
// Records are written in name order.

// TensorDType identifies the element encoding.
// Keep these stable forever; add new values only.
type TensorDType uint8

const (
	DTypeUnknown TensorDType = iota
	DTypeF32
	DTypeF16
	DTypeBF16
	DTypeF64
	DTypeI8
)

func (d TensorDType) String() string {
	switch d {
	case DTypeF32:
		return "f32"
	case DTypeF16:
		return "f16"
	case DTypeBF16:
		return "bf16"
	case DTypeF64:
		return "f64"
	case DTypeI8:
		return "i8"
	default:
		return "unknown"
	}
}

func (d TensorDType) size() int {
	switch d {
	case DTypeF64:
		return 8
	case DTypeI8:
		return 1
	default:
		return 0
	}
}

const (
	ParamScalar uint8 = 1
	ParamVector uint8 = 2
)

const paramRecordFixed = 2 + 1 + 1 + 4

// ParamRecord is a decoded view of one record, used by inspection tools.
type ParamRecord struct {
	Name  string
	Kind  uint8
	DType TensorDType
	Count uint32
	Raw   []byte
}

// EncodeParams encodes a floating-point parameter set.
func EncodeParams(ps quant.ParameterSet) ([]byte, error) {
	if err := ps.Validate(); err != nil {
		return nil, err
	}
	out := binary.LittleEndian.AppendUint32(nil, uint32(len(ps)))
	for _, name := range ps.Keys() {
		v := ps[name]
		var err error
		out, err = appendRecordHeader(out, name, kindByte(v.Kind()), DTypeF64, v.Len())
		if err != nil {
			return nil, err
		}
		for _, x := range v.Floats() {
			out = binary.LittleEndian.AppendUint64(out, math.Float64bits(x))
		}
	}
	return out, nil
}

// EncodeQuantParams encodes the integer values of a quantized parameter set.
// The scale travels in the QuantInfo section.
func EncodeQuantParams(q quant.QuantizedParameterSet) ([]byte, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}
	out := binary.LittleEndian.AppendUint32(nil, uint32(len(q.Values)))
	for _, name := range q.Keys() {
		v := q.Values[name]
		var err error
		out, err = appendRecordHeader(out, name, kindByte(v.Kind()), DTypeI8, v.Len())
		if err != nil {
			return nil, err
		}
		for _, x := range v.Ints() {
			out = append(out, byte(x))
		}
	}
	return out, nil
}

// DecodeParams decodes a payload written by EncodeParams.
func DecodeParams(data []byte) (quant.ParameterSet, error) {
	records, err := ParseParamRecords(data)
	if err != nil {
		return nil, err
	}
	out := make(quant.ParameterSet, len(records))
	for _, r := range records {
		if r.DType != DTypeF64 {
			return nil, fmt.Errorf("%w: param %q has dtype %s, want f64", ErrCorruptFile, r.Name, r.DType)
		}
		vals := make([]float64, r.Count)
		for i := range vals {
			vals[i] = math.Float64frombits(binary.LittleEndian.Uint64(r.Raw[i*8:]))
		}
		if r.Kind == ParamScalar {
			out[r.Name] = quant.Scalar(vals[0])
		} else {
			out[r.Name] = quant.Vector(vals...)
		}
	}
	return out, nil
}

// DecodeQuantParams decodes a payload written by EncodeQuantParams.
func DecodeQuantParams(data []byte) (map[string]quant.QuantizedValue, error) {
	records, err := ParseParamRecords(data)
	if err != nil {
		return nil, err
	}
	out := make(map[string]quant.QuantizedValue, len(records))
	for _, r := range records {
		if r.DType != DTypeI8 {
			return nil, fmt.Errorf("%w: param %q has dtype %s, want i8", ErrCorruptFile, r.Name, r.DType)
		}
		vals := make([]int8, r.Count)
		for i, b := range r.Raw {
			vals[i] = int8(b)
		}
		if r.Kind == ParamScalar {
			out[r.Name] = quant.QuantizedScalar(vals[0])
		} else {
			out[r.Name] = quant.QuantizedVector(vals...)
		}
	}
	return out, nil
}

// ParseParamRecords validates a params payload and returns its records.
// Raw slices alias data.
func ParseParamRecords(data []byte) ([]ParamRecord, error) {
	if len(data) < 4 {
		return nil, ErrCorruptFile
	}
	count := binary.LittleEndian.Uint32(data[0:4])
	// every record needs at least its fixed header
	if uint64(count)*paramRecordFixed > uint64(len(data)) {
		return nil, ErrCorruptFile
	}

	records := make([]ParamRecord, 0, count)
	seen := make(map[string]struct{}, count)
	off := 4
	for i := uint32(0); i < count; i++ {
		if len(data)-off < 2 {
			return nil, fmt.Errorf("%w: record %d truncated", ErrCorruptFile, i)
		}
		nameLen := int(binary.LittleEndian.Uint16(data[off:]))
		off += 2
		if nameLen == 0 || len(data)-off < nameLen+6 {
			return nil, fmt.Errorf("%w: record %d truncated", ErrCorruptFile, i)
		}
		r := ParamRecord{Name: string(data[off : off+nameLen])}
		off += nameLen
		r.Kind = data[off]
		r.DType = TensorDType(data[off+1])
		r.Count = binary.LittleEndian.Uint32(data[off+2:])
		off += 6

		if _, dup := seen[r.Name]; dup {
			return nil, fmt.Errorf("%w: duplicate param %q", ErrCorruptFile, r.Name)
		}
		seen[r.Name] = struct{}{}

		switch r.Kind {
		case ParamScalar:
			if r.Count != 1 {
				return nil, fmt.Errorf("%w: scalar %q has %d elements", ErrCorruptFile, r.Name, r.Count)
			}
		case ParamVector:
		default:
			return nil, fmt.Errorf("%w: param %q has unknown kind %d", ErrCorruptFile, r.Name, r.Kind)
		}
		elem := r.DType.size()
		if elem == 0 {
			return nil, fmt.Errorf("%w: param %q has unsupported dtype %d", ErrCorruptFile, r.Name, r.DType)
		}
		size, ok := mulUint64(uint64(r.Count), uint64(elem))
		if !ok || size > uint64(len(data)-off) {
			return nil, fmt.Errorf("%w: param %q data out of bounds", ErrCorruptFile, r.Name)
		}
		r.Raw = data[off : off+int(size)]
		off += int(size)
		records = append(records, r)
	}
	if off != len(data) {
		return nil, fmt.Errorf("%w: %d trailing bytes in params section", ErrCorruptFile, len(data)-off)
	}
	return records, nil
}

func appendRecordHeader(out []byte, name string, kind uint8, dt TensorDType, count int) ([]byte, error) {
	if name == "" || len(name) > math.MaxUint16 {
		return nil, fmt.Errorf("mcf: invalid param name length %d", len(name))
	}
	if uint64(count) > math.MaxUint32 {
		return nil, errors.New("mcf: param too large")
	}
	out = binary.LittleEndian.AppendUint16(out, uint16(len(name)))
	out = append(out, name...)
	out = append(out, kind, byte(dt))
	out = binary.LittleEndian.AppendUint32(out, uint32(count))
	return out, nil
}

func kindByte(k quant.Kind) uint8 {
	if k == quant.KindScalar {
		return ParamScalar
	}
	return ParamVector
}
