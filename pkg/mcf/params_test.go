package mcf

import (
	"encoding/binary"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/samcharles93/qlinear/pkg/quant"
)

func TestParamsRoundTrip(t *testing.T) {
	t.Parallel()

	ps := quant.ParameterSet{
		quant.KeyCoefficients: quant.Vector(0.43, -0.011, 1e-300, -math.MaxFloat64),
		quant.KeyIntercept:    quant.Scalar(-37.02),
	}
	data, err := EncodeParams(ps)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	got, err := DecodeParams(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	for _, name := range ps.Keys() {
		if diff := cmp.Diff(ps[name].Floats(), got[name].Floats()); diff != "" {
			t.Fatalf("%s mismatch (-want +got):\n%s", name, diff)
		}
		if ps[name].Shape() != got[name].Shape() {
			t.Fatalf("%s shape: got %s want %s", name, got[name].Shape(), ps[name].Shape())
		}
	}
}

func TestQuantParamsRoundTrip(t *testing.T) {
	t.Parallel()

	q := quant.QuantizedParameterSet{
		Values: map[string]quant.QuantizedValue{
			quant.KeyCoefficients: quant.QuantizedVector(-128, 0, 127, 51),
			quant.KeyIntercept:    quant.QuantizedScalar(-5),
		},
		Scale: 50.8,
	}
	data, err := EncodeQuantParams(q)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	got, err := DecodeQuantParams(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if diff := cmp.Diff([]int8{-128, 0, 127, 51}, got[quant.KeyCoefficients].Ints()); diff != "" {
		t.Fatalf("coefficients mismatch (-want +got):\n%s", diff)
	}
	if got[quant.KeyIntercept].Kind() != quant.KindScalar || got[quant.KeyIntercept].Ints()[0] != -5 {
		t.Fatalf("intercept mismatch: %+v", got[quant.KeyIntercept])
	}

	if _, err := DecodeParams(data); !errors.Is(err, ErrCorruptFile) {
		t.Fatalf("decoding i8 records as f64: got %v", err)
	}
}

func TestEncodeParamsRejectsInvalid(t *testing.T) {
	t.Parallel()

	_, err := EncodeParams(quant.ParameterSet{quant.KeyIntercept: quant.Scalar(math.NaN())})
	if !errors.Is(err, quant.ErrInvalidParameters) {
		t.Fatalf("got %v", err)
	}
	_, err = EncodeQuantParams(quant.QuantizedParameterSet{Scale: 0})
	if !errors.Is(err, quant.ErrInvalidState) {
		t.Fatalf("got %v", err)
	}
}

func TestParseParamRecordsRejectsCorruption(t *testing.T) {
	t.Parallel()

	good, err := EncodeParams(quant.ParameterSet{quant.KeyCoefficients: quant.Vector(1, 2)})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	tests := []struct {
		name   string
		mutate func([]byte) []byte
	}{
		{"empty", func(b []byte) []byte { return nil }},
		{"truncated data", func(b []byte) []byte { return b[:len(b)-3] }},
		{"trailing bytes", func(b []byte) []byte { return append(b, 0) }},
		{"huge count", func(b []byte) []byte { binary.LittleEndian.PutUint32(b, 1<<30); return b }},
		{"unknown kind", func(b []byte) []byte { b[4+2+len(quant.KeyCoefficients)] = 7; return b }},
		{"unknown dtype", func(b []byte) []byte { b[4+2+len(quant.KeyCoefficients)+1] = 99; return b }},
		{"scalar with two elements", func(b []byte) []byte { b[4+2+len(quant.KeyCoefficients)] = ParamScalar; return b }},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			buf := append([]byte(nil), good...)
			if _, err := ParseParamRecords(tc.mutate(buf)); !errors.Is(err, ErrCorruptFile) {
				t.Fatalf("got %v want ErrCorruptFile", err)
			}
		})
	}
}

func TestQuantInfoRoundTrip(t *testing.T) {
	t.Parallel()

	in := QuantInfo{Method: MethodFixed, Clipped: 3, Scale: 100}
	data, err := EncodeQuantInfo(in)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	got, err := ParseQuantInfo(data)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if got != in {
		t.Fatalf("got %+v want %+v", got, in)
	}

	data[5] = 1
	if _, err := ParseQuantInfo(data); !errors.Is(err, ErrCorruptFile) {
		t.Fatalf("reserved bytes: got %v", err)
	}
	if _, err := ParseQuantInfo(data[:8]); !errors.Is(err, ErrCorruptFile) {
		t.Fatalf("short payload: got %v", err)
	}
	if _, err := EncodeQuantInfo(QuantInfo{Scale: math.Inf(1)}); err == nil {
		t.Fatalf("expected error for infinite scale")
	}
}

func TestModelInfoRoundTrip(t *testing.T) {
	t.Parallel()

	r2 := 0.5758
	in := &ModelInfo{
		Kind:     KindModel,
		RunID:    "run-1",
		Features: []string{"MedInc", "HouseAge"},
		Target:   "MedHouseVal",
		R2:       &r2,
		Created:  time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}
	data, err := EncodeModelInfo(in)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	got, err := ParseModelInfo(data)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if diff := cmp.Diff(in, got); diff != "" {
		t.Fatalf("model info mismatch (-want +got):\n%s", diff)
	}

	if _, err := ParseModelInfo([]byte(`{"run_id":"x"}`)); !errors.Is(err, ErrCorruptFile) {
		t.Fatalf("missing kind: got %v", err)
	}
}
