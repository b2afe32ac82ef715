package mcf

import (
	"fmt"

	"github.com/klauspost/compress/zstd"
)

var encoder *zstd.Encoder = func() *zstd.Encoder {
	encoder, err := zstd.NewWriter(
		nil,
		zstd.WithEncoderLevel(zstd.SpeedDefault),
		zstd.WithSingleSegment(true),
	)
	if err != nil {
		panic(err)
	}
	return encoder
}()

// maxDecodedPayload caps the memory a single decompressed section may use.
const maxDecodedPayload = 64 << 20

var decoder *zstd.Decoder = func() *zstd.Decoder {
	decoder, err := zstd.NewReader(
		nil,
		zstd.WithDecoderConcurrency(1),
		zstd.WithDecoderMaxMemory(maxDecodedPayload),
	)
	if err != nil {
		panic(err)
	}
	return decoder
}()

func compressPayload(in []byte) []byte {
	return encoder.EncodeAll(in, nil)
}

func decompressPayload(in []byte) ([]byte, error) {
	out, err := decoder.DecodeAll(in, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: zstd payload: %v", ErrCorruptFile, err)
	}
	return out, nil
}
