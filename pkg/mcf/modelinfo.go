package mcf

import (
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"
)

const ModelInfoVersion uint32 = 1

// Artifact kinds stored in ModelInfo.Kind.
const (
	KindModel            = "model"
	KindParams           = "params"
	KindQuantizedParams  = "quantized_params"
	KindDequantizedModel = "dequantized_model"
)

// ModelInfo is the JSON payload of the model info section.
type ModelInfo struct {
	Kind     string    `json:"kind"`
	RunID    string    `json:"run_id,omitempty"`
	Features []string  `json:"features,omitempty"`
	Target   string    `json:"target,omitempty"`
	Scheme   string    `json:"scheme,omitempty"`
	R2       *float64  `json:"r2,omitempty"`
	Created  time.Time `json:"created"`
}

func EncodeModelInfo(mi *ModelInfo) ([]byte, error) {
	if mi == nil {
		return nil, errors.New("modelinfo: nil ModelInfo")
	}
	if mi.Kind == "" {
		return nil, errors.New("modelinfo: kind is required")
	}
	return json.Marshal(mi)
}

func ParseModelInfo(data []byte) (*ModelInfo, error) {
	var mi ModelInfo
	if err := json.Unmarshal(data, &mi); err != nil {
		return nil, fmt.Errorf("%w: modelinfo: %v", ErrCorruptFile, err)
	}
	if mi.Kind == "" {
		return nil, fmt.Errorf("%w: modelinfo: missing kind", ErrCorruptFile)
	}
	return &mi, nil
}
