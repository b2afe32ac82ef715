package artifact

import (
	"fmt"

	"github.com/samcharles93/qlinear/pkg/mcf"
)

// Summary describes the contents of an MCF artifact without interpreting
// the parameters as a model.
type Summary struct {
	Path       string           `json:"path"`
	Major      uint16           `json:"major"`
	Minor      uint16           `json:"minor"`
	FileSize   uint64           `json:"file_size"`
	Compressed bool             `json:"compressed"`
	Sections   []SectionSummary `json:"sections"`
	Info       *mcf.ModelInfo   `json:"info,omitempty"`
	Quant      *QuantSummary    `json:"quant,omitempty"`
	Params     []ParamSummary   `json:"params"`
}

type SectionSummary struct {
	Type    string `json:"type"`
	Version uint32 `json:"version"`
	Size    uint64 `json:"size"`
}

type QuantSummary struct {
	Method  string  `json:"method"`
	Scale   float64 `json:"scale"`
	Clipped uint32  `json:"clipped"`
}

type ParamSummary struct {
	Name  string `json:"name"`
	Kind  string `json:"kind"`
	DType string `json:"dtype"`
	Count uint32 `json:"count"`
}

// Inspect opens any MCF file and summarises its sections and records.
func Inspect(path string) (*Summary, error) {
	f, err := mcf.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	s := &Summary{
		Path:       path,
		Major:      f.Header.Major,
		Minor:      f.Header.Minor,
		FileSize:   f.Header.FileSize,
		Compressed: f.Compressed(),
	}
	for _, sec := range f.Sections {
		s.Sections = append(s.Sections, SectionSummary{
			Type:    sec.Type.String(),
			Version: sec.Version,
			Size:    sec.Size,
		})
	}

	if sec := f.Section(mcf.SectionModelInfo); sec != nil {
		info, err := mcf.ParseModelInfo(f.SectionData(sec))
		if err != nil {
			return nil, err
		}
		s.Info = info
	}
	if sec := f.Section(mcf.SectionQuantInfo); sec != nil {
		qi, err := mcf.ParseQuantInfo(f.SectionData(sec))
		if err != nil {
			return nil, err
		}
		s.Quant = &QuantSummary{Method: qi.Method.String(), Scale: qi.Scale, Clipped: qi.Clipped}
	}
	if f.Section(mcf.SectionParams) != nil {
		payload, err := f.Payload(mcf.SectionParams)
		if err != nil {
			return nil, err
		}
		records, err := mcf.ParseParamRecords(payload)
		if err != nil {
			return nil, err
		}
		for _, r := range records {
			s.Params = append(s.Params, ParamSummary{
				Name:  r.Name,
				Kind:  kindName(r.Kind),
				DType: r.DType.String(),
				Count: r.Count,
			})
		}
	}
	return s, nil
}

func kindName(k uint8) string {
	switch k {
	case mcf.ParamScalar:
		return "scalar"
	case mcf.ParamVector:
		return "vector"
	default:
		return fmt.Sprintf("kind(%d)", k)
	}
}
