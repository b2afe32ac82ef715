// Package artifact persists model parameters as MCF files in a directory.
package artifact

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/samcharles93/qlinear/internal/linreg"
	"github.com/samcharles93/qlinear/internal/logger"
	"github.com/samcharles93/qlinear/pkg/mcf"
	"github.com/samcharles93/qlinear/pkg/quant"
)

// File names inside the artifacts directory.
const (
	FileModel       = "linear_regression.mcf"
	FileParams      = "unquant_params.mcf"
	FileQuantized   = "quant_params.mcf"
	FileDequantized = "dequant_model.mcf"
)

var ErrNotFound = errors.New("artifact: not found")

// Store reads and writes artifacts under Dir. When Compress is set the
// parameter payloads are zstd-compressed.
type Store struct {
	Dir      string
	Compress bool
}

// New returns a store rooted at dir, creating the directory if needed.
func New(dir string, compress bool) (*Store, error) {
	if dir == "" {
		return nil, errors.New("artifact: empty directory")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("artifact: create %s: %w", dir, err)
	}
	return &Store{Dir: dir, Compress: compress}, nil
}

// Path returns the absolute-or-relative path of a named artifact.
func (s *Store) Path(name string) string {
	return filepath.Join(s.Dir, name)
}

// Meta carries the descriptive fields written to every artifact.
type Meta struct {
	RunID    string
	Features []string
	Target   string
	Scheme   string
	R2       *float64
}

func (m Meta) info(kind string) *mcf.ModelInfo {
	return &mcf.ModelInfo{
		Kind:     kind,
		RunID:    m.RunID,
		Features: m.Features,
		Target:   m.Target,
		Scheme:   m.Scheme,
		R2:       m.R2,
		Created:  time.Now().UTC().Truncate(time.Second),
	}
}

// SaveModel writes a fitted model. name is FileModel or FileDequantized.
func (s *Store) SaveModel(ctx context.Context, name string, m *linreg.Model, meta Meta) error {
	ps, err := m.Params()
	if err != nil {
		return err
	}
	if len(meta.Features) == 0 {
		meta.Features = m.Features
	}
	kind := mcf.KindModel
	if name == FileDequantized {
		kind = mcf.KindDequantizedModel
	}
	params, err := mcf.EncodeParams(ps)
	if err != nil {
		return err
	}
	return s.write(ctx, name, meta.info(kind), nil, params)
}

// LoadModel reads a model artifact and rebuilds the predictor.
func (s *Store) LoadModel(ctx context.Context, name string) (*linreg.Model, *mcf.ModelInfo, error) {
	ps, info, err := s.LoadParams(ctx, name)
	if err != nil {
		return nil, nil, err
	}
	m, err := linreg.FromParams(ps, info.Features)
	if err != nil {
		return nil, nil, fmt.Errorf("artifact %s: %w", name, err)
	}
	return m, info, nil
}

// SaveParams writes an unquantized parameter set to FileParams.
func (s *Store) SaveParams(ctx context.Context, ps quant.ParameterSet, meta Meta) error {
	params, err := mcf.EncodeParams(ps)
	if err != nil {
		return err
	}
	return s.write(ctx, FileParams, meta.info(mcf.KindParams), nil, params)
}

// LoadParams reads float parameters from any artifact holding them.
func (s *Store) LoadParams(ctx context.Context, name string) (quant.ParameterSet, *mcf.ModelInfo, error) {
	f, info, err := s.open(ctx, name)
	if err != nil {
		return nil, nil, err
	}
	defer func() { _ = f.Close() }()

	payload, err := f.Payload(mcf.SectionParams)
	if err != nil {
		return nil, nil, fmt.Errorf("artifact %s: %w", name, err)
	}
	ps, err := mcf.DecodeParams(payload)
	if err != nil {
		return nil, nil, fmt.Errorf("artifact %s: %w", name, err)
	}
	return ps, info, nil
}

// SaveQuantized writes the int8 parameters and their scale to FileQuantized.
func (s *Store) SaveQuantized(ctx context.Context, q quant.QuantizedParameterSet, meta Meta) error {
	if err := q.Validate(); err != nil {
		return err
	}
	qi, err := mcf.EncodeQuantInfo(mcf.QuantInfo{
		Method:  methodFor(meta.Scheme),
		Clipped: uint32(q.Clipped),
		Scale:   q.Scale,
	})
	if err != nil {
		return err
	}
	params, err := mcf.EncodeQuantParams(q)
	if err != nil {
		return err
	}
	return s.write(ctx, FileQuantized, meta.info(mcf.KindQuantizedParams), qi, params)
}

// LoadQuantized reads FileQuantized. A stored scale that is not positive
// and finite is reported as quant.ErrInvalidState.
func (s *Store) LoadQuantized(ctx context.Context) (quant.QuantizedParameterSet, *mcf.ModelInfo, error) {
	f, info, err := s.open(ctx, FileQuantized)
	if err != nil {
		return quant.QuantizedParameterSet{}, nil, err
	}
	defer func() { _ = f.Close() }()

	sec := f.Section(mcf.SectionQuantInfo)
	if sec == nil {
		return quant.QuantizedParameterSet{}, nil, fmt.Errorf("artifact %s: %w: missing quant info", FileQuantized, mcf.ErrCorruptFile)
	}
	qi, err := mcf.ParseQuantInfo(f.SectionData(sec))
	if err != nil {
		return quant.QuantizedParameterSet{}, nil, fmt.Errorf("artifact %s: %w", FileQuantized, err)
	}
	payload, err := f.Payload(mcf.SectionParams)
	if err != nil {
		return quant.QuantizedParameterSet{}, nil, fmt.Errorf("artifact %s: %w", FileQuantized, err)
	}
	values, err := mcf.DecodeQuantParams(payload)
	if err != nil {
		return quant.QuantizedParameterSet{}, nil, fmt.Errorf("artifact %s: %w", FileQuantized, err)
	}

	q := quant.QuantizedParameterSet{Values: values, Scale: qi.Scale, Clipped: int(qi.Clipped)}
	if err := q.Validate(); err != nil {
		return quant.QuantizedParameterSet{}, nil, fmt.Errorf("artifact %s: %w", FileQuantized, err)
	}
	return q, info, nil
}

func (s *Store) open(ctx context.Context, name string) (*mcf.File, *mcf.ModelInfo, error) {
	path := s.Path(name)
	f, err := mcf.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, nil, fmt.Errorf("artifact %s: %w", name, err)
	}
	sec := f.Section(mcf.SectionModelInfo)
	if sec == nil {
		_ = f.Close()
		return nil, nil, fmt.Errorf("artifact %s: %w: missing model info", name, mcf.ErrCorruptFile)
	}
	info, err := mcf.ParseModelInfo(f.SectionData(sec))
	if err != nil {
		_ = f.Close()
		return nil, nil, fmt.Errorf("artifact %s: %w", name, err)
	}
	logger.FromContext(ctx).Debug("artifact opened", logger.KeyPath, path, "kind", info.Kind, "compressed", f.Compressed())
	return f, info, nil
}

// write builds the file in a temporary sibling and renames it into place.
func (s *Store) write(ctx context.Context, name string, info *mcf.ModelInfo, quantInfo, params []byte) (err error) {
	mi, err := mcf.EncodeModelInfo(info)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(s.Dir, "."+name+".*")
	if err != nil {
		return fmt.Errorf("artifact %s: %w", name, err)
	}
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmp.Name())
		}
	}()

	w, err := mcf.NewWriter(tmp)
	if err != nil {
		return err
	}
	if s.Compress {
		if err = w.AddFlags(mcf.FlagPayloadZstd); err != nil {
			return err
		}
	}
	if err = w.WriteSection(mcf.SectionModelInfo, mcf.ModelInfoVersion, mi); err != nil {
		return err
	}
	if quantInfo != nil {
		if err = w.WriteSection(mcf.SectionQuantInfo, mcf.QuantInfoVersion, quantInfo); err != nil {
			return err
		}
	}
	if err = w.WritePayload(mcf.SectionParams, mcf.ParamsVersion, params); err != nil {
		return err
	}
	if err = w.Finalise(); err != nil {
		return err
	}
	if err = tmp.Sync(); err != nil {
		return err
	}
	if err = tmp.Close(); err != nil {
		return err
	}
	path := s.Path(name)
	if err = os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("artifact %s: %w", name, err)
	}

	logger.FromContext(ctx).Debug("artifact written", logger.KeyPath, path, "kind", info.Kind, "compressed", s.Compress)
	return nil
}

func methodFor(scheme string) mcf.QuantMethod {
	switch scheme {
	case quant.SchemeFixed:
		return mcf.MethodFixed
	case quant.SchemeSymmetricInt8, "":
		return mcf.MethodSymInt8
	default:
		return mcf.MethodUnknown
	}
}
