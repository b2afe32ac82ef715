// Package dataset loads tabular regression data and produces deterministic
// train/test splits.
package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"math/rand/v2"
	"slices"
	"strconv"
	"strings"
)

var ErrEmpty = errors.New("dataset: no samples")

// Dataset is a feature matrix with one numeric target per row.
type Dataset struct {
	Features     [][]float64
	Target       []float64
	FeatureNames []string
	TargetName   string
}

// Len returns the number of samples.
func (d *Dataset) Len() int { return len(d.Target) }

// Head returns the first n samples, or all of them when n <= 0 or n > Len.
func (d *Dataset) Head(n int) *Dataset {
	if n <= 0 || n > d.Len() {
		n = d.Len()
	}
	return &Dataset{
		Features:     d.Features[:n],
		Target:       d.Target[:n],
		FeatureNames: d.FeatureNames,
		TargetName:   d.TargetName,
	}
}

// LoadCSV reads a CSV file with a header row. The target column is chosen
// by name; an empty name selects the last column. Every other column is a
// feature and every cell must parse as a float.
func LoadCSV(r io.Reader, target string) (*Dataset, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, ErrEmpty
	}
	if err != nil {
		return nil, fmt.Errorf("dataset: read header: %w", err)
	}
	if len(header) < 2 {
		return nil, fmt.Errorf("dataset: need at least one feature and a target, got %d columns", len(header))
	}

	targetIdx := len(header) - 1
	if target != "" {
		targetIdx = slices.IndexFunc(header, func(h string) bool { return strings.TrimSpace(h) == target })
		if targetIdx < 0 {
			return nil, fmt.Errorf("dataset: target column %q not in header", target)
		}
	}

	ds := &Dataset{TargetName: strings.TrimSpace(header[targetIdx])}
	for i, h := range header {
		if i != targetIdx {
			ds.FeatureNames = append(ds.FeatureNames, strings.TrimSpace(h))
		}
	}

	for line := 2; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("dataset: %w", err)
		}
		row := make([]float64, 0, len(ds.FeatureNames))
		for i, cell := range rec {
			v, err := strconv.ParseFloat(strings.TrimSpace(cell), 64)
			if err != nil {
				return nil, fmt.Errorf("dataset: line %d column %q: %w", line, strings.TrimSpace(header[i]), err)
			}
			if i == targetIdx {
				ds.Target = append(ds.Target, v)
			} else {
				row = append(row, v)
			}
		}
		ds.Features = append(ds.Features, row)
	}

	if ds.Len() == 0 {
		return nil, ErrEmpty
	}
	return ds, nil
}

// Split shuffles the sample order with a seeded PCG source and holds out
// ceil(testSize*n) samples for testing. The same seed always yields the
// same partition.
func Split(d *Dataset, testSize float64, seed uint64) (train, test *Dataset, err error) {
	n := d.Len()
	if n == 0 {
		return nil, nil, ErrEmpty
	}
	if !(testSize > 0 && testSize < 1) {
		return nil, nil, fmt.Errorf("dataset: test size %v must be in (0, 1)", testSize)
	}
	nTest := int(math.Ceil(float64(n) * testSize))
	if nTest >= n {
		return nil, nil, fmt.Errorf("dataset: %d samples too few for test size %v", n, testSize)
	}

	perm := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)).Perm(n)
	return d.subset(perm[nTest:]), d.subset(perm[:nTest]), nil
}

func (d *Dataset) subset(idx []int) *Dataset {
	out := &Dataset{
		Features:     make([][]float64, len(idx)),
		Target:       make([]float64, len(idx)),
		FeatureNames: d.FeatureNames,
		TargetName:   d.TargetName,
	}
	for i, j := range idx {
		out.Features[i] = d.Features[j]
		out.Target[i] = d.Target[j]
	}
	return out
}
