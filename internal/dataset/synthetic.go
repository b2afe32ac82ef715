package dataset

import (
	"math"
	"math/rand/v2"
)

// HousingFeatures are the column names of the synthetic housing data.
var HousingFeatures = []string{
	"MedInc", "HouseAge", "AveRooms", "AveBedrms",
	"Population", "AveOccup", "Latitude", "Longitude",
}

// HousingTarget is the synthetic target column name.
const HousingTarget = "MedHouseVal"

// housingSignal roughly follows an OLS fit of the California housing data.
var (
	housingCoef      = []float64{0.44, 0.0097, -0.107, 0.645, -4e-6, -0.0038, -0.42, -0.434}
	housingIntercept = -37.0
)

const housingNoise = 0.5

// Synthetic generates n housing-like samples with a linear signal plus
// Gaussian noise. Output is fully determined by seed.
func Synthetic(n int, seed uint64) (*Dataset, error) {
	if n <= 0 {
		return nil, ErrEmpty
	}
	rng := rand.New(rand.NewPCG(seed, seed+1))

	ds := &Dataset{
		Features:     make([][]float64, n),
		Target:       make([]float64, n),
		FeatureNames: HousingFeatures,
		TargetName:   HousingTarget,
	}
	for i := range n {
		x := []float64{
			math.Min(0.5+rng.ExpFloat64()*3.4, 15),
			float64(1 + rng.IntN(52)),
			math.Max(1, 5.4+rng.NormFloat64()*1.2),
			0.9 + rng.Float64()*0.3,
			3 + rng.ExpFloat64()*1400,
			1.5 + rng.Float64()*3,
			32.5 + rng.Float64()*9.5,
			-124.3 + rng.Float64()*10,
		}
		y := housingIntercept + rng.NormFloat64()*housingNoise
		for j, c := range housingCoef {
			y += c * x[j]
		}
		ds.Features[i] = x
		ds.Target[i] = y
	}
	return ds, nil
}
