// Package fitting provides per-voxel signal models for the voxel loop.
package fitting

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/filip-szczepankiewicz/md-dmri/pkg/voxelloop"
)

// ADC fits the mono-exponential decay S = S0 * exp(-b * D) to a signal
// acquired at the given b-values and returns [S0, D].
//
// The fit is a least-squares line through (b, log S). Samples that are not
// strictly positive cannot be log-transformed and are left out. With fewer
// than two usable samples the result is [0, 0].
func ADC(bValues []float64) voxelloop.FitFunc {
	return voxelloop.SignalOnly(func(signal []float64) ([]float64, error) {
		if len(signal) != len(bValues) {
			return nil, fmt.Errorf("signal has %d samples, expected %d b-values", len(signal), len(bValues))
		}

		xs := make([]float64, 0, len(signal))
		ys := make([]float64, 0, len(signal))
		for i, s := range signal {
			if s > 0 {
				xs = append(xs, bValues[i])
				ys = append(ys, math.Log(s))
			}
		}
		if len(xs) < 2 {
			return []float64{0, 0}, nil
		}

		// All usable samples at one b-value leave the slope undefined
		if stat.Variance(xs, nil) == 0 {
			return []float64{math.Exp(stat.Mean(ys, nil)), 0}, nil
		}

		alpha, beta := stat.LinearRegression(xs, ys, nil, false)
		return []float64{math.Exp(alpha), -beta}, nil
	})
}

// Moments returns [mean, variance] of the signal.
func Moments() voxelloop.FitFunc {
	return voxelloop.SignalOnly(func(signal []float64) ([]float64, error) {
		mean, variance := stat.MeanVariance(signal, nil)
		if len(signal) < 2 {
			variance = 0
		}
		return []float64{mean, variance}, nil
	})
}

// Weighted returns [weighted mean, unweighted mean] of the signal using the
// supplement as per-sample weights. Without a supplement both entries are the
// plain mean.
func Weighted() voxelloop.FitFunc {
	return func(signal, supplement []float64) ([]float64, error) {
		mean := stat.Mean(signal, nil)
		if supplement == nil {
			return []float64{mean, mean}, nil
		}
		if len(supplement) != len(signal) {
			return nil, fmt.Errorf("supplement has %d samples, signal has %d", len(supplement), len(signal))
		}

		if floats.Sum(supplement) == 0 {
			return []float64{0, mean}, nil
		}
		return []float64{stat.Mean(signal, supplement), mean}, nil
	}
}
