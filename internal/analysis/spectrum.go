// Package analysis provides frequency analysis of recorded trajectories.
package analysis

import (
	"math"
	"math/cmplx"
)

// Resample interpolates an irregularly sampled series onto n evenly
// spaced points. Adaptive integration produces uneven sample times, so
// series must be resampled before a spectrum is meaningful.
func Resample(times, values []float64, n int) []float64 {
	if len(times) < 2 || len(times) != len(values) || n < 2 {
		return nil
	}
	t0, t1 := times[0], times[len(times)-1]
	if t1 <= t0 {
		return nil
	}
	out := make([]float64, n)
	j := 0
	for i := 0; i < n; i++ {
		t := t0 + (t1-t0)*float64(i)/float64(n-1)
		for j < len(times)-2 && times[j+1] < t {
			j++
		}
		span := times[j+1] - times[j]
		if span <= 0 {
			out[i] = values[j]
			continue
		}
		frac := (t - times[j]) / span
		out[i] = values[j] + frac*(values[j+1]-values[j])
	}
	return out
}

// FFT computes the discrete Fourier transform of data, whose length must
// be a power of two.
func FFT(data []float64) []complex128 {
	n := len(data)
	if n <= 1 {
		result := make([]complex128, n)
		for i := range data {
			result[i] = complex(data[i], 0)
		}
		return result
	}

	if n%2 != 0 {
		panic("fft requires power of 2 length")
	}

	even := make([]float64, n/2)
	odd := make([]float64, n/2)
	for i := 0; i < n/2; i++ {
		even[i] = data[2*i]
		odd[i] = data[2*i+1]
	}

	feven := FFT(even)
	fodd := FFT(odd)

	result := make([]complex128, n)
	for k := 0; k < n/2; k++ {
		w := cmplx.Exp(complex(0, -2*math.Pi*float64(k)/float64(n)))
		result[k] = feven[k] + w*fodd[k]
		result[k+n/2] = feven[k] - w*fodd[k]
	}
	return result
}

// PowerSpectrum resamples the series onto a power-of-two grid, removes
// its mean and returns the magnitude of the positive frequency bins.
func PowerSpectrum(times, values []float64) []float64 {
	n := 1
	for n < len(times) {
		n *= 2
	}
	data := Resample(times, values, n)
	if data == nil {
		return nil
	}
	mean := 0.0
	for _, v := range data {
		mean += v
	}
	mean /= float64(n)
	for i := range data {
		data[i] -= mean
	}

	fft := FFT(data)
	ps := make([]float64, len(fft)/2)
	for i := range ps {
		ps[i] = cmplx.Abs(fft[i])
	}
	return ps
}

// DominantFrequency returns the strongest frequency in hertz, or 0 when
// the series is too short to analyze.
func DominantFrequency(times, values []float64) float64 {
	ps := PowerSpectrum(times, values)
	if len(ps) < 2 {
		return 0
	}
	maxIdx := 1
	for i := 2; i < len(ps); i++ {
		if ps[i] > ps[maxIdx] {
			maxIdx = i
		}
	}
	span := times[len(times)-1] - times[0]
	if span <= 0 {
		return 0
	}
	return float64(maxIdx) / span
}
