// Package feature extracts the acoustic feature vector used for speaker
// verification. Extraction is deterministic: identical audio always yields
// an identical vector, which keeps enrollment and verification reproducible.
package feature

import (
	"errors"
	"math"

	"github.com/mjibson/go-dsp/fft"
	"github.com/mjibson/go-dsp/window"

	"github.com/vishwakarma-31/jarvis/internal/audio"
)

// NumCoefficients is the dimensionality of the speaker feature vector.
const NumCoefficients = 13

const (
	frameLen   = 400 // 25ms at 16kHz
	frameStep  = 160 // 10ms hop
	fftSize    = 512
	numFilters = 26
	preEmph    = 0.97
	logFloor   = 1e-10
)

// ErrTooShort means the utterance does not contain one full analysis frame.
// The gate's no-speech check normally fires first; this guards direct calls.
var ErrTooShort = errors.New("utterance too short for feature extraction")

// Extract computes per-frame MFCCs over the utterance and returns their
// arithmetic mean as a fixed NumCoefficients-length vector.
func Extract(buf audio.Buffer) ([]float64, error) {
	if len(buf.Samples) < frameLen {
		return nil, ErrTooShort
	}

	emphasized := make([]float64, len(buf.Samples))
	emphasized[0] = float64(buf.Samples[0])
	for i := 1; i < len(buf.Samples); i++ {
		emphasized[i] = float64(buf.Samples[i]) - preEmph*float64(buf.Samples[i-1])
	}

	rate := buf.Rate
	if rate <= 0 {
		rate = audio.SampleRate
	}

	hamming := window.Hamming(frameLen)
	filters := melFilterbank(rate)

	mean := make([]float64, NumCoefficients)
	frames := 0
	for start := 0; start+frameLen <= len(emphasized); start += frameStep {
		coeffs := frameMFCC(emphasized[start:start+frameLen], hamming, filters)
		for i, c := range coeffs {
			mean[i] += c
		}
		frames++
	}

	for i := range mean {
		mean[i] /= float64(frames)
	}
	return mean, nil
}

func frameMFCC(frame, hamming []float64, filters [][]float64) [NumCoefficients]float64 {
	windowed := make([]float64, fftSize)
	for i := range frame {
		windowed[i] = frame[i] * hamming[i]
	}

	spectrum := fft.FFTReal(windowed)
	power := make([]float64, fftSize/2+1)
	for i := range power {
		re := real(spectrum[i])
		im := imag(spectrum[i])
		power[i] = (re*re + im*im) / float64(fftSize)
	}

	var logEnergies [numFilters]float64
	for f, filter := range filters {
		var e float64
		for i, w := range filter {
			if w != 0 {
				e += power[i] * w
			}
		}
		logEnergies[f] = math.Log(e + logFloor)
	}

	// DCT-II of the log filterbank energies.
	var coeffs [NumCoefficients]float64
	for k := 0; k < NumCoefficients; k++ {
		var sum float64
		for n := 0; n < numFilters; n++ {
			sum += logEnergies[n] * math.Cos(math.Pi*float64(k)*(float64(n)+0.5)/float64(numFilters))
		}
		coeffs[k] = sum
	}
	return coeffs
}

// melFilterbank builds numFilters triangular filters spanning 0..Nyquist on
// the mel scale, each mapped onto the power spectrum bins.
func melFilterbank(rate int) [][]float64 {
	bins := fftSize/2 + 1
	low := hzToMel(0)
	high := hzToMel(float64(rate) / 2)

	points := make([]int, numFilters+2)
	for i := range points {
		mel := low + (high-low)*float64(i)/float64(numFilters+1)
		hz := melToHz(mel)
		points[i] = int(math.Floor((float64(fftSize) + 1) * hz / float64(rate)))
		if points[i] >= bins {
			points[i] = bins - 1
		}
	}

	filters := make([][]float64, numFilters)
	for f := 0; f < numFilters; f++ {
		filter := make([]float64, bins)
		left, center, right := points[f], points[f+1], points[f+2]
		for i := left; i < center; i++ {
			if center > left {
				filter[i] = float64(i-left) / float64(center-left)
			}
		}
		for i := center; i <= right && i < bins; i++ {
			if right > center {
				filter[i] = float64(right-i) / float64(right-center)
			}
		}
		filters[f] = filter
	}
	return filters
}

func hzToMel(hz float64) float64 {
	return 2595 * math.Log10(1+hz/700)
}

func melToHz(mel float64) float64 {
	return 700 * (math.Pow(10, mel/2595) - 1)
}
