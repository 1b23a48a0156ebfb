package audio

import "time"

// SampleRate is the fixed capture rate for all microphone audio.
const SampleRate = 16000

// Buffer is an ordered sequence of mono PCM samples in [-1, 1] plus the rate
// they were captured at. Buffers are ephemeral: they are owned by the
// authorization attempt that produced them and must not be retained after
// the attempt concludes.
type Buffer struct {
	Samples []float32
	Rate    int
}

// Duration returns the wall-clock length of the buffer.
func (b Buffer) Duration() time.Duration {
	if b.Rate <= 0 {
		return 0
	}
	return time.Duration(float64(len(b.Samples)) / float64(b.Rate) * float64(time.Second))
}

// Empty reports whether the buffer holds no samples.
func (b Buffer) Empty() bool {
	return len(b.Samples) == 0
}

// FromInt16 converts raw int16 PCM frames to a normalized float32 buffer.
func FromInt16(frames []int16, rate int) Buffer {
	samples := make([]float32, len(frames))
	for i, s := range frames {
		samples[i] = float32(s) / 32768.0
	}
	return Buffer{Samples: samples, Rate: rate}
}

// ToInt16 converts normalized samples back to int16 PCM, clamping overflow.
func (b Buffer) ToInt16() []int16 {
	out := make([]int16, len(b.Samples))
	for i, s := range b.Samples {
		v := s * 32767.0
		switch {
		case v > 32767:
			v = 32767
		case v < -32768:
			v = -32768
		}
		out[i] = int16(v)
	}
	return out
}
