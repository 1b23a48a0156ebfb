package audio

// Ring is a fixed-size circular buffer of int16 PCM samples. The trigger
// detector keeps the most recent window of microphone audio in one so the
// wake phrase can be transcribed without gaps between reads.
type Ring struct {
	buffer []int16
	head   int
	filled int
}

// NewRing creates a ring holding size samples.
func NewRing(size int) *Ring {
	return &Ring{buffer: make([]int16, size)}
}

// Add appends samples, overwriting the oldest when full.
func (r *Ring) Add(samples []int16) {
	for _, s := range samples {
		r.buffer[r.head] = s
		r.head = (r.head + 1) % len(r.buffer)
		if r.filled < len(r.buffer) {
			r.filled++
		}
	}
}

// Read returns the buffered samples oldest-first. Before the ring has
// wrapped, only the samples actually written are returned.
func (r *Ring) Read() []int16 {
	out := make([]int16, r.filled)
	start := (r.head - r.filled + len(r.buffer)) % len(r.buffer)
	for i := 0; i < r.filled; i++ {
		out[i] = r.buffer[(start+i)%len(r.buffer)]
	}
	return out
}

// Clear zeroes the ring.
func (r *Ring) Clear() {
	for i := range r.buffer {
		r.buffer[i] = 0
	}
	r.head = 0
	r.filled = 0
}
