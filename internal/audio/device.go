package audio

import (
	"errors"
	"sync"
)

// ErrDeviceBusy is returned when a second authorization attempt tries to
// acquire the microphone while another attempt holds it.
var ErrDeviceBusy = errors.New("audio device busy")

// Device is an advisory exclusive-access lock for one physical microphone.
// Capture must never run concurrently on the same device: interleaved reads
// would corrupt both attempts' audio frames. A second acquirer fails fast
// with ErrDeviceBusy rather than queueing.
type Device struct {
	mu sync.Mutex
}

// NewDevice returns an unheld device lock.
func NewDevice() *Device {
	return &Device{}
}

// Acquire takes exclusive ownership of the device. It returns a release
// function that must be called on every exit path of the attempt, or
// ErrDeviceBusy if the device is already held.
func (d *Device) Acquire() (func(), error) {
	if !d.mu.TryLock() {
		return nil, ErrDeviceBusy
	}
	var once sync.Once
	return func() { once.Do(d.mu.Unlock) }, nil
}
