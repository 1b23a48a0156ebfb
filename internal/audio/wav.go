package audio

import (
	"fmt"

	gowav "github.com/go-audio/wav"
	"github.com/spf13/afero"
	wave "github.com/zenwerk/go-wave"
)

// WriteWAV writes a buffer as 16-bit mono WAV through the given filesystem.
// Used to keep enrollment samples on disk for inspection.
func WriteWAV(fs afero.Fs, path string, buf Buffer) error {
	file, err := fs.Create(path)
	if err != nil {
		return fmt.Errorf("create wav: %w", err)
	}
	defer file.Close()

	writer, err := wave.NewWriter(wave.WriterParam{
		Out:           file,
		Channel:       1,
		SampleRate:    buf.Rate,
		BitsPerSample: 16,
	})
	if err != nil {
		return fmt.Errorf("wav writer: %w", err)
	}

	if _, err := writer.WriteSample16(buf.ToInt16()); err != nil {
		writer.Close()
		return fmt.Errorf("write samples: %w", err)
	}
	return writer.Close()
}

// ReadWAV loads a 16-bit PCM WAV file into a buffer. Test fixtures and
// file-based transcription go through here.
func ReadWAV(fs afero.Fs, path string) (Buffer, error) {
	file, err := fs.Open(path)
	if err != nil {
		return Buffer{}, fmt.Errorf("open wav: %w", err)
	}
	defer file.Close()

	decoder := gowav.NewDecoder(file)
	pcm, err := decoder.FullPCMBuffer()
	if err != nil {
		return Buffer{}, fmt.Errorf("decode wav: %w", err)
	}
	if pcm == nil || pcm.Format == nil {
		return Buffer{}, fmt.Errorf("decode wav: empty file")
	}

	f32 := pcm.AsFloat32Buffer()
	return Buffer{Samples: f32.Data, Rate: pcm.Format.SampleRate}, nil
}
