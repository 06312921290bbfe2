package audio

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/go-audio/wav"
)

var (
	// ErrNotRIFF indicates the input does not start with a RIFF header.
	ErrNotRIFF = errors.New("audio: not a RIFF file")

	// ErrNotWAVE indicates a RIFF file of a form other than WAVE.
	ErrNotWAVE = errors.New("audio: not a WAVE file")

	// ErrUnsupported indicates a WAV encoding this reader cannot decode.
	ErrUnsupported = errors.New("audio: unsupported WAV encoding")

	// ErrMissingChunk indicates the fmt or data chunk is absent.
	ErrMissingChunk = errors.New("audio: missing WAV chunk")
)

const formatPCM = 1

// WAVHeader holds the parsed RIFF/WAV header fields.
type WAVHeader struct {
	SampleRate    uint32
	BitsPerSample uint16
	NumChannels   uint16 // channels in the file; samples are always mono
	NumSamples    int    // mono samples returned
}

// ReadWAV reads an integer PCM WAV stream (8, 16, 24 or 32 bits) and returns
// float64 samples in [-1.0, 1.0). Multi-channel audio is averaged down to
// mono. The sample rate is reported, not enforced.
//
// Samples are read until the data chunk or the stream ends, whichever comes
// first, so a bogus data size does not drive the allocation.
func ReadWAV(r io.ReadSeeker) ([]float64, WAVHeader, error) {
	var h WAVHeader
	if err := checkRIFF(r); err != nil {
		return nil, h, err
	}

	d := wav.NewDecoder(r)
	d.ReadInfo()
	if err := d.Err(); err != nil {
		return nil, h, fmt.Errorf("read WAV header: %w", err)
	}
	if d.NumChans == 0 {
		return nil, h, fmt.Errorf("%w: fmt", ErrMissingChunk)
	}

	switch {
	case d.WavAudioFormat != formatPCM:
		return nil, h, fmt.Errorf("%w: audio format %d (only PCM=1)", ErrUnsupported, d.WavAudioFormat)
	case d.BitDepth != 8 && d.BitDepth != 16 && d.BitDepth != 24 && d.BitDepth != 32:
		return nil, h, fmt.Errorf("%w: %d bits per sample", ErrUnsupported, d.BitDepth)
	case d.SampleRate == 0:
		return nil, h, fmt.Errorf("%w: zero sample rate", ErrUnsupported)
	}
	h.SampleRate = d.SampleRate
	h.NumChannels = d.NumChans
	h.BitsPerSample = d.BitDepth

	buf, err := d.FullPCMBuffer()
	if d.PCMChunk == nil {
		return nil, h, fmt.Errorf("%w: data", ErrMissingChunk)
	}
	if err != nil {
		return nil, h, fmt.Errorf("read PCM data: %w", err)
	}

	samples := downmix(buf.Data, int(h.NumChannels), int(h.BitsPerSample))
	h.NumSamples = len(samples)
	return samples, h, nil
}

// ReadWAVFile is a convenience wrapper that opens a file path.
func ReadWAVFile(path string) ([]float64, WAVHeader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, WAVHeader{}, err
	}
	defer f.Close()
	return ReadWAV(f)
}

// checkRIFF validates the 12-byte RIFF/WAVE preamble and rewinds r.
func checkRIFF(r io.ReadSeeker) error {
	var riff struct {
		ID   [4]byte
		Size uint32
		Form [4]byte
	}
	if err := binary.Read(r, binary.LittleEndian, &riff); err != nil {
		return fmt.Errorf("read RIFF header: %w", err)
	}
	if string(riff.ID[:]) != "RIFF" {
		return ErrNotRIFF
	}
	if string(riff.Form[:]) != "WAVE" {
		return ErrNotWAVE
	}
	if _, err := r.Seek(-12, io.SeekCurrent); err != nil {
		return fmt.Errorf("rewind RIFF header: %w", err)
	}
	return nil
}

// downmix averages interleaved integer PCM into mono floats. A trailing
// partial frame is dropped. 8-bit PCM is unsigned, wider depths are signed.
func downmix(data []int, channels, bits int) []float64 {
	offset := 0
	if bits == 8 {
		offset = 128
	}
	full := float64(int64(1) << (bits - 1))
	scale := 1.0 / (full * float64(channels))

	samples := make([]float64, len(data)/channels)
	for i := range samples {
		sum := 0
		for _, s := range data[i*channels : (i+1)*channels] {
			sum += s - offset
		}
		samples[i] = float64(sum) * scale
	}
	return samples
}
