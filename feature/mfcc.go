package feature

import (
	"errors"
	"fmt"
)

// ErrTooShort is returned when the audio does not hold a single frame.
var ErrTooShort = errors.New("feature: audio too short for a single frame")

// Config holds all MFCC extraction parameters.
type Config struct {
	SampleRate    int
	FrameLenMs    float64 // frame length in milliseconds
	FrameShiftMs  float64 // frame shift in milliseconds
	PreEmphCoeff  float64
	NumMelFilters int
	NumCepstra    int
	LowFreq       float64
	HighFreq      float64
	FFTSize       int
	UseDelta      bool
	UseDeltaDelta bool
	CepLifter     int
	UseCMN        bool          // live cepstral mean normalization
	CMN           LiveCMNConfig // parameters for UseCMN
}

// DefaultConfig returns the standard MFCC configuration.
func DefaultConfig() Config {
	return Config{
		SampleRate:    16000,
		FrameLenMs:    25.0,
		FrameShiftMs:  10.0,
		PreEmphCoeff:  0.97,
		NumMelFilters: 26,
		NumCepstra:    13,
		LowFreq:       0,
		HighFreq:      8000,
		FFTSize:       512,
		UseDelta:      true,
		UseDeltaDelta: true,
		CepLifter:     22,
		UseCMN:        true,
		CMN:           DefaultLiveCMNConfig(),
	}
}

// FeatureDim returns the total feature vector dimension.
func (c Config) FeatureDim() int {
	d := c.NumCepstra
	if c.UseDelta {
		d += c.NumCepstra
		if c.UseDeltaDelta {
			d += c.NumCepstra
		}
	}
	return d
}

// FrameLen returns the frame length in samples.
func (c Config) FrameLen() int {
	return int(c.FrameLenMs * float64(c.SampleRate) / 1000.0)
}

// FrameShift returns the frame shift in samples.
func (c Config) FrameShift() int {
	return int(c.FrameShiftMs * float64(c.SampleRate) / 1000.0)
}

// Validate checks that the configuration describes a usable front end.
func (c Config) Validate() error {
	switch {
	case c.SampleRate <= 0:
		return fmt.Errorf("feature: sample rate %d must be positive", c.SampleRate)
	case c.FrameLen() <= 0 || c.FrameShift() <= 0:
		return fmt.Errorf("feature: frame length %gms / shift %gms too small", c.FrameLenMs, c.FrameShiftMs)
	case c.FFTSize <= 0 || c.FFTSize&(c.FFTSize-1) != 0:
		return fmt.Errorf("feature: fft size %d must be a power of two", c.FFTSize)
	case c.FrameLen() > c.FFTSize:
		return fmt.Errorf("feature: frame length %d exceeds fft size %d", c.FrameLen(), c.FFTSize)
	case c.NumCepstra <= 0 || c.NumMelFilters <= 0:
		return fmt.Errorf("feature: need positive cepstra (%d) and mel filters (%d)", c.NumCepstra, c.NumMelFilters)
	}
	if c.UseCMN {
		return c.CMN.Validate()
	}
	return nil
}

// Extractor turns audio frames into cepstral vectors. All tables and work
// buffers are built once, so Cepstrum does not allocate. An Extractor is not
// safe for concurrent use.
type Extractor struct {
	cfg    Config
	window []float64
	fft    *fftWorkspace
	mel    *MelFilterbank
	dct    dctTable
	lifter lifterTable
	melBuf []float64
}

// NewExtractor validates cfg and builds an Extractor for it.
func NewExtractor(cfg Config) (*Extractor, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	e := &Extractor{
		cfg:    cfg,
		window: hammingWindow(cfg.FrameLen()),
		fft:    newFFTWorkspace(cfg.FFTSize),
		mel:    NewMelFilterbank(cfg.NumMelFilters, cfg.FFTSize, cfg.SampleRate, cfg.LowFreq, cfg.HighFreq),
		dct:    newDCTTable(cfg.NumCepstra, cfg.NumMelFilters),
		melBuf: make([]float64, cfg.NumMelFilters),
	}
	if cfg.CepLifter > 0 {
		e.lifter = newLifterTable(cfg.NumCepstra, cfg.CepLifter)
	}
	return e, nil
}

// Config returns the extractor configuration.
func (e *Extractor) Config() Config { return e.cfg }

// NumFrames returns the number of frames n samples produce.
func (e *Extractor) NumFrames(n int) int {
	return NumFrames(n, e.cfg.FrameLen(), e.cfg.FrameShift())
}

// Cepstrum computes the cepstral vector of one pre-emphasized frame into dst,
// which must hold NumCepstra values.
func (e *Extractor) Cepstrum(frame, dst []float64) {
	ps := e.fft.powerSpectrum(frame, e.window)
	e.mel.applyInto(ps, e.melBuf)
	e.dct.applyInto(e.melBuf, dst)
	if e.lifter != nil {
		e.lifter.apply(dst)
	}
}

// Cepstra computes raw (unnormalized, no deltas) cepstra for every frame.
// Returns a matrix of shape [numFrames][NumCepstra].
func (e *Extractor) Cepstra(samples []float64) ([][]float64, error) {
	if len(samples) == 0 {
		return nil, fmt.Errorf("feature: empty samples")
	}
	nFrames := e.NumFrames(len(samples))
	if nFrames == 0 {
		return nil, ErrTooShort
	}

	emphasized := PreEmphasize(samples, e.cfg.PreEmphCoeff)
	frameLen, shift, nc := e.cfg.FrameLen(), e.cfg.FrameShift(), e.cfg.NumCepstra

	out := make([][]float64, nFrames)
	buf := make([]float64, nFrames*nc)
	for i := range out {
		start := i * shift
		out[i] = buf[i*nc : (i+1)*nc]
		e.Cepstrum(emphasized[start:start+frameLen], out[i])
	}
	return out, nil
}

// Extract computes MFCC features for a single utterance.
// With cfg.UseCMN the cepstra pass through a fresh LiveCMN, which is closed
// with EndOfStream. Use a shared LiveCMN directly to carry the mean across
// utterances.
// Returns a matrix of shape [numFrames][cfg.FeatureDim()].
func Extract(samples []float64, cfg Config) ([][]float64, error) {
	e, err := NewExtractor(cfg)
	if err != nil {
		return nil, err
	}
	feats, err := e.Cepstra(samples)
	if err != nil {
		return nil, err
	}

	if cfg.UseCMN {
		cmn, err := NewLiveCMN(cfg.CMN)
		if err != nil {
			return nil, err
		}
		for t, f := range feats {
			if err := cmn.Normalize(f); err != nil {
				return nil, fmt.Errorf("normalize frame %d: %w", t, err)
			}
		}
		cmn.EndOfStream()
	}

	return WithDeltas(feats, cfg), nil
}

// WithDeltas appends the delta columns cfg asks for.
func WithDeltas(feats [][]float64, cfg Config) [][]float64 {
	if !cfg.UseDelta {
		return feats
	}
	return AppendDeltas(feats, cfg.UseDeltaDelta)
}
