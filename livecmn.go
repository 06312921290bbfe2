// Package livecmn is a speech front end that computes cepstral features and
// normalizes them with a live (causal) cepstral mean estimate shared across
// utterances.
package livecmn

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/ieee0824/livecmn-go/audio"
	"github.com/ieee0824/livecmn-go/feature"
	"github.com/ieee0824/livecmn-go/frontend"
)

// Frontend turns utterances into mean-normalized feature matrices. One
// LiveCMN instance serves every utterance, so each starts from the mean
// the previous ones left behind. Not safe for concurrent use.
type Frontend struct {
	cfg    feature.Config
	cmnCfg *feature.LiveCMNConfig // from WithCMNConfig, applied over cfg
	logger *slog.Logger
	ext    *feature.Extractor
	cmn    *feature.LiveCMN
}

// Option configures a Frontend.
type Option func(*Frontend)

// WithFeatureConfig sets custom MFCC parameters.
func WithFeatureConfig(cfg feature.Config) Option {
	return func(f *Frontend) {
		f.cfg = cfg
	}
}

// WithCMNConfig sets the live CMN parameters and enables normalization.
// It takes precedence over the CMN fields of WithFeatureConfig regardless
// of option order.
func WithCMNConfig(cfg feature.LiveCMNConfig) Option {
	return func(f *Frontend) {
		f.cmnCfg = &cfg
	}
}

// WithLogger sets the logger used by the processing stages.
func WithLogger(l *slog.Logger) Option {
	return func(f *Frontend) {
		f.logger = l
	}
}

// New creates a Frontend. The default feature configuration applies unless
// overridden by opts.
func New(opts ...Option) (*Frontend, error) {
	f := &Frontend{cfg: feature.DefaultConfig()}
	for _, opt := range opts {
		opt(f)
	}
	if f.cmnCfg != nil {
		f.cfg.UseCMN = true
		f.cfg.CMN = *f.cmnCfg
	}
	if f.logger == nil {
		f.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	var err error
	f.ext, err = feature.NewExtractor(f.cfg)
	if err != nil {
		return nil, fmt.Errorf("feature config: %w", err)
	}
	if f.cfg.UseCMN {
		f.cmn, err = feature.NewLiveCMN(f.cfg.CMN)
		if err != nil {
			return nil, fmt.Errorf("cmn config: %w", err)
		}
	}
	return f, nil
}

// Config returns the feature configuration the Frontend was built with.
func (f *Frontend) Config() feature.Config { return f.cfg }

// CMN returns the shared normalizer, or nil when normalization is disabled.
func (f *Frontend) CMN() *feature.LiveCMN { return f.cmn }

// ProcessFile reads a WAV file and processes it as one utterance.
func (f *Frontend) ProcessFile(wavPath string) ([][]float64, error) {
	samples, h, err := audio.ReadWAVFile(wavPath)
	if err != nil {
		return nil, fmt.Errorf("read WAV: %w", err)
	}
	if int(h.SampleRate) != f.cfg.SampleRate {
		return nil, fmt.Errorf("read WAV: sample rate %d, front end expects %d", h.SampleRate, f.cfg.SampleRate)
	}
	f.logger.Debug("read utterance", "path", wavPath, "samples", len(samples), "channels", h.NumChannels)
	return f.ProcessSamples(samples)
}

// ProcessSamples computes features for one utterance of raw samples.
// Returns a matrix of shape [numFrames][Config().FeatureDim()].
func (f *Frontend) ProcessSamples(samples []float64) ([][]float64, error) {
	frames, err := frontend.NewFrameSource(f.ext, samples)
	if err != nil {
		return nil, fmt.Errorf("extract features: %w", err)
	}
	var src frontend.Source = frames
	if f.cmn != nil {
		src = frontend.NewCMNStage(src, f.cmn, f.logger)
	}

	items, err := frontend.Collect(src)
	if err != nil {
		return nil, fmt.Errorf("extract features: %w", err)
	}
	return feature.WithDeltas(frontend.Vectors(items), f.cfg), nil
}
