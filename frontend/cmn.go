package frontend

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/ieee0824/livecmn-go/feature"
)

// CMNStage applies live cepstral mean normalization to the vectors it pulls
// from its predecessor. It emits exactly one item per input item, in order,
// with no buffering. Vectors are normalized in place; end-of-stream markers
// force a mean update and are forwarded; signals pass through untouched.
type CMNStage struct {
	src    Source
	cmn    *feature.LiveCMN
	logger *slog.Logger
	frame  int // vectors seen in the current stream
}

// NewCMNStage wraps src. cmn may be shared by successive stages so the mean
// estimate carries across streams. A nil logger discards log output.
func NewCMNStage(src Source, cmn *feature.LiveCMN, logger *slog.Logger) *CMNStage {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &CMNStage{src: src, cmn: cmn, logger: logger}
}

// Next implements Source. A dimension mismatch is returned as an error
// wrapping feature.ErrDimensionMismatch; the offending vector is left as is.
func (s *CMNStage) Next() (Data, error) {
	d, err := s.src.Next()
	if err != nil {
		return Data{}, err
	}
	if err := s.Process(d); err != nil {
		return Data{}, err
	}
	return d, nil
}

// Process applies the stage to a single item.
func (s *CMNStage) Process(d Data) error {
	switch d.Kind {
	case KindVector:
		if err := s.cmn.Normalize(d.Values); err != nil {
			return fmt.Errorf("cmn frame %d: %w", s.frame, err)
		}
		s.frame++
	case KindEndOfStream:
		s.cmn.EndOfStream()
		s.logger.Debug("cmn end of stream",
			"frames", s.frame,
			"pending", s.cmn.Frames(),
			"dim", s.cmn.Dim(),
			"c0_mean", firstOr(s.cmn.Mean(), 0))
		s.frame = 0
	}
	return nil
}

func firstOr(v []float64, def float64) float64 {
	if len(v) == 0 {
		return def
	}
	return v[0]
}
