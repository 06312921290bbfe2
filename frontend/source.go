package frontend

import (
	"errors"
	"io"

	"github.com/ieee0824/livecmn-go/feature"
)

// Source produces Data items one at a time. Next returns io.EOF once the
// input is exhausted; that is not an item and is never passed to a stage's
// logic.
type Source interface {
	Next() (Data, error)
}

// SliceSource replays a fixed list of items.
type SliceSource struct {
	items []Data
	pos   int
}

// NewSliceSource returns a Source yielding items in order.
func NewSliceSource(items ...Data) *SliceSource {
	return &SliceSource{items: items}
}

// Next implements Source.
func (s *SliceSource) Next() (Data, error) {
	if s.pos >= len(s.items) {
		return Data{}, io.EOF
	}
	d := s.items[s.pos]
	s.pos++
	return d, nil
}

// FrameSource computes cepstra for one utterance lazily, one frame per Next,
// and closes the utterance with an end-of-stream marker.
type FrameSource struct {
	ext        *feature.Extractor
	emphasized []float64
	frame      int
	nFrames    int
	ended      bool
}

// NewFrameSource returns a Source over the frames of samples.
func NewFrameSource(ext *feature.Extractor, samples []float64) (*FrameSource, error) {
	if len(samples) == 0 {
		return nil, errors.New("frontend: empty samples")
	}
	n := ext.NumFrames(len(samples))
	if n == 0 {
		return nil, feature.ErrTooShort
	}
	return &FrameSource{
		ext:        ext,
		emphasized: feature.PreEmphasize(samples, ext.Config().PreEmphCoeff),
		nFrames:    n,
	}, nil
}

// Next implements Source. Every vector is freshly allocated, so downstream
// stages may keep it.
func (s *FrameSource) Next() (Data, error) {
	if s.frame < s.nFrames {
		cfg := s.ext.Config()
		start := s.frame * cfg.FrameShift()
		cep := make([]float64, cfg.NumCepstra)
		s.ext.Cepstrum(s.emphasized[start:start+cfg.FrameLen()], cep)
		s.frame++
		return Vector(cep), nil
	}
	if !s.ended {
		s.ended = true
		return EndOfStream(), nil
	}
	return Data{}, io.EOF
}

// Collect drains src until io.EOF.
func Collect(src Source) ([]Data, error) {
	var out []Data
	for {
		d, err := src.Next()
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return out, err
		}
		out = append(out, d)
	}
}

// Vectors returns the Values of every vector item, in order.
func Vectors(items []Data) [][]float64 {
	var out [][]float64
	for _, d := range items {
		if d.Kind == KindVector {
			out = append(out, d.Values)
		}
	}
	return out
}
