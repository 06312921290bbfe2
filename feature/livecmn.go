package feature

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
)

// LiveCMNConfig holds the live cepstral mean normalization parameters.
type LiveCMNConfig struct {
	InitialMean float64 // seed for mean[0] before any recalculation
	Window      int     // frames the running sum is rescaled to after a decay
	ShiftWindow int     // frames accumulated before the mean is recalculated
}

// DefaultLiveCMNConfig returns the standard live CMN configuration.
func DefaultLiveCMNConfig() LiveCMNConfig {
	return LiveCMNConfig{
		InitialMean: 12.0,
		Window:      100,
		ShiftWindow: 160,
	}
}

// Validate reports whether the configuration can drive a LiveCMN.
func (c LiveCMNConfig) Validate() error {
	if c.Window < 1 {
		return fmt.Errorf("feature: cmn window %d must be positive", c.Window)
	}
	if c.ShiftWindow < 0 {
		return fmt.Errorf("feature: cmn shift window %d must not be negative", c.ShiftWindow)
	}
	return nil
}

// ErrDimensionMismatch matches any *DimensionMismatchError via errors.Is.
var ErrDimensionMismatch = &DimensionMismatchError{}

// DimensionMismatchError is returned when a vector's length differs from the
// dimension established by the first vector a LiveCMN saw.
type DimensionMismatchError struct {
	Got  int
	Want int
}

func (e *DimensionMismatchError) Error() string {
	if e.Want == 0 {
		return fmt.Sprintf("feature: cepstrum length %d cannot establish a dimension", e.Got)
	}
	return fmt.Sprintf("feature: cepstrum length %d not equal to sum length %d", e.Got, e.Want)
}

// Is makes every DimensionMismatchError match ErrDimensionMismatch.
func (e *DimensionMismatchError) Is(target error) bool {
	_, ok := target.(*DimensionMismatchError)
	return ok
}

// LiveCMN subtracts a running estimate of the cepstral mean from each vector
// as it arrives. The mean is not re-estimated per frame: it is recomputed
// from the running sum once more than ShiftWindow frames have accumulated,
// and the sum is then rescaled as if exactly Window frames had produced it.
// No frames are buffered, so no delay is introduced.
//
// State persists across EndOfStream calls so the estimate carries over
// utterance boundaries. A LiveCMN is not safe for concurrent use.
type LiveCMN struct {
	cfg    LiveCMNConfig
	mean   []float64 // current mean, used for subtraction
	sum    []float64 // running sum since the last recalculation, decayed
	frames int       // frames represented by sum
}

// NewLiveCMN creates a LiveCMN. Buffers are sized lazily by the first vector.
func NewLiveCMN(cfg LiveCMNConfig) (*LiveCMN, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &LiveCMN{cfg: cfg}, nil
}

// Config returns the configuration the normalizer was built with.
func (c *LiveCMN) Config() LiveCMNConfig { return c.cfg }

// Normalize folds cep into the running sum and subtracts the current mean
// from it in place. The caller hands cep over for the duration of the call;
// copy it beforehand if the raw values are still needed.
//
// The subtracted mean never includes cep itself. A recalculation, if due,
// happens after the subtraction.
func (c *LiveCMN) Normalize(cep []float64) error {
	if c.sum == nil {
		if len(cep) == 0 {
			return &DimensionMismatchError{Got: 0, Want: 0}
		}
		c.init(len(cep))
	}
	if len(cep) != len(c.sum) {
		return &DimensionMismatchError{Got: len(cep), Want: len(c.sum)}
	}

	floats.Add(c.sum, cep)
	floats.Sub(cep, c.mean)

	c.frames++
	if c.frames > c.cfg.ShiftWindow {
		c.update()
	}
	return nil
}

// EndOfStream forces a recalculation so the mean reflects every frame seen
// before the boundary. The running sum is only decayed when at least
// ShiftWindow frames are pending.
func (c *LiveCMN) EndOfStream() {
	c.update()
}

func (c *LiveCMN) init(dim int) {
	c.mean = make([]float64, dim)
	c.mean[0] = c.cfg.InitialMean
	c.sum = make([]float64, dim)
}

// update recomputes the mean from the running sum, then decays the sum.
func (c *LiveCMN) update() {
	if c.frames <= 0 {
		return
	}
	sf := 1.0 / float64(c.frames)
	floats.ScaleTo(c.mean, sf, c.sum)

	if c.frames >= c.cfg.ShiftWindow {
		floats.Scale(sf*float64(c.cfg.Window), c.sum)
		c.frames = c.cfg.Window
	}
}

// Dim returns the established vector dimension, or 0 before the first vector.
func (c *LiveCMN) Dim() int { return len(c.sum) }

// Frames returns the number of frames the running sum currently represents.
func (c *LiveCMN) Frames() int { return c.frames }

// Mean returns a copy of the current mean estimate.
func (c *LiveCMN) Mean() []float64 { return cloneVec(c.mean) }

// Sum returns a copy of the running sum.
func (c *LiveCMN) Sum() []float64 { return cloneVec(c.sum) }

func cloneVec(v []float64) []float64 {
	if v == nil {
		return nil
	}
	out := make([]float64, len(v))
	copy(out, v)
	return out
}
