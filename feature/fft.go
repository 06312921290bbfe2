package feature

import (
	"gonum.org/v1/gonum/dsp/fourier"
)

// FFT computes the unnormalized discrete Fourier transform of x.
func FFT(x []complex128) []complex128 {
	if len(x) <= 1 {
		return append([]complex128(nil), x...)
	}
	return fourier.NewCmplxFFT(len(x)).Coefficients(nil, x)
}

// fftWorkspace holds the transform plan and buffers for repeated real-input
// FFTs of one size, so the per-frame path does not allocate.
type fftWorkspace struct {
	fft   *fourier.FFT
	in    []float64    // windowed, zero-padded frame [size]
	coeff []complex128 // [size/2+1]
	power []float64    // [size/2+1]
}

func newFFTWorkspace(size int) *fftWorkspace {
	return &fftWorkspace{
		fft:   fourier.NewFFT(size),
		in:    make([]float64, size),
		coeff: make([]complex128, size/2+1),
		power: make([]float64, size/2+1),
	}
}

// powerSpectrum windows frame (if window is non-nil), zero-pads it to the
// workspace size and leaves |X|^2/N in ws.power.
func (ws *fftWorkspace) powerSpectrum(frame, window []float64) []float64 {
	n := len(ws.in)
	m := min(len(frame), n)
	if window != nil {
		for i := 0; i < m; i++ {
			ws.in[i] = frame[i] * window[i]
		}
	} else {
		copy(ws.in[:m], frame)
	}
	clear(ws.in[m:])

	ws.fft.Coefficients(ws.coeff, ws.in)

	fn := float64(n)
	for i, c := range ws.coeff {
		re, im := real(c), imag(c)
		ws.power[i] = (re*re + im*im) / fn
	}
	return ws.power
}

// PowerSpectrum computes |FFT(x)|^2 / N for a real-valued frame.
// The frame is zero-padded (or truncated) to fftSize.
// Returns the first fftSize/2+1 bins (positive frequencies).
func PowerSpectrum(frame []float64, fftSize int) []float64 {
	ws := newFFTWorkspace(fftSize)
	out := make([]float64, fftSize/2+1)
	copy(out, ws.powerSpectrum(frame, nil))
	return out
}
