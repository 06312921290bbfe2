package feature

import "math"

// PreEmphasize applies a first-order high-pass filter: y[n] = x[n] - alpha*x[n-1].
func PreEmphasize(samples []float64, alpha float64) []float64 {
	if len(samples) == 0 {
		return nil
	}
	out := make([]float64, len(samples))
	out[0] = samples[0]
	for i := 1; i < len(samples); i++ {
		out[i] = samples[i] - alpha*samples[i-1]
	}
	return out
}

// NumFrames returns how many whole frames of frameLen samples, advanced by
// frameShift, fit into n samples.
func NumFrames(n, frameLen, frameShift int) int {
	if n < frameLen || frameLen <= 0 || frameShift <= 0 {
		return 0
	}
	return 1 + (n-frameLen)/frameShift
}

// Frame splits samples into overlapping frames.
// frameLen and frameShift are in number of samples.
func Frame(samples []float64, frameLen, frameShift int) [][]float64 {
	nFrames := NumFrames(len(samples), frameLen, frameShift)
	if nFrames == 0 {
		return nil
	}
	frames := make([][]float64, nFrames)
	for i := range frames {
		start := i * frameShift
		frame := make([]float64, frameLen)
		copy(frame, samples[start:start+frameLen])
		frames[i] = frame
	}
	return frames
}

// HammingWindow applies a Hamming window in-place.
func HammingWindow(frame []float64) {
	w := hammingWindow(len(frame))
	for i := range frame {
		frame[i] *= w[i]
	}
}

func hammingWindow(n int) []float64 {
	w := make([]float64, n)
	if n == 1 {
		w[0] = 1
		return w
	}
	for i := range w {
		w[i] = 0.54 - 0.46*math.Cos(2*math.Pi*float64(i)/float64(n-1))
	}
	return w
}
