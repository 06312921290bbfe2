package feature

import "math"

// logFloor keeps log mel energies finite on silent frames.
const logFloor = 1e-30

// melBand is the non-zero span of one triangular filter.
type melBand struct {
	start   int       // first bin with a non-zero weight
	weights []float64 // weights for bins start, start+1, ...
}

// MelFilterbank represents the triangular Mel-spaced filterbank.
type MelFilterbank struct {
	Filters [][]float64 // dense weights [numFilters][fftSize/2+1]
	bands   []melBand
}

// NewMelFilterbank constructs numFilters triangular filters spaced evenly on
// the Mel scale between lowFreq and highFreq.
func NewMelFilterbank(numFilters, fftSize, sampleRate int, lowFreq, highFreq float64) *MelFilterbank {
	nBins := fftSize/2 + 1
	lowMel, highMel := hzToMel(lowFreq), hzToMel(highFreq)
	step := (highMel - lowMel) / float64(numFilters+1)

	// Edge bins of every triangle: numFilters+2 points on the Mel scale.
	edges := make([]int, numFilters+2)
	for i := range edges {
		hz := melToHz(lowMel + float64(i)*step)
		edges[i] = int(math.Floor(hz * float64(fftSize+1) / float64(sampleRate)))
	}

	fb := &MelFilterbank{
		Filters: make([][]float64, numFilters),
		bands:   make([]melBand, numFilters),
	}
	for i := range fb.Filters {
		f := make([]float64, nBins)
		left, center, right := edges[i], edges[i+1], edges[i+2]
		for j := left; j < center && j < nBins; j++ {
			f[j] = float64(j-left) / float64(center-left)
		}
		for j := center; j <= right && j < nBins; j++ {
			if right != center {
				f[j] = float64(right-j) / float64(right-center)
			}
		}
		fb.Filters[i] = f
		fb.bands[i] = sparseBand(f)
	}
	return fb
}

func sparseBand(f []float64) melBand {
	start, end := -1, 0
	for j, v := range f {
		if v == 0 {
			continue
		}
		if start < 0 {
			start = j
		}
		end = j + 1
	}
	if start < 0 {
		return melBand{}
	}
	w := make([]float64, end-start)
	copy(w, f[start:end])
	return melBand{start: start, weights: w}
}

// Apply multiplies the power spectrum through each filter and returns log Mel energies.
func (fb *MelFilterbank) Apply(powerSpec []float64) []float64 {
	energies := make([]float64, len(fb.bands))
	fb.applyInto(powerSpec, energies)
	return energies
}

func (fb *MelFilterbank) applyInto(powerSpec, dst []float64) {
	for i, b := range fb.bands {
		end := min(b.start+len(b.weights), len(powerSpec))
		sum := 0.0
		if end > b.start {
			for j, p := range powerSpec[b.start:end] {
				sum += p * b.weights[j]
			}
		}
		dst[i] = math.Log(max(sum, logFloor))
	}
}

// DCT applies Type-II DCT to extract cepstral coefficients.
func DCT(logMelEnergies []float64, numCepstra int) []float64 {
	out := make([]float64, numCepstra)
	newDCTTable(numCepstra, len(logMelEnergies)).applyInto(logMelEnergies, out)
	return out
}

// dctTable holds precomputed cosines [numCepstra][numFilters].
type dctTable [][]float64

func newDCTTable(numCepstra, numFilters int) dctTable {
	t := make(dctTable, numCepstra)
	for k := range t {
		t[k] = make([]float64, numFilters)
		for j := range t[k] {
			t[k][j] = math.Cos(math.Pi * float64(k) * (float64(j) + 0.5) / float64(numFilters))
		}
	}
	return t
}

func (t dctTable) applyInto(logMelEnergies, dst []float64) {
	for k, row := range t {
		sum := 0.0
		for j, c := range row {
			sum += logMelEnergies[j] * c
		}
		dst[k] = sum
	}
}

// lifterTable holds precomputed sinusoidal liftering coefficients.
type lifterTable []float64

func newLifterTable(numCepstra, L int) lifterTable {
	t := make(lifterTable, numCepstra)
	for i := range t {
		t[i] = 1.0 + float64(L)/2.0*math.Sin(math.Pi*float64(i)/float64(L))
	}
	return t
}

func (t lifterTable) apply(cepstra []float64) {
	for i := range cepstra {
		cepstra[i] *= t[i]
	}
}

// CepstralLifter applies sinusoidal liftering to cepstral coefficients.
func CepstralLifter(cepstra []float64, L int) {
	newLifterTable(len(cepstra), L).apply(cepstra)
}

func hzToMel(hz float64) float64 {
	return 2595.0 * math.Log10(1.0+hz/700.0)
}

func melToHz(mel float64) float64 {
	return 700.0 * (math.Pow(10, mel/2595.0) - 1.0)
}
