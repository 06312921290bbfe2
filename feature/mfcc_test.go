package feature

import (
	"errors"
	"math"
	"math/cmplx"
	"testing"
)

func TestPreEmphasize(t *testing.T) {
	samples := []float64{1.0, 2.0, 3.0, 4.0}
	out := PreEmphasize(samples, 0.97)
	if out[0] != 1.0 {
		t.Errorf("out[0] = %f, want 1.0", out[0])
	}
	// out[1] = 2.0 - 0.97*1.0 = 1.03
	if math.Abs(out[1]-1.03) > 1e-10 {
		t.Errorf("out[1] = %f, want 1.03", out[1])
	}
}

func TestFrame(t *testing.T) {
	samples := make([]float64, 100)
	for i := range samples {
		samples[i] = float64(i)
	}
	frames := Frame(samples, 25, 10)
	// numFrames = 1 + (100-25)/10 = 8
	if len(frames) != 8 {
		t.Fatalf("numFrames = %d, want 8", len(frames))
	}
	if len(frames[0]) != 25 {
		t.Fatalf("frameLen = %d, want 25", len(frames[0]))
	}
	// Second frame starts at index 10
	if frames[1][0] != 10.0 {
		t.Errorf("frames[1][0] = %f, want 10.0", frames[1][0])
	}
}

func TestHammingWindow(t *testing.T) {
	frame := make([]float64, 10)
	for i := range frame {
		frame[i] = 1.0
	}
	HammingWindow(frame)
	// Hamming at endpoints should be ~0.08
	if math.Abs(frame[0]-0.08) > 0.01 {
		t.Errorf("frame[0] = %f, want ~0.08", frame[0])
	}
	// Hamming at midpoint should be ~1.0
	mid := len(frame) / 2
	if frame[mid] < 0.9 {
		t.Errorf("frame[%d] = %f, want close to 1.0", mid, frame[mid])
	}
}

func TestFFT_KnownInput(t *testing.T) {
	// FFT of [1, 0, 0, 0, 0, 0, 0, 0] = [1, 1, 1, 1, 1, 1, 1, 1]
	x := make([]complex128, 8)
	x[0] = 1
	X := FFT(x)
	for i, v := range X {
		if cmplx.Abs(v-1) > 1e-10 {
			t.Errorf("X[%d] = %v, want 1+0i", i, v)
		}
	}
}

func TestFFT_Sinusoid(t *testing.T) {
	// 8-point FFT of a pure cosine at bin 2
	n := 8
	x := make([]complex128, n)
	for i := 0; i < n; i++ {
		x[i] = complex(math.Cos(2*math.Pi*2*float64(i)/float64(n)), 0)
	}
	X := FFT(x)
	// Should have peaks at bin 2 and bin 6 (N-2)
	for i := 0; i < n; i++ {
		mag := cmplx.Abs(X[i])
		if i == 2 || i == 6 {
			if mag < 3.0 { // should be N/2 = 4
				t.Errorf("|X[%d]| = %f, want ~4.0", i, mag)
			}
		} else {
			if mag > 1e-10 {
				t.Errorf("|X[%d]| = %f, want ~0.0", i, mag)
			}
		}
	}
}

func TestPowerSpectrum(t *testing.T) {
	frame := make([]float64, 16)
	frame[0] = 1.0 // impulse
	ps := PowerSpectrum(frame, 16)
	// Power spectrum of impulse should be flat: 1/N = 0.0625
	if len(ps) != 9 { // 16/2+1
		t.Fatalf("len(ps) = %d, want 9", len(ps))
	}
	for i, v := range ps {
		if math.Abs(v-1.0/16.0) > 1e-10 {
			t.Errorf("ps[%d] = %f, want %f", i, v, 1.0/16.0)
		}
	}
}

func TestPowerSpectrum_MatchesComplexFFT(t *testing.T) {
	const n = 512
	frame := generateSine(400, 1234)
	for i := range frame {
		frame[i] += 0.1 * float64(i%7)
	}
	ps := PowerSpectrum(frame, n)

	x := make([]complex128, n)
	for i, v := range frame {
		x[i] = complex(v, 0)
	}
	X := FFT(x)
	for k := range ps {
		want := real(X[k])*real(X[k]) + imag(X[k])*imag(X[k])
		want /= n
		if math.Abs(ps[k]-want) > 1e-9*math.Max(1, want) {
			t.Errorf("ps[%d] = %g, want %g", k, ps[k], want)
		}
	}
}

func TestMelFilterbank(t *testing.T) {
	fb := NewMelFilterbank(26, 512, 16000, 0, 8000)
	if len(fb.Filters) != 26 {
		t.Fatalf("numFilters = %d, want 26", len(fb.Filters))
	}
	// Each filter should be length 257 (512/2+1)
	for i, f := range fb.Filters {
		if len(f) != 257 {
			t.Fatalf("filter[%d] len = %d, want 257", i, len(f))
		}
	}
	// Filters should be non-negative
	for i, f := range fb.Filters {
		for j, v := range f {
			if v < 0 {
				t.Errorf("filter[%d][%d] = %f < 0", i, j, v)
			}
		}
	}
}

func TestDCT(t *testing.T) {
	// DCT of constant input should have energy only in the 0th coefficient
	input := make([]float64, 26)
	for i := range input {
		input[i] = 1.0
	}
	cepstra := DCT(input, 13)
	if len(cepstra) != 13 {
		t.Fatalf("len(cepstra) = %d, want 13", len(cepstra))
	}
	// c[0] should be sum of input = 26
	if math.Abs(cepstra[0]-26.0) > 1e-10 {
		t.Errorf("cepstra[0] = %f, want 26.0", cepstra[0])
	}
	// Other coefficients should be near zero
	for k := 1; k < 13; k++ {
		if math.Abs(cepstra[k]) > 1e-10 {
			t.Errorf("cepstra[%d] = %f, want ~0", k, cepstra[k])
		}
	}
}

func TestDelta(t *testing.T) {
	// Linear ramp: features[t] = [t]
	features := make([][]float64, 10)
	for t := range features {
		features[t] = []float64{float64(t)}
	}
	d := Delta(features, 2)
	if len(d) != 10 {
		t.Fatalf("len(d) = %d, want 10", len(d))
	}
	// Delta of a linear ramp should be constant ~1.0 (in the middle frames)
	for i := 2; i < 8; i++ {
		if math.Abs(d[i][0]-1.0) > 1e-10 {
			t.Errorf("delta[%d] = %f, want 1.0", i, d[i][0])
		}
	}
}

func TestExtract_Dimensions(t *testing.T) {
	cfg := DefaultConfig()
	// Generate 1 second of 440Hz sine at 16kHz
	n := 16000
	mfccs, err := Extract(generateSine(n, 440), cfg)
	if err != nil {
		t.Fatalf("Extract error: %v", err)
	}
	// Expected frames: 1 + (16000 - 400) / 160 = 98 (approx)
	expectedFrames := 1 + (n-cfg.FrameLen())/cfg.FrameShift()
	if len(mfccs) != expectedFrames {
		t.Errorf("numFrames = %d, want %d", len(mfccs), expectedFrames)
	}
	// Feature dim with delta+deltadelta: 13*3 = 39
	expectedDim := cfg.FeatureDim()
	if expectedDim != 39 {
		t.Errorf("FeatureDim = %d, want 39", expectedDim)
	}
	if len(mfccs[0]) != expectedDim {
		t.Errorf("feature dim = %d, want %d", len(mfccs[0]), expectedDim)
	}
	// Values should be finite
	for i, frame := range mfccs {
		for j, v := range frame {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				t.Errorf("mfcc[%d][%d] = %f (not finite)", i, j, v)
			}
		}
	}
}

func TestExtract_EmptySamples(t *testing.T) {
	cfg := DefaultConfig()
	_, err := Extract(nil, cfg)
	if err == nil {
		t.Fatal("expected error for empty samples")
	}
}

func TestExtractor_CepstraMatchesExtract(t *testing.T) {
	cfg := DefaultConfig()
	cfg.UseCMN = false
	cfg.UseDelta = false
	samples := generateSine(16000, 440)

	direct, err := Extract(samples, cfg)
	if err != nil {
		t.Fatalf("Extract error: %v", err)
	}

	e, err := NewExtractor(cfg)
	if err != nil {
		t.Fatalf("NewExtractor error: %v", err)
	}
	cepstra, err := e.Cepstra(samples)
	if err != nil {
		t.Fatalf("Cepstra error: %v", err)
	}

	if len(direct) != len(cepstra) {
		t.Fatalf("frame count mismatch: %d vs %d", len(direct), len(cepstra))
	}
	for i := range direct {
		for j := range direct[i] {
			if direct[i][j] != cepstra[i][j] {
				t.Errorf("mismatch at [%d][%d]: %f vs %f", i, j, direct[i][j], cepstra[i][j])
			}
		}
	}
}

func TestExtractor_CepstrumMatchesReference(t *testing.T) {
	// Single-frame path vs. the allocating reference functions.
	cfg := DefaultConfig()
	e, err := NewExtractor(cfg)
	if err != nil {
		t.Fatalf("NewExtractor error: %v", err)
	}
	frame := generateSine(cfg.FrameLen(), 1000)

	got := make([]float64, cfg.NumCepstra)
	e.Cepstrum(frame, got)

	windowed := make([]float64, len(frame))
	copy(windowed, frame)
	HammingWindow(windowed)
	ps := PowerSpectrum(windowed, cfg.FFTSize)
	fb := NewMelFilterbank(cfg.NumMelFilters, cfg.FFTSize, cfg.SampleRate, cfg.LowFreq, cfg.HighFreq)
	want := DCT(fb.Apply(ps), cfg.NumCepstra)
	CepstralLifter(want, cfg.CepLifter)

	for k := range want {
		if math.Abs(got[k]-want[k]) > 1e-9 {
			t.Errorf("cepstrum[%d] = %f, want %f", k, got[k], want[k])
		}
	}
}

func TestExtract_CMNRemovesDC(t *testing.T) {
	// 500Hz repeats every 32 samples, so every frame after the first is
	// identical and live CMN should drive c0 close to zero.
	cfg := DefaultConfig()
	cfg.UseDelta = false
	cfg.CMN.ShiftWindow = 20
	cfg.CMN.Window = 20
	samples := generateSine(16000, 500)

	feats, err := Extract(samples, cfg)
	if err != nil {
		t.Fatalf("Extract error: %v", err)
	}
	cfg.UseCMN = false
	raw, err := Extract(samples, cfg)
	if err != nil {
		t.Fatalf("Extract error: %v", err)
	}

	for i := 50; i < len(feats); i++ {
		if math.Abs(feats[i][0]) > 1e-2*math.Abs(raw[i][0]) {
			t.Errorf("feats[%d][0] = %g, raw %g: mean not removed", i, feats[i][0], raw[i][0])
		}
	}
}

func TestConfig_Validate(t *testing.T) {
	cases := []struct {
		name   string
		modify func(*Config)
	}{
		{"zero sample rate", func(c *Config) { c.SampleRate = 0 }},
		{"fft not power of two", func(c *Config) { c.FFTSize = 500 }},
		{"frame longer than fft", func(c *Config) { c.FFTSize = 256 }},
		{"no cepstra", func(c *Config) { c.NumCepstra = 0 }},
		{"bad cmn window", func(c *Config) { c.CMN.Window = 0 }},
	}
	if err := DefaultConfig().Validate(); err != nil {
		t.Fatalf("DefaultConfig invalid: %v", err)
	}
	for _, tc := range cases {
		cfg := DefaultConfig()
		tc.modify(&cfg)
		if err := cfg.Validate(); err == nil {
			t.Errorf("%s: expected error", tc.name)
		}
	}
}

func TestAppendDeltas_Width(t *testing.T) {
	features := [][]float64{{1, 2}, {3, 4}, {5, 6}}
	if got := len(AppendDeltas(features, true)[0]); got != 6 {
		t.Errorf("width with accel = %d, want 6", got)
	}
	if got := len(AppendDeltas(features, false)[0]); got != 4 {
		t.Errorf("width without accel = %d, want 4", got)
	}
	if AppendDeltas(nil, true) != nil {
		t.Error("AppendDeltas(nil) should be nil")
	}
}

func TestExtract_TooShort(t *testing.T) {
	_, err := Extract(make([]float64, 100), DefaultConfig())
	if !errors.Is(err, ErrTooShort) {
		t.Fatalf("err = %v, want ErrTooShort", err)
	}
}
