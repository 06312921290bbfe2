package feature

// Delta computes delta (first derivative) coefficients with window N.
// Uses the regression formula: d[t] = sum_{n=1}^{N} n*(c[t+n] - c[t-n]) / (2 * sum_{n=1}^{N} n^2)
// Edge frames are replicated, so Delta looks N frames ahead; it runs on a
// finished utterance, after normalization.
func Delta(features [][]float64, N int) [][]float64 {
	T := len(features)
	if T == 0 || N < 1 {
		return nil
	}
	dim := len(features[0])

	denom := 0.0
	for n := 1; n <= N; n++ {
		denom += float64(n * n)
	}
	denom *= 2.0

	deltas := make([][]float64, T)
	buf := make([]float64, T*dim)
	for t := 0; t < T; t++ {
		deltas[t] = buf[t*dim : (t+1)*dim]
		for d := 0; d < dim; d++ {
			num := 0.0
			for n := 1; n <= N; n++ {
				tp := min(t+n, T-1)
				tn := max(t-n, 0)
				num += float64(n) * (features[tp][d] - features[tn][d])
			}
			deltas[t][d] = num / denom
		}
	}
	return deltas
}

// AppendDeltas appends delta (and, if withAccel, delta-delta) columns to
// each frame. Input: [T][D] -> Output: [T][2*D] or [T][3*D].
func AppendDeltas(features [][]float64, withAccel bool) [][]float64 {
	T := len(features)
	if T == 0 {
		return nil
	}
	d1 := Delta(features, 2)
	var d2 [][]float64
	blocks := 2
	if withAccel {
		d2 = Delta(d1, 2)
		blocks = 3
	}

	dim := len(features[0])
	width := dim * blocks
	out := make([][]float64, T)
	rowBuf := make([]float64, T*width)
	for t := 0; t < T; t++ {
		row := rowBuf[t*width : (t+1)*width]
		copy(row[:dim], features[t])
		copy(row[dim:2*dim], d1[t])
		if withAccel {
			copy(row[2*dim:], d2[t])
		}
		out[t] = row
	}
	return out
}
