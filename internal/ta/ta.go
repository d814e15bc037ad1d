package ta

import "math"

// RSIEpsilon keeps the gain/loss ratio finite when the window has no losses.
const RSIEpsilon = 1e-9

// LogReturns returns ln(c[i]/c[i-1]); the first element is NaN.
func LogReturns(closes []float64) []float64 {
	out := make([]float64, len(closes))
	for i := range closes {
		if i == 0 {
			out[i] = math.NaN()
			continue
		}
		out[i] = math.Log(closes[i] / closes[i-1])
	}
	return out
}

// SMA returns the trailing simple mean over n values, NaN until the window fills
// or while the window contains a NaN.
func SMA(vals []float64, n int) []float64 {
	out := nanSlice(len(vals))
	if n <= 0 {
		return out
	}
	for i := n - 1; i < len(vals); i++ {
		sum := 0.0
		for j := i - n + 1; j <= i; j++ {
			sum += vals[j]
		}
		out[i] = sum / float64(n)
	}
	return out
}

// StdDev returns the trailing sample standard deviation (n-1 denominator).
func StdDev(vals []float64, n int) []float64 {
	out := nanSlice(len(vals))
	if n <= 1 {
		return out
	}
	means := SMA(vals, n)
	for i := n - 1; i < len(vals); i++ {
		m := means[i]
		if math.IsNaN(m) {
			continue
		}
		s := 0.0
		for j := i - n + 1; j <= i; j++ {
			d := vals[j] - m
			s += d * d
		}
		out[i] = math.Sqrt(s / float64(n-1))
	}
	return out
}

// RSI returns the relative strength index from trailing means of gains and
// losses over the last period deltas. It needs period+1 closes.
func RSI(closes []float64, period int) []float64 {
	out := nanSlice(len(closes))
	if period <= 0 {
		return out
	}
	for i := period; i < len(closes); i++ {
		gain, loss := 0.0, 0.0
		for j := i - period + 1; j <= i; j++ {
			d := closes[j] - closes[j-1]
			if d > 0 {
				gain += d
			} else {
				loss -= d
			}
		}
		avgGain := gain / float64(period)
		avgLoss := loss / float64(period)
		rs := avgGain / (avgLoss + RSIEpsilon)
		out[i] = 100.0 - (100.0 / (1.0 + rs))
	}
	return out
}

func nanSlice(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}
	return out
}
