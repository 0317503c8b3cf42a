package pattern

import "math"

// Distance computes the discrete Fréchet distance between two curves: the
// smallest leash length that lets two walkers traverse both curves in order
// without backtracking. Symmetric, and zero only when the curves coincide
// pointwise.
func Distance(a, b []Point) float64 {
	n, m := len(a), len(b)
	if n == 0 || m == 0 {
		return math.Inf(1)
	}

	// ca[i*m+j] holds the coupling distance for prefixes a[:i+1], b[:j+1].
	ca := make([]float64, n*m)

	for i := 0; i < n; i++ {
		for j := 0; j < m; j++ {
			d := euclid(a[i], b[j])
			switch {
			case i == 0 && j == 0:
				ca[0] = d
			case i == 0:
				ca[j] = math.Max(ca[j-1], d)
			case j == 0:
				ca[i*m] = math.Max(ca[(i-1)*m], d)
			default:
				prev := math.Min(ca[(i-1)*m+j], math.Min(ca[(i-1)*m+j-1], ca[i*m+j-1]))
				ca[i*m+j] = math.Max(prev, d)
			}
		}
	}

	return ca[n*m-1]
}

func euclid(p, q Point) float64 {
	dx := p.X - q.X
	dy := p.Y - q.Y
	return math.Sqrt(dx*dx + dy*dy)
}
