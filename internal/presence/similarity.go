package presence

import "math"

// CosineSimilarity returns the cosine of the angle between two descriptor
// vectors, comparing up to the shorter length. A zero-magnitude vector never
// matches anything: the result is 0.
func CosineSimilarity(a, b []float64) float64 {
	length := len(a)
	if len(b) < length {
		length = len(b)
	}

	var dot, magA, magB float64
	for i := 0; i < length; i++ {
		dot += a[i] * b[i]
		magA += a[i] * a[i]
		magB += b[i] * b[i]
	}

	if magA == 0 || magB == 0 {
		return 0
	}
	return dot / (math.Sqrt(magA) * math.Sqrt(magB))
}
