package ask

// relevanceKind distinguishes how a retrieval backend reported a hit's
// relevance. pgvector reports cosine distance; other backends report a
// similarity score directly.
type relevanceKind int

const (
	relevanceUnknown relevanceKind = iota
	relevanceDistance
	relevanceScore
)

// unknownScore ranks hits with no usable relevance below every real
// hit without losing them.
const unknownScore = -1e9

// Relevance is a hit's relevance in whichever form the backend
// produced it. The zero value is Unknown.
type Relevance struct {
	kind  relevanceKind
	value float64
}

// FromDistance builds a Relevance from a cosine distance.
func FromDistance(d float64) Relevance {
	return Relevance{kind: relevanceDistance, value: d}
}

// FromScore builds a Relevance from a similarity score.
func FromScore(s float64) Relevance {
	return Relevance{kind: relevanceScore, value: s}
}

// Known reports whether the hit carried any relevance signal.
func (r Relevance) Known() bool {
	return r.kind != relevanceUnknown
}

// Score normalizes the relevance to a comparable similarity: distances
// become 1-d, scores pass through, unknown ranks last.
func (r Relevance) Score() float64 {
	switch r.kind {
	case relevanceDistance:
		return 1 - r.value
	case relevanceScore:
		return r.value
	default:
		return unknownScore
	}
}
