// Package vecindex stores and searches embedded material chunks in
// PostgreSQL with pgvector.
//
// Every row carries the owning material and class identifiers so
// chunks can be filter-deleted when a material is replaced or removed.
// Rows have no meaning outside their material; there is no per-chunk
// API.
package vecindex

import "time"

// Hit is a single retrieved chunk with its cosine distance to the
// query. Lower distance means more similar.
type Hit struct {
	MaterialID int32
	ClassID    int32
	Name       string
	FileName   string
	Text       string
	Distance   float64
}

// SearchOption configures search behavior using the functional options
// pattern, as in context.WithTimeout or grpc.Dial.
type SearchOption func(*searchConfig)

type searchConfig struct {
	topK      int
	classID   int32
	hasClass  bool
	threshold float64
	timeout   time.Duration
}

// WithTopK sets the maximum number of hits to return. Default is 5.
func WithTopK(k int) SearchOption {
	return func(c *searchConfig) {
		if k > 0 {
			c.topK = k
		}
	}
}

// WithClass restricts hits to chunks of one class.
func WithClass(classID int32) SearchOption {
	return func(c *searchConfig) {
		c.classID = classID
		c.hasClass = true
	}
}

// WithThreshold drops hits whose cosine similarity falls below the
// given value. Zero disables the cut.
func WithThreshold(similarity float64) SearchOption {
	return func(c *searchConfig) {
		c.threshold = similarity
	}
}

// WithTimeout bounds the whole search, embedding included.
// Default is 10 seconds.
func WithTimeout(d time.Duration) SearchOption {
	return func(c *searchConfig) {
		if d > 0 {
			c.timeout = d
		}
	}
}

func buildSearchConfig(opts []SearchOption) *searchConfig {
	cfg := &searchConfig{
		topK:    5,
		timeout: 10 * time.Second,
	}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}
