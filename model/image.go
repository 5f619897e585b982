package model

// ImageVector is a row-major grayscale image, one intensity in [0,255] per pixel.
type ImageVector = []float64

// EmbeddingVector is an ImageVector projected onto the principal directions.
type EmbeddingVector = []float64

type RankedResult struct {
	Index      int     `json:"index"`
	Name       string  `json:"name"`
	Distance   float64 `json:"distance"`
	Similarity float64 `json:"similarity"`
}
