package model

import "time"

type ImageRanking struct {
	ID         string         `json:"id"`
	Components int            `json:"components"`
	Values     []float64      `json:"values"`
	Corpus     int            `json:"corpus"`
	Skipped    int            `json:"skipped"`
	Took       time.Duration  `json:"took"`
	Results    []RankedResult `json:"results"`
}

type AudioRanking struct {
	ID      string        `json:"id"`
	Corpus  int           `json:"corpus"`
	Skipped int           `json:"skipped"`
	Took    time.Duration `json:"took"`
	Results []AudioMatch  `json:"results"`
}

const (
	KindImage = "image"
	KindAudio = "audio"
)

// Page is one slice of a stored ranking. Exactly one of Images and Audio is set.
type Page struct {
	ID     string         `json:"id"`
	Kind   string         `json:"kind"`
	Page   int            `json:"page"`
	Size   int            `json:"size"`
	Total  int            `json:"total"`
	Images []RankedResult `json:"images,omitempty"`
	Audio  []AudioMatch   `json:"audio,omitempty"`
}

type ErrorResponse struct {
	Detail string `json:"detail"`
}
