// Package rank scores embeddings and histogram windows against a query and
// orders the results.
package rank

import (
	"math"
	"sort"

	"github.com/aibrahim185/Algeo02-23012/constants"
	"github.com/aibrahim185/Algeo02-23012/model"
	"gonum.org/v1/gonum/floats"
)

func Euclidean(a, b model.EmbeddingVector) float64 {
	return floats.Distance(a, b, 2)
}

// Images scores every corpus embedding against query and sorts by ascending
// distance, keeping corpus order on ties.
//
// Similarity is 1/(1+d/maxD) where maxD is the largest distance in this batch,
// so the value is only comparable inside one ranking. When every distance is
// zero all similarities are 1.
func Images(query model.EmbeddingVector, corpus []model.EmbeddingVector) []model.RankedResult {
	res := make([]model.RankedResult, len(corpus))
	var maxDist float64
	for i, v := range corpus {
		d := Euclidean(query, v)
		res[i] = model.RankedResult{Index: i, Distance: d}
		maxDist = math.Max(maxDist, d)
	}

	for i := range res {
		if maxDist == 0 {
			res[i].Similarity = 1
		} else {
			res[i].Similarity = 1 / (1 + res[i].Distance/maxDist)
		}
	}

	sort.SliceStable(res, func(i, j int) bool {
		return res[i].Distance < res[j].Distance
	})
	return res
}

// Cosine is 0 when either vector has no magnitude.
func Cosine(a, b []float64) float64 {
	na, nb := floats.Norm(a, 2), floats.Norm(b, 2)
	if na == 0 || nb == 0 {
		return 0
	}
	return floats.Dot(a, b) / (na * nb)
}

func WindowSimilarity(a, b model.HistogramTriple) float64 {
	return constants.AbsoluteWeight*Cosine(a.Absolute, b.Absolute) +
		constants.RelativeWeight*Cosine(a.Relative, b.Relative) +
		constants.FirstNoteWeight*Cosine(a.FirstNote, b.FirstNote)
}

// Track compares two window sequences position by position and averages over
// the shorter one. The i-th query window is only ever compared with the i-th
// item window.
func Track(query, item []model.HistogramTriple) float64 {
	n := min(len(query), len(item))
	if n == 0 {
		return 0
	}
	var total float64
	for i := 0; i < n; i++ {
		total += WindowSimilarity(query[i], item[i])
	}
	return total / float64(n)
}

// Audio sorts matches by descending similarity, keeping input order on ties.
func Audio(matches []model.AudioMatch) []model.AudioMatch {
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Similarity > matches[j].Similarity
	})
	return matches
}

// Top returns the first k items. k <= 0 keeps everything.
func Top[T any](items []T, k int) []T {
	if k <= 0 || k >= len(items) {
		return items
	}
	return items[:k]
}
