package model

type Pitches = []uint8

// NoteEvent is a sounding note-on, Beat is measured from the start of its track.
type NoteEvent struct {
	Pitch uint8
	Beat  float64
}

type Window struct {
	Start float64
	Notes []NoteEvent
}

func (w Window) Pitches() Pitches {
	res := make(Pitches, len(w.Notes))
	for i, n := range w.Notes {
		res[i] = n.Pitch
	}
	return res
}

// HistogramTriple holds the absolute, relative-transition and first-note
// relative pitch distributions of one window.
type HistogramTriple struct {
	Absolute  []float64
	Relative  []float64
	FirstNote []float64
}

type AudioMatch struct {
	Index      int     `json:"index"`
	Name       string  `json:"name"`
	Similarity float64 `json:"similarity"`
	Percentage float64 `json:"percentage"`
	Windows    int     `json:"windows"`
}
