package melody

import (
	"os"

	"github.com/aibrahim185/Algeo02-23012/constants"
	"github.com/aibrahim185/Algeo02-23012/midi"
	"github.com/aibrahim185/Algeo02-23012/model"
)

type Options struct {
	WidthBeats  float64
	StrideBeats float64
}

func DefaultOptions() Options {
	return Options{WidthBeats: constants.WindowBeats, StrideBeats: constants.StrideBeats}
}

// ExtractWindows parses a MIDI file and slices its notes into beat windows.
// Unparsable or note free input yields no windows rather than an error, so a
// corpus scan can carry on past it.
func ExtractWindows(data []byte) []model.Window {
	windows, _ := ExtractWindowsWithOptions(data, DefaultOptions())
	return windows
}

// ExtractWindowsWithOptions is ExtractWindows that also reports why nothing
// came back.
func ExtractWindowsWithOptions(data []byte, opts Options) ([]model.Window, error) {
	notes, err := midi.DecodeNotes(data)
	if err != nil {
		return nil, err
	}
	return Segment(notes, opts), nil
}

func ExtractWindowsFile(path string) ([]model.Window, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ExtractWindowsWithOptions(data, DefaultOptions())
}

// Segment slides a window of opts.WidthBeats over notes, moving opts.StrideBeats
// at a time. Offsets are measured from the first onset; a note falls in the
// window starting at s when s <= offset < s+width. Windows start at 0 and keep
// coming while the start does not pass the last onset. Empty windows are dropped.
func Segment(notes []model.NoteEvent, opts Options) []model.Window {
	if len(notes) == 0 || opts.WidthBeats <= 0 || opts.StrideBeats <= 0 {
		return nil
	}

	origin := notes[0].Beat
	span := notes[len(notes)-1].Beat - origin

	var windows []model.Window
	for start := 0.0; start <= span; start += opts.StrideBeats {
		end := start + opts.WidthBeats
		var current []model.NoteEvent
		for _, n := range notes {
			offset := n.Beat - origin
			if offset >= end {
				break
			}
			if offset >= start {
				current = append(current, n)
			}
		}
		if len(current) > 0 {
			windows = append(windows, model.Window{Start: start, Notes: current})
		}
	}
	return windows
}

// Histograms reduces a window's pitches to its three normalised distributions.
func Histograms(pitches model.Pitches) model.HistogramTriple {
	res := model.HistogramTriple{
		Absolute:  make([]float64, constants.AbsoluteBins),
		Relative:  make([]float64, constants.RelativeBins),
		FirstNote: make([]float64, constants.RelativeBins),
	}

	for _, p := range pitches {
		if int(p) < constants.AbsoluteBins {
			res.Absolute[p]++
		}
	}
	for i := 1; i < len(pitches); i++ {
		idx := int(pitches[i]) - int(pitches[i-1]) + constants.IntervalShift
		if idx >= 0 && idx < constants.RelativeBins {
			res.Relative[idx]++
		}
	}
	if len(pitches) > 0 {
		first := int(pitches[0])
		for _, p := range pitches {
			idx := int(p) - first + constants.IntervalShift
			if idx >= 0 && idx < constants.RelativeBins {
				res.FirstNote[idx]++
			}
		}
	}

	normalize(res.Absolute)
	normalize(res.Relative)
	normalize(res.FirstNote)
	return res
}

// Features computes the histograms of every window, in window order.
func Features(windows []model.Window) []model.HistogramTriple {
	res := make([]model.HistogramTriple, len(windows))
	for i, w := range windows {
		res[i] = Histograms(w.Pitches())
	}
	return res
}

func normalize(h []float64) {
	var sum float64
	for _, v := range h {
		sum += v
	}
	if sum == 0 {
		return
	}
	for i := range h {
		h[i] /= sum
	}
}
