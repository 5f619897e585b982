package melody

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/aibrahim185/Algeo02-23012/constants"
	"github.com/aibrahim185/Algeo02-23012/midi/miditest"
	"github.com/aibrahim185/Algeo02-23012/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"
)

func sum(h []float64) float64 {
	var total float64
	for _, v := range h {
		total += v
	}
	return total
}

func nonZero(h []float64) map[int]float64 {
	res := map[int]float64{}
	for i, v := range h {
		if v != 0 {
			res[i] = v
		}
	}
	return res
}

func TestAscendingTriad(t *testing.T) {
	data, err := miditest.Sample(480, []model.NoteEvent{
		{Pitch: 60, Beat: 0},
		{Pitch: 64, Beat: 1},
		{Pitch: 67, Beat: 2},
	})
	require.NoError(t, err)

	windows := ExtractWindows(data)
	require.Len(t, windows, 1)
	assert.Equal(t, model.Pitches{60, 64, 67}, windows[0].Pitches())

	h := Histograms(windows[0].Pitches())
	assert.InDeltaMapValues(t, map[int]float64{60: 1.0 / 3, 64: 1.0 / 3, 67: 1.0 / 3}, nonZero(h.Absolute), 1e-12)
	assert.InDeltaMapValues(t, map[int]float64{256 + 4: 0.5, 256 + 3: 0.5}, nonZero(h.Relative), 1e-12)
	assert.InDeltaMapValues(t, map[int]float64{256: 1.0 / 3, 256 + 4: 1.0 / 3, 256 + 7: 1.0 / 3}, nonZero(h.FirstNote), 1e-12)
}

func TestHistogramsSumToOneOrZero(t *testing.T) {
	cases := map[string]model.Pitches{
		"empty":      nil,
		"single":     {72},
		"repeated":   {60, 60, 60, 60},
		"wide":       {0, 127, 0, 127},
		"descending": {80, 70, 60, 50, 40},
	}
	for name, pitches := range cases {
		t.Run(name, func(t *testing.T) {
			h := Histograms(pitches)
			assert.Len(t, h.Absolute, constants.AbsoluteBins)
			assert.Len(t, h.Relative, constants.RelativeBins)
			assert.Len(t, h.FirstNote, constants.RelativeBins)

			expect := func(n int) float64 {
				if n > 0 {
					return 1
				}
				return 0
			}
			assert.InDelta(t, expect(len(pitches)), sum(h.Absolute), 1e-12)
			assert.InDelta(t, expect(len(pitches)-1), sum(h.Relative), 1e-12)
			assert.InDelta(t, expect(len(pitches)), sum(h.FirstNote), 1e-12)
		})
	}
}

func TestSegmentWindowsAndStride(t *testing.T) {
	var notes []model.NoteEvent
	for beat := 0; beat <= 60; beat += 4 {
		notes = append(notes, model.NoteEvent{Pitch: uint8(40 + beat), Beat: float64(beat) + 3})
	}

	windows := Segment(notes, DefaultOptions())
	// span is 60 beats, starts at 0, 8, ..., 56
	require.Len(t, windows, 8)
	for i, w := range windows {
		assert.Equal(t, float64(8*i), w.Start)
		for _, n := range w.Notes {
			offset := n.Beat - 3
			assert.GreaterOrEqual(t, offset, w.Start)
			assert.Less(t, offset, w.Start+constants.WindowBeats)
		}
	}
	// first window covers offsets 0..36
	assert.Len(t, windows[0].Notes, 10)
	// last window starts at 56 and holds the notes at 56 and 60
	assert.Equal(t, []model.NoteEvent{{Pitch: 96, Beat: 59}, {Pitch: 100, Beat: 63}}, windows[7].Notes)
}

func TestSegmentDropsEmptyWindows(t *testing.T) {
	notes := []model.NoteEvent{{Pitch: 60, Beat: 0}, {Pitch: 62, Beat: 100}}
	windows := Segment(notes, Options{WidthBeats: 10, StrideBeats: 20})

	require.Len(t, windows, 2)
	assert.Equal(t, 0.0, windows[0].Start)
	assert.Equal(t, 100.0, windows[1].Start)
}

func TestSegmentSingleNote(t *testing.T) {
	windows := Segment([]model.NoteEvent{{Pitch: 60, Beat: 5}}, DefaultOptions())
	require.Len(t, windows, 1)
	assert.Equal(t, model.Pitches{60}, windows[0].Pitches())
}

func TestSegmentRejectsBadOptions(t *testing.T) {
	notes := []model.NoteEvent{{Pitch: 60, Beat: 0}}
	assert.Empty(t, Segment(notes, Options{}))
	assert.Empty(t, Segment(nil, DefaultOptions()))
}

func TestExtractWindowsSoftFailure(t *testing.T) {
	s := smf.New()
	s.TimeFormat = smf.MetricTicks(96)
	var track smf.Track
	track.Add(0, gomidi.ProgramChange(0, 33))
	track.Add(10, gomidi.NoteOn(0, 60, 0))
	track.Close(0)
	require.NoError(t, s.Add(track))
	var buf bytes.Buffer
	_, err := s.WriteTo(&buf)
	require.NoError(t, err)
	data := buf.Bytes()
	path := filepath.Join(t.TempDir(), "instrument.mid")
	require.NoError(t, os.WriteFile(path, data, 0o644))
	assert.Empty(t, ExtractWindows(data))
	assert.Empty(t, ExtractWindows([]byte("garbage")))

	windows, err := ExtractWindowsFile(path)
	require.NoError(t, err)
	assert.Empty(t, windows)

	_, err = ExtractWindowsWithOptions([]byte("garbage"), DefaultOptions())
	assert.ErrorIs(t, err, model.ErrDecode)
}

func TestFeaturesFollowWindowOrder(t *testing.T) {
	windows := []model.Window{
		{Notes: []model.NoteEvent{{Pitch: 10}}},
		{Notes: []model.NoteEvent{{Pitch: 20}}},
	}
	features := Features(windows)
	require.Len(t, features, 2)
	assert.Equal(t, 1.0, features[0].Absolute[10])
	assert.Equal(t, 1.0, features[1].Absolute[20])
}
