// Package miditest writes small standard MIDI files for tests.
package miditest

import (
	"bytes"
	"fmt"
	"math"
	"sort"

	"github.com/aibrahim185/Algeo02-23012/model"
	"github.com/mdobak/go-xerrors"
	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"
)

// Sample renders note events as a standard MIDI file with one track per
// argument. Every note is a zero length note-on/note-off pair, which is all the
// note extraction looks at.
func Sample(ticksPerBeat uint16, tracks ...[]model.NoteEvent) ([]byte, error) {
	if ticksPerBeat == 0 {
		return nil, xerrors.New(fmt.Errorf("%w: ticks per beat must be positive", model.ErrInvalidArgument))
	}

	res := smf.New()
	res.TimeFormat = smf.MetricTicks(ticksPerBeat)

	for _, notes := range tracks {
		sorted := append([]model.NoteEvent(nil), notes...)
		sort.SliceStable(sorted, func(i, j int) bool {
			return sorted[i].Beat < sorted[j].Beat
		})

		var track smf.Track
		var lastTicks uint32
		for _, n := range sorted {
			ticks := uint32(math.Round(n.Beat * float64(ticksPerBeat)))
			track.Add(ticks-lastTicks, gomidi.NoteOn(0, n.Pitch, 100))
			track.Add(0, gomidi.NoteOff(0, n.Pitch))
			lastTicks = ticks
		}
		track.Close(0)

		if err := res.Add(track); err != nil {
			return nil, xerrors.New(fmt.Errorf("could not add track: %w", err))
		}
	}

	var buf bytes.Buffer
	if _, err := res.WriteTo(&buf); err != nil {
		return nil, xerrors.New(fmt.Errorf("could not write midi: %w", err))
	}
	return buf.Bytes(), nil
}
