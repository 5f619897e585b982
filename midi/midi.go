package midi

import (
	"bytes"
	"fmt"
	"os"
	"sort"

	"github.com/aibrahim185/Algeo02-23012/model"
	"github.com/mdobak/go-xerrors"
	"gitlab.com/gomidi/midi/v2/smf"
)

// Decode parses a standard MIDI file held in memory.
func Decode(data []byte) (s *smf.SMF, e error) {
	// the smf reader panics on some truncated files
	defer func() {
		if r := recover(); r != nil {
			s = nil
			e = xerrors.New(model.ErrDecode, xerrors.FromRecover(r))
		}
	}()

	if len(data) == 0 {
		return nil, xerrors.New(fmt.Errorf("%w: empty midi data", model.ErrDecode))
	}

	res, err := smf.ReadFrom(bytes.NewReader(data))
	if err != nil {
		return nil, xerrors.New(fmt.Errorf("%w: error parsing midi file: %v", model.ErrDecode, err))
	}
	return res, nil
}

func ReadMidiFile(filepath string) (*smf.SMF, error) {
	dat, err := os.ReadFile(filepath)
	if err != nil {
		return nil, xerrors.New(fmt.Errorf("error reading midi file: %w", err))
	}
	return Decode(dat)
}

// TicksPerBeat returns the metric resolution of s. SMPTE timed files have no
// notion of a beat and are rejected.
func TicksPerBeat(s *smf.SMF) (uint16, error) {
	ticks, ok := s.TimeFormat.(smf.MetricTicks)
	if !ok {
		return 0, xerrors.New(fmt.Errorf("%w: unsupported time format %v", model.ErrDecode, s.TimeFormat))
	}
	if ticks.Resolution() == 0 {
		return 0, xerrors.New(fmt.Errorf("%w: zero ticks per beat", model.ErrDecode))
	}
	return ticks.Resolution(), nil
}

// Notes collects every note-on with a non zero velocity across all tracks.
// Beat offsets are per track elapsed ticks divided by ticks per beat, and the
// result is ordered by onset (ties keep track order).
func Notes(s *smf.SMF) ([]model.NoteEvent, error) {
	tpb, err := TicksPerBeat(s)
	if err != nil {
		return nil, err
	}

	var notes []model.NoteEvent
	for _, events := range s.Tracks {
		var absTicks uint64
		for _, event := range events {
			absTicks += uint64(event.Delta)
			var channel, key, velocity uint8
			if event.Message.GetNoteOn(&channel, &key, &velocity) && velocity > 0 {
				notes = append(notes, model.NoteEvent{
					Pitch: key,
					Beat:  float64(absTicks) / float64(tpb),
				})
			}
		}
	}

	sort.SliceStable(notes, func(i, j int) bool {
		return notes[i].Beat < notes[j].Beat
	})
	return notes, nil
}

// DecodeNotes is Decode followed by Notes.
func DecodeNotes(data []byte) ([]model.NoteEvent, error) {
	s, err := Decode(data)
	if err != nil {
		return nil, err
	}
	return Notes(s)
}

func Describe(s *smf.SMF) string {
	return fmt.Sprintf("tracks=%d time=%v", len(s.Tracks), s.TimeFormat)
}
