package cmd

import (
	"fmt"

	"github.com/aibrahim185/Algeo02-23012/melody"
	"github.com/aibrahim185/Algeo02-23012/midi"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(inspectCmd)
}

var inspectCmd = &cobra.Command{
	Use:   "inspect <file.mid>",
	Short: "Prints the windows and histograms of a MIDI file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return inspect(args[0])
	},
}

func inspect(path string) error {
	s, err := midi.ReadMidiFile(path)
	if err != nil {
		return err
	}
	notes, err := midi.Notes(s)
	if err != nil {
		return err
	}
	fmt.Printf("%v: %v, %v notes\n", path, midi.Describe(s), len(notes))

	windows := melody.Segment(notes, melody.DefaultOptions())
	for i, w := range windows {
		h := melody.Histograms(w.Pitches())
		fmt.Printf("window %v at beat %v: %v notes\n", i, w.Start, len(w.Notes))
		fmt.Printf("  pitches: %v\n", w.Pitches())
		fmt.Printf("  bins used: absolute %v, relative %v, first note %v\n",
			nonZero(h.Absolute), nonZero(h.Relative), nonZero(h.FirstNote))
	}
	return nil
}

func nonZero(h []float64) int {
	var res int
	for _, v := range h {
		if v != 0 {
			res++
		}
	}
	return res
}
