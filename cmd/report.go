package cmd

import (
	"context"
	"fmt"

	"github.com/aibrahim185/Algeo02-23012/constants"
	"github.com/aibrahim185/Algeo02-23012/corpus"
	"github.com/aibrahim185/Algeo02-23012/melody"
	"github.com/aibrahim185/Algeo02-23012/model"
	"github.com/aibrahim185/Algeo02-23012/picture"
	"github.com/aibrahim185/Algeo02-23012/util"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(reportCmd)
}

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Reports what the media folders contain",
	Long:  `Counts the images and MIDI files the searches would use, and how many of them decode.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		images, err := analyzeImages(ctx, constants.GetImageDir())
		if err != nil {
			return err
		}
		midis, err := analyzeMidi(ctx, constants.GetAudioDir())
		if err != nil {
			return err
		}
		printReport(images, midis)
		return nil
	},
}

type imagesReport struct {
	numFiles   int
	numDecoded int
	formats    map[string]int
}

type midiReport struct {
	numFiles       int
	numWithWindows int
	windowCounts   []int
}

func analyzeImages(ctx context.Context, dir string) (imagesReport, error) {
	report := imagesReport{formats: map[string]int{}}
	paths, err := corpus.Gather(dir, constants.ImageExtensions, 0)
	if err != nil {
		return report, err
	}
	report.numFiles = len(paths)

	items, _, err := corpus.LoadFiles(ctx, paths, constants.GetWorkers())
	if err != nil {
		return report, err
	}
	results, err := corpus.Map(ctx, items, constants.GetWorkers(), func(_ context.Context, it corpus.Item) (string, error) {
		_, format, err := picture.Decode(it.Data)
		return format, err
	})
	if err != nil {
		return report, err
	}
	for _, r := range results {
		if r.Ok() {
			report.numDecoded++
			report.formats[r.Value]++
		}
	}
	return report, nil
}

func analyzeMidi(ctx context.Context, dir string) (midiReport, error) {
	var report midiReport
	paths, err := corpus.Gather(dir, constants.MidiExtensions, 0)
	if err != nil {
		return report, err
	}
	report.numFiles = len(paths)

	results, err := corpus.Map(ctx, paths, constants.GetWorkers(), func(_ context.Context, path string) ([]model.Window, error) {
		return melody.ExtractWindowsFile(path)
	})
	if err != nil {
		return report, err
	}
	for _, r := range results {
		if r.Ok() && len(r.Value) > 0 {
			report.numWithWindows++
			report.windowCounts = append(report.windowCounts, len(r.Value))
		}
	}
	return report, nil
}

func printReport(images imagesReport, midis midiReport) {
	fmt.Printf("images.numFiles: %v\n", images.numFiles)
	fmt.Printf("images.numDecoded: %v\n", images.numDecoded)
	for _, format := range util.GetKeys(images.formats) {
		fmt.Printf("images.formats[%v]: %v\n", format, images.formats[format])
	}

	fmt.Printf("midi.numFiles: %v\n", midis.numFiles)
	fmt.Printf("midi.numWithWindows: %v\n", midis.numWithWindows)
	totalWindows := util.Sum(midis.windowCounts)
	fmt.Printf("midi.totalWindows: %v\n", totalWindows)
	if midis.numWithWindows > 0 {
		fmt.Printf("midi.avgWindows: %.2f\n", totalWindows/float64(midis.numWithWindows))
	}
}
