package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/aibrahim185/Algeo02-23012/constants"
	"github.com/aibrahim185/Algeo02-23012/corpus"
	"github.com/aibrahim185/Algeo02-23012/model"
	"github.com/mdobak/go-xerrors"
	"github.com/spf13/cobra"
)

var (
	searchDir    string
	searchTop    int
	searchWidth  int
	searchHeight int
)

func init() {
	imageCmd.Flags().StringVarP(&searchDir, "dir", "d", "", "image folder (default IMAGE_DIR)")
	imageCmd.Flags().IntVarP(&searchTop, "top", "k", 10, "number of results, 0 for all")
	imageCmd.Flags().IntVar(&searchWidth, "width", 0, "resize width (default IMAGE_WIDTH)")
	imageCmd.Flags().IntVar(&searchHeight, "height", 0, "resize height (default IMAGE_HEIGHT)")
	rootCmd.AddCommand(imageCmd)

	audioCmd.Flags().StringVarP(&searchDir, "dir", "d", "", "midi folder (default AUDIO_DIR)")
	audioCmd.Flags().IntVarP(&searchTop, "top", "k", 10, "number of results, 0 for all")
	rootCmd.AddCommand(audioCmd)
}

var imageCmd = &cobra.Command{
	Use:   "image <query>",
	Short: "Finds the images closest to a query image",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dir := orDefault(searchDir, constants.GetImageDir())
		width := searchWidth
		if width <= 0 {
			width = constants.GetImageWidth()
		}
		height := searchHeight
		if height <= 0 {
			height = constants.GetImageHeight()
		}

		paths, err := corpus.Gather(dir, constants.ImageExtensions, 0)
		if err != nil {
			return err
		}
		svc := newService(progressPrinter(os.Stdout, 100*time.Millisecond))
		res, err := svc.FitAndRankImageFiles(context.Background(), paths, args[0], width, height, searchTop)
		if err != nil {
			return err
		}
		printImageRanking(res)
		return nil
	},
}

var audioCmd = &cobra.Command{
	Use:   "audio <query.mid>",
	Short: "Finds the MIDI files closest to a query MIDI file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dir := orDefault(searchDir, constants.GetAudioDir())
		paths, err := corpus.Gather(dir, constants.MidiExtensions, 0)
		if err != nil {
			return err
		}
		if len(paths) == 0 {
			return xerrors.New(fmt.Errorf("%w: no midi files in %s", model.ErrEmptyCorpus, dir))
		}

		svc := newService(progressPrinter(os.Stdout, 100*time.Millisecond))
		res, err := svc.RankAudioFile(context.Background(), paths, args[0], searchTop)
		if err != nil {
			return err
		}
		printAudioRanking(res)
		return nil
	},
}

func orDefault(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}

func printImageRanking(res *model.ImageRanking) {
	fmt.Printf("ranking %v: %v images (%v skipped), %v components, took %v\n",
		res.ID, res.Corpus, res.Skipped, res.Components, res.Took)
	for i, r := range res.Results {
		fmt.Printf("%3d. %-40s distance %10.3f  similarity %5.1f%%\n",
			i+1, r.Name, r.Distance, r.Similarity*100)
	}
}

func printAudioRanking(res *model.AudioRanking) {
	fmt.Printf("ranking %v: %v midi files (%v skipped), took %v\n",
		res.ID, res.Corpus, res.Skipped, res.Took)
	for i, r := range res.Results {
		fmt.Printf("%3d. %-40s similarity %6.2f%%  windows %v\n",
			i+1, r.Name, r.Percentage, r.Windows)
	}
}
