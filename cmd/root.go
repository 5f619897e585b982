package cmd

import (
	"github.com/aibrahim185/Algeo02-23012/constants"
	"github.com/aibrahim185/Algeo02-23012/picture"
	"github.com/aibrahim185/Algeo02-23012/service"
	"github.com/aibrahim185/Algeo02-23012/util"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "algeo",
	Short: "Image and MIDI similarity search",
	Long: `Searches a folder of images by eigenimage (PCA) distance and a folder of
MIDI files by melodic pitch histograms.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		constants.Load()
	},
	SilenceUsage: true,
}

func Execute() {
	cobra.CheckErr(rootCmd.Execute())
}

func newService(progress func(stage string, done, total int)) *service.Service {
	return service.New(service.Options{
		Workers:    constants.GetWorkers(),
		Components: constants.GetComponents(),
		Filter:     picture.ParseFilter(constants.GetResample()),
		Logger:     util.GetLogger(),
		Progress:   progress,
	})
}
