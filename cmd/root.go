package cmd

import (
	"github.com/spf13/cobra"
)

const rootLong = `Classifies a mushroom as edible or poisonous from its physical features,
using a tree ensemble trained on the UCI mushroom dataset.`

// NewRootCmd builds the command tree. Each call returns fresh flag state.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "mushroom-classification",
		Short:        "Edible or poisonous? Mushroom classifier service",
		Long:         rootLong,
		SilenceUsage: true,
	}

	root.PersistentFlags().String("config", "config.yaml", "Path to the YAML config file (MUSHROOM_* env vars override it)")

	root.AddCommand(newServeCmd())
	root.AddCommand(newPredictCmd())
	root.AddCommand(newOptionsCmd())
	root.AddCommand(newImportCmd())
	root.AddCommand(newVersionCmd())
	return root
}

func Execute() error {
	return NewRootCmd().Execute()
}
