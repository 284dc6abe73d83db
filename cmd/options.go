package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newOptionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "options [feature]",
		Short: "List the values the reference dataset offers per feature",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := setup(cmd)
			if err != nil {
				return err
			}
			defer a.close()

			reference, err := a.loadReference()
			if err != nil {
				return err
			}

			names := a.catalog.ActiveFeatures()
			if all, _ := cmd.Flags().GetBool("all"); all {
				names = a.catalog.Names()
			}
			if len(args) == 1 {
				if _, ok := a.catalog.Index(args[0]); !ok {
					return fmt.Errorf("unknown feature %q", args[0])
				}
				names = args
			}

			out := cmd.OutOrStdout()
			for _, name := range names {
				fmt.Fprintf(out, "%s: %s\n", name, strings.Join(reference.Options(name), ", "))
			}
			return nil
		},
	}
	cmd.Flags().Bool("all", false, "Include features the model does not encode")
	return cmd
}
