package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/joeharson/mushroom-classification/ml"
)

const predictExample = `  mushroom-classification predict --set odor=none --set gill-size=broad
  mushroom-classification predict --set odor=foul --json`

func newPredictCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "predict",
		Short:   "Classify one mushroom from --set feature=value pairs",
		Example: predictExample,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			pairs, _ := cmd.Flags().GetStringArray("set")
			selections, err := parseSelections(pairs)
			if err != nil {
				return err
			}

			a, err := setup(cmd)
			if err != nil {
				return err
			}
			defer a.close()

			if path, _ := cmd.Flags().GetString("model"); path != "" {
				a.cfg.ML.ModelPath = path
			}
			service, err := a.loadService()
			if err != nil {
				return err
			}

			result, err := service.Predict(selections)
			if err != nil {
				return err
			}

			for _, w := range result.Warnings {
				fmt.Fprintln(cmd.ErrOrStderr(), "warning:", w)
			}
			if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(result)
			}
			printResult(cmd.OutOrStdout(), result)
			return nil
		},
	}
	cmd.Flags().StringArray("set", nil, "Feature selection as feature=value (repeatable)")
	cmd.Flags().String("model", "", "Model artifact path (overrides ml.model_path)")
	cmd.Flags().Bool("json", false, "Print the full result as JSON")
	return cmd
}

// parseSelections turns feature=value pairs into a selection map. Values keep their spaces
// ("no bruises") and a repeated feature is an error.
func parseSelections(pairs []string) (map[string]string, error) {
	selections := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		name, value, ok := strings.Cut(pair, "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid selection %q: want feature=value", pair)
		}
		if _, dup := selections[name]; dup {
			return nil, fmt.Errorf("feature %q selected more than once", name)
		}
		selections[name] = strings.TrimSpace(value)
	}
	return selections, nil
}

func printResult(w io.Writer, result *ml.Result) {
	fmt.Fprintf(w, "Prediction: %s (Probability: %.2f%%)\n",
		result.Label, result.Probabilities.Of(result.Label)*100)
	fmt.Fprintf(w, "Edible: %.2f%%\n", result.Probabilities.Edible*100)
	fmt.Fprintf(w, "Poisonous: %.2f%%\n", result.Probabilities.Poisonous*100)
	if len(result.Defaulted) > 0 {
		fmt.Fprintf(w, "Defaulted to 0: %s\n", strings.Join(result.Defaulted, ", "))
	}
}
