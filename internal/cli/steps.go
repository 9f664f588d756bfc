package cli

import (
	"strconv"
	"strings"

	"github.com/spf13/cobra"
)

// NewStepsCmd создаёт команду steps.
func NewStepsCmd(deps Deps) *cobra.Command {
	return &cobra.Command{
		Use:   "steps",
		Short: "List pipeline steps, their policies and actions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := deps.Config()
			if err != nil {
				return err
			}
			out := deps.Output()

			steps := cfg.Steps()
			headers := []string{"#", "STEP", "POLICY", "RECORD_KEY", "ACTION"}
			rows := make([][]string, len(steps))
			for i, s := range steps {
				rows[i] = []string{
					strconv.Itoa(i + 1),
					s.Name,
					s.Policy.String(),
					s.RecordKey(),
					strings.Join(s.Action, " "),
				}
			}

			out.Print(headers, rows, steps)
			return nil
		},
	}
}
