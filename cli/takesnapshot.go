package cli

import (
	"github.com/spf13/cobra"

	"github.com/bulkvcs/bulkvcs/internal/walker"
)

func newTakeSnapshotCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "take-snapshot <subject-dir> <out-dir>",
		Short: "Write the nodes/digests snapshot of a directory without planting it",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return walker.Take(args[0], args[1])
		},
	}
}
