package cli

import (
	"github.com/spf13/cobra"

	"github.com/bulkvcs/bulkvcs/internal/integrator"
)

func newStoreSnapshotCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "store-snapshot <subject-dir> <tree>",
		Short: "Store a planted tree's shadowed blobs from a subject directory",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolvedConfig()
			if err != nil {
				return err
			}
			if err := guardWritable(cfg); err != nil {
				return err
			}
			repo, err := openRepo(cfg)
			if err != nil {
				return err
			}
			defer repo.Close()
			blobs, err := openBlobs(cfg)
			if err != nil {
				return err
			}

			id, err := repo.ResolveTreeish(args[1])
			if err != nil {
				return err
			}
			return integrator.StoreSnapshot(repo, blobs, args[0], id)
		},
	}
}
