package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/bulkvcs/bulkvcs/internal/planter"
	"github.com/bulkvcs/bulkvcs/internal/snapshot"
	"github.com/bulkvcs/bulkvcs/internal/style"
)

func newPlantSnapshotCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "plant-snapshot <snapshot-dir>",
		Short: "Plant an already-written nodes/digests snapshot into the object database",
		Args:  cobra.ExactArgs(1),
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

			nodesFile, err := os.Open(filepath.Join(args[0], "nodes"))
			if err != nil {
				return err
			}
			defer nodesFile.Close()
			digestsFile, err := os.Open(filepath.Join(args[0], "digests"))
			if err != nil {
				return err
			}
			defer digestsFile.Close()

			buf := snapshot.NewBuffered(snapshot.Open(nodesFile, digestsFile))
			_, id, err := planter.Plant(repo, buf)
			if err != nil {
				return err
			}
			fmt.Println(style.Success(id.String()))
			return nil
		},
	}
}
