package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bulkvcs/bulkvcs/internal/bulkpath"
	"github.com/bulkvcs/bulkvcs/internal/integrator"
	"github.com/bulkvcs/bulkvcs/internal/style"
	"github.com/bulkvcs/bulkvcs/internal/walker"
)

func newSnapshotCmd() *cobra.Command {
	var message string
	var force bool
	cmd := &cobra.Command{
		Use:   "snapshot <subject-dir> <rel-path>",
		Short: "Snapshot a directory and append it to HEAD as a new commit",
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

			relPath, err := bulkpath.ParsePath(args[1])
			if err != nil {
				return err
			}
			author, err := cfg.Author()
			if err != nil {
				return err
			}

			commit, err := integrator.Snapshot(repo, blobs, integrator.SnapshotOptions{
				Subject:    args[0],
				RelPath:    relPath,
				TakeSnap:   walker.Take,
				Author:     author,
				Message:    message,
				CanReplace: force,
			})
			if err != nil {
				return err
			}
			fmt.Println(style.Success(commit.String()))
			return nil
		},
	}
	cmd.Flags().StringVarP(&message, "message", "m", "", "commit message")
	cmd.Flags().BoolVar(&force, "force", false, "allow replacing an existing entry at rel-path")
	return cmd
}
