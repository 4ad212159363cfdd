package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bulkvcs/bulkvcs/internal/fsproj"
	"github.com/bulkvcs/bulkvcs/internal/style"
)

func newMountCmd() *cobra.Command {
	var tree string
	cmd := &cobra.Command{
		Use:   "mount <mountpoint>",
		Short: "Mount a planted tree read-only over FUSE",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolvedConfig()
			if err != nil {
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

			treeish := tree
			if treeish == "" {
				treeish = "HEAD"
			}
			rootID, err := repo.ResolveTreeish(treeish)
			if err != nil {
				return err
			}

			server, err := fsproj.Mount(args[0], repo, blobs, rootID)
			if err != nil {
				return fmt.Errorf("mounting at %s: %w", args[0], err)
			}
			fmt.Println(style.Info(fmt.Sprintf("mounted at %s, press Ctrl-C to unmount", args[0])))
			server.Wait()
			return nil
		},
	}
	cmd.Flags().StringVar(&tree, "tree", "", "treeish to mount (default HEAD)")
	return cmd
}
