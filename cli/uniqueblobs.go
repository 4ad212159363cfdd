package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bulkvcs/bulkvcs/internal/bulkpath"
	"github.com/bulkvcs/bulkvcs/internal/shadow"
	"github.com/bulkvcs/bulkvcs/internal/traverse"
)

func newUniqueBlobsCmd() *cobra.Command {
	var tree string
	cmd := &cobra.Command{
		Use:   "unique-blobs",
		Short: "List the distinct shadow content hashes reachable from a tree",
		Args:  cobra.NoArgs,
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

			treeish := tree
			if treeish == "" {
				treeish = "HEAD"
			}
			id, err := repo.ResolveTreeish(treeish)
			if err != nil {
				return err
			}
			return traverse.UniqueShadows(repo, id, func(path bulkpath.Path, s shadow.Shadow) error {
				fmt.Printf("%s  %s\n", s.ContentHash, path)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&tree, "tree", "", "treeish to walk (default HEAD)")
	return cmd
}
