package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bulkvcs/bulkvcs/internal/style"
	"github.com/bulkvcs/bulkvcs/internal/traverse"
)

func newCheckCmd() *cobra.Command {
	var tree string
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Walk a tree, validating every structural invariant",
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
			if err := traverse.Check(repo, id); err != nil {
				return fmt.Errorf("%s: %w", style.Invariant("invariant violation"), err)
			}
			fmt.Println(style.Success("ok"))
			return nil
		},
	}
	cmd.Flags().StringVar(&tree, "tree", "", "treeish to check (default HEAD)")
	return cmd
}
