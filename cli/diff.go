package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/bulkvcs/bulkvcs/internal/ops"
	"github.com/bulkvcs/bulkvcs/internal/style"
)

func newDiffCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "diff <tree-a> <tree-b>",
		Short: "Shallow-diff two trees",
		Args:  cobra.ExactArgs(2),
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

			a, err := repo.ResolveTreeish(args[0])
			if err != nil {
				return err
			}
			b, err := repo.ResolveTreeish(args[1])
			if err != nil {
				return err
			}

			return ops.ShallowDiff(repo, a, b, func(d ops.Difference) error {
				name := strings.Join(append(append([]string{}, d.ParentPath...), d.Entry.Name), "/")
				line := fmt.Sprintf("%s %s %s", d.Side, name, d.Entry.ID)
				if d.Side == ops.SideA {
					fmt.Println(style.DiffAdded(line))
				} else {
					fmt.Println(style.DiffRemoved(line))
				}
				return nil
			})
		},
	}
	return cmd
}
