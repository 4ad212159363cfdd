package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bulkvcs/bulkvcs/internal/bulkpath"
	"github.com/bulkvcs/bulkvcs/internal/objectdb"
	"github.com/bulkvcs/bulkvcs/internal/ops"
	"github.com/bulkvcs/bulkvcs/internal/style"
)

func parseEntryMode(s string) (objectdb.Mode, error) {
	switch s {
	case "blob":
		return objectdb.ModeBlob, nil
	case "exec":
		return objectdb.ModeExec, nil
	case "tree":
		return objectdb.ModeTree, nil
	case "link":
		return objectdb.ModeLink, nil
	default:
		return 0, fmt.Errorf("unknown entry mode %q (want blob, exec, tree, or link)", s)
	}
}

func newAppendCmd() *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "append <tree> <path> <mode> <object-id>",
		Short: "Append an entry into a tree, printing the resulting tree id",
		Args:  cobra.ExactArgs(4),
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

			tree, err := repo.ResolveTreeish(args[0])
			if err != nil {
				return err
			}
			path, err := bulkpath.ParsePath(args[1])
			if err != nil {
				return err
			}
			mode, err := parseEntryMode(args[2])
			if err != nil {
				return err
			}
			id, err := objectdb.ParseHash(args[3])
			if err != nil {
				return err
			}

			newTree, err := ops.Append(repo, tree, path, mode, id, force)
			if err != nil {
				return err
			}
			fmt.Println(style.Success(newTree.String()))
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "allow replacing an existing entry at path")
	return cmd
}
