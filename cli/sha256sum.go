package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/bulkvcs/bulkvcs/internal/blobstore"
)

func newSha256SumCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sha256sum <file>",
		Short: "Print a file's SHA-256 content hash",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()
			hash, err := blobstore.Sha256Sum(f)
			if err != nil {
				return err
			}
			fmt.Printf("%s  %s\n", hash, args[0])
			return nil
		},
	}
}
