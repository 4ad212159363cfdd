// Package cli wires the bulkvcs subcommands onto a cobra root command.
package cli

import (
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/bulkvcs/bulkvcs/internal/blobstore"
	"github.com/bulkvcs/bulkvcs/internal/config"
	"github.com/bulkvcs/bulkvcs/internal/objectdb"
)

var (
	flagGitDir    string
	flagBlobStore string
	flagReadOnly  bool
	flagVerbosity int
)

// Execute builds the command tree and runs it against os.Args.
func Execute() {
	root := &cobra.Command{
		Use:           "bulkvcs",
		Short:         "Bulk-file version-control overlay",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			switch flagVerbosity {
			case 0:
				log.SetFlags(0)
			case 1:
				log.SetFlags(log.Ltime)
			default:
				log.SetFlags(log.Ltime | log.Lmicroseconds | log.Lshortfile)
			}
		},
	}
	root.PersistentFlags().StringVar(&flagGitDir, "git-dir", "", "object database root (overrides BULK_GIT_DIR)")
	root.PersistentFlags().StringVar(&flagBlobStore, "blob-store", "", "blob store root (overrides BULK_BLOB_STORE)")
	root.PersistentFlags().BoolVar(&flagReadOnly, "ro", false, "constrain execution to read-only operations")
	root.PersistentFlags().CountVarP(&flagVerbosity, "verbose", "v", "increase verbosity (repeatable)")

	root.AddCommand(
		newMountCmd(),
		newSnapshotCmd(),
		newDiffCmd(),
		newCheckCmd(),
		newUniqueBlobsCmd(),
		newTakeSnapshotCmd(),
		newPlantSnapshotCmd(),
		newStoreSnapshotCmd(),
		newAppendCmd(),
		newAddToIndexCmd(),
		newSha256SumCmd(),
	)

	if err := root.Execute(); err != nil {
		log.Printf("bulkvcs: %v", err)
		os.Exit(1)
	}
}

// resolvedConfig merges flag > env > config file > built-in default.
func resolvedConfig() (*config.Config, error) {
	objectDBRoot := flagGitDir
	if objectDBRoot == "" {
		objectDBRoot = os.Getenv("BULK_GIT_DIR")
	}
	cfg, err := config.Load(objectDBRoot)
	if err != nil {
		return nil, err
	}
	if flagGitDir != "" {
		cfg.Core.ObjectDBRoot = flagGitDir
	}
	if flagBlobStore != "" {
		cfg.Core.BlobStoreRoot = flagBlobStore
	}
	if flagReadOnly {
		ro := true
		cfg.Core.ReadOnly = &ro
	}
	if cfg.Core.ObjectDBRoot == "" {
		return nil, fmt.Errorf("missing --git-dir (or BULK_GIT_DIR)")
	}
	return cfg, nil
}

func openRepo(cfg *config.Config) (*objectdb.Repository, error) {
	return objectdb.Open(cfg.Core.ObjectDBRoot, cfg.Core.ObjectDBRoot+"/head.db")
}

func openBlobs(cfg *config.Config) (*blobstore.Store, error) {
	root := cfg.Core.BlobStoreRoot
	if root == "" {
		root = cfg.Core.ObjectDBRoot + "/blobs-store"
	}
	return blobstore.Open(root)
}

func guardWritable(cfg *config.Config) error {
	if cfg.Core.IsReadOnly() {
		return fmt.Errorf("operation requires write access but --ro is set")
	}
	return nil
}
