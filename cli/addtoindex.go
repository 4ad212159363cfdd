package cli

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/bulkvcs/bulkvcs/internal/blobstore"
	"github.com/bulkvcs/bulkvcs/internal/bulkerr"
	"github.com/bulkvcs/bulkvcs/internal/bulkpath"
	"github.com/bulkvcs/bulkvcs/internal/objectdb"
	"github.com/bulkvcs/bulkvcs/internal/ops"
	"github.com/bulkvcs/bulkvcs/internal/shadow"
	"github.com/bulkvcs/bulkvcs/internal/style"
)

// newAddToIndexCmd is the single-file convenience: it stores one file's
// content under its content hash and appends its shadow at path in HEAD's
// tree, committing the result, without running the full snapshot pipeline.
func newAddToIndexCmd() *cobra.Command {
	var executable bool
	var message string
	var force bool
	cmd := &cobra.Command{
		Use:   "add-to-index <file> <path>",
		Short: "Store one file and append its shadow at path, as a new commit",
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

			info, err := os.Stat(args[0])
			if err != nil {
				return err
			}
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			hash, err := blobstore.Sha256Sum(f)
			f.Close()
			if err != nil {
				return err
			}
			if err := blobs.Store(hash, args[0]); err != nil {
				return err
			}

			shadowID, err := repo.PutBlob(shadow.ToBytes(shadow.Shadow{ContentHash: hash, Size: uint64(info.Size())}))
			if err != nil {
				return err
			}

			path, err := bulkpath.ParsePath(args[1])
			if err != nil {
				return err
			}

			headTree, err := repo.ResolveTreeish("HEAD")
			var headCommit objectdb.Hash
			var parents []objectdb.Hash
			if err != nil {
				if !errors.Is(err, bulkerr.NotFound) {
					return err
				}
				headTree, err = ops.EmptyBulkTree(repo)
				if err != nil {
					return err
				}
			} else {
				headCommit, err = repo.Head().Get()
				if err != nil {
					return err
				}
				parents = []objectdb.Hash{headCommit}
			}

			mode := objectdb.ModeBlob
			if executable {
				mode = objectdb.ModeExec
			}
			newTree, err := ops.Append(repo, headTree, path, mode, shadowID, force)
			if err != nil {
				return err
			}

			author, err := cfg.Author()
			if err != nil {
				return err
			}
			commitID, err := repo.PutCommit(objectdb.Commit{
				Tree:      newTree,
				Parents:   parents,
				Author:    author,
				Committer: author,
				Time:      time.Now().Unix(),
				Message:   message,
			})
			if err != nil {
				return err
			}

			if len(parents) == 0 {
				if err := repo.Head().Set(commitID); err != nil {
					return err
				}
			} else if err := repo.Head().FastForward(headCommit, commitID); err != nil {
				return err
			}

			fmt.Println(style.Success(commitID.String()))
			return nil
		},
	}
	cmd.Flags().BoolVar(&executable, "executable", false, "record the file as executable")
	cmd.Flags().StringVarP(&message, "message", "m", "", "commit message")
	cmd.Flags().BoolVar(&force, "force", false, "allow replacing an existing entry at path")
	return cmd
}
