package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/soenkehahn/packdeps/internal/cabal"
	"github.com/soenkehahn/packdeps/internal/index"
	"github.com/soenkehahn/packdeps/internal/models"
	"github.com/soenkehahn/packdeps/internal/platform"
)

// NewCheckCmd creates the check command
func NewCheckCmd() *cobra.Command {
	var opts indexOptions

	cmd := &cobra.Command{
		Use:   "check <cabal files...>",
		Short: "Check local packages against the newest indexed versions",
		Long: `Loads the package index, extracts a descriptor from each given cabal
file and reports every dependency bound that rejects the newest available
version of its target. Exits non-zero when any package is outdated.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			newest, id, _, err := loadNewest(&opts)
			if err != nil {
				return err
			}
			return runChecks(newest, id, args)
		},
	}

	addIndexFlags(cmd, &opts)
	return cmd
}

func runChecks(newest index.Newest, id platform.Identity, paths []string) error {
	outdated := 0
	for _, path := range paths {
		di, err := loadLocalDescriptor(path, id)
		if err != nil {
			return err
		}
		if !printCheck(newest, di) {
			outdated++
		}
	}

	if outdated > 0 {
		return fmt.Errorf("%d of %d packages cannot accept the newest versions", outdated, len(paths))
	}
	return nil
}

// loadLocalDescriptor extracts a descriptor from one local cabal file.
// Unlike archive entries, a local file that fails to parse is a caller
// error, not an absence.
func loadLocalDescriptor(path string, id platform.Identity) (*models.DescInfo, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &models.PackDepsError{
			Type: models.ErrFileOp,
			Err:  fmt.Errorf("failed to read cabal file: %w", err),
		}
	}

	di, ok := cabal.LoadDescriptor(data, id)
	if !ok {
		return nil, &models.PackDepsError{
			Type:    models.ErrParse,
			Package: path,
			Err:     fmt.Errorf("failed to parse or resolve metadata"),
		}
	}
	return di, nil
}

// printCheck reports one package's result and returns whether every newest
// version is accepted.
func printCheck(newest index.Newest, di *models.DescInfo) bool {
	res := index.CheckDeps(newest, di)
	if res.AllNewest {
		fmt.Printf("%s-%s: all newest versions accepted\n", di.ID.Name, di.ID.Version)
		return true
	}

	fmt.Printf("%s-%s: cannot accept:\n", di.ID.Name, di.ID.Version)
	for _, pair := range res.WontAccept {
		fmt.Printf("  %s-%s\n", pair.Name, pair.Version)
	}
	fmt.Printf("  outdated no later than %s\n", time.Unix(res.Deadline, 0).UTC().Format(time.RFC3339))
	return false
}
