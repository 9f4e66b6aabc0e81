package cli

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/soenkehahn/packdeps/internal/index"
	"github.com/soenkehahn/packdeps/internal/models"
)

// NewDeepDepsCmd creates the deepdeps command
func NewDeepDepsCmd() *cobra.Command {
	var opts indexOptions
	var check bool

	cmd := &cobra.Command{
		Use:   "deepdeps <cabal files...>",
		Short: "List the transitive dependency closure of local packages",
		Long: `Computes the set of every package transitively reachable through the
declared dependencies of the given cabal files, each visited once. With
--check, every package in the closure is also checked against the newest
indexed versions.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			newest, id, _, err := loadNewest(&opts)
			if err != nil {
				return err
			}

			var seeds []*models.DescInfo
			for _, path := range args {
				di, err := loadLocalDescriptor(path, id)
				if err != nil {
					return err
				}
				seeds = append(seeds, di)
			}

			closure := index.DeepDeps(newest, seeds)
			logrus.Debugf("Closure of %d seeds has %d packages", len(seeds), len(closure))

			if !check {
				for _, di := range closure {
					fmt.Printf("%s-%s\n", di.ID.Name, di.ID.Version)
				}
				return nil
			}

			outdated := 0
			for _, di := range closure {
				if !printCheck(newest, di) {
					outdated++
				}
			}
			if outdated > 0 {
				return fmt.Errorf("%d of %d packages cannot accept the newest versions", outdated, len(closure))
			}
			return nil
		},
	}

	addIndexFlags(cmd, &opts)
	cmd.Flags().BoolVar(&check, "check", false, "Also check every package in the closure")
	return cmd
}
