package cli

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/soenkehahn/packdeps/internal/index"
	"github.com/soenkehahn/packdeps/internal/models"
)

// NewReversesCmd creates the reverses command
func NewReversesCmd() *cobra.Command {
	var opts indexOptions

	cmd := &cobra.Command{
		Use:   "reverses <package>",
		Short: "List the packages depending on a given package",
		Long: `Inverts the index into a reverse-dependency view and prints every
package whose newest release declares a dependency on the given package,
with the required range and whether that range still accepts the
package's newest version.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			newest, _, _, err := loadNewest(&opts)
			if err != nil {
				return err
			}

			target := args[0]
			rd, ok := index.Reverses(newest)[target]
			if !ok {
				return &models.PackDepsError{
					Type:    models.ErrIndexLoad,
					Package: target,
					Err:     fmt.Errorf("no indexed package depends on it, or it is not indexed"),
				}
			}

			users := append([]models.RevDep(nil), rd.Users...)
			sort.Slice(users, func(i, j int) bool { return users[i].Name < users[j].Name })

			fmt.Printf("%s-%s is depended on by %d packages:\n", target, rd.Version, len(users))
			for _, u := range users {
				status := "accepts newest"
				if !u.Range.Satisfies(rd.Version) {
					status = "rejects newest"
				}
				fmt.Printf("  %s (%s) %s\n", u.Name, u.Range, status)
			}
			return nil
		},
	}

	addIndexFlags(cmd, &opts)
	return cmd
}
