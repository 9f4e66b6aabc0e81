package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewSearchCmd creates the search command
func NewSearchCmd() *cobra.Command {
	var opts indexOptions

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search packages by author, maintainer or name",
		Long: `Case-insensitive substring search over the concatenated author,
maintainer and package name of every indexed package. Packages whose
synopsis marks them deprecated are excluded.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			newest, _, _, err := loadNewest(&opts)
			if err != nil {
				return err
			}

			matches := newest.Filter(args[0])
			for _, di := range matches {
				fmt.Printf("%s-%s", di.ID.Name, di.ID.Version)
				if di.Synopsis != "" {
					fmt.Printf("  %s", di.Synopsis)
				}
				fmt.Println()
			}
			if len(matches) == 0 {
				fmt.Println("No matches.")
			}
			return nil
		},
	}

	addIndexFlags(cmd, &opts)
	return cmd
}
