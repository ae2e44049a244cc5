package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/brettbedarf/resmgr/config"
	"github.com/spf13/cobra"
)

func newCacheCmd(cfg *config.Config) *cobra.Command {
	var dirty bool

	cmd := &cobra.Command{
		Use:   "cache [mask]",
		Short: "Load every resource matching a mask",
		Long: `Load every archive path matching mask ('*' crosses directories, '?' matches
one character) and print one line per path in archive order. The default
mask matches everything.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			mask := "*"
			if len(args) == 1 {
				mask = args[0]
			}

			s, err := openSession(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer s.Close()

			promises, err := s.mgr.CacheDirectoryAsync(mask)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			loaded := 0
			for _, p := range promises {
				res := p.Wait()
				if res != nil {
					loaded++
					if dirty {
						res.MarkDirty()
					}
				}
				fmt.Fprintf(w, "%s\t%s\n", p.File.Path, describeLoad(p.File, res))
			}
			if err := w.Flush(); err != nil {
				return err
			}

			stats := s.mgr.Stats()
			fmt.Fprintf(cmd.OutOrStdout(), "%d of %d resources loaded (%d files cached)\n", loaded, len(promises), stats.Files)
			return nil
		},
	}

	cmd.Flags().BoolVar(&dirty, "dirty", false, "mark every loaded resource dirty afterwards")
	return cmd
}
