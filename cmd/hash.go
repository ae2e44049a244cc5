package main

import (
	"fmt"
	"strconv"

	"github.com/brettbedarf/resmgr/archives"
	"github.com/brettbedarf/resmgr/config"
	"github.com/spf13/cobra"
)

func newHashCmd(cfg *config.Config) *cobra.Command {
	var reverse bool

	cmd := &cobra.Command{
		Use:   "hash <path|hash>...",
		Short: "Print archive path hashes or resolve them",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if !reverse {
				// Hashing needs no archive
				for _, p := range args {
					fmt.Fprintf(out, "%s  %s\n", formatHash(archives.HashPath(p)), p)
				}
				return nil
			}

			s, err := openSession(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer s.Close()

			for _, arg := range args {
				h, err := strconv.ParseUint(arg, 16, 64)
				if err != nil {
					return fmt.Errorf("invalid hash %q: %w", arg, err)
				}
				p := s.mgr.HashToString(h)
				if p == "" {
					p = "<unknown>"
				}
				fmt.Fprintf(out, "%s  %s\n", formatHash(h), p)
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&reverse, "reverse", "r", false, "resolve hex hashes to archive paths")
	return cmd
}

func formatHash(h uint64) string {
	return fmt.Sprintf("%016x", h)
}
