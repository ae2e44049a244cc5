package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/brettbedarf/resmgr/config"
	"github.com/brettbedarf/resmgr/manager"
	"github.com/spf13/cobra"
)

func newLoadCmd(cfg *config.Config) *cobra.Command {
	var raw bool

	cmd := &cobra.Command{
		Use:   "load <path>...",
		Short: "Load and decode resources",
		Long: `Load each path through the resource manager and print what was decoded.
All paths are requested before any result is awaited.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer s.Close()

			if raw {
				return writeRaw(cmd.OutOrStdout(), s.mgr, args)
			}

			promises := make([]*manager.ResourcePromise, len(args))
			for i, p := range args {
				promises[i] = s.mgr.LoadResourceAsync(p)
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			failed := 0
			for i, p := range promises {
				res := p.Wait()
				if res == nil {
					failed++
				}
				fmt.Fprintf(w, "%s\t%s\n", args[i], describeLoad(p.File, res))
			}
			if err := w.Flush(); err != nil {
				return err
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d resources failed to load", failed, len(args))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&raw, "raw", false, "write the raw file bytes to stdout instead of a summary")
	return cmd
}

func writeRaw(out io.Writer, mgr *manager.Manager, paths []string) error {
	for _, p := range paths {
		f := mgr.LoadFile(p)
		if f.HasLoadError() {
			return f.Err()
		}
		if _, err := out.Write(f.Data()); err != nil {
			return err
		}
	}
	return nil
}

// describeLoad summarizes one load result on a single line
func describeLoad(f *manager.File, res *manager.Resource) string {
	if f.HasLoadError() {
		return fmt.Sprintf("error: %v", f.Err())
	}
	if res == nil {
		return fmt.Sprintf("%016x  %d bytes  decode failed", f.Hash, len(f.Data()))
	}
	return fmt.Sprintf("%016x  %d bytes  %s", f.Hash, len(f.Data()), describePayload(res.Payload))
}

func describePayload(payload any) string {
	switch v := payload.(type) {
	case nil:
		return "empty"
	case string:
		return fmt.Sprintf("text (%d chars)", len([]rune(v)))
	case []byte:
		return fmt.Sprintf("raw (%d bytes)", len(v))
	case map[string]any:
		return fmt.Sprintf("document (%d keys)", len(v))
	case []any:
		return fmt.Sprintf("list (%d items)", len(v))
	default:
		return fmt.Sprintf("%T", v)
	}
}
