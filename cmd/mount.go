package main

import (
	"context"
	"os"
	"os/exec"
	"os/signal"
	"syscall"

	"github.com/brettbedarf/resmgr/archives"
	"github.com/brettbedarf/resmgr/config"
	"github.com/brettbedarf/resmgr/internal/util"
	"github.com/brettbedarf/resmgr/mount"
	"github.com/brettbedarf/resmgr/watch"
	"github.com/spf13/cobra"
)

func newMountCmd(cfg *config.Config) *cobra.Command {
	var (
		umount bool
		watchF bool
	)

	cmd := &cobra.Command{
		Use:   "mount <mountpoint>",
		Short: "Mount the archive as a read-only filesystem",
		Long: `Mount the archive read-only at mountpoint until interrupted. Reads go
through the resource manager's file cache. With --watch, changes below a dir
archive are picked up without remounting.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := util.GetLogger("main")
			mnt := args[0]
			if cmd.Flags().Changed("watch") {
				cfg.Watch = watchF
			}

			// Try unmount if requested
			if umount {
				// we ignore error here if not already mounted
				exec.Command("fusermount", "-u", mnt).Run() // nolint:errcheck
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM, syscall.SIGQUIT)
			defer stop()

			s, err := openSession(ctx, cfg)
			if err != nil {
				return err
			}
			defer s.Close()

			paths, err := s.mgr.List("*")
			if err != nil {
				return err
			}
			fsys := mount.New(cfg.MountOptions, s.mgr, paths)
			if err := fsys.Serve(mnt); err != nil {
				return err
			}
			logger.Info().Str("mountpoint", mnt).Int("files", len(paths)).Msg("Filesystem mounted successfully")

			watchDone := startWatch(ctx, cfg, s)

			<-ctx.Done()
			logger.Info().Msg("Received signal, unmounting filesystem")
			if err := fsys.Unmount(); err != nil {
				logger.Error().Err(err).Msg("Failed to unmount filesystem")
			} else {
				logger.Info().Msg("Filesystem unmounted successfully")
			}
			<-watchDone
			return nil
		},
	}

	cmd.Flags().BoolVarP(&umount, "umount", "u", false,
		"Unmount the fs first if needed before mounting again. Useful for debuggers that don't exit properly.")
	cmd.Flags().BoolVarP(&watchF, "watch", "w", config.DefaultWatch, "reload files that change below a dir archive")
	return cmd
}

// startWatch runs a watcher over a dir archive when enabled. The returned
// channel is closed once the watcher has exited.
func startWatch(ctx context.Context, cfg *config.Config, s *session) <-chan struct{} {
	logger := util.GetLogger("main")
	done := make(chan struct{})

	dir, ok := s.archive.(*archives.DirArchive)
	if !cfg.Watch || !ok {
		if cfg.Watch {
			logger.Warn().Str("kind", cfg.ArchiveKind).Msg("Watching is only supported for a dir archive without patches")
		}
		close(done)
		return done
	}

	w, err := watch.New(dir.Root(), cfg.WatchDebounceDuration(), s.mgr, dir)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to create watcher")
		close(done)
		return done
	}
	go func() {
		defer close(done)
		if err := w.Run(ctx); err != nil {
			logger.Error().Err(err).Msg("Watcher stopped")
		}
	}()
	return done
}
