package cli

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/soenkehahn/packdeps/internal/watcher"
)

// NewWatchCmd creates the watch command
func NewWatchCmd() *cobra.Command {
	var opts indexOptions

	cmd := &cobra.Command{
		Use:   "watch [cabal files...]",
		Short: "Re-check packages whenever the index changes",
		Long: `Loads the index, checks the given cabal files, then keeps watching the
index archives and repeats the check after every change. Runs until
interrupted.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			newest, id, files, err := loadNewest(&opts)
			if err != nil {
				return err
			}
			if len(args) > 0 {
				if err := runChecks(newest, id, args); err != nil {
					logrus.Warn(err)
				}
			}

			reload := func() {
				logrus.Info("Index changed, reloading")
				newest, id, _, err := loadNewest(&opts)
				if err != nil {
					logrus.Errorf("Reload failed: %v", err)
					return
				}
				logrus.Infof("Reloaded %d packages", len(newest))
				if len(args) > 0 {
					if err := runChecks(newest, id, args); err != nil {
						logrus.Warn(err)
					}
				}
			}

			w, err := watcher.New(files, reload)
			if err != nil {
				return err
			}
			if err := w.Start(); err != nil {
				return err
			}
			defer w.Stop()

			logrus.Infof("Watching %d index files, press Ctrl-C to stop", len(files))
			sig := make(chan os.Signal, 1)
			signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
			<-sig
			logrus.Info("Stopping")
			return nil
		},
	}

	addIndexFlags(cmd, &opts)
	return cmd
}
