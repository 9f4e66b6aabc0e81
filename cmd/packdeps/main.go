package main

import (
	"os"

	"github.com/sirupsen/logrus"
	"github.com/soenkehahn/packdeps/internal/cli"
)

func main() {
	// Query results print on stdout; logging stays on stderr. Runs are
	// short, so a bare clock time is enough of a timestamp.
	logrus.SetOutput(os.Stderr)
	logrus.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "15:04:05",
	})

	if err := cli.NewRootCmd().Execute(); err != nil {
		logrus.Error(err)
		os.Exit(1)
	}
}
