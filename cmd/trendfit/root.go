package main

import (
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/sartorproj/gotrendfit/internal/config"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "trendfit",
		Short:         "Trend analysis and fitting of atmospheric time series",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().String("config", "", "YAML configuration file")
	root.PersistentFlags().String("log-level", "", "log level (debug, info, warn, error)")
	root.PersistentFlags().String("log-format", "", "log format (text or json)")

	root.AddCommand(newFitCmd(), newVersionCmd())
	return root
}

// setupLogging configures the standard logrus logger.
func setupLogging(cfg config.LogConfig) error {
	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		return errors.Wrap(err, "log level")
	}
	logrus.SetLevel(level)

	switch cfg.Format {
	case "json":
		logrus.SetFormatter(&logrus.JSONFormatter{})
	default:
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	return nil
}
