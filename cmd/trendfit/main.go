// Command trendfit fits trend models to atmospheric time series and
// estimates bootstrap confidence intervals of their parameters.
package main

import (
	"os"

	"github.com/sirupsen/logrus"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		logrus.WithError(err).Error("trendfit failed")
		os.Exit(1)
	}
}
