package main

import (
	"net/url"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"arts_scrooper/config"
	"arts_scrooper/logging"
)

var (
	cfg     *config.Config
	logFile *logging.RotatingWriter
)

var rootCmd = &cobra.Command{
	Use:   "arts_scrooper",
	Short: "Scrapes arts and culture event listings into a deduplicated store",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return eris.Wrap(err, "load config")
		}
		cfg = c

		logFile, err = logging.Setup(cfg.Log)
		if err != nil {
			return eris.Wrap(err, "init logger")
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
		if logFile != nil {
			_ = logFile.Close()
		}
	},
}

func main() {
	rootCmd.AddCommand(serveCmd, scrapeCmd, sitesCmd, commandCmd, runsCmd)
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// maskConnectionString hides the password of a database URL for logging.
func maskConnectionString(connStr string) string {
	u, err := url.Parse(connStr)
	if err != nil || u.User == nil {
		return connStr
	}
	if _, ok := u.User.Password(); !ok {
		return connStr
	}
	u.User = url.UserPassword(u.User.Username(), "xxxxx")
	return u.String()
}
