package config

import (
	"flag"
	"os"
	"time"

	"github.com/dmitrijs2005/ontop/internal/flagx"
)

var clientFlags = []string{"-a", "-i", "-s", "-f", "-l"}

// parseFlags populates selected Config fields from command-line flags.
// Unknown flags are filtered out with flagx.FilterArgs so other stages can
// share os.Args.
func parseFlags(cfg *Config) {
	parseArgs(cfg, os.Args[1:])
}

func parseArgs(cfg *Config, argv []string) {
	args := flagx.FilterArgs(argv, clientFlags)

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&cfg.ServerURL, "a", cfg.ServerURL, "base URL of the server")
	onlineCheckInterval := fs.Int("i", int(cfg.OnlineCheckInterval.Seconds()), "online check interval (in seconds)")
	syncInterval := fs.Int("s", int(cfg.SyncInterval.Seconds()), "sync interval (in seconds)")
	fs.StringVar(&cfg.LocalDBPath, "f", cfg.LocalDBPath, "local store file")
	fs.StringVar(&cfg.LogLevel, "l", cfg.LogLevel, "log level")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	cfg.OnlineCheckInterval = time.Duration(*onlineCheckInterval) * time.Second
	cfg.SyncInterval = time.Duration(*syncInterval) * time.Second
}
