package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/eigerco/slashing/internal/config"
	"github.com/eigerco/slashing/internal/runtime"
	"github.com/eigerco/slashing/pkg/db/pebble"
	"github.com/eigerco/slashing/pkg/log"
)

func main() {
	app := cli.NewApp()
	app.Name = "slashing"
	app.Usage = "Deferred slashing of validators that lost a dispute"
	app.Flags = []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "the TOML configuration `FILE`, defaults are used when empty",
		},
		&cli.StringFlag{
			Name:  "log-level",
			Usage: "override the configured log level",
		},
		&cli.StringFlag{
			Name:  "log-format",
			Usage: "override the configured log format, console or json",
		},
	}
	app.EnableBashCompletion = true
	app.Commands = []*cli.Command{
		{
			Name:   "simulate",
			Usage:  "Replay a dispute concluded two sessions late, its deferred report and the session rollovers",
			Action: simulateCmd,
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:    "dir",
					Aliases: []string{"d"},
					Usage:   "the data directory, in memory when empty",
				},
				&cli.UintFlag{
					Name:  "validators",
					Value: 8,
					Usage: "the number of parachain validators per session",
				},
				&cli.BoolFlag{
					Name:  "metrics",
					Usage: "print the collected metrics at the end",
				},
			},
		},
		{
			Name:   "pending",
			Usage:  "Print the pending slashes of a data directory as JSON",
			Action: pendingCmd,
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:     "dir",
					Aliases:  []string{"d"},
					Usage:    "the data directory",
					Required: true,
				},
			},
		},
	}

	err := app.Run(os.Args)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func loadConfig(c *cli.Context) (*config.Config, error) {
	cfg := config.Default()
	if file := c.String("config"); file != "" {
		var err error
		cfg, err = config.Initialize(file)
		if err != nil {
			return nil, err
		}
	}
	if level := c.String("log-level"); level != "" {
		cfg.Log.Level = level
	}
	if format := c.String("log-format"); format != "" {
		cfg.Log.Format = format
	}

	level, err := log.ParseLogLevel(cfg.Log.Level)
	if err != nil {
		return nil, err
	}
	format, err := log.ParseLoggerType(cfg.Log.Format)
	if err != nil {
		return nil, err
	}
	log.Init(log.Options{LogLevel: level, Type: format, Output: os.Stderr})
	return cfg, nil
}

func openRuntime(cfg *config.Config, dir string) (*runtime.Runtime, func() error, error) {
	var opts []pebble.Option
	switch {
	case dir != "":
		opts = append(opts, pebble.WithPath(dir))
	case !cfg.Storage.InMemory:
		opts = append(opts, pebble.WithPath(cfg.Storage.Path))
	}
	if cfg.Storage.CacheSize > 0 {
		opts = append(opts, pebble.WithCacheSize(cfg.Storage.CacheSize))
	}
	kv, err := pebble.NewKVStore(opts...)
	if err != nil {
		return nil, nil, fmt.Errorf("open store: %w", err)
	}
	r, err := runtime.New(kv, cfg)
	if err != nil {
		kv.Close() //nolint:errcheck
		return nil, nil, err
	}
	return r, kv.Close, nil
}
