package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/leftmike/sqlmirror/config"
)

var (
	sqlmirrorCmd = &cobra.Command{
		Use:   "sqlmirror",
		Short: "Mirror SQL databases in memory",
		Long: "sqlmirror loads the tables of sqlite, mysql, and postgresql databases into " +
			"memory and keeps them in step with the databases.",
		PersistentPreRunE: sqlmirrorPreRun,
		PersistentPostRun: sqlmirrorPostRun,
		SilenceUsage:      true,
	}

	logFile   = "sqlmirror.log"
	logLevel  = "info"
	logStderr = false
	logWriter io.WriteCloser

	configFile = "sqlmirror.hcl"
	noConfig   = false

	limit   = 0
	threads = false
	reload  = false

	cfg       = &config.Config{}
	cfgVars   = map[string]*pflag.Flag{}
	usedFlags = map[string]struct{}{}
)

func init() {
	log.SetFormatter(&log.TextFormatter{
		DisableLevelTruncation: true,
	})

	fs := sqlmirrorCmd.PersistentFlags()

	fs.StringVar(&logFile, "log-file", logFile, "`file` to use for logging")
	cfgVars["log_file"] = fs.Lookup("log-file")

	fs.StringVar(&logLevel, "log-level", logLevel,
		"log level: trace, debug, info, warn, error, fatal, or panic")
	cfgVars["log_level"] = fs.Lookup("log-level")

	fs.BoolVarP(&logStderr, "log-stderr", "s", logStderr, "log to standard error")

	fs.StringVar(&configFile, "config-file", configFile, "`file` to load config from")
	fs.BoolVar(&noConfig, "no-config", noConfig, "don't load config file")

	fs.IntVar(&limit, "limit", limit, "load at most `n` rows of each table; 0 for all")
	cfgVars["limit"] = fs.Lookup("limit")

	fs.BoolVar(&threads, "threads", threads, "load the sources of each method concurrently")
	cfgVars["threads"] = fs.Lookup("threads")

	fs.BoolVar(&reload, "reload", reload, "read a database again after each change to it")
	cfgVars["reload"] = fs.Lookup("reload")
}

func Execute() error {
	return sqlmirrorCmd.Execute()
}

func sqlmirrorPreRun(cmd *cobra.Command, args []string) error {
	cmd.Flags().Visit(
		func(flg *pflag.Flag) {
			usedFlags[flg.Name] = struct{}{}
		})

	if configFile != "" && !noConfig {
		err := loadConfig()
		if err != nil {
			return fmt.Errorf("sqlmirror: %s", err)
		}
	}

	if !logStderr && logFile != "" {
		var err error
		logWriter, err = os.OpenFile(logFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0666)
		if err != nil {
			logWriter = nil
			return fmt.Errorf("sqlmirror: %s", err)
		}
		log.SetOutput(logWriter)
	}

	ll, err := log.ParseLevel(logLevel)
	if err != nil {
		return fmt.Errorf("sqlmirror: %s", err)
	}
	log.SetLevel(ll)

	log.WithField("pid", os.Getpid()).Info("sqlmirror starting")
	return nil
}

func sqlmirrorPostRun(cmd *cobra.Command, args []string) {
	log.WithField("pid", os.Getpid()).Info("sqlmirror done")

	if logWriter != nil {
		logWriter.Close()
		logWriter = nil
	}
}

// loadConfig reads the config file, unless it is the default and is missing. Values in the
// config file are used for flags that were not given on the command line.
func loadConfig() error {
	if _, used := usedFlags["config-file"]; !used {
		if _, err := os.Stat(configFile); os.IsNotExist(err) {
			return nil
		}
	}

	var err error
	cfg, err = config.Load(configFile)
	if err != nil {
		return err
	}

	vals := map[string]string{}
	if cfg.LogFile != "" {
		vals["log_file"] = cfg.LogFile
	}
	if cfg.LogLevel != "" {
		vals["log_level"] = cfg.LogLevel
	}
	if cfg.Limit != 0 {
		vals["limit"] = strconv.Itoa(cfg.Limit)
	}
	if cfg.Threads {
		vals["threads"] = "true"
	}
	if cfg.Reload {
		vals["reload"] = "true"
	}
	for name, val := range vals {
		flg := cfgVars[name]
		if _, ok := usedFlags[flg.Name]; ok {
			continue
		}
		err := flg.Value.Set(val)
		if err != nil {
			return fmt.Errorf("%s: %s", name, err)
		}
	}
	return nil
}

// settings returns the config with the flags applied.
func settings() (*config.Config, error) {
	if limit < 0 {
		return nil, fmt.Errorf("sqlmirror: limit must not be negative: %d", limit)
	}
	c := *cfg
	c.Limit = limit
	c.Threads = threads
	c.Reload = reload
	c.LogFile = logFile
	c.LogLevel = logLevel
	if len(c.Sources) == 0 {
		return nil, fmt.Errorf("sqlmirror: no sources configured; see --config-file")
	}
	return &c, nil
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt)
}
