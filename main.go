package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"tabformat/config"
	"tabformat/logger"
)

// version can be overridden at build time via -ldflags
var version = "0.1.0-dev"

var rootCmd = &cobra.Command{
	Use:               "tabformat",
	Short:             "Align lines into columns on a separator",
	Long:              `tabformat pads text so that every occurrence of a separator lines up across lines, from the command line or as a Neovim RPC host`,
	PersistentPreRunE: setup,
}

// settings resolved by setup before any command runs
var (
	configPath string
	settings   config.Config
)

func main() {
	rootCmd.Version = version

	rootCmd.AddCommand(fmtCmd)
	rootCmd.AddCommand(separatorCmd)
	rootCmd.AddCommand(serveCmd)

	rootCmd.PersistentFlags().String("config", "", "config file (default $XDG_CONFIG_HOME/tabformat/config.toml)")
	rootCmd.PersistentFlags().String("log-level", "", "log level (trace|debug|info|warn|error)")
	rootCmd.PersistentFlags().String("log-file", "", "log file (default stderr; serve logs to the user cache dir)")
	rootCmd.PersistentFlags().String("color", "auto", "colorize output (auto|on|off)")

	err := rootCmd.Execute()
	logger.Close()
	if err != nil {
		os.Exit(1)
	}
}

// setup loads the config file and initializes logging and colors
func setup(cmd *cobra.Command, args []string) error {
	flags := cmd.Root().PersistentFlags()

	path, err := flags.GetString("config")
	if err != nil {
		return err
	}
	if path == "" {
		if path, err = config.DefaultPath(); err != nil {
			return err
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return err
	}
	configPath, settings = path, cfg

	levelName, err := flags.GetString("log-level")
	if err != nil {
		return err
	}
	if levelName == "" {
		levelName = cfg.Log.Level
	}
	level, err := logger.ParseLevel(levelName)
	if err != nil {
		return err
	}

	logFile, err := flags.GetString("log-file")
	if err != nil {
		return err
	}
	if logFile == "" {
		logFile = cfg.Log.File
	}
	if logFile == "" && cmd.Name() == serveCmd.Name() {
		// stdout belongs to the RPC channel
		if dir, err := os.UserCacheDir(); err == nil {
			logFile = filepath.Join(dir, "tabformat", "tabformat.log")
		}
	}
	if err := logger.Init(logger.Config{Path: logFile, Level: level, MaxSize: cfg.Log.MaxSize}); err != nil {
		return err
	}

	colorMode, err := flags.GetString("color")
	if err != nil {
		return err
	}
	useColor, err := shouldColor(colorMode)
	if err != nil {
		return err
	}
	color.NoColor = !useColor

	logger.Debug("tabformat %s: config %s", version, configPath)
	return nil
}

func shouldColor(mode string) (bool, error) {
	switch strings.TrimSpace(strings.ToLower(mode)) {
	case "", "auto":
		return isTerminal(os.Stdout), nil
	case "on":
		return true, nil
	case "off":
		return false, nil
	default:
		return false, fmt.Errorf("invalid --color value %q (expected auto|on|off)", mode)
	}
}

// isTerminal reports whether f is a terminal
func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}
