package main

import (
	"fmt"
	"os"

	"github.com/neovim/go-client/nvim"
	"github.com/spf13/cobra"

	"tabformat/buffer"
	"tabformat/config"
	"tabformat/engine"
	"tabformat/logger"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve format requests from Neovim over stdio",
	Long: `Run as a Neovim RPC host. Start it with jobstart({'tabformat', 'serve'}, {rpc = true})
and call the tabformat_format, tabformat_separator and tabformat_set_separator methods.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

// formatReply is returned to Neovim after a format request
type formatReply struct {
	Applied   bool   `msgpack:"applied"`
	Separator string `msgpack:"separator"`
	Fallback  bool   `msgpack:"fallback"`
	Lines     int    `msgpack:"lines"`
}

// host answers RPC requests from a single Neovim instance
type host struct {
	v     *nvim.Nvim
	store engine.SeparatorStore
	cfg   engine.Config
}

func runServe(cmd *cobra.Command, args []string) error {
	cmd.SilenceUsage = true
	logger.Info("starting RPC host %s", version)

	v, err := nvim.New(os.Stdin, os.Stdout, os.Stdout, logger.Printf)
	if err != nil {
		return fmt.Errorf("failed to create RPC client: %w", err)
	}
	defer v.Close()

	h := &host{
		v:     v,
		store: config.NewStore(configPath),
		cfg:   engine.Config{Width: settings.Width},
	}
	if err := h.register(); err != nil {
		return err
	}

	if err := v.Serve(); err != nil {
		logger.Error("RPC host stopped: %v", err)
		return err
	}
	logger.Info("RPC host stopped")
	return nil
}

func (h *host) register() error {
	handlers := map[string]any{
		"tabformat_format":        h.format,
		"tabformat_separator":     h.separator,
		"tabformat_set_separator": h.setSeparator,
	}
	for method, fn := range handlers {
		if err := h.v.RegisterHandler(method, fn); err != nil {
			return fmt.Errorf("failed to register %s: %w", method, err)
		}
	}
	return nil
}

// format aligns lines line1..line2 of the current buffer. visual is set
// when the command was started from visual mode.
func (h *host) format(line1, line2 int, visual bool) (*formatReply, error) {
	defer logger.Trace("host.format")()

	buf, err := buffer.NewNvim(h.v, buffer.Request{Line1: line1, Line2: line2, Visual: visual})
	if err != nil {
		logger.Error("format: %v", err)
		return nil, err
	}
	eng, err := engine.NewEngine(buf, h.store, h.cfg)
	if err != nil {
		return nil, err
	}
	res, err := eng.Format()
	if err != nil {
		logger.Error("format: %v", err)
		return nil, err
	}

	return &formatReply{
		Applied:   res.Applied,
		Separator: res.Separator,
		Fallback:  res.Fallback,
		Lines:     len(res.Edits),
	}, nil
}

func (h *host) separator() (string, error) {
	sep, _ := h.store.Separator()
	return sep, nil
}

func (h *host) setSeparator(sep string) error {
	if err := h.store.SetSeparator(sep); err != nil {
		logger.Error("set separator: %v", err)
		return err
	}
	logger.Info("separator set to %q", sep)
	return nil
}
