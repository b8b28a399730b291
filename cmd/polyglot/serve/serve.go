// Package servecmder provides the serve command for running the translation
// relay server.
package servecmder

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/keepgogogo/polyglot/pkg/config"
	"github.com/keepgogogo/polyglot/pkg/logger"
	"github.com/keepgogogo/polyglot/relay"
	"github.com/keepgogogo/polyglot/relay/journal"
	"github.com/keepgogogo/polyglot/relay/journal/nop"
)

type serveCommander struct {
	listen      string
	upstream    string
	apiKey      string
	model       string
	temperature float64
	maxTokens   int
	journalPath string
	stream      bool
	locale      string
	debug       bool

	logger *zap.Logger
}

const serveLongDesc string = `Run the translation relay server.

The relay exposes POST /v1/translate, composes a chat-completions request for
each task, and forwards it to the configured upstream endpoint. Streaming
responses pass through to the client byte-for-byte while the relay decodes
them on the side, journaling every finished translation.

Journaling is enabled by setting --journal to a file path; records are
appended as JSON lines.

Examples:
  polyglot serve
  polyglot serve --listen :9000 --upstream https://api.openai.com/v1/chat/completions
  polyglot serve --journal ./translations.jsonl`

const serveShortDesc string = "Run the translation relay server"

func NewServeCmd() *cobra.Command {
	cmder := &serveCommander{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: serveShortDesc,
		Long:  serveLongDesc,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			configDir, _ := cmd.Flags().GetString("config-dir")
			cfger, err := config.NewConfiger(configDir)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}

			cfg, err := cfger.LoadConfig()
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}

			if !cmd.Flags().Changed("listen") {
				cmder.listen = cfg.Relay.Listen
			}
			if !cmd.Flags().Changed("upstream") {
				cmder.upstream = cfg.UpstreamEndpoint()
			}
			if !cmd.Flags().Changed("api-key") {
				cmder.apiKey = cfg.Translator.APIKey
			}
			if !cmd.Flags().Changed("model") {
				cmder.model = cfg.Translator.Model
			}
			if !cmd.Flags().Changed("temperature") {
				cmder.temperature = cfg.Translator.Temperature
			}
			if !cmd.Flags().Changed("max-tokens") {
				cmder.maxTokens = cfg.Translator.MaxTokens
			}
			if !cmd.Flags().Changed("journal") {
				cmder.journalPath = cfg.Relay.JournalPath
			}

			cmder.stream = cfg.Translator.StreamEnabled()
			cmder.locale = cfg.Translator.Locale

			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			cmder.debug, err = cmd.Flags().GetBool("debug")
			if err != nil {
				return fmt.Errorf("could not get debug flag: %w", err)
			}

			return cmder.run()
		},
	}

	config.AddStringFlag(cmd, config.Flags, config.FlagListen, &cmder.listen)
	config.AddStringFlag(cmd, config.Flags, config.FlagUpstream, &cmder.upstream)
	config.AddStringFlag(cmd, config.Flags, config.FlagAPIKey, &cmder.apiKey)
	config.AddStringFlag(cmd, config.Flags, config.FlagModel, &cmder.model)
	config.AddFloat64Flag(cmd, config.Flags, config.FlagTemperature, &cmder.temperature)
	config.AddIntFlag(cmd, config.Flags, config.FlagMaxTokens, &cmder.maxTokens)
	config.AddStringFlag(cmd, config.Flags, config.FlagJournal, &cmder.journalPath)

	return cmd
}

func (c *serveCommander) run() error {
	c.logger = logger.NewZap(c.debug)
	defer func() { _ = c.logger.Sync() }()

	sink, err := c.newSink()
	if err != nil {
		return err
	}
	defer sink.Close()

	r, err := relay.New(relay.Config{
		ListenAddr:       c.listen,
		UpstreamEndpoint: c.upstream,
		APIKey:           c.apiKey,
		Model:            c.model,
		Temperature:      c.temperature,
		MaxTokens:        c.maxTokens,
		Stream:           c.stream,
		Locale:           c.locale,
	}, sink, c.logger)
	if err != nil {
		return fmt.Errorf("creating relay: %w", err)
	}

	errChan := make(chan error, 1)
	go func() {
		if err := r.Run(); err != nil {
			errChan <- fmt.Errorf("relay error: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errChan:
		return err
	case sig := <-sigChan:
		c.logger.Info("received signal, shutting down", zap.String("signal", sig.String()))
		return r.Close()
	}
}

func (c *serveCommander) newSink() (journal.Sink, error) {
	if c.journalPath != "" {
		sink, err := journal.NewFileSink(c.journalPath)
		if err != nil {
			return nil, fmt.Errorf("opening journal: %w", err)
		}
		c.logger.Info("journaling enabled", zap.String("path", c.journalPath))
		return sink, nil
	}

	c.logger.Info("journaling disabled")
	return nop.NewSink(), nil
}
