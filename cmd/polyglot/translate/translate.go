// Package translatecmder provides the translate command for one-shot
// translation from the command line.
package translatecmder

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/keepgogogo/polyglot/pkg/cliui"
	"github.com/keepgogogo/polyglot/pkg/config"
	"github.com/keepgogogo/polyglot/pkg/logger"
	"github.com/keepgogogo/polyglot/pkg/task"
	"github.com/keepgogogo/polyglot/pkg/translate"
)

type translateCommander struct {
	endpoint    string
	apiKey      string
	model       string
	temperature float64
	maxTokens   int
	sourceLang  string
	targetLang  string
	locale      string
	noStream    bool
	debug       bool

	text string

	logger *slog.Logger
}

const translateLongDesc string = `Translate text through the configured chat-completions endpoint.

The text to translate is taken from the command arguments, or from stdin
when no arguments are given. By default the translation streams to stdout
as it arrives; use --no-stream to wait for the whole result.

Configuration follows the precedence chain:
  flags > POLYGLOT_* environment variables > config.toml > defaults

Examples:
  polyglot translate "Bonjour le monde" --to English
  polyglot translate --from French --to German "Bonjour"
  cat chapter.txt | polyglot translate --to Spanish --no-stream`

const translateShortDesc string = "Translate text from the command line"

func NewTranslateCmd() *cobra.Command {
	cmder := &translateCommander{}

	cmd := &cobra.Command{
		Use:   "translate [text]",
		Short: translateShortDesc,
		Long:  translateLongDesc,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			configDir, _ := cmd.Flags().GetString("config-dir")

			v, err := config.InitViper(configDir)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}

			config.BindRegisteredFlags(v, cmd, config.Flags, []string{
				config.FlagEndpoint,
				config.FlagModel,
				config.FlagTemperature,
				config.FlagMaxTokens,
				config.FlagAPIKey,
				config.FlagSourceLang,
				config.FlagTargetLang,
			})

			cmder.endpoint = v.GetString("translator.endpoint")
			cmder.model = v.GetString("translator.model")
			cmder.temperature = v.GetFloat64("translator.temperature")
			cmder.maxTokens = v.GetInt("translator.max_tokens")
			cmder.apiKey = v.GetString("translator.api_key")
			cmder.sourceLang = v.GetString("translator.source_lang")
			cmder.targetLang = v.GetString("translator.target_lang")
			cmder.locale = v.GetString("translator.locale")

			if !cmder.noStream {
				cmder.noStream = !v.GetBool("translator.stream")
			}

			if cmder.temperature < 0 || cmder.temperature > 1 {
				return fmt.Errorf("temperature must be between 0.0 and 1.0, got %v", cmder.temperature)
			}

			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			var err error
			cmder.debug, err = cmd.Flags().GetBool("debug")
			if err != nil {
				return fmt.Errorf("could not get debug flag: %w", err)
			}

			cmder.text, err = readText(args)
			if err != nil {
				return err
			}
			if cmder.text == "" {
				return fmt.Errorf("no text to translate: pass it as an argument or on stdin")
			}

			return cmder.run()
		},
	}

	config.AddStringFlag(cmd, config.Flags, config.FlagEndpoint, &cmder.endpoint)
	config.AddStringFlag(cmd, config.Flags, config.FlagModel, &cmder.model)
	config.AddFloat64Flag(cmd, config.Flags, config.FlagTemperature, &cmder.temperature)
	config.AddIntFlag(cmd, config.Flags, config.FlagMaxTokens, &cmder.maxTokens)
	config.AddStringFlag(cmd, config.Flags, config.FlagAPIKey, &cmder.apiKey)
	config.AddStringFlag(cmd, config.Flags, config.FlagSourceLang, &cmder.sourceLang)
	config.AddStringFlag(cmd, config.Flags, config.FlagTargetLang, &cmder.targetLang)
	cmd.Flags().BoolVar(&cmder.noStream, "no-stream", false, "Wait for the full translation instead of streaming")

	return cmd
}

// readText joins the args into the source text, falling back to stdin when
// no args are given.
func readText(args []string) (string, error) {
	if len(args) > 0 {
		return strings.TrimSpace(strings.Join(args, " ")), nil
	}

	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		return "", fmt.Errorf("reading stdin: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}

func (c *translateCommander) run() error {
	// Logs go to stderr so the translated text on stdout stays pipeable.
	c.logger = logger.New(
		logger.WithPretty(true),
		logger.WithDebug(c.debug),
		logger.WithWriter(os.Stderr),
	)

	client := translate.New(translate.Config{
		Endpoint:    c.endpoint,
		APIKey:      c.apiKey,
		Model:       c.model,
		Temperature: c.temperature,
		MaxTokens:   c.maxTokens,
		Stream:      !c.noStream,
		Locale:      c.locale,
	}, c.logger)

	req := translate.Request{
		Text:       c.text,
		SourceLang: c.sourceLang,
		TargetLang: c.targetLang,
	}

	if c.noStream {
		return c.runOneShot(client, req)
	}
	return c.runStreaming(client, req)
}

// streamPrinter returns a notify callback writing each new piece of the
// translation to w as it arrives.
func streamPrinter(w io.Writer) task.Notify {
	printed := 0
	return func(text string, status task.Status) {
		// A failure replaces the text entirely; skip it here and let the
		// error path report it.
		if status == task.StatusFail {
			return
		}

		// The exposed text strips a leading blank line, so it can shrink
		// while the stream is still inside that prefix ("\n" then "\n\n").
		// Hold output until real content arrives; from then on the text
		// only grows.
		if printed == 0 && strings.TrimLeft(text, "\n") == "" {
			return
		}

		if len(text) > printed {
			fmt.Fprint(w, text[printed:])
			printed = len(text)
		}
	}
}

// runStreaming prints each new piece of the translation as it arrives.
func (c *translateCommander) runStreaming(client *translate.Client, req translate.Request) error {
	_, err := client.Translate(context.Background(), req, streamPrinter(os.Stdout))
	if err != nil {
		fmt.Fprintf(os.Stderr, "\n  %s %v\n", cliui.FailMark, err)
		return err
	}

	fmt.Println()
	return nil
}

// runOneShot shows a spinner while the whole translation completes, then
// prints the result.
func (c *translateCommander) runOneShot(client *translate.Client, req translate.Request) error {
	var result string

	err := cliui.Step(os.Stderr, fmt.Sprintf("Translating to %s", c.targetLang), func() error {
		var terr error
		result, terr = client.Translate(context.Background(), req, nil)
		return terr
	})
	if err != nil {
		return err
	}

	fmt.Println(result)
	return nil
}
