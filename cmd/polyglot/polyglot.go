// Package polyglotcmder
package polyglotcmder

import (
	"github.com/spf13/cobra"

	configcmder "github.com/keepgogogo/polyglot/cmd/polyglot/config"
	servecmder "github.com/keepgogogo/polyglot/cmd/polyglot/serve"
	translatecmder "github.com/keepgogogo/polyglot/cmd/polyglot/translate"
	versioncmder "github.com/keepgogogo/polyglot/cmd/version"
)

const polyglotLongDesc string = `Polyglot translates text through OpenAI-compatible chat-completions endpoints.

Translate from the command line:
  polyglot translate "Bonjour le monde" --to English

Run the relay server:
  polyglot serve       Run the translation relay

Manage configuration:
  polyglot config      Get, set, and list persistent configuration`

const polyglotShortDesc string = "Polyglot - LLM translation"

func NewPolyglotCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "polyglot",
		Short: polyglotShortDesc,
		Long:  polyglotLongDesc,
	}

	// Global flags
	cmd.PersistentFlags().BoolP("debug", "d", false, "Enable debug logging")
	cmd.PersistentFlags().String("config-dir", "", "Path to the .polyglot config directory (default: ./.polyglot or ~/.polyglot)")

	// Add subcommands
	cmd.AddCommand(translatecmder.NewTranslateCmd())
	cmd.AddCommand(servecmder.NewServeCmd())
	cmd.AddCommand(configcmder.NewConfigCmd())
	cmd.AddCommand(versioncmder.NewVersionCmd())

	return cmd
}
