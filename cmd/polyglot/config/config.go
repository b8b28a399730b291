// Package configcmder provides the config command for managing persistent
// polyglot configuration stored in the .polyglot/ directory.
package configcmder

import (
	"github.com/spf13/cobra"
)

const configLongDesc string = `Manage persistent polyglot configuration.

Configuration is stored as config.toml in the .polyglot/ directory and
provides default values for command flags. CLI flags and POLYGLOT_*
environment variables always take precedence over config file values.

Keys use dotted notation matching the TOML section structure:
  translator.endpoint, translator.model, translator.temperature,
  translator.max_tokens, translator.stream, translator.api_key,
  translator.source_lang, translator.target_lang, translator.locale,
  relay.listen, relay.upstream, relay.journal_path

Use subcommands to get, set, or list configuration values:
  polyglot config set <key> <value>    Set a configuration value
  polyglot config get <key>            Get a configuration value
  polyglot config list                 List all configuration values

Examples:
  polyglot config set translator.model gpt-4o
  polyglot config set translator.target_lang German
  polyglot config get relay.listen
  polyglot config list`

const configShortDesc string = "Manage persistent polyglot configuration"

func NewConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: configShortDesc,
		Long:  configLongDesc,
	}

	cmd.AddCommand(newSetCmd())
	cmd.AddCommand(newGetCmd())
	cmd.AddCommand(newListCmd())

	return cmd
}
