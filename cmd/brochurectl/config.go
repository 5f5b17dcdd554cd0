package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/corvidlabs/brochure/lib/config"
)

func configName(args []string) string {
	if len(args) == 0 {
		return ""
	}
	return args[0]
}

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect site configuration files",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "validate [FILE]",
		Short: "Check a configuration file, or the built-in one",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := config.LoadOrDefault(configName(args)); err != nil {
				return err
			}
			_, err := fmt.Fprintln(cmd.OutOrStdout(), "config is valid")
			return err
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "print [FILE]",
		Short: "Print the effective configuration with every default filled in",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadOrDefault(configName(args))
			if err != nil {
				return err
			}

			out, err := effectiveYAML(cfg)
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(out)
			return err
		},
	})

	return cmd
}

// effectiveYAML goes through JSON so store parameters and durations keep the
// shape they have in a config file. The yaml.Node keeps field order.
func effectiveYAML(cfg *config.Config) ([]byte, error) {
	raw, err := json.Marshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("can't encode config: %w", err)
	}

	var node yaml.Node
	if err := yaml.Unmarshal(raw, &node); err != nil {
		return nil, fmt.Errorf("can't convert config to YAML: %w", err)
	}
	clearStyle(&node)

	return yaml.Marshal(&node)
}

// clearStyle drops the flow style yaml.v3 records for JSON input.
func clearStyle(n *yaml.Node) {
	n.Style = 0
	for _, c := range n.Content {
		clearStyle(c)
	}
}
