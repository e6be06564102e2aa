package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/nextlevelbuilder/agentbridge/internal/config"
)

func configCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "View and manage configuration",
	}
	cmd.AddCommand(configShowCmd())
	cmd.AddCommand(configPathCmd())
	cmd.AddCommand(configValidateCmd())
	cmd.AddCommand(configInitCmd())
	cmd.AddCommand(configSealCmd())
	return cmd
}

func configShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Display effective configuration (secrets redacted)",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := loadConfig()
			if err != nil {
				return err
			}
			data, _ := json.MarshalIndent(cfg.MaskedCopy(), "", "  ")
			fmt.Println(string(data))
			return nil
		},
	}
}

func configPathCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the config file path",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println(resolveConfigPath())
		},
	}
}

func configValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Validate configuration file",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, path, err := loadConfig()
			if err != nil {
				return err
			}
			fmt.Printf("Config at %s is valid.\n", path)
			return nil
		},
	}
}

func configInitCmd() *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write the default configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			path := resolveConfigPath()
			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", path)
			}
			if err := config.Save(path, config.Default()); err != nil {
				return err
			}
			fmt.Printf("Wrote %s\n", path)
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")
	return cmd
}

func configSealCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seal [value]",
		Short: "Encrypt a secret for the config file with $" + config.EnvSecretKey,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := os.Getenv(config.EnvSecretKey)
			if key == "" {
				return fmt.Errorf("%s is not set", config.EnvSecretKey)
			}
			var value string
			if len(args) == 1 {
				value = args[0]
			} else {
				v, err := promptPassword("Secret", "Value to seal")
				if err != nil {
					return err
				}
				value = v
			}
			sealed, err := config.SealSecret(value, key)
			if err != nil {
				return err
			}
			fmt.Println(sealed)
			return nil
		},
	}
}
