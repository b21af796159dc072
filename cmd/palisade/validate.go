package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"palisade-hq/palisade/pkg/config"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the configuration file",
	Long: `Load and validate the configuration file without starting the
server. All validation errors are reported at once.

Examples:
  # Validate the default config
  palisade validate

  # Validate a specific file
  palisade validate --config /etc/palisade/config.yaml`,
	RunE: validateConfig,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func validateConfig(cmd *cobra.Command, args []string) error {
	_, err := config.LoadConfigWithEnvOverrides(cfgFile)
	if err != nil {
		var validationErr config.ValidationError
		if errors.As(err, &validationErr) {
			fmt.Printf("✗ Configuration invalid (%d errors):\n", len(validationErr.Errors))
			for _, fieldErr := range validationErr.Errors {
				fmt.Printf("  - %s: %s\n", fieldErr.Field, fieldErr.Message)
			}
			return fmt.Errorf("configuration invalid")
		}
		return err
	}

	fmt.Println("✓ Configuration valid")
	return nil
}
