package cli

import (
	"fmt"

	"github.com/morozRed/serialid/internal/config"
	"github.com/spf13/cobra"
)

func OptionalBoolFlag(cmd *cobra.Command, name string) (bool, error) {
	if cmd == nil || cmd.Flags().Lookup(name) == nil {
		return false, nil
	}
	value, err := cmd.Flags().GetBool(name)
	if err != nil {
		return false, fmt.Errorf("failed to read --%s flag: %w", name, err)
	}
	return value, nil
}

// ParseLanguageFilter returns the canonical languages named by --lang, or
// nil when the flag is absent or empty.
func ParseLanguageFilter(cmd *cobra.Command) ([]string, error) {
	if cmd == nil || cmd.Flags().Lookup("lang") == nil {
		return nil, nil
	}
	langs, err := cmd.Flags().GetStringSlice("lang")
	if err != nil {
		return nil, fmt.Errorf("failed to read --lang flag: %w", err)
	}
	return config.CanonicalLanguages(langs)
}
