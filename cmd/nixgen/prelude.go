package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"nixgen/internal/backend/nix"
)

var preludeCmd = &cobra.Command{
	Use:   "prelude",
	Short: "Print the " + nix.PreludeFile + " runtime support module",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		_, err := fmt.Fprint(cmd.OutOrStdout(), nix.Prelude())
		return err
	},
}
