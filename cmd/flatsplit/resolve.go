package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newResolveCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "resolve",
		Short: "Print the protected node types derived from a config file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}
			r := cfg.Resolver()
			for _, name := range r.Protected().Sorted() {
				fmt.Fprintln(cmd.OutOrStdout(), name)
			}
			for _, name := range r.Unresolved() {
				fmt.Fprintf(cmd.ErrOrStderr(), "warning: node type %s not found\n", name)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "YAML file with node types and index definitions")
	_ = cmd.MarkFlagRequired("config")

	return cmd
}
