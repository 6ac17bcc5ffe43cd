package main

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/hupe1980/flatsplit/internal/estimate"
)

func newEstimateCmd() *cobra.Command {
	var compression string

	cmd := &cobra.Command{
		Use:   "estimate <file>",
		Short: "Print the uncompressed size of a store file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := compressionFor(args[0], compression)
			if err != nil {
				return err
			}
			n, err := estimate.Size(nil, args[0], c)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d\t%s\n", n, humanize.IBytes(uint64(n)))
			return nil
		},
	}

	cmd.Flags().StringVarP(&compression, "compression", "c", "", "compression of the file (default from extension)")
	return cmd
}
