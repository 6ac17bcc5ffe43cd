package main

import (
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/hupe1980/flatsplit"
	"github.com/hupe1980/flatsplit/manifest"
	"github.com/hupe1980/flatsplit/publish"
)

func newPublishCmd(logs *logFlags) *cobra.Command {
	var (
		to        string
		workers   int
		bandwidth string
	)

	cmd := &cobra.Command{
		Use:   "publish <manifest>",
		Short: "Upload a written manifest and its partitions",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			log, err := logs.logger(cmd)
			if err != nil {
				return err
			}
			m, err := manifest.Read(nil, args[0])
			if err != nil {
				return fmt.Errorf("read manifest %s: %w", args[0], err)
			}

			p, prefix, err := newPublisher(cmd, to, workers, bandwidth, log)
			if err != nil {
				return err
			}
			report, err := p.PublishManifest(cmd.Context(), m, filepath.Dir(args[0]), prefix)
			if err != nil {
				return err
			}
			printReport(cmd.OutOrStdout(), report)
			return nil
		},
	}

	cmd.Flags().StringVar(&to, "to", "", "file://dir, s3://bucket/prefix or minio://endpoint/bucket/prefix")
	cmd.Flags().IntVar(&workers, "workers", publish.DefaultWorkers, "concurrent uploads")
	cmd.Flags().StringVar(&bandwidth, "bandwidth", "", "upload bandwidth limit per second, e.g. 50MiB")
	_ = cmd.MarkFlagRequired("to")

	return cmd
}

func newPublisher(cmd *cobra.Command, rawTarget string, workers int, bandwidth string, log *flatsplit.Logger) (*publish.Publisher, string, error) {
	t, err := parseTarget(rawTarget)
	if err != nil {
		return nil, "", err
	}
	store, err := t.open(cmd.Context())
	if err != nil {
		return nil, "", fmt.Errorf("open %s: %w", rawTarget, err)
	}

	opts := []publish.Option{
		publish.WithWorkers(workers),
		publish.WithLogger(log),
	}
	if bandwidth != "" {
		bps, err := humanize.ParseBytes(bandwidth)
		if err != nil {
			return nil, "", fmt.Errorf("invalid --bandwidth: %w", err)
		}
		opts = append(opts, publish.WithBytesPerSecond(int64(bps)))
	}
	return publish.New(store, opts...), t.prefix, nil
}

func printReport(w io.Writer, r *publish.Report) {
	fmt.Fprintf(w, "published %d files (%s) in %s, manifest %s\n",
		len(r.Files), humanize.IBytes(uint64(r.Bytes)), r.Duration.Round(time.Millisecond), r.Manifest)
}
