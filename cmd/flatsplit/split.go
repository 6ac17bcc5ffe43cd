package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/hupe1980/flatsplit"
	"github.com/hupe1980/flatsplit/prom"
	"github.com/hupe1980/flatsplit/publish"
)

type splitFlags struct {
	workDir        string
	partitions     int
	minSize        string
	threshold      string
	compression    string
	deleteOriginal bool
	config         string
	protected      []string
	lenient        bool
	manifest       bool
	publishTo      string
	workers        int
	bandwidth      string
	metrics        string
}

func newSplitCmd(logs *logFlags) *cobra.Command {
	var f splitFlags

	cmd := &cobra.Command{
		Use:   "split <file>",
		Short: "Split a sorted store file into partitions",
		Long: `Split streams a sorted store file once and writes up to --partitions
partitions. Partitions never start inside a subtree whose root has a
protected node type. Files smaller than --min-size per partition are left
alone.

FLATSPLIT_PARTITIONS, FLATSPLIT_COMPRESSION, FLATSPLIT_MIN_SIZE and
FLATSPLIT_WORK_DIR provide defaults for the corresponding flags.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := applyEnv(cmd.Flags(), os.Getenv, map[string]string{
				"partitions":  "FLATSPLIT_PARTITIONS",
				"compression": "FLATSPLIT_COMPRESSION",
				"min-size":    "FLATSPLIT_MIN_SIZE",
				"work-dir":    "FLATSPLIT_WORK_DIR",
			}); err != nil {
				return err
			}
			return runSplit(cmd, args[0], &f, logs)
		},
	}

	fs := cmd.Flags()
	fs.StringVar(&f.workDir, "work-dir", "", "directory for the partitions (default <dir of file>/split)")
	fs.IntVarP(&f.partitions, "partitions", "n", flatsplit.DefaultPartitionCount, "maximum number of partitions")
	fs.StringVar(&f.minSize, "min-size", humanize.IBytes(uint64(flatsplit.DefaultMinimumSplitSize)), "minimum partition size worth splitting for")
	fs.StringVar(&f.threshold, "threshold", "", "cut after this many bytes instead of size/partitions")
	fs.StringVarP(&f.compression, "compression", "c", "", "compression of input and partitions (none, gzip, lz4, zstd; default from extension)")
	fs.BoolVar(&f.deleteOriginal, "delete-original", false, "delete the input after a successful split")
	fs.StringVar(&f.config, "config", "", "YAML file with node types and index definitions")
	fs.StringArrayVar(&f.protected, "protected", nil, "protected node type, repeatable")
	fs.BoolVar(&f.lenient, "lenient", false, "accept input that is not strictly pre-order sorted")
	fs.BoolVar(&f.manifest, "manifest", false, "write MANIFEST.json next to the partitions")
	fs.StringVar(&f.publishTo, "publish", "", "upload the result to file://dir, s3://bucket/prefix or minio://endpoint/bucket/prefix")
	fs.IntVar(&f.workers, "workers", publish.DefaultWorkers, "concurrent uploads")
	fs.StringVar(&f.bandwidth, "bandwidth", "", "upload bandwidth limit per second, e.g. 50MiB")
	fs.StringVar(&f.metrics, "metrics-textfile", "", "write Prometheus metrics to this file")

	return cmd
}

func runSplit(cmd *cobra.Command, path string, f *splitFlags, logs *logFlags) error {
	log, err := logs.logger(cmd)
	if err != nil {
		return err
	}

	comp, err := compressionFor(path, f.compression)
	if err != nil {
		return err
	}
	minSize, err := humanize.ParseBytes(f.minSize)
	if err != nil {
		return fmt.Errorf("invalid --min-size: %w", err)
	}

	opts := []flatsplit.Option{
		flatsplit.WithLogger(log),
		flatsplit.WithCompression(comp),
		flatsplit.WithPartitionCount(f.partitions),
		flatsplit.WithMinimumSplitSize(int64(minSize)),
		flatsplit.WithDeleteOriginal(f.deleteOriginal),
	}
	if f.workDir != "" {
		opts = append(opts, flatsplit.WithWorkDir(f.workDir))
	}
	if f.threshold != "" {
		threshold, err := humanize.ParseBytes(f.threshold)
		if err != nil {
			return fmt.Errorf("invalid --threshold: %w", err)
		}
		opts = append(opts, flatsplit.WithSplitThreshold(int64(threshold)))
	}
	if f.lenient {
		opts = append(opts, flatsplit.WithLenientOrdering())
	}

	switch {
	case len(f.protected) > 0:
		opts = append(opts, flatsplit.WithProtectedCategories(f.protected...))
		if f.config != "" {
			cfg, err := loadConfig(f.config)
			if err != nil {
				return err
			}
			opts = append(opts, flatsplit.WithPreferredPathElements(cfg.PreferredPathElements()...))
		}
	case f.config != "":
		cfg, err := loadConfig(f.config)
		if err != nil {
			return err
		}
		opts = append(opts,
			flatsplit.WithBoundaryResolver(cfg.Resolver()),
			flatsplit.WithPreferredPathElements(cfg.PreferredPathElements()...),
		)
	}

	var collector *prom.Collector
	if f.metrics != "" {
		collector = prom.NewCollector()
		opts = append(opts, flatsplit.WithMetricsCollector(collector))
	}

	s, err := flatsplit.New(path, opts...)
	if err != nil {
		return err
	}
	res, err := s.Split()
	if collector != nil {
		if werr := collector.WriteTextfile(f.metrics); werr != nil {
			log.Warn("failed to write metrics", "path", f.metrics, "error", werr)
		}
	}
	if err != nil {
		return err
	}

	printResult(cmd.OutOrStdout(), res)

	if f.manifest {
		dir := filepath.Dir(res.Partitions[0].Path)
		mpath, err := res.Manifest().Write(nil, dir)
		if err != nil {
			return fmt.Errorf("write manifest: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "manifest: %s\n", mpath)
	}

	if f.publishTo != "" {
		p, prefix, err := newPublisher(cmd, f.publishTo, f.workers, f.bandwidth, log)
		if err != nil {
			return err
		}
		report, err := p.Publish(cmd.Context(), res, prefix)
		if err != nil {
			return err
		}
		printReport(cmd.OutOrStdout(), report)
	}
	return nil
}

func printResult(w io.Writer, res *flatsplit.Result) {
	if res.Skipped {
		fmt.Fprintf(w, "not split (%s): %s\n", res.SkipReason, res.Source)
		return
	}
	for _, p := range res.Partitions {
		fmt.Fprintf(w, "%s\t%s\t%d records\t%s\n",
			p.Path, humanize.IBytes(uint64(p.Bytes)), p.Records, p.FirstPath)
	}
	fmt.Fprintf(w, "%d partitions, %d lines, %s\n",
		len(res.Partitions), res.Lines, humanize.IBytes(uint64(res.TotalSize)))
}
