package main

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/hupe1980/flatsplit"
	"github.com/hupe1980/flatsplit/codec"
)

type logFlags struct {
	level  string
	format string
}

func (f *logFlags) register(fs *pflag.FlagSet) {
	fs.StringVar(&f.level, "log-level", "info", "log level (debug, info, warn, error)")
	fs.StringVar(&f.format, "log-format", "text", "log format (text, json)")
}

func (f *logFlags) logger(cmd *cobra.Command) (*flatsplit.Logger, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(f.level)); err != nil {
		return nil, fmt.Errorf("invalid --log-level %q", f.level)
	}
	opts := &slog.HandlerOptions{Level: level}

	switch strings.ToLower(f.format) {
	case "text":
		return flatsplit.NewLogger(slog.NewTextHandler(cmd.ErrOrStderr(), opts)), nil
	case "json":
		return flatsplit.NewLogger(slog.NewJSONHandler(cmd.ErrOrStderr(), opts)), nil
	default:
		return nil, fmt.Errorf("invalid --log-format %q", f.format)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "flatsplit",
		Short:         "Split sorted flat-file stores into partitions",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	var logs logFlags
	logs.register(root.PersistentFlags())

	root.AddCommand(
		newSplitCmd(&logs),
		newResolveCmd(),
		newEstimateCmd(),
		newPublishCmd(&logs),
	)
	return root
}

// applyEnv sets unset flags from environment variables.
func applyEnv(fs *pflag.FlagSet, getenv func(string) string, bindings map[string]string) error {
	for name, key := range bindings {
		f := fs.Lookup(name)
		if f == nil || f.Changed {
			continue
		}
		v := getenv(key)
		if v == "" {
			continue
		}
		if err := fs.Set(name, v); err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
	}
	return nil
}

// compressionFor returns the compression named by flag, or the one implied
// by the file extension when flag is empty.
func compressionFor(path, flag string) (codec.Compression, error) {
	if flag != "" {
		return codec.ParseCompression(flag)
	}
	for _, c := range []codec.Compression{codec.CompressionGzip, codec.CompressionLZ4, codec.CompressionZstd} {
		if strings.HasSuffix(path, c.Extension()) {
			return c, nil
		}
	}
	return codec.CompressionNone, nil
}
