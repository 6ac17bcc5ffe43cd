package prom

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/flatsplit"
	"github.com/hupe1980/flatsplit/codec"
	"github.com/hupe1980/flatsplit/testutil"
)

func TestCollector(t *testing.T) {
	c := NewCollector()

	c.RecordRotation(1, 4<<20)
	c.RecordRotation(2, 4<<20)
	c.RecordSplit(3, 12<<20, 2*time.Second, nil)
	c.RecordSplit(0, 0, time.Second, errors.New("read failed"))
	c.RecordSkip(flatsplit.SkipBelowMinimum)
	c.RecordSkip(flatsplit.SkipBelowMinimum)
	c.RecordSkip(flatsplit.SkipSetupFailure)

	families, err := c.Registry().Gather()
	require.NoError(t, err)

	values := make(map[string]float64)
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			key := mf.GetName()
			for _, lp := range m.GetLabel() {
				key += "/" + lp.GetValue()
			}
			switch {
			case m.GetCounter() != nil:
				values[key] = m.GetCounter().GetValue()
			case m.GetHistogram() != nil:
				values[key] = float64(m.GetHistogram().GetSampleCount())
			}
		}
	}

	assert.Equal(t, 1.0, values["flatsplit_splits_total/success"])
	assert.Equal(t, 1.0, values["flatsplit_splits_total/error"])
	assert.Equal(t, 3.0, values["flatsplit_partitions_total"])
	assert.Equal(t, 2.0, values["flatsplit_rotations_total"])
	assert.Equal(t, 2.0, values["flatsplit_skips_total/below-minimum"])
	assert.Equal(t, 1.0, values["flatsplit_skips_total/setup-failure"])
	assert.Equal(t, 2.0, values["flatsplit_split_duration_seconds"])
	assert.Equal(t, 1.0, values["flatsplit_split_bytes"])
	assert.Equal(t, 2.0, values["flatsplit_partition_bytes"])
}

func TestCollector_WithSplitter(t *testing.T) {
	data := testutil.NewTree().Add("/a", "").Add("/b", "").Add("/c", "").Bytes()
	path := testutil.WriteStore(t, t.TempDir(), "store.json", data, codec.CompressionNone)

	c := NewCollector()
	s, err := flatsplit.New(path,
		flatsplit.WithCompression(codec.CompressionNone),
		flatsplit.WithMinimumSplitSize(0),
		flatsplit.WithSplitThreshold(1),
		flatsplit.WithLogger(flatsplit.NoopLogger()),
		flatsplit.WithMetricsCollector(c),
	)
	require.NoError(t, err)
	_, err = s.Split()
	require.NoError(t, err)

	out := filepath.Join(t.TempDir(), "flatsplit.prom")
	require.NoError(t, c.WriteTextfile(out))

	text, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(text), "flatsplit_partitions_total 3")
	assert.Contains(t, string(text), "flatsplit_rotations_total 2")
	assert.Contains(t, string(text), `flatsplit_splits_total{status="success"} 1`)
}
