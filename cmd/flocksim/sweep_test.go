package main

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/flocksim/flocksim/internal/config"
)

func TestSweep_ParallelMatchesSerial(t *testing.T) {
	cfg := config.Defaults()
	cfg.Simulation.MaxTicks = 120

	serial, err := sweep(context.Background(), cfg, 4, 1, zap.NewNop())
	require.NoError(t, err)
	parallel, err := sweep(context.Background(), cfg, 4, 4, zap.NewNop())
	require.NoError(t, err)

	assert.Equal(t, serial, parallel)
	for i, r := range serial {
		assert.Equal(t, cfg.Simulation.Seed+int64(i), r.Seed)
	}
	assert.NotEqual(t, serial[0].Digest, serial[1].Digest)
}

func TestSweep_CancelledContext(t *testing.T) {
	cfg := config.Defaults()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := sweep(ctx, cfg, 2, 1, zap.NewNop())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestLoadConfig_FlagOverrides(t *testing.T) {
	t.Setenv("FLOCKSIM_CONFIG", "../../config/flocksim.toml")
	root := newRootCmd()
	run, _, err := root.Find([]string{"run"})
	require.NoError(t, err)
	require.NoError(t, run.ParseFlags([]string{"--seed", "5", "--ticks", "10"}))

	flags := &rootFlags{seed: 5, ticks: 10}
	cfg, err := loadConfig(run, flags)
	require.NoError(t, err)
	assert.Equal(t, int64(5), cfg.Simulation.Seed)
	assert.Equal(t, 10, cfg.Simulation.MaxTicks)
	assert.Equal(t, "flocksim", cfg.Simulation.Name)
}
