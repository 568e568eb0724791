package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/TermDeck/backend/internal/infrastructure/config"
)

func TestApplyFlagsOverridesOnlyChanged(t *testing.T) {
	require.NoError(t, rootCmd.Flags().Parse([]string{
		"--port", "9100",
		"--persist", "sqlite",
		"--max-terminals", "4",
		"--dev=false",
		"--no-rate-limit",
	}))

	cfg := config.Default()
	cfg.Server.Host = "0.0.0.0"
	applyFlags(rootCmd, cfg)

	assert.Equal(t, "9100", cfg.Server.Port)
	assert.Equal(t, "0.0.0.0", cfg.Server.Host, "unset flags keep the env value")
	assert.Equal(t, "sqlite", cfg.Persist.Backend)
	assert.Equal(t, 4, cfg.Terminal.MaxTerminals)
	assert.False(t, cfg.Logging.Development)
	assert.False(t, cfg.RateLimit.Enabled)
	require.NoError(t, cfg.Validate())
}
