package logging_test

import (
	"testing"

	"github.com/momentics/hioload-relay/api"
	"github.com/momentics/hioload-relay/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNew(t *testing.T) {
	log, err := logging.New("debug", logging.FormatConsole)
	require.NoError(t, err)
	assert.True(t, log.Core().Enabled(zap.DebugLevel))

	log, err = logging.New("WARN", "")
	require.NoError(t, err)
	assert.False(t, log.Core().Enabled(zap.InfoLevel))
	assert.True(t, log.Core().Enabled(zap.WarnLevel))
}

func TestNew_Rejects(t *testing.T) {
	_, err := logging.New("loud", logging.FormatJSON)
	assert.ErrorIs(t, err, api.ErrInvalidArgument)

	_, err = logging.New("info", "xml")
	assert.ErrorIs(t, err, api.ErrInvalidArgument)
}
