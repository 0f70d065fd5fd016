package logging_test

import (
	"testing"

	"github.com/plus3/cubeview/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	logger, err := logging.New("debug", "console")
	require.NoError(t, err)
	require.NotNil(t, logger)
	assert.Same(t, logger, logging.Provide())

	other, err := logging.New("warn", "json")
	require.NoError(t, err)
	assert.NotSame(t, other, logging.Provide())
}

func TestNewRejectsBadInput(t *testing.T) {
	_, err := logging.New("loud", "json")
	assert.Error(t, err)

	_, err = logging.New("info", "xml")
	assert.Error(t, err)
}
