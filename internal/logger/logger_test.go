package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_NewLogger(t *testing.T) {
	testCases := []struct {
		name      string
		logLevel  string
		logFormat string

		expectedDebugEnabled bool
		expectedError        error
	}{
		{
			name:      "text logger",
			logLevel:  "INFO",
			logFormat: "text",
		},
		{
			name:      "json logger",
			logLevel:  "INFO",
			logFormat: "json",
		},
		{
			name:      "tint logger, lower case level",
			logLevel:  "debug",
			logFormat: "tint",

			expectedDebugEnabled: true,
		},
		{
			name:      "invalid log format",
			logLevel:  "INFO",
			logFormat: "invalid format",

			expectedError: ErrLoggerInvalidLogFormat,
		},
		{
			name:      "invalid log level",
			logLevel:  "INVALID_LEVEL",
			logFormat: "text",

			expectedError: ErrLoggerInvalidLogLevel,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// given
			buf := &bytes.Buffer{}

			// when
			sut, err := NewLogger(tc.logLevel, tc.logFormat, WithWriter(buf))

			// then
			if tc.expectedError != nil {
				require.ErrorIs(t, err, tc.expectedError)
				require.Nil(t, sut)
				return
			}

			require.NoError(t, err)
			sut.Info("test")
			assert.NotEmpty(t, buf.String())
			assert.True(t, sut.Enabled(context.Background(), slog.LevelInfo))
			assert.Equal(t, tc.expectedDebugEnabled, sut.Enabled(context.Background(), slog.LevelDebug))
		})
	}
}

func Test_NewLogger_WithService(t *testing.T) {
	// given
	buf := &bytes.Buffer{}

	// when
	sut, err := NewLogger("INFO", "json", WithWriter(buf), WithService("indexer"))
	require.NoError(t, err)
	sut.Info("test")

	// then
	record := map[string]any{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, "indexer", record["service"])
}
