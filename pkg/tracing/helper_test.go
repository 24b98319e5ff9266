package tracing

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestStartTracing(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	otel.SetTracerProvider(sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder)))

	tt := []struct {
		name    string
		enabled bool
		err     error

		expectedSpans  int
		expectedStatus codes.Code
	}{
		{
			name:    "disabled",
			enabled: false,
		},
		{
			name:    "enabled",
			enabled: true,

			expectedSpans:  1,
			expectedStatus: codes.Unset,
		},
		{
			name:    "enabled, error recorded",
			enabled: true,
			err:     errors.New("flush failed"),

			expectedSpans:  1,
			expectedStatus: codes.Error,
		},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			// given
			recorder.Reset()

			// when
			ctx, span := StartTracing(context.Background(), "Flush", tc.enabled, attribute.String("batch_id", "1"))
			EndTracing(span, tc.err)

			// then
			require.NotNil(t, ctx)
			spans := recorder.Ended()
			require.Len(t, spans, tc.expectedSpans)
			if tc.expectedSpans == 0 {
				require.Nil(t, span)
				return
			}

			require.Equal(t, "Flush", spans[0].Name())
			require.Equal(t, tc.expectedStatus, spans[0].Status().Code)
			require.Contains(t, spans[0].Attributes(), attribute.String("batch_id", "1"))
		})
	}
}

func TestEnable(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	_, err := Enable(logger, "indexer", "", 100)
	require.ErrorIs(t, err, ErrTracingAddressEmpty)
}

func TestSampler(t *testing.T) {
	require.Equal(t, sdktrace.AlwaysSample().Description(), sampler(0).Description())
	require.Equal(t, sdktrace.AlwaysSample().Description(), sampler(100).Description())
	require.Equal(t, sdktrace.TraceIDRatioBased(0.25).Description(), sampler(25).Description())
}
