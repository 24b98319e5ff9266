package postgresql

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestBatchInsert_Query(t *testing.T) {
	tt := []struct {
		name   string
		policy conflictPolicy

		expectedQuery string
	}{
		{
			name:   "append only",
			policy: appendOnly(),

			expectedQuery: "INSERT INTO t (a, b) SELECT u.a, u.b::JSONB FROM UNNEST($1::TEXT[], $2::TEXT[]) AS u(a, b)",
		},
		{
			name:   "do nothing on any conflict",
			policy: doNothing(),

			expectedQuery: "INSERT INTO t (a, b) SELECT u.a, u.b::JSONB FROM UNNEST($1::TEXT[], $2::TEXT[]) AS u(a, b) ON CONFLICT DO NOTHING",
		},
		{
			name:   "do nothing on target",
			policy: doNothing("a"),

			expectedQuery: "INSERT INTO t (a, b) SELECT u.a, u.b::JSONB FROM UNNEST($1::TEXT[], $2::TEXT[]) AS u(a, b) ON CONFLICT (a) DO NOTHING",
		},
		{
			name:   "overwrite",
			policy: overwrite([]string{"a"}, "b"),

			expectedQuery: "INSERT INTO t (a, b) SELECT u.a, u.b::JSONB FROM UNNEST($1::TEXT[], $2::TEXT[]) AS u(a, b) ON CONFLICT (a) DO UPDATE SET b = EXCLUDED.b",
		},
		{
			name:   "merge",
			policy: merge([]string{"a"}, "b = COALESCE(t.b, EXCLUDED.b)"),

			expectedQuery: "INSERT INTO t (a, b) SELECT u.a, u.b::JSONB FROM UNNEST($1::TEXT[], $2::TEXT[]) AS u(a, b) ON CONFLICT (a) DO UPDATE SET b = COALESCE(t.b, EXCLUDED.b)",
		},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			// given
			sut := newBatchInsert("t", tc.policy, col("a", typeText), colCast("b", typeText, "JSONB"))

			// when
			actual := sut.query()

			// then
			require.Equal(t, tc.expectedQuery, actual)
		})
	}
}

func TestBatchInsert_Args(t *testing.T) {
	t.Run("typed columns", func(t *testing.T) {
		// given
		sut := newBatchInsert("t", appendOnly(),
			col("text", typeText),
			col("bytes", typeBytea),
			col("bigint", typeBigint),
			col("integer", typeInteger),
			col("boolean", typeBoolean),
			col("timestamp", typeTimestamp),
		)

		text := "value"
		sut.add("a", []byte{1}, int64(1), int32(1), true, time.Now())
		sut.add(&text, nil, (*int64)(nil), (*int32)(nil), false, time.Now())

		// when
		args, err := sut.args(0, sut.len())

		// then
		require.NoError(t, err)
		require.Len(t, args, 6)
	})

	t.Run("unsupported value type", func(t *testing.T) {
		// given
		sut := newBatchInsert("t", appendOnly(), col("bigint", typeBigint))
		sut.add(42)

		// when
		_, err := sut.args(0, sut.len())

		// then
		require.ErrorIs(t, err, ErrUnsupportedValueType)
	})

	t.Run("column count mismatch", func(t *testing.T) {
		// given
		sut := newBatchInsert("t", appendOnly(), col("a", typeText), col("b", typeText))
		sut.add("only one")

		// when
		err := sut.exec(t.Context(), nil, 10)

		// then
		require.ErrorIs(t, err, ErrColumnCountMismatch)
	})
}
