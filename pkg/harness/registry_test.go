package harness

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry(t *testing.T) {
	var r Registry[string]

	assert.Zero(t, r.Len())
	first := r.Append(3, "a")
	second := r.Append(1, "b")

	assert.Equal(t, Entry[string]{Seq: 0, Index: 3, Record: "a"}, first)
	assert.Equal(t, Entry[string]{Seq: 1, Index: 1, Record: "b"}, second)
	assert.Equal(t, []string{"a", "b"}, r.Records())

	drained := r.Drain()
	assert.Len(t, drained, 2)
	assert.Zero(t, r.Len())
	assert.Empty(t, r.Drain())

	// Sequence numbers keep increasing after a drain.
	assert.Equal(t, 2, r.Append(0, "c").Seq)
}

func TestBatchResult(t *testing.T) {
	cause := errors.New("rejected")
	b := &batch[int, int]{
		kind:  KindClient,
		ident: func(n int) string { return string(rune('a' + n)) },
		register: func(_ context.Context, n int) (int, error) {
			if n%2 == 1 {
				return 0, cause
			}
			return n * 10, nil
		},
		registry: &Registry[int]{},
	}

	result := b.run(context.Background(), []int{0, 1, 2, 3})

	assert.Equal(t, []int{0, 20}, result.Succeeded())
	require.Len(t, result.Failed(), 2)
	assert.ElementsMatch(t, []int{0, 20}, b.registry.Records())

	err := result.Err()
	require.Error(t, err)
	assert.ErrorIs(t, err, cause)

	var regErr *FixtureRegistrationError
	require.ErrorAs(t, err, &regErr)
	assert.Equal(t, 1, regErr.Index)
	assert.Equal(t, "b", regErr.Ident)
	assert.Equal(t, "client fixture 1 (b): rejected", regErr.Error())
}

func TestBatchResultNoFailures(t *testing.T) {
	result := &BatchResult[int]{Kind: KindCert, Outcomes: []Outcome[int]{{Index: 0, Record: 1}}}

	assert.NoError(t, result.Err())
	assert.Empty(t, result.Failed())
}

func TestBatchRecoversPanickingRegistration(t *testing.T) {
	b := &batch[int, int]{
		kind:  KindCert,
		ident: func(int) string { return "" },
		register: func(_ context.Context, n int) (int, error) {
			if n == 1 {
				panic("makeslice: len out of range")
			}
			return n, nil
		},
		registry: &Registry[int]{},
	}

	result := b.run(context.Background(), []int{0, 1, 2})

	assert.ElementsMatch(t, []int{0, 2}, b.registry.Records())
	err := result.Err()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrRegistrationPanic)

	var regErr *FixtureRegistrationError
	require.ErrorAs(t, err, &regErr)
	assert.Equal(t, 1, regErr.Index)
}
