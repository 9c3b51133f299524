package xcache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlanResolution(t *testing.T) {
	c := newTestCache[int](t, WithDefaultTTL(5*time.Minute), WithProvisionalTTL(time.Second))

	tests := []struct {
		name        string
		policy      Policy[int]
		wantTTL     time.Duration
		wantRestamp bool
	}{
		{"zero_value", Policy[int]{}, 5 * time.Minute, false},
		{"fixed", Fixed[int](time.Second * 30), 30 * time.Second, false},
		{"fixed_default", Fixed[int](0), 5 * time.Minute, false},
		{"no_expiration", Fixed[int](NoExpiration), NoExpiration, false},
		{"other_negative", Fixed[int](-time.Hour), NoExpiration, false},
		{"from_value", FromValue(func(int) time.Duration { return time.Minute }), time.Second, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pl, err := c.plan(tt.policy)
			require.NoError(t, err)
			assert.Equal(t, tt.wantTTL, pl.ttl)
			assert.Equal(t, tt.wantRestamp, pl.restamp != nil)
		})
	}
}

func TestPlanUntil(t *testing.T) {
	c := newTestCache[int](t)

	pl, err := c.plan(Until[int](time.Now().Add(time.Hour)))
	require.NoError(t, err)
	assert.InDelta(t, float64(time.Hour), float64(pl.ttl), float64(time.Second))

	_, err = c.plan(Until[int](time.Now().Add(-time.Millisecond)))
	assert.ErrorIs(t, err, ErrInvalidTTL)
}

func TestInvalidPredicates(t *testing.T) {
	c := newTestCache[int](t, WithInvalid(Equal(-1)))

	pl, err := c.plan(Fixed[int](0).WithInvalid(Equal(0)))
	require.NoError(t, err)
	assert.True(t, pl.invalid(-1))
	assert.True(t, pl.invalid(0))
	assert.False(t, pl.invalid(1))

	pl, err = c.plan(Fixed[int](0))
	require.NoError(t, err)
	assert.True(t, pl.invalid(-1))
	assert.False(t, pl.invalid(0))

	plain := newTestCache[int](t)
	pl, err = plain.plan(Fixed[int](0))
	require.NoError(t, err)
	assert.Nil(t, pl.invalid)
}

func TestRestampModeString(t *testing.T) {
	assert.Equal(t, "in_place", RestampInPlace.String())
	assert.Equal(t, "replace", RestampReplace.String())
	assert.Equal(t, "RestampMode(7)", RestampMode(7).String())
}

func TestPolicyTTLFor(t *testing.T) {
	d, err := Fixed[string](time.Minute).TTLFor("v")
	require.NoError(t, err)
	assert.Equal(t, time.Minute, d)

	d, err = Policy[string]{}.TTLFor("v")
	require.NoError(t, err)
	assert.Zero(t, d)

	d, err = FromValue(func(s string) time.Duration { return time.Duration(len(s)) * time.Second }).TTLFor("abc")
	require.NoError(t, err)
	assert.Equal(t, 3*time.Second, d)

	d, err = Until[string](time.Now().Add(time.Hour)).TTLFor("v")
	require.NoError(t, err)
	assert.InDelta(t, float64(time.Hour), float64(d), float64(time.Second))

	_, err = Until[string](time.Now().Add(-time.Second)).TTLFor("v")
	assert.ErrorIs(t, err, ErrInvalidTTL)
}

func TestPolicyInvalid(t *testing.T) {
	assert.False(t, Fixed[int](0).Invalid(0))
	p := Fixed[int](0).WithInvalid(Equal(0))
	assert.True(t, p.Invalid(0))
	assert.False(t, p.Invalid(1))
}
