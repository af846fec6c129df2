package assert

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollector_Unwrap(t *testing.T) {
	var (
		ErrA = errors.New("A")
		ErrB = errors.New("B")
		err  = CollectErrors().Add(ErrA).Add(nil).Add(ErrB).Result()
		as   = new(Collector)
	)
	require.NotNil(t, err)
	assert.ErrorIs(t, err, ErrA)
	assert.ErrorIs(t, err, ErrB)
	assert.ErrorAs(t, err, &as)
	assert.Equal(t, 2, as.Len(), "Nil errors should not be recorded")
}

func TestCollector_Error(t *testing.T) {
	var (
		ErrA = errors.New("A")
		err  = CollectErrors(" ").Add(ErrA).Addf("wrapped %w", ErrA).Addf("C").Result()
	)
	require.NotNil(t, err)
	assert.Equal(t, "A wrapped A C", err.Error())
}

func TestCollector_Result(t *testing.T) {
	c := CollectErrors()
	assert.NoError(t, c.Result(), "An empty Collector should not be an error")
	assert.Equal(t, 0, c.Len())
}
