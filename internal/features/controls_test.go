package features

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestControls_CoverRawColumns(t *testing.T) {
	raw := DefaultObservation().Map()
	require.Len(t, Controls, len(raw))

	for _, c := range Controls {
		v, ok := raw[c.Name]
		require.True(t, ok, "control %s has no raw column", c.Name)
		assert.Equal(t, c.Default, v, "default mismatch for %s", c.Name)
		assert.Less(t, c.Min, c.Max, "empty range for %s", c.Name)
		assert.GreaterOrEqual(t, c.Default, c.Min, c.Name)
		assert.LessOrEqual(t, c.Default, c.Max, c.Name)
		assert.Positive(t, c.Step, c.Name)
	}
}

func TestValidate_DefaultObservation(t *testing.T) {
	assert.NoError(t, DefaultObservation().Validate())
}

func TestValidate_BoundsAreInclusive(t *testing.T) {
	for _, c := range Controls {
		t.Run(c.Name, func(t *testing.T) {
			raw := DefaultObservation()
			raw.Set(c.Name, c.Min)
			assert.NoError(t, raw.Validate(), "min should be accepted")

			raw = DefaultObservation()
			raw.Set(c.Name, c.Max)
			assert.NoError(t, raw.Validate(), "max should be accepted")
		})
	}
}

func TestValidate_OutOfBounds(t *testing.T) {
	for _, c := range Controls {
		t.Run(c.Name, func(t *testing.T) {
			raw := DefaultObservation()
			raw.Set(c.Name, c.Max+c.Step)

			err := raw.Validate()
			require.Error(t, err)

			var verr *ValidationError
			require.True(t, errors.As(err, &verr))
			require.Len(t, verr.Fields, 1)
			assert.Contains(t, verr.Fields, c.Name)
			assert.Contains(t, verr.Fields[c.Name], c.Name)

			raw = DefaultObservation()
			raw.Set(c.Name, c.Min-c.Step)
			assert.Error(t, raw.Validate())
		})
	}
}

func TestValidate_MultipleFields(t *testing.T) {
	raw := DefaultObservation()
	raw.Alcohol = 30
	raw.Density = 2

	err := raw.Validate()
	require.Error(t, err)

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Len(t, verr.Fields, 2)
	assert.Contains(t, err.Error(), "alcohol")
	assert.Contains(t, err.Error(), "density")
}

func TestControlByName(t *testing.T) {
	c, ok := ControlByName("alcohol")
	require.True(t, ok)
	assert.Equal(t, "Alcohol (% vol.)", c.Label)
	assert.Equal(t, 9.4, c.Default)

	_, ok = ControlByName("sulfur_ratio")
	assert.False(t, ok)
}
