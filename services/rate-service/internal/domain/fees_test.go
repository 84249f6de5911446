package domain

import (
	"errors"
	"math"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComposeFees(t *testing.T) {
	offer := &RateOffer{
		CourierID:              "delhivery",
		Mode:                   "Surface - Standard",
		BaseCharge:             84.5,
		AdditionalWeightCharge: 12.25,
		CODCharge:              30,
		GSTPercentage:          18,
		GST:                    22.815,
		Total:                  149.56499999999997,
	}

	fees, err := ComposeFees(offer)

	require.NoError(t, err)
	assert.Equal(t, 96.75, fees.ShippingCharge)
	assert.Equal(t, 30.0, fees.CODCharge)
	assert.Equal(t, 22.815, fees.GST)
	assert.Equal(t, math.Float64bits(offer.Total), math.Float64bits(fees.Total))
}

func TestComposeFees_TotalIsNotRecomputed(t *testing.T) {
	offer := &RateOffer{BaseCharge: 100, CODCharge: 10, GST: 19.8, Total: 1}

	fees, err := ComposeFees(offer)

	require.NoError(t, err)
	assert.Equal(t, 1.0, fees.Total)
}

func TestComposeFees_NilOffer(t *testing.T) {
	_, err := ComposeFees(nil)

	require.Error(t, err)
	var precondition *PreconditionError
	assert.True(t, errors.As(err, &precondition))
	assert.ErrorIs(t, err, ErrMissingOffer)
}

func TestAuditGST(t *testing.T) {
	tests := []struct {
		name       string
		offer      RateOffer
		expected   decimal.Decimal
		consistent bool
	}{
		{
			name:       "matches",
			offer:      RateOffer{BaseCharge: 100, GSTPercentage: 18, GST: 18},
			expected:   decimal.NewFromInt(18),
			consistent: true,
		},
		{
			name:       "includes cod and additional weight",
			offer:      RateOffer{BaseCharge: 100, AdditionalWeightCharge: 50, CODCharge: 50, GSTPercentage: 18, GST: 36},
			expected:   decimal.NewFromInt(36),
			consistent: true,
		},
		{
			name:       "within tolerance",
			offer:      RateOffer{BaseCharge: 100, GSTPercentage: 18, GST: 18.01},
			expected:   decimal.NewFromInt(18),
			consistent: true,
		},
		{
			name:       "mismatch",
			offer:      RateOffer{BaseCharge: 100, GSTPercentage: 18, GST: 12},
			expected:   decimal.NewFromInt(18),
			consistent: false,
		},
		{
			name:       "zero rate",
			offer:      RateOffer{BaseCharge: 100, GSTPercentage: 0, GST: 0},
			expected:   decimal.Zero,
			consistent: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			audit := AuditGST(tt.offer)

			assert.True(t, tt.expected.Equal(audit.Expected), "expected %s, got %s", tt.expected, audit.Expected)
			assert.Equal(t, tt.consistent, audit.Consistent)
		})
	}
}

func TestAuditGST_DoesNotChangeOffer(t *testing.T) {
	offer := RateOffer{BaseCharge: 100, GSTPercentage: 18, GST: 5, Total: 105}

	AuditGST(offer)

	assert.Equal(t, 5.0, offer.GST)
	assert.Equal(t, 105.0, offer.Total)
}
