package domain

import "github.com/shopspring/decimal"

// FeeBreakdown is the charge summary handed over with a submitted selection
type FeeBreakdown struct {
	ShippingCharge float64 `json:"shippingCharge" bson:"shippingCharge"`
	CODCharge      float64 `json:"codCharge" bson:"codCharge"`
	GST            float64 `json:"gst" bson:"gst"`
	Total          float64 `json:"total" bson:"total"`
}

// ComposeFees derives the breakdown of offer. Total is copied from the offer as is so
// it always matches the rate source's own rounding.
func ComposeFees(offer *RateOffer) (FeeBreakdown, error) {
	if offer == nil {
		return FeeBreakdown{}, ErrMissingOffer
	}

	return FeeBreakdown{
		ShippingCharge: offer.ShippingCharge(),
		CODCharge:      offer.CODCharge,
		GST:            offer.GST,
		Total:          offer.Total,
	}, nil
}

var gstTolerance = decimal.NewFromFloat(0.01)

// GSTAudit compares the gst amount of an offer with the amount its gstPercentage implies
type GSTAudit struct {
	Expected   decimal.Decimal
	Actual     decimal.Decimal
	Consistent bool
}

// AuditGST checks gst against (shipping + cod) * gstPercentage / 100 at two decimal
// places. It only reports; the offer is not changed.
func AuditGST(offer RateOffer) GSTAudit {
	taxable := decimal.NewFromFloat(offer.BaseCharge).
		Add(decimal.NewFromFloat(offer.AdditionalWeightCharge)).
		Add(decimal.NewFromFloat(offer.CODCharge))

	expected := taxable.
		Mul(decimal.NewFromFloat(offer.GSTPercentage)).
		Div(decimal.NewFromInt(100)).
		Round(2)
	actual := decimal.NewFromFloat(offer.GST).Round(2)

	return GSTAudit{
		Expected:   expected,
		Actual:     actual,
		Consistent: expected.Sub(actual).Abs().LessThanOrEqual(gstTolerance),
	}
}
