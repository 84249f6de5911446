package ratesource

import "github.com/wms-platform/courier-rates/services/rate-service/internal/domain"

type ratesResponse struct {
	Offers []offerPayload `json:"offers"`
	Zone   string         `json:"zone"`
}

type offerPayload struct {
	CourierID              string              `json:"courierId"`
	Mode                   string              `json:"mode"`
	ServiceMode            *domain.ServiceMode `json:"serviceMode"`
	BaseCharge             float64             `json:"baseCharge"`
	AdditionalWeightCharge float64             `json:"additionalWeightCharge"`
	CODCharge              float64             `json:"codCharge"`
	GSTPercentage          *float64            `json:"gstPercentage"`
	GST                    float64             `json:"gst"`
	Total                  float64             `json:"total"`
}

func (r ratesResponse) toQuote() *domain.RateQuote {
	offers := make([]domain.RateOffer, 0, len(r.Offers))
	for _, o := range r.Offers {
		gstPercentage := domain.DefaultGSTPercentage
		if o.GSTPercentage != nil {
			gstPercentage = *o.GSTPercentage
		}

		offers = append(offers, domain.RateOffer{
			CourierID:              o.CourierID,
			Mode:                   o.Mode,
			ServiceMode:            o.ServiceMode,
			BaseCharge:             o.BaseCharge,
			AdditionalWeightCharge: o.AdditionalWeightCharge,
			CODCharge:              o.CODCharge,
			GSTPercentage:          gstPercentage,
			GST:                    o.GST,
			Total:                  o.Total,
		})
	}

	return &domain.RateQuote{Offers: offers, Zone: r.Zone}
}
