package application

import "github.com/wms-platform/courier-rates/services/rate-service/internal/domain"

// ToRateOfferDTO converts a domain RateOffer to RateOfferDTO
func ToRateOfferDTO(offer domain.RateOffer, selected bool) RateOfferDTO {
	mode := offer.Service()
	return RateOfferDTO{
		CourierID: offer.CourierID,
		Mode:      offer.Mode,
		ServiceMode: ServiceModeDTO{
			Transport: mode.Transport,
			Label:     mode.Label,
			IsExpress: mode.IsExpress,
		},
		BaseCharge:             offer.BaseCharge,
		AdditionalWeightCharge: offer.AdditionalWeightCharge,
		ShippingCharge:         offer.ShippingCharge(),
		CODCharge:              offer.CODCharge,
		GSTPercentage:          offer.GSTPercentage,
		GST:                    offer.GST,
		Total:                  offer.Total,
		GSTMismatch:            !domain.AuditGST(offer).Consistent,
		Selected:               selected,
	}
}

// ToRateOfferDTOs converts offers in their given order, marking the selected one
func ToRateOfferDTOs(offers []domain.RateOffer, selected domain.OfferKey) []RateOfferDTO {
	dtos := make([]RateOfferDTO, 0, len(offers))
	for _, offer := range offers {
		dtos = append(dtos, ToRateOfferDTO(offer, !selected.IsZero() && offer.Key() == selected))
	}
	return dtos
}

// ToSortDTO converts a domain SortState to SortDTO
func ToSortDTO(state domain.SortState) SortDTO {
	return SortDTO{
		Field:     string(state.Field),
		Direction: string(state.Direction),
	}
}

// ToRateQueryDTO converts a domain RateQuery to RateQueryDTO
func ToRateQueryDTO(query domain.RateQuery) RateQueryDTO {
	return RateQueryDTO{
		OriginPincode:      query.OriginPincode,
		DestinationPincode: query.DestinationPincode,
		WeightKg:           query.WeightKg,
		IsCOD:              query.IsCOD,
	}
}

// ToQuoteDTO converts a rate quote, sorted by state
func ToQuoteDTO(quote *domain.RateQuote, state domain.SortState) *QuoteDTO {
	if quote == nil {
		quote = &domain.RateQuote{}
	}

	return &QuoteDTO{
		Offers:      ToRateOfferDTOs(domain.SortOffers(quote.Offers, state), domain.OfferKey{}),
		Zone:        quote.Zone,
		DisplayZone: domain.HumanizeZone(quote.Zone),
		Sort:        ToSortDTO(state),
	}
}

// ToRateSessionDTO converts a domain RateSession to RateSessionDTO
func ToRateSessionDTO(session *domain.RateSession) *RateSessionDTO {
	if session == nil {
		return nil
	}

	key, _ := session.Selection.Key()
	dto := &RateSessionDTO{
		SessionID:       session.ID,
		Surface:         string(session.Surface),
		Status:          string(session.Status),
		Query:           ToRateQueryDTO(session.Query),
		Offers:          ToRateOfferDTOs(session.SortedOffers(), key),
		Zone:            session.Zone,
		DisplayZone:     session.DisplayZone(),
		Sort:            ToSortDTO(session.Sort),
		SelectionStatus: string(session.Selection.Status()),
		FetchError:      session.FetchError,
		Loading:         session.Loading,
		CanSubmit:       session.CanSubmit(),
		CreatedAt:       session.CreatedAt,
		UpdatedAt:       session.UpdatedAt,
	}

	if !key.IsZero() {
		dto.Selection = &SelectionDTO{CourierID: key.CourierID, Mode: key.Mode}
	}

	return dto
}

// ToSubmissionDTO converts a submitted selection to SubmissionDTO
func ToSubmissionDTO(submitted domain.SubmittedSelection) *SubmissionDTO {
	return &SubmissionDTO{
		SessionID: submitted.SessionID,
		Courier:   submitted.Courier,
		Mode:      submitted.Mode,
		Charges: ChargesDTO{
			ShippingCharge: submitted.Charges.ShippingCharge,
			CODCharge:      submitted.Charges.CODCharge,
			GST:            submitted.Charges.GST,
			Total:          submitted.Charges.Total,
		},
		SubmittedAt: submitted.SubmittedAt,
	}
}
