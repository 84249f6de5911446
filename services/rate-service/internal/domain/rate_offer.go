package domain

import (
	"strings"
	"unicode"
)

// DefaultGSTPercentage applies when the rate source does not send one
const DefaultGSTPercentage = 18.0

// RateOffer is one courier and service mode combination with its pricing as computed
// by the rate source. Total is authoritative and is never recomputed here.
type RateOffer struct {
	CourierID              string       `json:"courierId" bson:"courierId"`
	Mode                   string       `json:"mode" bson:"mode"`
	ServiceMode            *ServiceMode `json:"serviceMode,omitempty" bson:"serviceMode,omitempty"`
	BaseCharge             float64      `json:"baseCharge" bson:"baseCharge"`
	AdditionalWeightCharge float64      `json:"additionalWeightCharge" bson:"additionalWeightCharge"`
	CODCharge              float64      `json:"codCharge" bson:"codCharge"`
	GSTPercentage          float64      `json:"gstPercentage" bson:"gstPercentage"`
	GST                    float64      `json:"gst" bson:"gst"`
	Total                  float64      `json:"total" bson:"total"`
}

// ShippingCharge is base plus additional weight charge
func (o RateOffer) ShippingCharge() float64 {
	return o.BaseCharge + o.AdditionalWeightCharge
}

// Key identifies the offer within a list
func (o RateOffer) Key() OfferKey {
	return OfferKey{CourierID: o.CourierID, Mode: o.Mode}
}

// Service returns the structured service mode, preferring the one sent by the source
func (o RateOffer) Service() ServiceMode {
	if o.ServiceMode != nil {
		return *o.ServiceMode
	}
	return ParseServiceMode(o.Mode)
}

// OfferKey is the (courier, mode) pair a selection refers to. A courier can offer
// several modes so the courier alone is not enough.
type OfferKey struct {
	CourierID string `json:"courierId" bson:"courierId"`
	Mode      string `json:"mode" bson:"mode"`
}

// IsZero reports whether the key is empty
func (k OfferKey) IsZero() bool {
	return k.CourierID == "" && k.Mode == ""
}

// ServiceMode is the display form of a mode string
type ServiceMode struct {
	Transport string `json:"transport,omitempty" bson:"transport,omitempty"`
	Label     string `json:"label" bson:"label"`
	IsExpress bool   `json:"isExpress" bson:"isExpress"`
}

// ParseServiceMode splits "Air - Express" style modes into transport and label.
// A mode without a dash becomes the label.
func ParseServiceMode(mode string) ServiceMode {
	mode = strings.TrimSpace(mode)
	if mode == "" {
		return ServiceMode{}
	}

	sm := ServiceMode{Label: mode}
	if transport, label, found := strings.Cut(mode, "-"); found {
		sm.Transport = strings.TrimSpace(transport)
		sm.Label = strings.TrimSpace(label)
		if sm.Label == "" {
			sm.Label = sm.Transport
		}
	}

	sm.IsExpress = strings.Contains(strings.ToLower(mode), "express") ||
		strings.EqualFold(sm.Transport, "air")
	return sm
}

// FindOffers returns the offers matching key
func FindOffers(offers []RateOffer, key OfferKey) []RateOffer {
	var matches []RateOffer
	for _, o := range offers {
		if o.Key() == key {
			matches = append(matches, o)
		}
	}
	return matches
}

// RateQuery is the set of parameters a rate list is fetched with. Any change to it
// invalidates the current selection.
type RateQuery struct {
	OriginPincode      string  `json:"originPincode" bson:"originPincode"`
	DestinationPincode string  `json:"destinationPincode" bson:"destinationPincode"`
	WeightKg           float64 `json:"weightKg" bson:"weightKg"`
	IsCOD              bool    `json:"isCOD" bson:"isCOD"`
}

// Validate checks the query is complete
func (q RateQuery) Validate() error {
	if strings.TrimSpace(q.OriginPincode) == "" || strings.TrimSpace(q.DestinationPincode) == "" || q.WeightKg <= 0 {
		return ErrInvalidRateQuery
	}
	return nil
}

// RateQuote is the answer of the rate source. An empty offer list is valid.
type RateQuote struct {
	Offers []RateOffer `json:"offers"`
	Zone   string      `json:"zone"`
}

// HumanizeZone inserts a space before each capital letter, so "WithinCity" reads
// "Within City". The zone is display only.
func HumanizeZone(zone string) string {
	var b strings.Builder
	b.Grow(len(zone) + 4)

	var prev rune
	for i, r := range zone {
		if i > 0 && unicode.IsUpper(r) && !unicode.IsSpace(prev) {
			b.WriteRune(' ')
		}
		b.WriteRune(r)
		prev = r
	}

	return strings.TrimSpace(b.String())
}
