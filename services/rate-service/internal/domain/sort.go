package domain

import (
	"cmp"
	"slices"
	"strings"
)

// SortField is a sortable rate table column
type SortField string

const (
	SortByCourier  SortField = "courier"
	SortByMode     SortField = "mode"
	SortByShipping SortField = "shipping"
	SortByGST      SortField = "gst"
	SortByTotal    SortField = "total"
)

// Valid reports whether f is a known column
func (f SortField) Valid() bool {
	switch f {
	case SortByCourier, SortByMode, SortByShipping, SortByGST, SortByTotal:
		return true
	}
	return false
}

// ParseSortField parses a column name
func ParseSortField(v string) (SortField, error) {
	f := SortField(v)
	if !f.Valid() {
		return "", ErrInvalidSortField
	}
	return f, nil
}

// SortDirection is asc or desc
type SortDirection string

const (
	Ascending  SortDirection = "asc"
	Descending SortDirection = "desc"
)

// ParseSortDirection parses a direction. Empty means ascending.
func ParseSortDirection(v string) (SortDirection, error) {
	switch SortDirection(v) {
	case "", Ascending:
		return Ascending, nil
	case Descending:
		return Descending, nil
	}
	return "", ErrInvalidSortDir
}

// SortState is the active column and direction of a rate table
type SortState struct {
	Field     SortField     `json:"field" bson:"field"`
	Direction SortDirection `json:"direction" bson:"direction"`
}

// NewSortState starts ascending on field
func NewSortState(field SortField) SortState {
	return SortState{Field: field, Direction: Ascending}
}

// Toggle applies a header click: the active field flips direction, any other field
// starts ascending.
func (s SortState) Toggle(field SortField) SortState {
	if s.Field == field {
		if s.Direction == Ascending {
			return SortState{Field: field, Direction: Descending}
		}
		return SortState{Field: field, Direction: Ascending}
	}
	return NewSortState(field)
}

// SortOffers returns a sorted copy of offers. Ties keep their input order in both
// directions. Strings compare as given, without case folding.
func SortOffers(offers []RateOffer, state SortState) []RateOffer {
	sorted := make([]RateOffer, len(offers))
	copy(sorted, offers)
	if len(sorted) < 2 {
		return sorted
	}

	compare := comparator(state.Field)
	desc := state.Direction == Descending
	slices.SortStableFunc(sorted, func(a, b RateOffer) int {
		if desc {
			return compare(b, a)
		}
		return compare(a, b)
	})

	return sorted
}

func comparator(field SortField) func(a, b RateOffer) int {
	switch field {
	case SortByCourier:
		return func(a, b RateOffer) int { return strings.Compare(a.CourierID, b.CourierID) }
	case SortByMode:
		return func(a, b RateOffer) int { return strings.Compare(a.Mode, b.Mode) }
	case SortByShipping:
		return func(a, b RateOffer) int { return cmp.Compare(a.ShippingCharge(), b.ShippingCharge()) }
	case SortByGST:
		return func(a, b RateOffer) int { return cmp.Compare(a.GST, b.GST) }
	case SortByTotal:
		return func(a, b RateOffer) int { return cmp.Compare(a.Total, b.Total) }
	default:
		return func(a, b RateOffer) int { return 0 }
	}
}
