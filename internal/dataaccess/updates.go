package dataaccess

// Update structs carry partial edits. A nil field is absent; a non-nil empty
// string is ignored for merge-only fields and applied for explicit replace
// fields (the trip dates). This is what keeps two screens editing the same
// record from erasing each other's values.

// PassportUpdate partial edit of a passport. All fields are merge-only.
type PassportUpdate struct {
	PassportNumber *string
	FullName       *string
	DateOfBirth    *string
	Nationality    *string
	Gender         *string
	IssueDate      *string
	ExpiryDate     *string
	PhotoRef       *string
}

// PersonalInfoUpdate partial edit of contact data. All fields are merge-only.
type PersonalInfoUpdate struct {
	Email            *string
	Phone            *string
	Occupation       *string
	ResidenceCountry *string
	ResidenceCity    *string
	ResidenceAddress *string
}

// TravelInfoUpdate partial edit of trip details. ArrivalDate and
// DepartureDate are explicit replace fields: setting them to "" clears the
// stored value. Everything else is merge-only.
type TravelInfoUpdate struct {
	ArrivalDate          *string
	DepartureDate        *string
	FlightNumber         *string
	ReturnFlightNumber   *string
	AccommodationName    *string
	AccommodationAddress *string
}

// mergeField применяет одно поле частичного обновления.
// replace разрешает запись пустого значения поверх заполненного.
func mergeField(dst *string, src *string, field string, replace bool, changed *[]string) {
	if src == nil {
		return
	}
	if !replace && *src == "" {
		return
	}
	if *dst == *src {
		return
	}
	*dst = *src
	*changed = append(*changed, field)
}
