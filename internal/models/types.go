package models

// DataType identifies a logical data category inside the unified data layer.
// The set is open: cache keys and change events accept types that are not
// enumerated here (for example dynamically grouped fund items).
type DataType string

const (
	DataTypePassport     DataType = "passport"     // Passport records
	DataTypePersonalInfo DataType = "personalInfo" // Contact and demographic data
	DataTypeTravelInfo   DataType = "travelInfo"   // Per-destination trip details
	DataTypeFundItems    DataType = "fundItems"    // Proof-of-funds entries
	DataTypeEntryInfo    DataType = "entryInfo"    // Entry preparation records
)

// Canonical field names carried in change events and submission snapshots.
// The EntryInfo checker diffs these against a submitted document's snapshot,
// so every writer must report changes with exactly these spellings.
const (
	FieldPassportNumber   = "passportNumber"
	FieldFullName         = "fullName"
	FieldDateOfBirth      = "dateOfBirth"
	FieldNationality      = "nationality"
	FieldGender           = "gender"
	FieldIssueDate        = "issueDate"
	FieldExpiryDate       = "expiryDate"
	FieldPhotoRef         = "photoRef"
	FieldIsPrimary        = "isPrimary"
	FieldEmail            = "email"
	FieldPhone            = "phone"
	FieldOccupation       = "occupation"
	FieldResidenceCountry = "residenceCountry"
	FieldResidenceCity    = "residenceCity"
	FieldResidenceAddress = "residenceAddress"
	FieldArrivalDate      = "arrivalDate"
	FieldDepartureDate    = "departureDate"
	FieldFlightNumber     = "flightNumber"
	FieldReturnFlight     = "returnFlightNumber"
	FieldAccommodation    = "accommodationName"
	FieldAccommodationAdr = "accommodationAddress"
	FieldFunds            = "funds"
)
