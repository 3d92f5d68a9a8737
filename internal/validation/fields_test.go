package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/entrypack/internal/models"
)

func TestValidatePassport(t *testing.T) {
	tests := []struct {
		name      string
		passport  *models.Passport
		wantField string
	}{
		{
			name:     "valid full record",
			passport: &models.Passport{UserID: "user-1", PassportNumber: "AB1234567", DateOfBirth: "1990-05-15", Gender: "M"},
		},
		{
			name:     "empty optional fields allowed",
			passport: &models.Passport{UserID: "user-1"},
		},
		{
			name:      "nil passport",
			passport:  nil,
			wantField: "passport",
		},
		{
			name:      "missing user id",
			passport:  &models.Passport{PassportNumber: "AB1234567"},
			wantField: "userId",
		},
		{
			name:      "lowercase passport number",
			passport:  &models.Passport{UserID: "user-1", PassportNumber: "ab1234567"},
			wantField: models.FieldPassportNumber,
		},
		{
			name:      "passport number too short",
			passport:  &models.Passport{UserID: "user-1", PassportNumber: "AB12"},
			wantField: models.FieldPassportNumber,
		},
		{
			name:      "malformed date of birth",
			passport:  &models.Passport{UserID: "user-1", DateOfBirth: "15.05.1990"},
			wantField: models.FieldDateOfBirth,
		},
		{
			name:      "unknown gender",
			passport:  &models.Passport{UserID: "user-1", Gender: "Q"},
			wantField: models.FieldGender,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePassport(tt.passport)
			if tt.wantField == "" {
				assert.NoError(t, err)
				return
			}
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.wantField, verr.Field)
		})
	}
}

func TestValidatePersonalInfo(t *testing.T) {
	assert.NoError(t, ValidatePersonalInfo(&models.PersonalInfo{
		UserID: "user-1",
		Email:  "ivan@example.com",
	}))

	var verr *ValidationError
	err := ValidatePersonalInfo(&models.PersonalInfo{UserID: "user-1", Email: "not-an-email"})
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, models.FieldEmail, verr.Field)

	assert.Error(t, ValidatePersonalInfo(nil))
}

func TestValidateTravelInfo(t *testing.T) {
	assert.NoError(t, ValidateTravelInfo(&models.TravelInfo{
		UserID:      "user-1",
		Destination: "THA",
		ArrivalDate: "2025-07-01",
	}))

	var verr *ValidationError
	err := ValidateTravelInfo(&models.TravelInfo{UserID: "user-1"})
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "destination", verr.Field)

	err = ValidateTravelInfo(&models.TravelInfo{UserID: "user-1", Destination: "THA", ArrivalDate: "01/07/2025"})
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, models.FieldArrivalDate, verr.Field)
}

func TestValidateFundItem(t *testing.T) {
	assert.NoError(t, ValidateFundItem(&models.FundItem{
		UserID:   "user-1",
		Kind:     models.FundKindCash,
		Amount:   20000,
		Currency: "THB",
	}))

	var verr *ValidationError
	err := ValidateFundItem(&models.FundItem{UserID: "user-1", Kind: "crypto"})
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "kind", verr.Field)

	err = ValidateFundItem(&models.FundItem{UserID: "user-1", Kind: models.FundKindCash, Amount: -1})
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "amount", verr.Field)

	err = ValidateFundItem(&models.FundItem{UserID: "user-1", Kind: models.FundKindCash, Currency: "baht"})
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "currency", verr.Field)
}

func TestValidateEntryInfo(t *testing.T) {
	assert.NoError(t, ValidateEntryInfo(&models.EntryInfo{
		UserID:      "user-1",
		Destination: "THA",
		Status:      models.EntryStatusIncomplete,
	}))

	var verr *ValidationError
	err := ValidateEntryInfo(&models.EntryInfo{UserID: "user-1", Destination: "THA", Status: "draft"})
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "status", verr.Field)
}
