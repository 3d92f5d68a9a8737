package dataaccess

import "github.com/iudanet/entrypack/internal/models"

// SerializablePassport is the transport-safe shape of a passport: plain
// values only, safe to hand across a navigation or process boundary.
type SerializablePassport struct {
	ID             string `json:"id"`
	UserID         string `json:"user_id"`
	PassportNumber string `json:"passport_number"`
	FullName       string `json:"full_name"`
	DateOfBirth    string `json:"date_of_birth"`
	Nationality    string `json:"nationality"`
	Gender         string `json:"gender"`
	IssueDate      string `json:"issue_date"`
	ExpiryDate     string `json:"expiry_date"`
	PhotoRef       string `json:"photo_ref"`
	CreatedAt      int64  `json:"created_at"`
	UpdatedAt      int64  `json:"updated_at"`
	IsPrimary      bool   `json:"is_primary"`
}

// ToSerializablePassport converts a repository-shaped passport into its
// transport-safe form. nil in, nil out.
func ToSerializablePassport(p *models.Passport) *SerializablePassport {
	if p == nil {
		return nil
	}
	return &SerializablePassport{
		ID:             p.ID,
		UserID:         p.UserID,
		PassportNumber: p.PassportNumber,
		FullName:       p.FullName,
		DateOfBirth:    p.DateOfBirth,
		Nationality:    p.Nationality,
		Gender:         p.Gender,
		IssueDate:      p.IssueDate,
		ExpiryDate:     p.ExpiryDate,
		PhotoRef:       p.PhotoRef,
		IsPrimary:      p.IsPrimary,
		CreatedAt:      p.CreatedAt.Unix(),
		UpdatedAt:      p.UpdatedAt.Unix(),
	}
}
