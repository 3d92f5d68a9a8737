package models

import "time"

// Passport представляет паспорт пользователя.
// Чувствительные поля (номер, имя, дата рождения, гражданство) хранятся
// в зашифрованном виде; репозиторий возвращает их уже расшифрованными.
type Passport struct {
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
	ID             string    `json:"id"`              // ID уникальный идентификатор записи (UUID)
	UserID         string    `json:"user_id"`         // UserID владелец паспорта
	PassportNumber string    `json:"passport_number"` // PassportNumber номер паспорта (encrypted at rest)
	FullName       string    `json:"full_name"`       // FullName имя как в паспорте (encrypted at rest)
	DateOfBirth    string    `json:"date_of_birth"`   // DateOfBirth дата рождения YYYY-MM-DD (encrypted at rest)
	Nationality    string    `json:"nationality"`     // Nationality гражданство, ISO 3166-1 alpha-3 (encrypted at rest)
	Gender         string    `json:"gender"`          // Gender пол: "M", "F" или "X"
	IssueDate      string    `json:"issue_date"`      // IssueDate дата выдачи YYYY-MM-DD
	ExpiryDate     string    `json:"expiry_date"`     // ExpiryDate срок действия YYYY-MM-DD
	PhotoRef       string    `json:"photo_ref"`       // PhotoRef ссылка на фото страницы паспорта
	IsPrimary      bool      `json:"is_primary"`      // IsPrimary основной паспорт пользователя (не больше одного)
}

// PersonalInfo представляет контактные и демографические данные.
// Одна логическая запись на пользователя, сохраняется через upsert.
type PersonalInfo struct {
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
	ID               string    `json:"id"`
	UserID           string    `json:"user_id"`
	Email            string    `json:"email"`
	Phone            string    `json:"phone"`
	Occupation       string    `json:"occupation"`
	ResidenceCountry string    `json:"residence_country"`
	ResidenceCity    string    `json:"residence_city"`
	ResidenceAddress string    `json:"residence_address"`
}
