package validation

import (
	"fmt"
	"regexp"

	"github.com/iudanet/entrypack/internal/models"
)

// ValidationError ошибка проверки входных данных.
// Возникает до обращения к хранилищу; вызывающий код может отличить ее
// от ошибки хранилища через errors.As и не ретраить запись.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: %s: %s", e.Field, e.Message)
}

func errf(field, format string, a ...any) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, a...)}
}

// PassportNumberPattern определяет допустимый формат номера паспорта
// Латинские заглавные буквы и цифры, 5-12 символов
var PassportNumberPattern = regexp.MustCompile(`^[A-Z0-9]{5,12}$`)

// DatePattern формат дат во всех записях: YYYY-MM-DD
var DatePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// EmailPattern грубая проверка формата email (полная проверка не нужна,
// данные вводятся локально самим пользователем)
var EmailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// CurrencyPattern код валюты ISO 4217
var CurrencyPattern = regexp.MustCompile(`^[A-Z]{3}$`)

// ValidateUserID проверяет, что идентификатор пользователя задан
func ValidateUserID(userID string) error {
	if userID == "" {
		return errf("userId", "cannot be empty")
	}
	return nil
}

// ValidatePassport проверяет запись паспорта перед сохранением
func ValidatePassport(p *models.Passport) error {
	if p == nil {
		return errf("passport", "cannot be nil")
	}
	if err := ValidateUserID(p.UserID); err != nil {
		return err
	}
	if p.PassportNumber != "" && !PassportNumberPattern.MatchString(p.PassportNumber) {
		return errf(models.FieldPassportNumber, "must be 5-12 uppercase letters or digits")
	}
	for field, date := range map[string]string{
		models.FieldDateOfBirth: p.DateOfBirth,
		models.FieldIssueDate:   p.IssueDate,
		models.FieldExpiryDate:  p.ExpiryDate,
	} {
		if date != "" && !DatePattern.MatchString(date) {
			return errf(field, "must be in YYYY-MM-DD format")
		}
	}
	switch p.Gender {
	case "", "M", "F", "X":
	default:
		return errf(models.FieldGender, "must be one of M, F, X")
	}
	return nil
}

// ValidatePersonalInfo проверяет контактные данные перед сохранением
func ValidatePersonalInfo(pi *models.PersonalInfo) error {
	if pi == nil {
		return errf("personalInfo", "cannot be nil")
	}
	if err := ValidateUserID(pi.UserID); err != nil {
		return err
	}
	if pi.Email != "" && !EmailPattern.MatchString(pi.Email) {
		return errf(models.FieldEmail, "invalid email format")
	}
	return nil
}

// ValidateTravelInfo проверяет детали поездки перед сохранением
func ValidateTravelInfo(ti *models.TravelInfo) error {
	if ti == nil {
		return errf("travelInfo", "cannot be nil")
	}
	if err := ValidateUserID(ti.UserID); err != nil {
		return err
	}
	if ti.Destination == "" {
		return errf("destination", "cannot be empty")
	}
	for field, date := range map[string]string{
		models.FieldArrivalDate:   ti.ArrivalDate,
		models.FieldDepartureDate: ti.DepartureDate,
	} {
		if date != "" && !DatePattern.MatchString(date) {
			return errf(field, "must be in YYYY-MM-DD format")
		}
	}
	return nil
}

// ValidateFundItem проверяет подтверждение средств перед сохранением
func ValidateFundItem(fi *models.FundItem) error {
	if fi == nil {
		return errf("fundItem", "cannot be nil")
	}
	if err := ValidateUserID(fi.UserID); err != nil {
		return err
	}
	switch fi.Kind {
	case models.FundKindCash, models.FundKindCard, models.FundKindDocument:
	default:
		return errf("kind", "must be one of cash, card, document")
	}
	if fi.Amount < 0 {
		return errf("amount", "cannot be negative")
	}
	if fi.Currency != "" && !CurrencyPattern.MatchString(fi.Currency) {
		return errf("currency", "must be a 3-letter ISO 4217 code")
	}
	return nil
}

// ValidateEntryInfo проверяет запись подготовки перед сохранением
func ValidateEntryInfo(ei *models.EntryInfo) error {
	if ei == nil {
		return errf("entryInfo", "cannot be nil")
	}
	if err := ValidateUserID(ei.UserID); err != nil {
		return err
	}
	if ei.Destination == "" {
		return errf("destination", "cannot be empty")
	}
	switch ei.Status {
	case models.EntryStatusIncomplete, models.EntryStatusReady,
		models.EntryStatusSubmitted, models.EntryStatusSuperseded:
	default:
		return errf("status", "unknown status %q", ei.Status)
	}
	return nil
}
