package dataaccess

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/iudanet/entrypack/internal/models"
	"github.com/iudanet/entrypack/internal/storage"
	"github.com/iudanet/entrypack/internal/validation"
)

// UserData is the aggregate of the user's core records. Fields stay nil when
// the corresponding load failed or the record doesn't exist.
type UserData struct {
	Passport       *models.Passport
	PersonalInfo   *models.PersonalInfo
	LoadDurationMs int64
}

// BatchInput carries the sub-objects of a batch update. A nil sub-object
// leaves that entity untouched.
type BatchInput struct {
	Passport     *PassportUpdate
	PersonalInfo *PersonalInfoUpdate
}

// GetAllUserData loads the passport and personal info in parallel. It never
// returns an error: a failed half is logged and left nil so the caller can
// render whatever succeeded. LoadDurationMs is recorded for observability.
func (s *Service) GetAllUserData(ctx context.Context, userID string) *UserData {
	start := time.Now()
	data := &UserData{}

	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		p, err := s.GetPassport(ctx, userID)
		if err != nil {
			s.logger.Error("failed to load passport", "user_id", userID, "error", err)
			return
		}
		data.Passport = p
	}()

	go func() {
		defer wg.Done()
		pi, err := s.GetPersonalInfo(ctx, userID)
		if err != nil {
			s.logger.Error("failed to load personal info", "user_id", userID, "error", err)
			return
		}
		data.PersonalInfo = pi
	}()

	wg.Wait()
	data.LoadDurationMs = time.Since(start).Milliseconds()
	return data
}

// BatchUpdate merges the supplied sub-objects over the current aggregate and
// persists every changed entity inside one repository transaction: either
// all writes commit or none do. Affected cache entries are invalidated
// whether or not the transaction succeeded, and the fresh aggregate is
// reloaded from storage.
func (s *Service) BatchUpdate(ctx context.Context, userID string, input BatchInput) (*UserData, error) {
	if input.Passport == nil && input.PersonalInfo == nil {
		return s.GetAllUserData(ctx, userID), nil
	}

	var (
		mergedPassport *models.Passport
		mergedPersonal *models.PersonalInfo
		passportFields []string
		personalFields []string
	)

	if input.Passport != nil {
		current, err := s.currentPassport(ctx, userID)
		if err != nil {
			return nil, err
		}
		merged := models.Passport{UserID: userID}
		if current != nil {
			merged = *current
		}
		mergeField(&merged.PassportNumber, input.Passport.PassportNumber, models.FieldPassportNumber, false, &passportFields)
		mergeField(&merged.FullName, input.Passport.FullName, models.FieldFullName, false, &passportFields)
		mergeField(&merged.DateOfBirth, input.Passport.DateOfBirth, models.FieldDateOfBirth, false, &passportFields)
		mergeField(&merged.Nationality, input.Passport.Nationality, models.FieldNationality, false, &passportFields)
		mergeField(&merged.Gender, input.Passport.Gender, models.FieldGender, false, &passportFields)
		mergeField(&merged.IssueDate, input.Passport.IssueDate, models.FieldIssueDate, false, &passportFields)
		mergeField(&merged.ExpiryDate, input.Passport.ExpiryDate, models.FieldExpiryDate, false, &passportFields)
		mergeField(&merged.PhotoRef, input.Passport.PhotoRef, models.FieldPhotoRef, false, &passportFields)

		if len(passportFields) > 0 {
			if err := validation.ValidatePassport(&merged); err != nil {
				return nil, err
			}
			mergedPassport = &merged
		}
	}

	if input.PersonalInfo != nil {
		current, err := s.repo.GetPersonalInfoByUserID(ctx, userID)
		if err != nil && !errors.Is(err, storage.ErrNotFound) {
			return nil, err
		}
		merged := models.PersonalInfo{UserID: userID}
		if current != nil {
			merged = *current
		}
		mergeField(&merged.Email, input.PersonalInfo.Email, models.FieldEmail, false, &personalFields)
		mergeField(&merged.Phone, input.PersonalInfo.Phone, models.FieldPhone, false, &personalFields)
		mergeField(&merged.Occupation, input.PersonalInfo.Occupation, models.FieldOccupation, false, &personalFields)
		mergeField(&merged.ResidenceCountry, input.PersonalInfo.ResidenceCountry, models.FieldResidenceCountry, false, &personalFields)
		mergeField(&merged.ResidenceCity, input.PersonalInfo.ResidenceCity, models.FieldResidenceCity, false, &personalFields)
		mergeField(&merged.ResidenceAddress, input.PersonalInfo.ResidenceAddress, models.FieldResidenceAddress, false, &personalFields)

		if len(personalFields) > 0 {
			if err := validation.ValidatePersonalInfo(&merged); err != nil {
				return nil, err
			}
			mergedPersonal = &merged
		}
	}

	if mergedPassport == nil && mergedPersonal == nil {
		// Ничего не изменилось - транзакция и события не нужны
		return s.GetAllUserData(ctx, userID), nil
	}

	if err := s.repo.SaveBundle(ctx, mergedPassport, mergedPersonal); err != nil {
		// Откат уже произошел; кэш сбрасываем, чтобы не отдать смесь
		s.invalidatePassports(userID)
		s.invalidatePersonalInfo(userID)
		return nil, err
	}

	s.invalidatePassports(userID)
	s.invalidatePersonalInfo(userID)

	if len(passportFields) > 0 {
		s.raise(ctx, models.DataTypePassport, userID, passportFields, "")
	}
	if len(personalFields) > 0 {
		s.raise(ctx, models.DataTypePersonalInfo, userID, personalFields, "")
	}

	return s.GetAllUserData(ctx, userID), nil
}

// currentPassport reads the primary (or most recent) passport straight from
// the repository, bypassing the cache: batch merges must start from
// persisted state.
func (s *Service) currentPassport(ctx context.Context, userID string) (*models.Passport, error) {
	passports, err := s.repo.GetPassportsByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(passports) == 0 {
		return nil, nil
	}
	return passports[0], nil
}
