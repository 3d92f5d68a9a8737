package models

import "time"

// ChangeDetails описывает, что именно изменилось при записи данных
type ChangeDetails struct {
	Destination   string   `json:"destination,omitempty"` // Destination заполняется для travelInfo/entryInfo событий
	UpdatedFields []string `json:"updated_fields"`        // UpdatedFields канонические имена измененных полей
}

// DataChangeEvent событие изменения данных, рассылаемое шиной после каждой
// успешной записи через фасад. Доставляется слушателям синхронно.
type DataChangeEvent struct {
	Timestamp time.Time     `json:"timestamp"`
	Type      DataType      `json:"type"`
	UserID    string        `json:"user_id"`
	Change    ChangeDetails `json:"change"`
}

// Touches reports whether the event updated any of the given field names.
func (e *DataChangeEvent) Touches(fields []string) bool {
	for _, updated := range e.Change.UpdatedFields {
		for _, f := range fields {
			if updated == f {
				return true
			}
		}
	}
	return false
}

// ResubmissionWarning предупреждение о том, что поданный документ устарел.
// Создается при переходе EntryInfo в статус superseded и живет до явного
// подтверждения пользователем.
type ResubmissionWarning struct {
	CreatedAt   time.Time `json:"created_at"`
	EntryInfoID string    `json:"entry_info_id"`
	UserID      string    `json:"user_id"`
	Reason      string    `json:"reason"`
}
