package models

import "time"

// EntryStatus статус записи подготовки к въезду
type EntryStatus string

const (
	// EntryStatusIncomplete не хватает обязательных данных
	EntryStatusIncomplete EntryStatus = "incomplete"
	// EntryStatusReady все данные собраны, документы еще не поданы
	EntryStatusReady EntryStatus = "ready"
	// EntryStatusSubmitted arrival card подан, прикреплен хотя бы один документ
	EntryStatusSubmitted EntryStatus = "submitted"
	// EntryStatusSuperseded данные изменились после подачи, нужна повторная подача
	EntryStatusSuperseded EntryStatus = "superseded"
)

// CanTransitionTo reports whether the status machine allows moving from the
// current status to the target. Re-entry from superseded goes forward to
// ready, never back to submitted.
func (s EntryStatus) CanTransitionTo(target EntryStatus) bool {
	switch s {
	case EntryStatusIncomplete:
		return target == EntryStatusReady
	case EntryStatusReady:
		return target == EntryStatusSubmitted || target == EntryStatusIncomplete
	case EntryStatusSubmitted:
		return target == EntryStatusSuperseded
	case EntryStatusSuperseded:
		return target == EntryStatusReady
	}
	return false
}

// CategoryMetric счетчики заполненности одной категории данных
type CategoryMetric struct {
	Completed int `json:"completed"`
	Total     int `json:"total"`
}

// CompletionMetrics результат проверки заполненности EntryInfo.
// Каталог обязательных полей зависит от страны и считается внешним
// коллаборатором; ядро только хранит и сравнивает результат.
type CompletionMetrics struct {
	Categories    map[string]CategoryMetric `json:"categories"`
	MissingFields []string                  `json:"missing_fields"`
}

// Complete reports whether every category is fully filled in.
func (m CompletionMetrics) Complete() bool {
	if len(m.MissingFields) > 0 {
		return false
	}
	for _, c := range m.Categories {
		if c.Completed < c.Total {
			return false
		}
	}
	return len(m.Categories) > 0
}

// SubmittedDocument один поданный артефакт arrival card (QR и/или PDF).
// Fields фиксирует snapshot: имена полей, которые вошли в поданный документ.
type SubmittedDocument struct {
	SubmittedAt time.Time `json:"submitted_at"`
	CardType    string    `json:"card_type"` // CardType тип карты (например, "arrival", "customs")
	QRRef       string    `json:"qr_ref"`
	PDFRef      string    `json:"pdf_ref"`
	Fields      []string  `json:"fields"`
}

// EntryInfo агрегирующая запись подготовки к въезду для одного направления.
// Не владеет данными паспорта/анкеты/поездки, а только ссылается на них;
// при изменении этих данных после подачи запись помечается superseded.
type EntryInfo struct {
	CreatedAt      time.Time           `json:"created_at"`
	UpdatedAt      time.Time           `json:"updated_at"`
	Metrics        CompletionMetrics   `json:"metrics"`
	ID             string              `json:"id"`
	UserID         string              `json:"user_id"`
	Destination    string              `json:"destination"`
	PassportID     string              `json:"passport_id"`
	PersonalInfoID string              `json:"personal_info_id"`
	TravelInfoID   string              `json:"travel_info_id"`
	Status         EntryStatus         `json:"status"`
	Documents      []SubmittedDocument `json:"documents"`
}

// SnapshotFields returns the union of field names captured by all submitted
// documents. Empty when nothing has been submitted.
func (e *EntryInfo) SnapshotFields() []string {
	seen := make(map[string]struct{})
	var fields []string
	for _, doc := range e.Documents {
		for _, f := range doc.Fields {
			if _, ok := seen[f]; ok {
				continue
			}
			seen[f] = struct{}{}
			fields = append(fields, f)
		}
	}
	return fields
}
