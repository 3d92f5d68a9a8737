package models

import "time"

// TravelInfo представляет детали поездки для одного направления.
// Запись ключуется парой (UserID, Destination); обновления выполняются
// только слиянием: пустое входящее поле никогда не затирает заполненное.
type TravelInfo struct {
	CreatedAt            time.Time `json:"created_at"`
	UpdatedAt            time.Time `json:"updated_at"`
	ID                   string    `json:"id"`
	UserID               string    `json:"user_id"`
	Destination          string    `json:"destination"`           // Destination канонический код направления (например, "THA")
	ArrivalDate          string    `json:"arrival_date"`          // ArrivalDate дата прилета YYYY-MM-DD
	DepartureDate        string    `json:"departure_date"`        // DepartureDate дата вылета YYYY-MM-DD
	FlightNumber         string    `json:"flight_number"`         // FlightNumber номер рейса прилета (например, "CA981")
	ReturnFlightNumber   string    `json:"return_flight_number"`  // ReturnFlightNumber номер обратного рейса
	AccommodationName    string    `json:"accommodation_name"`    // AccommodationName название отеля или жилья
	AccommodationAddress string    `json:"accommodation_address"` // AccommodationAddress адрес проживания
	EntryInfoID          string    `json:"entry_info_id"`         // EntryInfoID опциональная ссылка на EntryInfo
}

// FundKind тип подтверждения наличия средств
type FundKind string

const (
	FundKindCash     FundKind = "cash"     // Наличные
	FundKindCard     FundKind = "card"     // Банковская карта
	FundKindDocument FundKind = "document" // Выписка или иной документ
)

// FundItem представляет одно подтверждение наличия средств.
// Записей может быть много на пользователя, добавляются и удаляются
// независимо друг от друга.
type FundItem struct {
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	Kind        FundKind  `json:"kind"`
	Currency    string    `json:"currency"`    // Currency код валюты ISO 4217
	Description string    `json:"description"` // Description описание (например, "Visa ****1234")
	PhotoRef    string    `json:"photo_ref"`   // PhotoRef ссылка на фото подтверждения
	Amount      int64     `json:"amount"`      // Amount сумма в минимальных единицах валюты
}
