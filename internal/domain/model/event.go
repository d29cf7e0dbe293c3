package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// イベントシンクに流すイベント種別
const (
	EventOrderPlaced          = "OrderPlaced"
	EventPrescriptionUploaded = "PrescriptionUploaded"
	EventPrescriptionAnalyzed = "PrescriptionAnalyzed"
	EventProductsIdentified   = "ProductsIdentified"
)

// Publisherに渡すイベント。JSONのキーは下流のコンシューマに合わせてPascalCase
type Event interface {
	Type() string
}

type OrderPlacedEvent struct {
	EventType string    `json:"EventType"`
	OrderID   int64     `json:"OrderId"`
	Customer  string    `json:"Customer"`
	ItemCount int       `json:"ItemCount"` // 行数
	OrderDate time.Time `json:"OrderDate"`
	GiftWrap  bool      `json:"GiftWrap"`
}

func NewOrderPlacedEvent(o Order) OrderPlacedEvent {
	return OrderPlacedEvent{
		EventType: EventOrderPlaced,
		OrderID:   o.ID,
		Customer:  o.Name,
		ItemCount: len(o.Lines),
		OrderDate: o.OrderDate,
		GiftWrap:  o.GiftWrap,
	}
}

func (e OrderPlacedEvent) Type() string { return EventOrderPlaced }

type PrescriptionUploadedEvent struct {
	EventType      string    `json:"EventType"`
	PrescriptionID string    `json:"PrescriptionId"`
	FileName       string    `json:"FileName"`
	UploadedBy     string    `json:"UploadedBy"`
	Timestamp      time.Time `json:"Timestamp"`
	BlobURL        string    `json:"BlobUrl"`
}

func (e PrescriptionUploadedEvent) Type() string { return EventPrescriptionUploaded }

type PrescriptionAnalyzedEvent struct {
	EventType               string    `json:"EventType"`
	PrescriptionID          string    `json:"PrescriptionId"`
	FileName                string    `json:"FileName"`
	ExtractedInscription    string    `json:"ExtractedInscription"`
	ExtractedPatientDetails string    `json:"ExtractedPatientDetails"`
	Timestamp               time.Time `json:"Timestamp"`
	ProcessedBy             string    `json:"ProcessedBy"`
}

func (e PrescriptionAnalyzedEvent) Type() string { return EventPrescriptionAnalyzed }

type IdentifiedProduct struct {
	Name     string          `json:"Name"`
	Category string          `json:"Category"`
	Price    decimal.Decimal `json:"Price"`
}

type ProductsIdentifiedEvent struct {
	EventType            string              `json:"EventType"`
	ExtractedInscription string              `json:"ExtractedInscription"`
	IdentifiedProducts   []IdentifiedProduct `json:"IdentifiedProducts"`
	Timestamp            time.Time           `json:"Timestamp"`
	ProcessedBy          string              `json:"ProcessedBy"`
}

func (e ProductsIdentifiedEvent) Type() string { return EventProductsIdentified }
