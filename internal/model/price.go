package model

import "github.com/shopspring/decimal"

type Price struct {
	ID              uint            `gorm:"primarykey" json:"id"`
	Amount          decimal.Decimal `json:"amount" gorm:"type:numeric(10,2);not null;default:0"`
	MeasurementUnit string          `json:"measurement_unit" gorm:"size:10;not null"`
}
