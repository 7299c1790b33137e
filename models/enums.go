package models

type BusinessDayStatus string

const (
	BusinessDayStatusOpen   BusinessDayStatus = "open"
	BusinessDayStatusClosed BusinessDayStatus = "closed"
)

type ShiftStatus string

const (
	ShiftStatusActive ShiftStatus = "active"
	ShiftStatusClosed ShiftStatus = "closed"
)

type PaymentMethod string

const (
	PaymentMethodCash PaymentMethod = "cash"
	PaymentMethodCard PaymentMethod = "card"
)
