package entity

import "time"

// OrderPaidEvent is published once an order has been marked as paid.
type OrderPaidEvent struct {
	OrderId       int       `json:"order_id"`
	OrderGuid     string    `json:"order_guid"`
	TransactionId string    `json:"transaction_id"`
	Amount        float64   `json:"amount"`
	PaidAt        time.Time `json:"paid_at"`
}
