// Package entity defines data models for the PayFast payment service.
package entity

import (
	"fmt"
	"time"
)

type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusComplete   OrderStatus = "complete"
	OrderStatusCancelled  OrderStatus = "cancelled"
)

type PaymentStatus string

const (
	PaymentStatusPending           PaymentStatus = "pending"
	PaymentStatusAuthorized        PaymentStatus = "authorized"
	PaymentStatusPaid              PaymentStatus = "paid"
	PaymentStatusPartiallyRefunded PaymentStatus = "partially_refunded"
	PaymentStatusRefunded          PaymentStatus = "refunded"
	PaymentStatusVoided            PaymentStatus = "voided"
)

// Address is the billing identity sent to the gateway with the redirect.
type Address struct {
	FirstName string `json:"first_name" bson:"first_name"`
	LastName  string `json:"last_name" bson:"last_name"`
	Email     string `json:"email" bson:"email"`
}

// Order is owned by the store. The payment service only reads it and
// records the outcome of a payment.
type Order struct {
	Id int `json:"order_id" bson:"order_id"`
	// OrderGuid is the only identifier exposed to the gateway (m_payment_id).
	OrderGuid                  string        `json:"order_guid" bson:"order_guid"`
	OrderTotal                 float64       `json:"order_total" bson:"order_total"`
	OrderSubtotal              float64       `json:"order_subtotal" bson:"order_subtotal"`
	BillingAddress             *Address      `json:"billing_address,omitempty" bson:"billing_address"`
	AuthorizationTransactionId string        `json:"authorization_transaction_id" bson:"authorization_transaction_id"`
	OrderStatus                OrderStatus   `json:"order_status" bson:"order_status"`
	PaymentStatus              PaymentStatus `json:"payment_status" bson:"payment_status"`
	PaidDate                   *time.Time    `json:"paid_date,omitempty" bson:"paid_date"`
}

// CanMarkAsPaid reports whether a payment may still be applied to the order.
// A cancelled order, or one already paid, refunded or voided, is not eligible.
func (o *Order) CanMarkAsPaid() bool {
	if o.OrderStatus == OrderStatusCancelled {
		return false
	}
	switch o.PaymentStatus {
	case PaymentStatusPaid, PaymentStatusRefunded, PaymentStatusVoided:
		return false
	}
	return true
}

// MarkAsPaid records the payment. A pending order moves on to processing.
func (o *Order) MarkAsPaid(now time.Time) error {
	if !o.CanMarkAsPaid() {
		return fmt.Errorf("order %d cannot be marked as paid: order status %s, payment status %s", o.Id, o.OrderStatus, o.PaymentStatus)
	}
	o.PaymentStatus = PaymentStatusPaid
	o.PaidDate = &now
	if o.OrderStatus == OrderStatusPending || o.OrderStatus == "" {
		o.OrderStatus = OrderStatusProcessing
	}
	return nil
}

// CanRePostProcessPayment reports whether the shopper may be sent to the
// gateway again, which is only while the order is still pending.
func (o *Order) CanRePostProcessPayment() bool {
	return o.OrderStatus == OrderStatusPending
}
