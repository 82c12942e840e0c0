package entity

import (
	"net/url"
	"strings"
)

const (
	FieldPaymentId     = "m_payment_id"
	FieldMerchantId    = "merchant_id"
	FieldPaymentStatus = "payment_status"
	FieldPfPaymentId   = "pf_payment_id"
	FieldSignature     = "signature"

	PaymentStatusComplete = "COMPLETE"
)

// Notification is the form posted by the gateway to the notify url (ITN).
// It lives for the duration of one validation.
type Notification struct {
	values url.Values
}

func NewNotification(values url.Values) *Notification {
	if values == nil {
		values = url.Values{}
	}
	return &Notification{values: values}
}

func (n *Notification) PaymentId() string {
	return n.values.Get(FieldPaymentId)
}

func (n *Notification) MerchantId() string {
	return n.values.Get(FieldMerchantId)
}

func (n *Notification) PaymentStatus() string {
	return n.values.Get(FieldPaymentStatus)
}

func (n *Notification) PfPaymentId() string {
	return n.values.Get(FieldPfPaymentId)
}

func (n *Notification) Signature() string {
	return n.values.Get(FieldSignature)
}

// WithoutSignature returns a copy of the posted data with the signature
// removed; the key is matched regardless of case.
func (n *Notification) WithoutSignature() url.Values {
	data := url.Values{}
	for key, values := range n.values {
		if strings.EqualFold(key, FieldSignature) {
			continue
		}
		data[key] = append([]string(nil), values...)
	}
	return data
}
