package internal

import (
	"context"
	"testing"

	"payfast/entity"
	"payfast/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fieldNames(form *entity.RedirectForm) []string {
	names := make([]string, 0, len(form.Fields))
	for _, field := range form.Fields {
		names = append(names, field.Name)
	}
	return names
}

func TestBuildRedirectForm(t *testing.T) {
	f := newPaymentsFixture(t)

	form := f.payments.BuildRedirectForm(pendingOrder(), f.payments.conf.Settings())

	assert.Equal(t, "PayFast", form.Name)
	assert.Equal(t, "POST", form.Method)
	assert.Equal(t, "https://sandbox.payfast.co.za/eng/process?", form.Url)
	assert.Equal(t, []entity.FormField{
		{Name: "merchant_id", Value: testMerchantId},
		{Name: "merchant_key", Value: testMerchantKey},
		{Name: "return_url", Value: "https://shop.example.com/checkout/completed/5"},
		{Name: "cancel_url", Value: "https://shop.example.com/orderdetails/5"},
		{Name: "notify_url", Value: "https://shop.example.com/Plugins/PaymentPayFast/PaymentResult"},
		{Name: "m_payment_id", Value: testOrderGuid},
		{Name: "amount", Value: "10.50"},
		{Name: "item_name", Value: "Order #5"},
		{Name: "name_first", Value: "Jane"},
		{Name: "name_last", Value: "Doe"},
		{Name: "email_address", Value: "jane@example.com"},
	}, form.Fields)
}

func TestBuildRedirectFormWithoutBillingAddress(t *testing.T) {
	f := newPaymentsFixture(t)
	order := pendingOrder()
	order.BillingAddress = nil

	form := f.payments.BuildRedirectForm(order, f.payments.conf.Settings())

	assert.Equal(t, []string{
		"merchant_id", "merchant_key", "return_url", "cancel_url",
		"notify_url", "m_payment_id", "amount", "item_name",
	}, fieldNames(form))
}

func TestBuildRedirectFormProduction(t *testing.T) {
	f := newPaymentsFixture(t)
	settings := f.payments.conf.Settings()
	settings.UseSandbox = false

	form := f.payments.BuildRedirectForm(pendingOrder(), settings)

	assert.Equal(t, "https://www.payfast.co.za/eng/process?", form.Url)
}

func TestBuildRedirectFormStoreWithoutTrailingSlash(t *testing.T) {
	f := newPaymentsFixture(t)
	f.payments.conf.Store.Url = "https://shop.example.com"

	form := f.payments.BuildRedirectForm(pendingOrder(), f.payments.conf.Settings())

	notifyUrl, ok := form.Get("notify_url")
	require.True(t, ok)
	assert.Equal(t, "https://shop.example.com/Plugins/PaymentPayFast/PaymentResult", notifyUrl)
}

func TestBuildRedirectFormWholeAmount(t *testing.T) {
	f := newPaymentsFixture(t)
	order := pendingOrder()
	order.OrderTotal = 10

	form := f.payments.BuildRedirectForm(order, f.payments.conf.Settings())

	amount, _ := form.Get("amount")
	assert.Equal(t, "10.00", amount)
}

func TestBuildRedirectFormSignsWithPassphrase(t *testing.T) {
	f := newPaymentsFixture(t)
	settings := f.payments.conf.Settings()
	settings.Passphrase = "jt7NOE43FZPn"

	form := f.payments.BuildRedirectForm(pendingOrder(), settings)

	last := form.Fields[len(form.Fields)-1]
	assert.Equal(t, "signature", last.Name)
	assert.Equal(t, NewSigner("jt7NOE43FZPn").CreateSignature(form.Fields[:len(form.Fields)-1]), last.Value)
	assert.Len(t, last.Value, 32)
}

func TestBuildRedirectFormNilOrderPanics(t *testing.T) {
	f := newPaymentsFixture(t)

	assert.Panics(t, func() {
		f.payments.BuildRedirectForm(nil, f.payments.conf.Settings())
	})
}

func TestPostProcessPayment(t *testing.T) {
	f := newPaymentsFixture(t)

	form, err := f.payments.PostProcessPayment(context.Background(), testOrderId)

	require.NoError(t, err)
	value, ok := form.Get("m_payment_id")
	require.True(t, ok)
	assert.Equal(t, testOrderGuid, value)
}

func TestPostProcessPaymentUsesStoredSettings(t *testing.T) {
	f := newPaymentsFixture(t)
	settings := f.payments.conf.Settings()
	settings.MerchantId = "20000200"
	require.NoError(t, f.database.SaveSettings(context.Background(), &settings))

	form, err := f.payments.PostProcessPayment(context.Background(), testOrderId)

	require.NoError(t, err)
	merchantId, _ := form.Get("merchant_id")
	assert.Equal(t, "20000200", merchantId)
}

func TestPostProcessPaymentUnknownOrder(t *testing.T) {
	f := newPaymentsFixture(t)

	_, err := f.payments.PostProcessPayment(context.Background(), 404)

	assert.ErrorIs(t, err, services.ErrNotFound)
}

func TestPostProcessPaymentOrderNotPending(t *testing.T) {
	f := newPaymentsFixture(t)
	order := pendingOrder()
	order.OrderStatus = entity.OrderStatusProcessing
	f.database.AddOrder(order)

	_, err := f.payments.PostProcessPayment(context.Background(), testOrderId)

	assert.ErrorIs(t, err, ErrOrderNotPending)
}

func TestPaymentsAdditionalHandlingFee(t *testing.T) {
	f := newPaymentsFixture(t)
	settings := f.payments.conf.Settings()
	settings.AdditionalFee = 2
	settings.AdditionalFeePercentage = true
	require.NoError(t, f.database.SaveSettings(context.Background(), &settings))

	fee, err := f.payments.AdditionalHandlingFee(context.Background(), 150)

	require.NoError(t, err)
	assert.Equal(t, 3.0, fee)
}
