package internal

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/netip"
	"net/url"
	"strings"
	"testing"

	"payfast/entity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, f *paymentsFixture) *Server {
	t.Helper()
	plugin := NewPlugin(f.payments.conf, f.database)
	plugin.SetLogger(testLogger(t))
	require.NoError(t, plugin.Install(context.Background()))

	server := NewServer(f.payments.conf)
	server.SetLogger(testLogger(t))
	server.SetPaymentsService(f.payments)
	server.SetPlugin(plugin)
	return server
}

func postNotification(server *Server, payload url.Values, remoteAddr string, header http.Header) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/Plugins/PaymentPayFast/PaymentResult", strings.NewReader(payload.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	for key, values := range header {
		req.Header[key] = values
	}
	req.RemoteAddr = remoteAddr
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, req)
	return rec
}

func TestPaymentResultAccepted(t *testing.T) {
	f := newPaymentsFixture(t)
	server := newTestServer(t, f)

	rec := postNotification(server, completePayload(), gatewayAddress+":44321", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Body.String())
	assert.Equal(t, entity.PaymentStatusPaid, f.order(t).PaymentStatus)
}

func TestPaymentResultRejectedStillAnswersOk(t *testing.T) {
	f := newPaymentsFixture(t)
	server := newTestServer(t, f)
	payload := completePayload()
	payload.Set("payment_status", "PENDING")

	rec := postNotification(server, payload, gatewayAddress+":44321", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Body.String())
	assert.Equal(t, entity.PaymentStatusPending, f.order(t).PaymentStatus)
}

func TestPaymentResultIgnoresForwardedHeaderByDefault(t *testing.T) {
	f := newPaymentsFixture(t)
	server := newTestServer(t, f)
	header := http.Header{"X-Forwarded-For": {gatewayAddress}}

	rec := postNotification(server, completePayload(), "203.0.113.7:5000", header)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, entity.PaymentStatusPending, f.order(t).PaymentStatus)
	assert.Equal(t, 0, f.validator.calls)
}

func TestPaymentResultTrustsForwardedHeader(t *testing.T) {
	f := newPaymentsFixture(t)
	f.payments.conf.Listen.TrustForwarded = true
	server := newTestServer(t, f)
	header := http.Header{"X-Forwarded-For": {gatewayAddress}}

	rec := postNotification(server, completePayload(), "10.0.0.1:5000", header)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, entity.PaymentStatusPaid, f.order(t).PaymentStatus)
}

func TestPaymentResultRejectsForgedForwardedEntry(t *testing.T) {
	f := newPaymentsFixture(t)
	f.payments.conf.Listen.TrustForwarded = true
	server := newTestServer(t, f)
	// the caller prepends a gateway address, the proxy appends the real one
	header := http.Header{"X-Forwarded-For": {gatewayAddress + ", 203.0.113.7"}}

	rec := postNotification(server, completePayload(), "10.0.0.1:5000", header)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, entity.PaymentStatusPending, f.order(t).PaymentStatus)
	assert.Empty(t, f.order(t).AuthorizationTransactionId)
	assert.Equal(t, 0, f.validator.calls)
}

func TestForgedForwardedEntryNotAllowed(t *testing.T) {
	f := newPaymentsFixture(t)
	req := httptest.NewRequest(http.MethodPost, "/Plugins/PaymentPayFast/PaymentResult", nil)
	req.RemoteAddr = "10.0.0.1:5000"
	req.Header.Set("X-Forwarded-For", gatewayAddress+", 203.0.113.7")

	err := f.payments.Notify(context.Background(), completePayload(), ClientIP(req, true, nil))

	assert.ErrorIs(t, err, ErrAddressNotAllowed)
	assert.Equal(t, 0, f.validator.calls)
}

func TestPaymentResultTrustedProxies(t *testing.T) {
	f := newPaymentsFixture(t)
	f.payments.conf.Listen.TrustForwarded = true
	f.payments.conf.Listen.TrustedProxies = []string{"10.0.0.0/8"}
	server := newTestServer(t, f)
	// two proxies in front of the service, both trusted
	header := http.Header{"X-Forwarded-For": {"198.51.100.1, " + gatewayAddress + ", 10.0.0.2"}}

	rec := postNotification(server, completePayload(), "10.0.0.1:5000", header)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, entity.PaymentStatusPaid, f.order(t).PaymentStatus)
}

func TestPaymentResultIgnoresForwardedHeaderFromUntrustedPeer(t *testing.T) {
	f := newPaymentsFixture(t)
	f.payments.conf.Listen.TrustForwarded = true
	f.payments.conf.Listen.TrustedProxies = []string{"10.0.0.0/8"}
	server := newTestServer(t, f)
	header := http.Header{"X-Forwarded-For": {gatewayAddress}}

	rec := postNotification(server, completePayload(), "203.0.113.7:5000", header)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, entity.PaymentStatusPending, f.order(t).PaymentStatus)
}

func TestPayOrder(t *testing.T) {
	f := newPaymentsFixture(t)
	server := newTestServer(t, f)

	req := httptest.NewRequest(http.MethodGet, "/checkout/pay/5", nil)
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	body := rec.Body.String()
	assert.Contains(t, body, `action="https://sandbox.payfast.co.za/eng/process?"`)
	assert.Contains(t, body, `name="m_payment_id" value="`+testOrderGuid+`"`)
	assert.Contains(t, body, `name="amount" value="10.50"`)
	assert.Contains(t, body, "document.forms[0].submit()")
}

func TestPayOrderErrors(t *testing.T) {
	tests := []struct {
		name  string
		path  string
		setup func(f *paymentsFixture)
		want  int
	}{
		{name: "invalid id", path: "/checkout/pay/abc", want: http.StatusBadRequest},
		{name: "unknown order", path: "/checkout/pay/404", want: http.StatusNotFound},
		{
			name: "order not pending",
			path: "/checkout/pay/5",
			setup: func(f *paymentsFixture) {
				order := pendingOrder()
				order.OrderStatus = entity.OrderStatusComplete
				f.database.AddOrder(order)
			},
			want: http.StatusConflict,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newPaymentsFixture(t)
			if tt.setup != nil {
				tt.setup(f)
			}
			server := newTestServer(t, f)

			rec := httptest.NewRecorder()
			server.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))

			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestPaymentInfo(t *testing.T) {
	f := newPaymentsFixture(t)
	f.payments.conf.Merchant.AdditionalFee = 10
	f.payments.conf.Merchant.AdditionalFeePercentage = true
	server := newTestServer(t, f)

	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/Plugins/PaymentPayFast/PaymentInfo?subtotal=25", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var response paymentInfoResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&response))
	assert.Equal(t, 2.5, response.AdditionalFee)
	assert.Equal(t, "You will be redirected to PayFast site to complete the order.", response.Description)
}

func TestPaymentInfoInvalidSubtotal(t *testing.T) {
	f := newPaymentsFixture(t)
	server := newTestServer(t, f)

	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/Plugins/PaymentPayFast/PaymentInfo?subtotal=ten", nil))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestClientIP(t *testing.T) {
	trusted := []netip.Prefix{netip.MustParsePrefix("10.0.0.0/8")}
	tests := []struct {
		name       string
		remoteAddr string
		forwarded  []string
		trust      bool
		proxies    []netip.Prefix
		want       string
	}{
		{"connection address", "192.0.2.1:1234", []string{"197.97.145.144"}, false, nil, "192.0.2.1"},
		{"ipv6 connection address", "[::1]:80", nil, false, nil, "::1"},
		{"no header", "192.0.2.1:1234", nil, true, nil, "192.0.2.1"},
		{"single entry", "10.0.0.1:1234", []string{" 197.97.145.144 "}, true, nil, "197.97.145.144"},
		{"rightmost entry wins", "10.0.0.1:1234", []string{"197.97.145.144, 203.0.113.7"}, true, nil, "203.0.113.7"},
		{"repeated headers", "10.0.0.1:1234", []string{"197.97.145.144", "203.0.113.7"}, true, nil, "203.0.113.7"},
		{"trusted hops skipped", "10.0.0.1:1234", []string{"203.0.113.7, 197.97.145.144, 10.1.2.3"}, true, trusted, "197.97.145.144"},
		{"untrusted peer", "192.0.2.1:1234", []string{"197.97.145.144"}, true, trusted, "192.0.2.1"},
		{"all hops trusted", "10.0.0.1:1234", []string{"10.0.0.3, 10.0.0.2"}, true, trusted, "10.0.0.3"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/", nil)
			req.RemoteAddr = tt.remoteAddr
			for _, value := range tt.forwarded {
				req.Header.Add("X-Forwarded-For", value)
			}
			assert.Equal(t, tt.want, ClientIP(req, tt.trust, tt.proxies))
		})
	}
}
