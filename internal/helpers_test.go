package internal

import (
	"context"
	"net/netip"
	"net/url"
	"sync"
	"testing"
	"time"

	"payfast/config"
	"payfast/entity"
	"payfast/services"

	"go.uber.org/zap/zaptest"
)

const (
	testMerchantId  = "10000100"
	testMerchantKey = "46f0cd694581a"
	testOrderGuid   = "3f2504e0-4f89-41d3-9a0c-0305e82c3301"
	testOrderId     = 5
	gatewayAddress  = "197.97.145.144"
)

func testConfig() *config.Config {
	conf := &config.Config{}
	conf.Store.Url = "https://shop.example.com/"
	conf.Merchant.Id = testMerchantId
	conf.Merchant.Key = testMerchantKey
	conf.Gateway.ProductionUrl = "https://www.payfast.co.za"
	conf.Gateway.SandboxUrl = "https://sandbox.payfast.co.za"
	conf.Gateway.ValidateTimeout = time.Second
	conf.Gateway.AllowedHosts = []string{
		"www.payfast.co.za",
		"sandbox.payfast.co.za",
		"w1w.payfast.co.za",
		"w2w.payfast.co.za",
	}
	conf.Resolver.CacheTTL = time.Minute
	return conf
}

func testLogger(t *testing.T) *Logger {
	return NewZapLogger(zaptest.NewLogger(t), "test", true, nil)
}

func pendingOrder() *entity.Order {
	return &entity.Order{
		Id:            testOrderId,
		OrderGuid:     testOrderGuid,
		OrderTotal:    10.5,
		OrderSubtotal: 10.5,
		BillingAddress: &entity.Address{
			FirstName: "Jane",
			LastName:  "Doe",
			Email:     "jane@example.com",
		},
		OrderStatus:   entity.OrderStatusPending,
		PaymentStatus: entity.PaymentStatusPending,
	}
}

type validatorStub struct {
	mutex   sync.Mutex
	valid   bool
	err     error
	calls   int
	data    url.Values
	sandbox bool
}

func (v *validatorStub) Validate(_ context.Context, sandbox bool, data url.Values) (bool, error) {
	v.mutex.Lock()
	defer v.mutex.Unlock()
	v.calls++
	v.data = data
	v.sandbox = sandbox
	return v.valid, v.err
}

type resolverStub struct {
	mutex sync.Mutex
	set   services.AddressSet
	err   error
	calls int
	hosts []string
}

func (r *resolverStub) AllowedAddresses(_ context.Context, hosts []string) (services.AddressSet, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.calls++
	r.hosts = hosts
	return r.set, r.err
}

type publisherStub struct {
	mutex  sync.Mutex
	keys   []string
	values [][]byte
	err    error
}

func (p *publisherStub) Publish(_ context.Context, key string, value []byte) error {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	p.keys = append(p.keys, key)
	p.values = append(p.values, value)
	return p.err
}

func (p *publisherStub) Close() error {
	return nil
}

type paymentsFixture struct {
	payments  *Payments
	database  *MemoryDatabase
	validator *validatorStub
	resolver  *resolverStub
	publisher *publisherStub
}

func newPaymentsFixture(t *testing.T) *paymentsFixture {
	t.Helper()
	conf := testConfig()
	logger := testLogger(t)

	database := NewMemoryDatabase()
	database.AddOrder(pendingOrder())

	validator := &validatorStub{valid: true}
	resolver := &resolverStub{set: services.NewAddressSet(
		netip.MustParseAddr(gatewayAddress),
		netip.MustParseAddr("197.97.145.148"),
	)}
	publisher := &publisherStub{}

	processing := NewOrderProcessing(database)
	processing.SetLogger(logger)
	processing.SetPublisher(publisher)

	payments := NewPayments(conf)
	payments.SetLogger(logger)
	payments.SetDatabase(database)
	payments.SetValidator(validator)
	payments.SetResolver(resolver)
	payments.SetOrderProcessor(processing)

	return &paymentsFixture{
		payments:  payments,
		database:  database,
		validator: validator,
		resolver:  resolver,
		publisher: publisher,
	}
}

func (f *paymentsFixture) order(t *testing.T) *entity.Order {
	t.Helper()
	order, err := f.database.GetOrder(context.Background(), testOrderId)
	if err != nil {
		t.Fatalf("get order: %v", err)
	}
	return order
}

func completePayload() url.Values {
	return url.Values{
		"m_payment_id":   {testOrderGuid},
		"merchant_id":    {testMerchantId},
		"payment_status": {"COMPLETE"},
		"pf_payment_id":  {"PF123"},
		"signature":      {"x"},
	}
}
