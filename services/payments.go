package services

import (
	"context"
	"net/netip"
	"net/url"

	"payfast/entity"
)

type Payments interface {
	PostProcessPayment(ctx context.Context, orderId int) (*entity.RedirectForm, error)
	AdditionalHandlingFee(ctx context.Context, subtotal float64) (float64, error)
	Notify(ctx context.Context, data url.Values, remoteAddr string) error
}

type Plugin interface {
	PaymentMethodDescription(ctx context.Context) (string, error)
}

// Validator posts notification data back to the gateway and reports
// whether the gateway confirmed it.
type Validator interface {
	Validate(ctx context.Context, sandbox bool, data url.Values) (bool, error)
}

// Resolver returns the addresses the given hosts currently resolve to.
type Resolver interface {
	AllowedAddresses(ctx context.Context, hosts []string) (AddressSet, error)
}

type OrderProcessor interface {
	CanMarkOrderAsPaid(order *entity.Order) bool
	MarkOrderAsPaid(ctx context.Context, order *entity.Order) error
	PublishOrderPaid(ctx context.Context, order *entity.Order)
}

type EventPublisher interface {
	Publish(ctx context.Context, key string, value []byte) error
	Close() error
}

type AddressSet map[netip.Addr]struct{}

func NewAddressSet(addrs ...netip.Addr) AddressSet {
	set := make(AddressSet, len(addrs))
	for _, addr := range addrs {
		set.Add(addr)
	}
	return set
}

func (s AddressSet) Add(addr netip.Addr) {
	s[addr.Unmap()] = struct{}{}
}

func (s AddressSet) Contains(addr netip.Addr) bool {
	_, ok := s[addr.Unmap()]
	return ok
}
