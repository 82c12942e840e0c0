package internal

import (
	"context"
	"errors"
	"fmt"
	"net/netip"
	"strings"

	"payfast/entity"
	"payfast/services"

	"github.com/google/uuid"
)

// Stage names a step of notification validation.
type Stage string

const (
	StageParse         Stage = "parse"
	StageOrderLookup   Stage = "order lookup"
	StageMerchantCheck Stage = "merchant check"
	StageSourceCheck   Stage = "source check"
	StageEchoVerify    Stage = "echo verify"
	StageStatusCheck   Stage = "status check"
)

var (
	ErrInvalidPaymentId   = errors.New("invalid payment id")
	ErrOrderNotFound      = errors.New("order not found")
	ErrMerchantMismatch   = errors.New("merchant id mismatch")
	ErrInvalidAddress     = errors.New("invalid ip address")
	ErrAddressNotAllowed  = errors.New("ip address is not valid")
	ErrDataNotValid       = errors.New("passed data is not valid")
	ErrPaymentNotComplete = errors.New("payment is not complete")
)

// RejectError tells at which stage a notification was rejected.
type RejectError struct {
	Stage Stage
	Err   error
}

func (e *RejectError) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *RejectError) Unwrap() error {
	return e.Err
}

func reject(stage Stage, err error) error {
	return &RejectError{Stage: stage, Err: err}
}

// ValidateNotification runs the checks a notification must pass before
// its order may be marked paid. They run in order and stop at the first
// failure. Echo verification costs a round trip to the gateway so it runs
// after the local checks.
func (p *Payments) ValidateNotification(ctx context.Context, notification *entity.Notification, remoteAddr string, settings entity.Settings) (*entity.Order, error) {
	guid, err := uuid.Parse(notification.PaymentId())
	if err != nil {
		return nil, reject(StageParse, fmt.Errorf("%w: %q", ErrInvalidPaymentId, notification.PaymentId()))
	}

	order, err := p.database.GetOrderByGuid(ctx, guid.String())
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			return nil, reject(StageOrderLookup, fmt.Errorf("%w: order with guid %s is not found", ErrOrderNotFound, guid))
		}
		return nil, reject(StageOrderLookup, fmt.Errorf("get order %s: %w", guid, err))
	}

	// exact byte comparison, no case folding
	if settings.MerchantId == "" || notification.MerchantId() != settings.MerchantId {
		return order, reject(StageMerchantCheck, fmt.Errorf("%w: order #%d; received %q, expected %q", ErrMerchantMismatch, order.Id, notification.MerchantId(), settings.MerchantId))
	}

	addr, err := netip.ParseAddr(strings.TrimSpace(remoteAddr))
	if err != nil {
		return order, reject(StageSourceCheck, fmt.Errorf("%w: order #%d; %q", ErrInvalidAddress, order.Id, remoteAddr))
	}
	allowed, err := p.resolver.AllowedAddresses(ctx, p.conf.Gateway.AllowedHosts)
	if err != nil {
		return order, reject(StageSourceCheck, fmt.Errorf("%w: order #%d; %v", ErrAddressNotAllowed, order.Id, err))
	}
	if !allowed.Contains(addr) {
		return order, reject(StageSourceCheck, fmt.Errorf("%w: order #%d; ip address %s", ErrAddressNotAllowed, order.Id, addr))
	}

	valid, err := p.validator.Validate(ctx, settings.UseSandbox, notification.WithoutSignature())
	if err != nil {
		return order, reject(StageEchoVerify, fmt.Errorf("%w: order #%d; %v", ErrDataNotValid, order.Id, err))
	}
	if !valid {
		return order, reject(StageEchoVerify, fmt.Errorf("%w: order #%d", ErrDataNotValid, order.Id))
	}

	if notification.PaymentStatus() != entity.PaymentStatusComplete {
		return order, reject(StageStatusCheck, fmt.Errorf("%w: order #%d is %s", ErrPaymentNotComplete, order.Id, notification.PaymentStatus()))
	}

	return order, nil
}
