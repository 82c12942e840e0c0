package internal

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"payfast/entity"
	"payfast/services"
)

// OrderProcessing applies payment outcomes to orders.
type OrderProcessing struct {
	orders    services.OrderStore
	publisher services.EventPublisher
	logger    services.LogHandler
	now       func() time.Time
}

func NewOrderProcessing(orders services.OrderStore) *OrderProcessing {
	return &OrderProcessing{
		orders: orders,
		now:    time.Now,
	}
}

func (p *OrderProcessing) SetLogger(logger services.LogHandler) {
	p.logger = logger
}

// SetPublisher enables order paid events; nil disables them.
func (p *OrderProcessing) SetPublisher(publisher services.EventPublisher) {
	p.publisher = publisher
}

func (p *OrderProcessing) CanMarkOrderAsPaid(order *entity.Order) bool {
	if order == nil {
		return false
	}
	return order.CanMarkAsPaid()
}

// MarkOrderAsPaid records the payment and persists the order, transaction
// id included, in a single update.
func (p *OrderProcessing) MarkOrderAsPaid(ctx context.Context, order *entity.Order) error {
	if err := order.MarkAsPaid(p.now().UTC()); err != nil {
		return err
	}
	if err := p.orders.UpdateOrder(ctx, order); err != nil {
		return fmt.Errorf("update order %d: %w", order.Id, err)
	}
	if p.logger != nil {
		p.logger.Info(fmt.Sprintf("order #%d marked as paid; transaction %s", order.Id, order.AuthorizationTransactionId))
	}
	return nil
}

// PublishOrderPaid announces a paid order. A failed announcement is logged;
// the order stays paid.
func (p *OrderProcessing) PublishOrderPaid(ctx context.Context, order *entity.Order) {
	if p.publisher == nil || order == nil || order.PaidDate == nil {
		return
	}
	event := entity.OrderPaidEvent{
		OrderId:       order.Id,
		OrderGuid:     order.OrderGuid,
		TransactionId: order.AuthorizationTransactionId,
		Amount:        order.OrderTotal,
		PaidAt:        *order.PaidDate,
	}
	value, err := json.Marshal(event)
	if err != nil {
		p.logError(fmt.Sprintf("encode order #%d paid event", order.Id), err)
		return
	}
	if err = p.publisher.Publish(ctx, order.OrderGuid, value); err != nil {
		p.logError(fmt.Sprintf("publish order #%d paid", order.Id), err)
	}
}

func (p *OrderProcessing) logError(text string, err error) {
	if p.logger != nil {
		p.logger.Error(text, err)
	}
}
