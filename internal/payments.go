package internal

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"

	"payfast/config"
	"payfast/entity"
	"payfast/services"
)

const (
	formName    = "PayFast"
	processPath = "/eng/process?"
	notifyPath  = "Plugins/PaymentPayFast/PaymentResult"
)

var ErrOrderNotPending = errors.New("order is not pending")

// Payments redirects shoppers to the PayFast hosted payment page and
// applies the outcome reported by instant transaction notifications.
type Payments struct {
	conf      *config.Config
	database  services.Database
	validator services.Validator
	resolver  services.Resolver
	processor services.OrderProcessor
	logger    services.LogHandler
	locks     sync.Map // map[int]*sync.Mutex for per-order locking
}

func NewPayments(conf *config.Config) *Payments {
	return &Payments{
		conf:  conf,
		locks: sync.Map{},
	}
}

func (p *Payments) SetDatabase(database services.Database) {
	p.database = database
}

func (p *Payments) SetValidator(validator services.Validator) {
	p.validator = validator
}

func (p *Payments) SetResolver(resolver services.Resolver) {
	p.resolver = resolver
}

func (p *Payments) SetOrderProcessor(processor services.OrderProcessor) {
	p.processor = processor
}

func (p *Payments) SetLogger(logger services.LogHandler) {
	p.logger = logger
	if p.conf.Merchant.Production {
		p.logger.Info("using production gateway")
	} else {
		p.logger.Warn("using sandbox gateway")
	}
}

// lockOrder serializes the mark-as-paid step of concurrent notifications
// for the same order within this process.
func (p *Payments) lockOrder(id int) *sync.Mutex {
	value, _ := p.locks.LoadOrStore(id, &sync.Mutex{})
	mutex := value.(*sync.Mutex)
	mutex.Lock()
	return mutex
}

// unlockOrder keeps the mutex in the map: deleting it here would let a
// waiting notification and a new one hold different mutexes for one order.
func (p *Payments) unlockOrder(mutex *sync.Mutex) {
	mutex.Unlock()
}

// loadSettings reads the stored settings; until the plugin is installed
// the configuration file is used.
func (p *Payments) loadSettings(ctx context.Context) (entity.Settings, error) {
	if p.database == nil {
		return p.conf.Settings(), nil
	}
	settings, err := p.database.GetSettings(ctx)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			return p.conf.Settings(), nil
		}
		return entity.Settings{}, fmt.Errorf("load settings: %w", err)
	}
	return *settings, nil
}

// PostProcessPayment builds the form that sends the shopper to the gateway
// for the given order. Only pending orders can be paid.
func (p *Payments) PostProcessPayment(ctx context.Context, orderId int) (*entity.RedirectForm, error) {
	if p.database == nil {
		return nil, fmt.Errorf("database not set")
	}
	order, err := p.database.GetOrder(ctx, orderId)
	if err != nil {
		return nil, fmt.Errorf("get order %d: %w", orderId, err)
	}
	if !order.CanRePostProcessPayment() {
		return nil, fmt.Errorf("order %d status %s: %w", orderId, order.OrderStatus, ErrOrderNotPending)
	}
	settings, err := p.loadSettings(ctx)
	if err != nil {
		return nil, err
	}
	form := p.BuildRedirectForm(order, settings)
	p.logger.Info(fmt.Sprintf("redirect order #%d to %s; amount %s", order.Id, form.Url, FormatAmount(order.OrderTotal)))
	return form, nil
}

// BuildRedirectForm lists the fields the hosted payment page requires.
// Identity fields are sent only when the order has a billing address.
func (p *Payments) BuildRedirectForm(order *entity.Order, settings entity.Settings) *entity.RedirectForm {
	if order == nil {
		panic("payfast: redirect requested for nil order")
	}
	store := storeLocation(p.conf.Store.Url)

	form := &entity.RedirectForm{
		Name:   formName,
		Method: "POST",
		Url:    strings.TrimRight(p.conf.GatewayUrl(settings.UseSandbox), "/") + processPath,
	}
	form.Add("merchant_id", settings.MerchantId)
	form.Add("merchant_key", settings.MerchantKey)
	form.Add("return_url", fmt.Sprintf("%scheckout/completed/%d", store, order.Id))
	form.Add("cancel_url", fmt.Sprintf("%sorderdetails/%d", store, order.Id))
	form.Add("notify_url", store+notifyPath)
	form.Add(entity.FieldPaymentId, order.OrderGuid)
	form.Add("amount", FormatAmount(order.OrderTotal))
	form.Add("item_name", fmt.Sprintf("Order #%d", order.Id))

	if address := order.BillingAddress; address != nil {
		form.Add("name_first", address.FirstName)
		form.Add("name_last", address.LastName)
		form.Add("email_address", address.Email)
	}

	if settings.Passphrase != "" {
		form.Add(entity.FieldSignature, NewSigner(settings.Passphrase).CreateSignature(form.Fields))
	}
	return form
}

// AdditionalHandlingFee returns the fee for paying an order with the given
// subtotal, using the stored settings.
func (p *Payments) AdditionalHandlingFee(ctx context.Context, subtotal float64) (float64, error) {
	settings, err := p.loadSettings(ctx)
	if err != nil {
		return 0, err
	}
	return AdditionalHandlingFee(subtotal, settings), nil
}

// Notify handles an instant transaction notification. A nil error means
// the notification was accepted; an accepted notification for an order
// that is already paid changes nothing. Any error means it was rejected
// and the order was not touched.
func (p *Payments) Notify(ctx context.Context, data url.Values, remoteAddr string) error {
	reqID := GetRequestID(ctx)
	if p.database == nil || p.validator == nil || p.resolver == nil || p.processor == nil {
		return fmt.Errorf("payments service not configured")
	}

	settings, err := p.loadSettings(ctx)
	if err != nil {
		p.logger.Error(fmt.Sprintf("[%s] PayFast ITN error: settings", reqID), err)
		return err
	}

	notification := entity.NewNotification(data)
	order, err := p.ValidateNotification(ctx, notification, remoteAddr, settings)
	if err != nil {
		p.logger.Error(fmt.Sprintf("[%s] PayFast ITN error", reqID), err)
		return err
	}

	paid, err := p.applyPayment(ctx, order.Id, notification.PfPaymentId())
	if err != nil {
		return err
	}
	if paid != nil {
		p.processor.PublishOrderPaid(ctx, paid)
	}
	return nil
}

// applyPayment marks the order paid under the per-order lock. It returns
// nil when the order was already processed.
func (p *Payments) applyPayment(ctx context.Context, orderId int, transactionId string) (*entity.Order, error) {
	reqID := GetRequestID(ctx)
	mutex := p.lockOrder(orderId)
	defer p.unlockOrder(mutex)

	// re-read under the lock, a concurrent notification may have paid it
	order, err := p.database.GetOrder(ctx, orderId)
	if err != nil {
		p.logger.Error(fmt.Sprintf("[%s] PayFast ITN: reload order", reqID), err)
		return nil, fmt.Errorf("reload order: %w", err)
	}
	if !p.processor.CanMarkOrderAsPaid(order) {
		p.logger.Info(fmt.Sprintf("[%s] PayFast ITN: order #%d already processed; payment status %s", reqID, order.Id, order.PaymentStatus))
		return nil, nil
	}

	order.AuthorizationTransactionId = transactionId
	if err = p.processor.MarkOrderAsPaid(ctx, order); err != nil {
		p.logger.Error(fmt.Sprintf("[%s] PayFast ITN: mark order #%d as paid", reqID, order.Id), err)
		return nil, fmt.Errorf("mark order as paid: %w", err)
	}
	return order, nil
}

func storeLocation(store string) string {
	if !strings.HasSuffix(store, "/") {
		return store + "/"
	}
	return store
}
