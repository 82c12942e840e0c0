package internal

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"payfast/entity"
	"payfast/services"
)

// MemoryDatabase keeps everything in process memory. It is used when
// MongoDB is disabled and by tests. Orders are copied on the way in and
// out so callers never share state with the store.
type MemoryDatabase struct {
	mutex    sync.RWMutex
	orders   map[int]entity.Order
	settings *entity.Settings
	locales  map[string]entity.LocaleResource
	logs     []services.Data
}

func NewMemoryDatabase() *MemoryDatabase {
	return &MemoryDatabase{
		orders:  make(map[int]entity.Order),
		locales: make(map[string]entity.LocaleResource),
	}
}

func (m *MemoryDatabase) AddOrder(order *entity.Order) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.orders[order.Id] = copyOrder(order)
}

func (m *MemoryDatabase) GetOrder(_ context.Context, id int) (*entity.Order, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	order, ok := m.orders[id]
	if !ok {
		return nil, fmt.Errorf("order %d: %w", id, services.ErrNotFound)
	}
	result := copyOrder(&order)
	return &result, nil
}

func (m *MemoryDatabase) GetOrderByGuid(_ context.Context, guid string) (*entity.Order, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	for _, order := range m.orders {
		if strings.EqualFold(order.OrderGuid, guid) {
			result := copyOrder(&order)
			return &result, nil
		}
	}
	return nil, fmt.Errorf("order %s: %w", guid, services.ErrNotFound)
}

func (m *MemoryDatabase) UpdateOrder(_ context.Context, order *entity.Order) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	if _, ok := m.orders[order.Id]; !ok {
		return fmt.Errorf("order %d: %w", order.Id, services.ErrNotFound)
	}
	m.orders[order.Id] = copyOrder(order)
	return nil
}

func (m *MemoryDatabase) GetSettings(_ context.Context) (*entity.Settings, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	if m.settings == nil {
		return nil, fmt.Errorf("settings: %w", services.ErrNotFound)
	}
	settings := *m.settings
	return &settings, nil
}

func (m *MemoryDatabase) SaveSettings(_ context.Context, settings *entity.Settings) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	saved := *settings
	m.settings = &saved
	return nil
}

func (m *MemoryDatabase) DeleteSettings(_ context.Context) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.settings = nil
	return nil
}

func (m *MemoryDatabase) GetLocaleResource(_ context.Context, name string) (*entity.LocaleResource, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	resource, ok := m.locales[name]
	if !ok {
		return nil, fmt.Errorf("locale resource %s: %w", name, services.ErrNotFound)
	}
	return &resource, nil
}

func (m *MemoryDatabase) SaveLocaleResource(_ context.Context, resource *entity.LocaleResource) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.locales[resource.Name] = *resource
	return nil
}

func (m *MemoryDatabase) DeleteLocaleResource(_ context.Context, name string) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	delete(m.locales, name)
	return nil
}

func (m *MemoryDatabase) WriteLogMessage(data services.Data) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.logs = append(m.logs, data)
	return nil
}

// LogMessages returns the log records written so far.
func (m *MemoryDatabase) LogMessages() []services.Data {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return append([]services.Data(nil), m.logs...)
}

func copyOrder(order *entity.Order) entity.Order {
	result := *order
	if order.BillingAddress != nil {
		address := *order.BillingAddress
		result.BillingAddress = &address
	}
	if order.PaidDate != nil {
		paid := *order.PaidDate
		result.PaidDate = &paid
	}
	return result
}
