package services

import (
	"context"
	"errors"

	"payfast/entity"
)

var (
	ErrNotFound = errors.New("not found")
)

type Database interface {
	OrderStore
	SettingsStore
	LocaleStore
	WriteLogMessage(data Data) error
}

type OrderStore interface {
	GetOrder(ctx context.Context, id int) (*entity.Order, error)
	GetOrderByGuid(ctx context.Context, guid string) (*entity.Order, error)
	UpdateOrder(ctx context.Context, order *entity.Order) error
}

type SettingsStore interface {
	GetSettings(ctx context.Context) (*entity.Settings, error)
	SaveSettings(ctx context.Context, settings *entity.Settings) error
	DeleteSettings(ctx context.Context) error
}

type LocaleStore interface {
	GetLocaleResource(ctx context.Context, name string) (*entity.LocaleResource, error)
	SaveLocaleResource(ctx context.Context, resource *entity.LocaleResource) error
	DeleteLocaleResource(ctx context.Context, name string) error
}

type Data interface {
	DataType() string
}
