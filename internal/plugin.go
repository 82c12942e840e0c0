package internal

import (
	"context"
	"fmt"

	"payfast/config"
	"payfast/entity"
	"payfast/services"
)

// Plugin installs and removes the data the payment method keeps in the
// store: its settings and its localized strings.
type Plugin struct {
	conf     *config.Config
	database services.Database
	logger   services.LogHandler
}

func NewPlugin(conf *config.Config, database services.Database) *Plugin {
	return &Plugin{
		conf:     conf,
		database: database,
	}
}

func (p *Plugin) SetLogger(logger services.LogHandler) {
	p.logger = logger
}

// Install saves the settings from the configuration file, which use the
// sandbox unless production is selected, and the locale resources.
func (p *Plugin) Install(ctx context.Context) error {
	settings := p.conf.Settings()
	if err := p.database.SaveSettings(ctx, &settings); err != nil {
		return fmt.Errorf("save settings: %w", err)
	}
	for _, resource := range entity.LocaleResources() {
		resource := resource
		if err := p.database.SaveLocaleResource(ctx, &resource); err != nil {
			return fmt.Errorf("save locale resource %s: %w", resource.Name, err)
		}
	}
	p.logger.Info(fmt.Sprintf("plugin installed; sandbox %v", settings.UseSandbox))
	return nil
}

func (p *Plugin) Uninstall(ctx context.Context) error {
	if err := p.database.DeleteSettings(ctx); err != nil {
		return fmt.Errorf("delete settings: %w", err)
	}
	for _, resource := range entity.LocaleResources() {
		if err := p.database.DeleteLocaleResource(ctx, resource.Name); err != nil {
			return fmt.Errorf("delete locale resource %s: %w", resource.Name, err)
		}
	}
	p.logger.Info("plugin uninstalled")
	return nil
}

// PaymentMethodDescription is shown to shoppers at checkout.
func (p *Plugin) PaymentMethodDescription(ctx context.Context) (string, error) {
	resource, err := p.database.GetLocaleResource(ctx, entity.ResourcePaymentMethodDescription)
	if err != nil {
		return "", fmt.Errorf("get payment method description: %w", err)
	}
	return resource.Value, nil
}
