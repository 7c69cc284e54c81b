package payment

import (
	"fmt"
	"sort"

	"github.com/rentnest/backend/internal/domain/payment"
	"github.com/rentnest/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

// Registry holds the configured gateways by provider
type Registry struct {
	gateways map[payment.Provider]payment.Gateway
}

// NewRegistry creates a registry over the given gateways
func NewRegistry(gateways ...payment.Gateway) *Registry {
	r := &Registry{gateways: make(map[payment.Provider]payment.Gateway, len(gateways))}
	for _, g := range gateways {
		r.gateways[g.Provider()] = g
	}
	return r
}

// NewRegistryFromConfig builds every enabled gateway
func NewRegistryFromConfig(cfg config.PaymentConfig, logger *zap.Logger) (*Registry, error) {
	var gateways []payment.Gateway

	if cfg.Stripe.Enabled {
		g, err := NewStripeGateway(cfg.Stripe, logger.Named("stripe"))
		if err != nil {
			return nil, err
		}
		gateways = append(gateways, g)
	}
	if cfg.PayPal.Enabled {
		g, err := NewPayPalGateway(cfg.PayPal, logger.Named("paypal"))
		if err != nil {
			return nil, err
		}
		gateways = append(gateways, g)
	}

	r := NewRegistry(gateways...)
	if len(gateways) == 0 {
		logger.Warn("No payment gateway enabled, payment creation will fail")
	} else {
		logger.Info("Payment gateways configured", zap.Any("providers", r.Providers()))
	}
	return r, nil
}

// Get returns the gateway for the provider
func (r *Registry) Get(provider payment.Provider) (payment.Gateway, error) {
	g, ok := r.gateways[provider]
	if !ok {
		return nil, fmt.Errorf("%w: %s", payment.ErrGatewayNotConfigured, provider)
	}
	return g, nil
}

// Providers lists the configured providers in name order
func (r *Registry) Providers() []payment.Provider {
	out := make([]payment.Provider, 0, len(r.gateways))
	for p := range r.gateways {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Ensure Registry implements payment.GatewayRegistry
var _ payment.GatewayRegistry = (*Registry)(nil)
