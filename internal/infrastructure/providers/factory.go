package providers

import (
	"github.com/zichdan/paycore/internal/config"
	"github.com/zichdan/paycore/internal/domain/entities"
)

// Factory selects concrete adapters from configuration. The internal
// simulator is always present and is the fallback for any provider
// without configured keys.
type Factory struct {
	cfg      config.ProvidersConfig
	internal *InternalProvider
}

// NewFactory creates a provider factory
func NewFactory(cfg config.ProvidersConfig) *Factory {
	return &Factory{
		cfg:      cfg,
		internal: NewInternalProvider(),
	}
}

// CardProvider returns the adapter for the named issuer
func (f *Factory) CardProvider(name entities.CardProviderName) CardProvider {
	if f.cfg.UseInternal {
		return f.internal
	}
	switch name {
	case entities.CardProviderFlutterwave:
		if key := f.cfg.Flutterwave.Secret(); key != "" {
			return f.flutterwave(key)
		}
	case entities.CardProviderSudo:
		if key := f.cfg.Sudo.Secret(); key != "" {
			p := NewSudoProvider(key, f.cfg.Timeout)
			if f.cfg.Sudo.BaseURL != "" {
				p.baseURL = f.cfg.Sudo.BaseURL
			}
			return p
		}
	}
	return f.internal
}

func (f *Factory) flutterwave(key string) *FlutterwaveProvider {
	p := NewFlutterwaveProvider(key, f.cfg.Timeout)
	if f.cfg.Flutterwave.BaseURL != "" {
		p.baseURL = f.cfg.Flutterwave.BaseURL
	}
	return p
}

// DefaultCardProvider returns the issuer used for new cards
func (f *Factory) DefaultCardProvider() CardProvider {
	if f.cfg.UseInternal {
		return f.internal
	}
	return f.CardProvider(entities.CardProviderFlutterwave)
}

// BillProvider returns the bill payment adapter
func (f *Factory) BillProvider() BillPaymentProvider {
	if f.cfg.UseInternal {
		return f.internal
	}
	if key := f.cfg.Flutterwave.Secret(); key != "" {
		return f.flutterwave(key)
	}
	return f.internal
}

// WithdrawalProvider returns the bank payout adapter
func (f *Factory) WithdrawalProvider() WithdrawalProvider {
	if f.cfg.UseInternal {
		return f.internal
	}
	if key := f.cfg.Paystack.Secret(); key != "" {
		p := NewPaystackProvider(key, f.cfg.Timeout)
		if f.cfg.Paystack.BaseURL != "" {
			p.baseURL = f.cfg.Paystack.BaseURL
		}
		return p
	}
	return f.internal
}
