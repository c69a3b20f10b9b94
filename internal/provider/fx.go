package provider

import (
	"net/http"

	"github.com/devcosts/devcosts/internal/config"
	"github.com/devcosts/devcosts/internal/provider/adapters"
	"github.com/devcosts/devcosts/internal/provider/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("provider",
	fx.Provide(
		adapters.NewHTTPClient,
		config.NewPricingHolder,
		adapters.NewPricer,
		newRegistry,
	),
)

func newRegistry(client *http.Client, pricer *adapters.Pricer, log *zap.Logger) *adapters.Registry {
	list := []domain.Adapter{
		adapters.NewOpenAI(client, pricer, log),
		adapters.NewAnthropic(client, pricer, log),
		adapters.NewVercel(client, log),
		adapters.NewStripe(client, log),
		adapters.NewSupabase(client, log),
	}
	list = append(list, adapters.Placeholders()...)
	return adapters.NewRegistry(list...)
}
