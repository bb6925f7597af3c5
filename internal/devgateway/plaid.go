package devgateway

import (
	"context"
	"fmt"

	"github.com/plaid/plaid-go/v20/plaid"
)

// PlaidBridge issues real sandbox link tokens through the aggregator's API
// when credentials are configured, so the dev gateway can drive the actual
// widget end to end instead of handing out canned tokens.
type PlaidBridge struct {
	client     *plaid.APIClient
	clientName string
}

var plaidEnvironments = map[string]plaid.Environment{
	"sandbox":    plaid.Sandbox,
	"production": plaid.Production,
}

// NewPlaidBridge builds a bridge for the given environment and credentials.
// It returns nil when either credential is empty; callers treat a nil bridge
// as "canned tokens only".
func NewPlaidBridge(env, clientID, secret string) (*PlaidBridge, error) {
	if clientID == "" || secret == "" {
		return nil, nil
	}
	host, ok := plaidEnvironments[env]
	if !ok {
		return nil, fmt.Errorf("unsupported plaid environment %q", env)
	}

	configuration := plaid.NewConfiguration()
	configuration.AddDefaultHeader("PLAID-CLIENT-ID", clientID)
	configuration.AddDefaultHeader("PLAID-SECRET", secret)
	configuration.UseEnvironment(host)

	return &PlaidBridge{
		client:     plaid.NewAPIClient(configuration),
		clientName: "Zarcaro APC",
	}, nil
}

func (b *PlaidBridge) createLinkToken(ctx context.Context, uid string) (string, error) {
	user := plaid.LinkTokenCreateRequestUser{
		ClientUserId: uid,
	}
	request := plaid.NewLinkTokenCreateRequest(
		b.clientName,
		"en",
		[]plaid.CountryCode{plaid.COUNTRYCODE_US},
		user,
	)
	request.SetProducts([]plaid.Products{plaid.PRODUCTS_AUTH})

	resp, _, err := b.client.PlaidApi.LinkTokenCreate(ctx).LinkTokenCreateRequest(*request).Execute()
	if err != nil {
		return "", fmt.Errorf("link token create: %w", err)
	}
	return resp.GetLinkToken(), nil
}

func (b *PlaidBridge) exchangePublicToken(ctx context.Context, publicToken string) (string, error) {
	request := plaid.NewItemPublicTokenExchangeRequest(publicToken)
	resp, _, err := b.client.PlaidApi.ItemPublicTokenExchange(ctx).ItemPublicTokenExchangeRequest(*request).Execute()
	if err != nil {
		return "", fmt.Errorf("public token exchange: %w", err)
	}
	return resp.GetAccessToken(), nil
}
