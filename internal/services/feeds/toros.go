package feeds

import (
	"catalytics/pkg/breaker"
	xhttp "catalytics/pkg/http"
)

const DefaultTorosURL = "https://np40nkw6be.execute-api.us-east-1.amazonaws.com/Prod/toros/"

// NewToros serves Toros leveraged vaults (BTC3XPOL, STETH2X, ...).
func NewToros(baseURL string, ids []string, client *xhttp.Client, b *breaker.Breaker) *HTTPFeed {
	if baseURL == "" {
		baseURL = DefaultTorosURL
	}
	return newHTTPFeed("toros", baseURL, map[string]string{
		"interval":          "1d",
		"initialInvestment": "1000",
		"riskFreeRate":      "0",
	}, ids, client, b)
}
