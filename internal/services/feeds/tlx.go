package feeds

import (
	"catalytics/pkg/breaker"
	xhttp "catalytics/pkg/http"
)

const DefaultTLXURL = "https://np40nkw6be.execute-api.us-east-1.amazonaws.com/Prod/hello/"

// NewTLX serves TLX leveraged tokens (BTC2L, ETH3L, ...) as daily price series.
func NewTLX(baseURL string, ids []string, client *xhttp.Client, b *breaker.Breaker) *HTTPFeed {
	if baseURL == "" {
		baseURL = DefaultTLXURL
	}
	return newHTTPFeed("tlx", baseURL, map[string]string{
		"granularity":       "DAYS",
		"granularityUnit":   "1",
		"initialInvestment": "1000",
		"riskFreeRate":      "0",
	}, ids, client, b)
}
