package feeds

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"catalytics/internal/domain/models"
	"catalytics/pkg/breaker"
	xhttp "catalytics/pkg/http"
	"catalytics/pkg/util"
)

// HTTPFeed is the shared client for the leveraged-token performance feeds.
// Both upstreams answer {"data":[{"timestamp":..., "price":...}]}.
type HTTPFeed struct {
	name    string
	baseURL string
	params  map[string]string
	ids     map[string]struct{}
	client  *xhttp.Client
	breaker *breaker.Breaker
}

func newHTTPFeed(name, baseURL string, params map[string]string, ids []string, client *xhttp.Client, b *breaker.Breaker) *HTTPFeed {
	return &HTTPFeed{
		name:    name,
		baseURL: baseURL,
		params:  params,
		ids:     util.Set(ids),
		client:  client,
		breaker: b,
	}
}

func (f *HTTPFeed) Name() string { return f.name }

func (f *HTTPFeed) Supports(id string) bool {
	_, ok := f.ids[id]
	return ok
}

func (f *HTTPFeed) Fetch(ctx context.Context, start, end time.Time, id string) (models.Series, error) {
	if !f.Supports(id) {
		return nil, fmt.Errorf("%w: %s does not serve %q", models.ErrUnknownBenchmark, f.name, id)
	}
	q := map[string][]string{
		"fromDate": {util.DayKey(start)},
		"toDate":   {util.DayKey(end)},
		"coin":     {id},
	}
	for k, v := range f.params {
		q[k] = []string{v}
	}

	resp, err := breaker.Do(f.breaker, func() (feedResponse, error) {
		var r feedResponse
		err := f.client.SendAndParse(ctx, &xhttp.RequestOptions{
			Method:      xhttp.MethodGet,
			URL:         f.baseURL,
			QueryParams: q,
			Headers:     map[string]string{"Accept": "application/json"},
		}, &r)
		return r, err
	})
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", f.name, id, err)
	}
	return resp.series()
}

type feedResponse struct {
	Data []feedPoint `json:"data"`
}

type feedPoint struct {
	Timestamp json.RawMessage `json:"timestamp"`
	Price     *float64        `json:"price"`
}

func (r feedResponse) series() (models.Series, error) {
	out := make(models.Series, 0, len(r.Data))
	for _, p := range r.Data {
		if p.Price == nil {
			continue
		}
		day, err := parseTimestamp(p.Timestamp)
		if err != nil {
			return nil, err
		}
		out = append(out, models.Point{Date: day, Value: *p.Price})
	}
	return out.Sorted(), nil
}

// parseTimestamp accepts a date string or epoch seconds/milliseconds.
func parseTimestamp(raw json.RawMessage) (time.Time, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return time.Time{}, fmt.Errorf("%w: empty timestamp", models.ErrMalformedDate)
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return time.Time{}, fmt.Errorf("%w: %v", models.ErrMalformedDate, err)
		}
		day, err := util.ParseDay(s)
		if err != nil {
			return time.Time{}, fmt.Errorf("%w: %v", models.ErrMalformedDate, err)
		}
		return day, nil
	}
	n, err := strconv.ParseFloat(string(raw), 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %s", models.ErrMalformedDate, raw)
	}
	sec := int64(n)
	if sec > 1e11 {
		sec /= 1000
	}
	return util.Day(time.Unix(sec, 0)), nil
}
