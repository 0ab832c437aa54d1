package geo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"
	"k8s.io/klog/v2"
)

// DefaultNominatimURL is the public OpenStreetMap Nominatim service.
const DefaultNominatimURL = "https://nominatim.openstreetmap.org"

// NominatimOpts configure a Nominatim client.
type NominatimOpts struct {
	BaseURL string
	// UserAgent is required by the Nominatim usage policy.
	UserAgent string
	// Language is sent as accept-language. Defaults to "es".
	Language string
	// Timeout bounds each request. Defaults to 15s.
	Timeout time.Duration
	// Interval is the minimum spacing between requests. Defaults to 1s;
	// negative disables throttling.
	Interval time.Duration

	HTTPClient *http.Client
}

// Nominatim is a reverse geocoder backed by a Nominatim server. A single
// client is safe for concurrent use and throttles all of its callers together.
type Nominatim struct {
	base    string
	ua      string
	lang    string
	timeout time.Duration
	client  *http.Client
	limiter *rate.Limiter
}

type nominatimReply struct {
	DisplayName string            `json:"display_name"`
	Address     map[string]string `json:"address"`
	Error       string            `json:"error"`
}

// NewNominatim returns a client.
func NewNominatim(o NominatimOpts) (*Nominatim, error) {
	if strings.TrimSpace(o.UserAgent) == "" {
		return nil, errors.New("nominatim: user agent is required")
	}
	if o.BaseURL == "" {
		o.BaseURL = DefaultNominatimURL
	}
	if o.Language == "" {
		o.Language = "es"
	}
	if o.Timeout <= 0 {
		o.Timeout = 15 * time.Second
	}
	if o.Interval == 0 {
		o.Interval = time.Second
	}
	if o.HTTPClient == nil {
		o.HTTPClient = &http.Client{}
	}

	lim := rate.NewLimiter(rate.Inf, 1)
	if o.Interval > 0 {
		lim = rate.NewLimiter(rate.Every(o.Interval), 1)
	}

	return &Nominatim{
		base:    strings.TrimSuffix(o.BaseURL, "/"),
		ua:      o.UserAgent,
		lang:    o.Language,
		timeout: o.Timeout,
		client:  o.HTTPClient,
		limiter: lim,
	}, nil
}

// Reverse implements Geocoder.
func (n *Nominatim) Reverse(ctx context.Context, lat float64, lon float64) (*Address, error) {
	if err := n.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("throttle: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, n.timeout)
	defer cancel()

	q := url.Values{}
	q.Set("format", "jsonv2")
	q.Set("addressdetails", "1")
	q.Set("lat", strconv.FormatFloat(lat, 'f', -1, 64))
	q.Set("lon", strconv.FormatFloat(lon, 'f', -1, 64))
	q.Set("accept-language", n.lang)
	u := n.base + "/reverse?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("request: %w", err)
	}
	req.Header.Set("User-Agent", n.ua)
	req.Header.Set("Accept", "application/json")

	klog.V(2).Infof("GET %s", u)
	resp, err := n.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("reverse: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("reverse: nominatim returned status %d", resp.StatusCode)
	}

	var r nominatimReply
	if err := json.NewDecoder(resp.Body).Decode(&r); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	if r.Error != "" {
		return nil, fmt.Errorf("reverse: %s", r.Error)
	}

	return &Address{DisplayName: r.DisplayName, Components: r.Address}, nil
}
