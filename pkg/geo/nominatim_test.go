package geo

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestNominatim_Reverse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/reverse" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if ua := r.Header.Get("User-Agent"); ua != "travelog-test/1.0" {
			t.Errorf("unexpected user agent: %q", ua)
		}
		q := r.URL.Query()
		if q.Get("format") != "jsonv2" || q.Get("accept-language") != "es" || q.Get("lat") != "40.4168" || q.Get("lon") != "-3.7038" {
			t.Errorf("unexpected query: %s", r.URL.RawQuery)
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"display_name": "Puerta del Sol, Madrid, España",
			"address": map[string]string{
				"tourism": "Puerta del Sol",
				"city":    "Madrid",
				"country": "España",
			},
		})
	}))
	defer server.Close()

	n, err := NewNominatim(NominatimOpts{BaseURL: server.URL + "/", UserAgent: "travelog-test/1.0", Interval: -1})
	if err != nil {
		t.Fatalf("new failed: %v", err)
	}

	a, err := n.Reverse(context.Background(), 40.4168, -3.7038)
	if err != nil {
		t.Fatalf("reverse failed: %v", err)
	}
	if a.DisplayName != "Puerta del Sol, Madrid, España" || a.Components["city"] != "Madrid" {
		t.Errorf("unexpected address %+v", a)
	}
}

func TestNominatim_Errors(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{"status", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusTooManyRequests) }},
		{"error field", func(w http.ResponseWriter, r *http.Request) { w.Write([]byte(`{"error":"Unable to geocode"}`)) }},
		{"garbage", func(w http.ResponseWriter, r *http.Request) { w.Write([]byte(`<html>`)) }},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			server := httptest.NewServer(tc.handler)
			defer server.Close()

			n, err := NewNominatim(NominatimOpts{BaseURL: server.URL, UserAgent: "test", Interval: -1})
			if err != nil {
				t.Fatalf("new failed: %v", err)
			}
			if _, err := n.Reverse(context.Background(), 1, 2); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestNominatim_Throttle(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"display_name":"x","address":{}}`))
	}))
	defer server.Close()

	n, err := NewNominatim(NominatimOpts{BaseURL: server.URL, UserAgent: "test", Interval: 50 * time.Millisecond})
	if err != nil {
		t.Fatalf("new failed: %v", err)
	}

	start := time.Now()
	for i := 0; i < 3; i++ {
		if _, err := n.Reverse(context.Background(), 1, 2); err != nil {
			t.Fatalf("reverse failed: %v", err)
		}
	}
	if elapsed := time.Since(start); elapsed < 90*time.Millisecond {
		t.Errorf("3 requests took %s, expected throttling", elapsed)
	}
}

func TestNominatim_Defaults(t *testing.T) {
	if _, err := NewNominatim(NominatimOpts{}); err == nil {
		t.Error("should require a user agent")
	}

	n, err := NewNominatim(NominatimOpts{UserAgent: "test"})
	if err != nil {
		t.Fatalf("new failed: %v", err)
	}
	if n.base != DefaultNominatimURL || n.lang != "es" || n.timeout != 15*time.Second {
		t.Errorf("unexpected defaults: %+v", n)
	}
}
