// Package geo resolves photo coordinates to deduplicated places.
package geo

import (
	"context"
	"fmt"
	"sync"

	"k8s.io/klog/v2"

	"github.com/mauriciobarrev/otravezlunes/pkg/model"
)

// DefaultTolerance is how far apart, in degrees on each axis, two points may
// be and still share a place. 0.001 degrees is roughly 100m.
const DefaultTolerance = 0.001

// Address is a reverse geocoding answer.
type Address struct {
	DisplayName string
	// Components are the structured address parts keyed by kind
	// ("road", "city", "tourism", ...).
	Components map[string]string
}

// Geocoder turns a point into an address.
type Geocoder interface {
	Reverse(ctx context.Context, lat float64, lon float64) (*Address, error)
}

// PlaceStore is the slice of the store the resolver needs.
type PlaceStore interface {
	// NearestPlace returns the lowest-id place within tol degrees on both
	// axes, or nil.
	NearestPlace(ctx context.Context, p model.Point, tol float64) (*model.Place, error)
	CreatePlace(ctx context.Context, pl *model.Place) error
}

// Resolution is the outcome of Resolve.
type Resolution struct {
	Place *model.Place
	// Created is set when no existing place matched.
	Created bool
	// Geocoded is set when a geocoder answer named the new place.
	Geocoded bool
	// Address is the full geocoded address, if any.
	Address string
}

// Resolver finds or creates the place for a point.
type Resolver struct {
	mu        sync.Mutex
	places    PlaceStore
	geocoder  Geocoder
	tolerance float64
}

// NewResolver returns a resolver. g may be nil, in which case new places get
// a coordinate-based name. A tolerance <= 0 means DefaultTolerance.
func NewResolver(s PlaceStore, g Geocoder, tolerance float64) *Resolver {
	if tolerance <= 0 {
		tolerance = DefaultTolerance
	}
	return &Resolver{places: s, geocoder: g, tolerance: tolerance}
}

// Resolve returns the existing place near p, or geocodes and creates one.
// Lookups and creations are serialized so concurrent imports of the same
// spot share a place.
func (r *Resolver) Resolve(ctx context.Context, p model.Point) (*Resolution, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	pl, err := r.places.NearestPlace(ctx, p, r.tolerance)
	if err != nil {
		return nil, fmt.Errorf("nearest place: %w", err)
	}
	if pl != nil {
		klog.V(1).Infof("%s matches place %d (%s)", p, pl.ID, pl.Name)
		return &Resolution{Place: pl, Address: pl.Address}, nil
	}

	var addr *Address
	if r.geocoder != nil {
		addr, err = r.geocoder.Reverse(ctx, p.Latitude, p.Longitude)
		if err != nil {
			klog.Warningf("reverse geocode %s: %v", p, err)
			addr = nil
		}
	}

	pl = PlaceFromAddress(p, addr)
	if err := r.places.CreatePlace(ctx, pl); err != nil {
		return nil, fmt.Errorf("create place: %w", err)
	}
	klog.Infof("created place %d %q at %s", pl.ID, pl.Name, p)

	return &Resolution{
		Place:    pl,
		Created:  true,
		Geocoded: usable(addr),
		Address:  pl.Address,
	}, nil
}
