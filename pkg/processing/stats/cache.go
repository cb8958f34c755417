package stats

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/mpapenbr/simresults-indexer/pkg/processing/extract"
	"github.com/mpapenbr/simresults-indexer/pkg/utils"
	"github.com/mpapenbr/simresults-indexer/pkg/utils/cache"
	"github.com/mpapenbr/simresults-indexer/pkg/utils/cache/loadercache"
)

// FingerprintFunc derives the cache identity of an entry set
type FingerprintFunc func(entries []*Entry) string

// ContentFingerprint changes whenever a file is added, removed or modified
func ContentFingerprint(entries []*Entry) string {
	parts := make([]string, 0, len(entries))
	for _, e := range entries {
		parts = append(parts, utils.FileFingerprint(e.Path, e.Size, e.MTime))
	}
	slices.Sort(parts)
	return utils.HashStrings(parts...)
}

// CountFingerprint only considers the number of entries. Replacing files
// without changing their number keeps serving the cached results until
// Invalidate is called.
func CountFingerprint(entries []*Entry) string {
	return fmt.Sprint(len(entries))
}

type (
	CacheOption func(*Cache)
	// Cache memoizes the aggregates per pilot list, entry set and selector
	Cache struct {
		fingerprint   FingerprintFunc
		driver        cache.Cache[string, DriverStats]
		tracks        cache.Cache[string, []*TrackStats]
		vehicles      cache.Cache[string, []*ClassVehicles]
		vehicleTracks cache.Cache[string, []*TrackStats]
	}
)

func WithFingerprint(fn FingerprintFunc) CacheOption {
	return func(c *Cache) {
		c.fingerprint = fn
	}
}

func NewCache(opts ...CacheOption) *Cache {
	ret := &Cache{
		fingerprint:   ContentFingerprint,
		driver:        loadercache.New[string, DriverStats](),
		tracks:        loadercache.New[string, []*TrackStats](),
		vehicles:      loadercache.New[string, []*ClassVehicles](),
		vehicleTracks: loadercache.New[string, []*TrackStats](),
	}
	for _, opt := range opts {
		opt(ret)
	}
	return ret
}

func (c *Cache) key(entries []*Entry, pilots *extract.PilotMatcher, extra ...string) string {
	parts := append([]string{strings.ToLower(pilots.String()), c.fingerprint(entries)}, extra...)
	return strings.Join(parts, "|")
}

func (c *Cache) Driver(ctx context.Context, entries []*Entry, pilots *extract.PilotMatcher) (*DriverStats, error) {
	return c.driver.GetOrLoad(ctx, c.key(entries, pilots),
		func(context.Context) (*DriverStats, error) {
			return Driver(entries, pilots), nil
		})
}

func (c *Cache) Tracks(ctx context.Context, entries []*Entry, pilots *extract.PilotMatcher) ([]*TrackStats, error) {
	ret, err := c.tracks.GetOrLoad(ctx, c.key(entries, pilots),
		func(context.Context) (*[]*TrackStats, error) {
			v := Tracks(entries, pilots)
			return &v, nil
		})
	if err != nil {
		return nil, err
	}
	return *ret, nil
}

//nolint:whitespace // can't make both editor and linter happy
func (c *Cache) Vehicles(
	ctx context.Context, entries []*Entry, pilots *extract.PilotMatcher, class string,
) ([]*ClassVehicles, error) {
	ret, err := c.vehicles.GetOrLoad(ctx, c.key(entries, pilots, class),
		func(context.Context) (*[]*ClassVehicles, error) {
			v := Vehicles(entries, pilots, class)
			return &v, nil
		})
	if err != nil {
		return nil, err
	}
	return *ret, nil
}

//nolint:whitespace // can't make both editor and linter happy
func (c *Cache) VehicleTracks(
	ctx context.Context, entries []*Entry, pilots *extract.PilotMatcher, vehicle, class string,
) ([]*TrackStats, error) {
	ret, err := c.vehicleTracks.GetOrLoad(ctx, c.key(entries, pilots, vehicle, class),
		func(context.Context) (*[]*TrackStats, error) {
			v := VehicleTracks(entries, pilots, vehicle, class)
			return &v, nil
		})
	if err != nil {
		return nil, err
	}
	return *ret, nil
}

// Invalidate drops all memoized aggregates
func (c *Cache) Invalidate(ctx context.Context) {
	c.driver.InvalidateAll(ctx)
	c.tracks.InvalidateAll(ctx)
	c.vehicles.InvalidateAll(ctx)
	c.vehicleTracks.InvalidateAll(ctx)
}

// Len returns the number of memoized aggregates
func (c *Cache) Len() int {
	return c.driver.Len() + c.tracks.Len() + c.vehicles.Len() + c.vehicleTracks.Len()
}
