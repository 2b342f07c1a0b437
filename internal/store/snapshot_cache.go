package store

import (
	"context"
	"encoding/json"
	"errors"

	"skysentry/internal/kv"
	"skysentry/internal/types"
)

const (
	currentSnapshotKey = "snapshot:current"
	hourlySnapshotKey  = "snapshot:hourly"
)

// SnapshotCache persists the most recent weather data fetched by the
// orchestrator so alarm fires can evaluate their condition without a provider
// round trip. The current snapshot is stored as plain JSON; the hourly
// forecast blob goes through the compressing codec.
type SnapshotCache struct {
	kv    kv.Store
	codec *kv.Codec
}

// NewSnapshotCache creates a cache on the given kv backend.
func NewSnapshotCache(store kv.Store, codec *kv.Codec) *SnapshotCache {
	return &SnapshotCache{kv: store, codec: codec}
}

// SetCurrent persists the latest current-conditions snapshot.
func (c *SnapshotCache) SetCurrent(ctx context.Context, snap *types.WeatherSnapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return types.PersistenceError("encoding current snapshot", err)
	}
	if err := c.kv.Put(ctx, currentSnapshotKey, data); err != nil {
		return types.PersistenceError("caching current snapshot", err)
	}
	return nil
}

// Current returns the cached current-conditions snapshot, or nil when no
// cycle has cached one yet. Callers treat nil as "no data": conditions fail
// closed on it.
func (c *SnapshotCache) Current(ctx context.Context) (*types.WeatherSnapshot, error) {
	data, err := c.kv.Get(ctx, currentSnapshotKey)
	if err != nil {
		if errors.Is(err, kv.ErrNotFound) {
			return nil, nil
		}
		return nil, types.PersistenceError("reading cached snapshot", err)
	}
	var snap types.WeatherSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, types.PersistenceError("decoding cached snapshot", err)
	}
	return &snap, nil
}

// SetHourly persists the hourly forecast series, compressed.
func (c *SnapshotCache) SetHourly(ctx context.Context, hours []types.WeatherSnapshot) error {
	data, err := c.codec.Marshal(hours)
	if err != nil {
		return types.PersistenceError("encoding hourly forecast", err)
	}
	if err := c.kv.Put(ctx, hourlySnapshotKey, data); err != nil {
		return types.PersistenceError("caching hourly forecast", err)
	}
	return nil
}

// Hourly returns the cached hourly forecast, or nil when absent.
func (c *SnapshotCache) Hourly(ctx context.Context) ([]types.WeatherSnapshot, error) {
	data, err := c.kv.Get(ctx, hourlySnapshotKey)
	if err != nil {
		if errors.Is(err, kv.ErrNotFound) {
			return nil, nil
		}
		return nil, types.PersistenceError("reading cached hourly forecast", err)
	}
	var hours []types.WeatherSnapshot
	if err := c.codec.Unmarshal(data, &hours); err != nil {
		return nil, types.PersistenceError("decoding cached hourly forecast", err)
	}
	return hours, nil
}
