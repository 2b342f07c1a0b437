// Package store implements the engine's persisted state on top of the kv
// facility: alarm definitions, per-alert-type cooldown timestamps, the
// previous-temperature scalar used by change detection, and the cached
// weather snapshots consumed by alarm fires.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"

	"skysentry/internal/kv"
	"skysentry/internal/types"
)

// alarmKeyPrefix namespaces alarm entries in the kv store. Each alarm lives
// under its own key, so save and delete are atomic per alarm rather than a
// read-modify-write of one shared list.
const alarmKeyPrefix = "alarm:"

func alarmKey(id string) string { return alarmKeyPrefix + id }

// AlarmStore provides CRUD over persisted alarm definitions keyed by id.
// It is the sole owner of alarm persistence; the scheduler's wake-timer
// registrations are a volatile projection of this store's contents.
//
// The store serializes its own writers, so it is safe to call from the API
// surface and the engine's timer callbacks concurrently.
type AlarmStore struct {
	mu sync.Mutex
	kv kv.Store
}

// NewAlarmStore creates an AlarmStore on the given kv backend.
func NewAlarmStore(store kv.Store) *AlarmStore {
	return &AlarmStore{kv: store}
}

// Save upserts the alarm: it replaces an existing definition with the same id
// or creates a new entry. The alarm is validated before any write.
func (s *AlarmStore) Save(ctx context.Context, alarm *types.AlarmDefinition) error {
	if err := alarm.Validate(); err != nil {
		return err
	}

	data, err := json.Marshal(alarm)
	if err != nil {
		return fmt.Errorf("alarm store: encoding alarm %s: %w", alarm.ID, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.kv.Put(ctx, alarmKey(alarm.ID), data); err != nil {
		return types.PersistenceError(fmt.Sprintf("saving alarm %s", alarm.ID), err)
	}
	return nil
}

// Delete removes the alarm with the given id. Deleting an unknown id is a
// no-op, mirroring the kv facility's delete semantics.
func (s *AlarmStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.kv.Delete(ctx, alarmKey(id)); err != nil {
		return types.PersistenceError(fmt.Sprintf("deleting alarm %s", id), err)
	}
	return nil
}

// GetByID loads a single alarm. Returns a not-found AppError when the id has
// no entry.
func (s *AlarmStore) GetByID(ctx context.Context, id string) (*types.AlarmDefinition, error) {
	data, err := s.kv.Get(ctx, alarmKey(id))
	if err != nil {
		if errors.Is(err, kv.ErrNotFound) {
			return nil, types.NewAppError(types.ErrCodeNotFoundAlarm, fmt.Sprintf("alarm %s not found", id), nil)
		}
		return nil, types.PersistenceError(fmt.Sprintf("loading alarm %s", id), err)
	}

	var alarm types.AlarmDefinition
	if err := json.Unmarshal(data, &alarm); err != nil {
		return nil, types.PersistenceError(fmt.Sprintf("decoding alarm %s", id), err)
	}
	return &alarm, nil
}

// GetAll returns every persisted alarm, ordered by id for stable iteration.
func (s *AlarmStore) GetAll(ctx context.Context) ([]*types.AlarmDefinition, error) {
	keys, err := s.kv.List(ctx, alarmKeyPrefix)
	if err != nil {
		return nil, types.PersistenceError("listing alarms", err)
	}

	alarms := make([]*types.AlarmDefinition, 0, len(keys))
	for _, key := range keys {
		data, err := s.kv.Get(ctx, key)
		if err != nil {
			if errors.Is(err, kv.ErrNotFound) {
				// Deleted between List and Get; skip.
				continue
			}
			return nil, types.PersistenceError(fmt.Sprintf("loading %s", key), err)
		}
		var alarm types.AlarmDefinition
		if err := json.Unmarshal(data, &alarm); err != nil {
			return nil, types.PersistenceError(fmt.Sprintf("decoding %s", key), err)
		}
		alarms = append(alarms, &alarm)
	}

	sort.Slice(alarms, func(i, j int) bool { return alarms[i].ID < alarms[j].ID })
	return alarms, nil
}

// GetEnabled returns only the alarms whose enabled flag is set.
func (s *AlarmStore) GetEnabled(ctx context.Context) ([]*types.AlarmDefinition, error) {
	all, err := s.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	enabled := all[:0]
	for _, a := range all {
		if a.Enabled {
			enabled = append(enabled, a)
		}
	}
	return enabled, nil
}
