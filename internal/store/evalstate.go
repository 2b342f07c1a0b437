package store

import (
	"context"
	"errors"
	"strconv"

	"skysentry/internal/kv"
	"skysentry/internal/types"
)

const prevTempKey = "evalstate:prev_temp"

// EvalState persists the single scalar the sudden-change rule needs between
// orchestrator cycles: the previously observed temperature.
type EvalState struct {
	kv kv.Store
}

// NewEvalState creates an EvalState on the given kv backend.
func NewEvalState(store kv.Store) *EvalState {
	return &EvalState{kv: store}
}

// PreviousTemperature returns the last persisted temperature. The second
// result is false when no cycle has recorded one yet.
func (s *EvalState) PreviousTemperature(ctx context.Context) (float64, bool, error) {
	data, err := s.kv.Get(ctx, prevTempKey)
	if err != nil {
		if errors.Is(err, kv.ErrNotFound) {
			return 0, false, nil
		}
		return 0, false, types.PersistenceError("reading previous temperature", err)
	}
	temp, err := strconv.ParseFloat(string(data), 64)
	if err != nil {
		return 0, false, nil
	}
	return temp, true, nil
}

// SetPreviousTemperature persists the just-observed temperature for the next
// cycle's change detection.
func (s *EvalState) SetPreviousTemperature(ctx context.Context, temp float64) error {
	data := []byte(strconv.FormatFloat(temp, 'f', -1, 64))
	if err := s.kv.Put(ctx, prevTempKey, data); err != nil {
		return types.PersistenceError("persisting previous temperature", err)
	}
	return nil
}
