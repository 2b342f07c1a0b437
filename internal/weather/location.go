package weather

import (
	"context"
	"time"

	"skysentry/internal/types"
)

// StaticResolver always returns a fixed location, used when the host has no
// live location source (server deployments, tests).
type StaticResolver struct {
	Location types.Location
}

var _ types.LocationResolver = StaticResolver{}

// Resolve returns the configured location.
func (r StaticResolver) Resolve(_ context.Context) (types.Location, error) {
	return r.Location, nil
}

// FallbackResolver asks a primary source for a fix within a bounded wait and
// falls back to a last-known/default location on failure or timeout. The
// orchestrator must never block a cycle indefinitely waiting for a fix.
type FallbackResolver struct {
	Primary  types.LocationResolver
	Fallback types.Location
	Wait     time.Duration
	Logger   types.Logger
}

var _ types.LocationResolver = (*FallbackResolver)(nil)

// Resolve returns the primary fix when it arrives in time, the fallback
// otherwise. It never returns an error: there is always a usable location.
func (r *FallbackResolver) Resolve(ctx context.Context) (types.Location, error) {
	wait := r.Wait
	if wait <= 0 {
		wait = 2 * time.Second
	}
	fixCtx, cancel := context.WithTimeout(ctx, wait)
	defer cancel()

	loc, err := r.Primary.Resolve(fixCtx)
	if err != nil {
		if r.Logger != nil {
			r.Logger.Warn("location fix unavailable, using fallback", "error", err)
		}
		return r.Fallback, nil
	}
	return loc, nil
}
