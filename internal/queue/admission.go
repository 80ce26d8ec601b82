package queue

import (
	"context"
	"fmt"
)

// AdmissionController bounds how many tasks may be concurrently processing,
// per user and globally. Checks read set cardinalities from the store and
// are advisory: the authoritative enforcement happens inside Store.Claim,
// where the re-check and the set insert are one atomic step. The enqueue-time
// check exists to fail fast with a clear error rather than silently queue
// work that cannot run soon; it may be stale by the time a worker pulls.
type AdmissionController struct {
	store       Store
	userLimit   int
	globalLimit int
}

// NewAdmissionController creates an AdmissionController over the store.
func NewAdmissionController(store Store, userLimit, globalLimit int) *AdmissionController {
	return &AdmissionController{
		store:       store,
		userLimit:   userLimit,
		globalLimit: globalLimit,
	}
}

// CanAdmitUser reports whether the user's processing count is strictly
// below the per-user limit.
func (a *AdmissionController) CanAdmitUser(ctx context.Context, userID string) (bool, error) {
	count, err := a.store.UserProcessingCount(ctx, userID)
	if err != nil {
		return false, fmt.Errorf("failed to read user processing count: %w", err)
	}
	return count < int64(a.userLimit), nil
}

// CanAdmitGlobal reports whether the global processing count is strictly
// below the global limit.
func (a *AdmissionController) CanAdmitGlobal(ctx context.Context) (bool, error) {
	count, err := a.store.GlobalProcessingCount(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to read global processing count: %w", err)
	}
	return count < int64(a.globalLimit), nil
}

// UserQueueStatus describes a user's admission headroom.
type UserQueueStatus struct {
	Processing     int64 `json:"processing"`
	Limit          int   `json:"limit"`
	AvailableSlots int   `json:"available_slots"`
}

// UserStatus returns the user's current processing count, limit, and
// remaining slots.
func (a *AdmissionController) UserStatus(ctx context.Context, userID string) (UserQueueStatus, error) {
	count, err := a.store.UserProcessingCount(ctx, userID)
	if err != nil {
		return UserQueueStatus{}, fmt.Errorf("failed to read user processing count: %w", err)
	}

	available := a.userLimit - int(count)
	if available < 0 {
		available = 0
	}

	return UserQueueStatus{
		Processing:     count,
		Limit:          a.userLimit,
		AvailableSlots: available,
	}, nil
}
