package user

import (
	"context"
	"fmt"
	"time"

	"github.com/volatiletech/null/v8"
)

const (
	genericBlockReason = "account deactivated"
	blockedUntilFormat = "Jan 2, 2006 at 15:04 MST"
)

// Decision is the outcome of an access evaluation. When not Allowed, Reason
// holds a human-readable explanation ready for the caller to surface.
type Decision struct {
	Allowed bool
	Reason  string
}

// Gate decides, at authentication time, whether an account may proceed to
// credential verification. A block whose expiry has passed is lifted as a
// side effect; the cleared state is persisted through the repository.
type Gate struct {
	repo Repository
}

func NewGate(repo Repository) *Gate {
	return &Gate{repo: repo}
}

// Evaluate checks the account's block state at `now`.
//
// Re-evaluating an already-active account is a no-op: the auto-unblock write
// happens at most once per call, and only for an expired block. Repository
// failures are returned as-is.
func (g *Gate) Evaluate(ctx context.Context, usr User, now time.Time) (Decision, error) {
	if usr.IsActive {
		return Decision{Allowed: true}, nil
	}

	if usr.BlockedUntil.Valid && !usr.BlockedUntil.Time.After(now) {
		// block has expired; lift it
		if _, err := g.repo.SetBlockState(ctx, usr.ID, true, null.String{}, null.Time{}); err != nil {
			return Decision{}, err
		}
		return Decision{Allowed: true}, nil
	}

	return Decision{Reason: blockMessage(usr)}, nil
}

func blockMessage(usr User) string {
	reason := genericBlockReason
	if usr.BlockReason.Valid && usr.BlockReason.String != "" {
		reason = usr.BlockReason.String
	}
	if usr.BlockedUntil.Valid {
		return fmt.Sprintf("%s (blocked until %s)", reason, usr.BlockedUntil.Time.Format(blockedUntilFormat))
	}
	return fmt.Sprintf("%s (blocked indefinitely)", reason)
}
