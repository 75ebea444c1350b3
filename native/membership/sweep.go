package membership

import (
	"brandchain/core/events"
	"brandchain/native/common"
)

const (
	// secondsPerMonth is the 30 day month used for expiry accounting.
	secondsPerMonth int64 = 2_592_000
	// sweepGraceSeconds is the 7 day grace period granted past expiry before
	// an asset is reclaimed.
	sweepGraceSeconds int64 = 604_800
)

// SweepExpired returns every overdue asset to its issuing brand. An asset is
// overdue once its expiry window plus grace has elapsed since creation while
// it is held away from its creator; renewals extend the window by raising
// ExpireMonths. The sweep is idempotent: assets already reclaimed satisfy
// owner == creator and are skipped, so the external scheduler may skip or
// repeat epochs freely. It returns the number of assets reclaimed.
func (e *Engine) SweepExpired() (int, error) {
	if e == nil || e.state == nil {
		return 0, errNilState
	}
	if err := common.Guard(e.pauses, moduleName); err != nil {
		return 0, err
	}
	now := e.now()
	var overdue []*Asset
	if err := e.state.AssetIterate(func(a *Asset) bool {
		if a == nil || a.Owner == a.Creator {
			return true
		}
		deadline := secondsPerMonth*int64(a.ExpireMonths) + sweepGraceSeconds
		if now-a.CreatedAt > deadline {
			overdue = append(overdue, a.Clone())
		}
		return true
	}); err != nil {
		return 0, err
	}
	for _, asset := range overdue {
		asset.Owner = asset.Creator
		if err := e.state.AssetPut(asset); err != nil {
			return 0, err
		}
		e.emit(events.AssetReturnedOverdue{Asset: asset.ID})
	}
	return len(overdue), nil
}
