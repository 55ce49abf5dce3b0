package algo

import "time"

// DeadlineExtension is the outcome of ComputeExtendedDeadline.
type DeadlineExtension struct {
	ShouldExtend bool
	NewDeadline  time.Time
}

// ComputeExtendedDeadline implements spec §4.1. Timers only extend,
// never shorten — calling this twice with the same now is idempotent
// (L2): the second call's candidate is identical to the first's, so
// shouldExtend is only true once the caller has actually applied it.
func ComputeExtendedDeadline(
	now time.Time,
	currentDeadline time.Time,
	lotCreatedAt time.Time,
	resetOnBidSeconds int,
	maxLotDurationSeconds *int,
) DeadlineExtension {
	candidate := now.Add(time.Duration(resetOnBidSeconds) * time.Second)

	if maxLotDurationSeconds != nil {
		hardCap := lotCreatedAt.Add(time.Duration(*maxLotDurationSeconds) * time.Second)
		if hardCap.Before(candidate) {
			candidate = hardCap
		}
	}

	return DeadlineExtension{
		ShouldExtend: candidate.After(currentDeadline),
		NewDeadline:  candidate,
	}
}
