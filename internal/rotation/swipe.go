package rotation

import "time"

// Swipe gesture thresholds.
const (
	swipeMinDistance = 50
	swipeMaxDuration = 300 * time.Millisecond
)

// SwipeDirection is the resolved outcome of a touch gesture.
type SwipeDirection int

const (
	SwipeNone SwipeDirection = iota
	SwipeLeft
	SwipeRight
)

// SwipeRecognizer resolves a single-finger touch sequence into a
// horizontal swipe. A gesture counts only when it moves at least 50px
// laterally, finishes within 300ms, and its lateral displacement
// dominates any vertical drift.
type SwipeRecognizer struct {
	startX, startY float64
	startedAt      time.Time
	active         bool
}

// Begin records the touch-down point.
func (r *SwipeRecognizer) Begin(x, y float64, at time.Time) {
	r.startX = x
	r.startY = y
	r.startedAt = at
	r.active = true
}

// End resolves the gesture from the touch-up point. It returns
// SwipeNone for slow, short, or vertical movements.
func (r *SwipeRecognizer) End(x, y float64, at time.Time) SwipeDirection {
	if !r.active {
		return SwipeNone
	}
	r.active = false

	dx := x - r.startX
	dy := y - r.startY
	if at.Sub(r.startedAt) > swipeMaxDuration {
		return SwipeNone
	}
	adx, ady := dx, dy
	if adx < 0 {
		adx = -adx
	}
	if ady < 0 {
		ady = -ady
	}
	if adx < swipeMinDistance || adx <= ady {
		return SwipeNone
	}
	if dx < 0 {
		return SwipeLeft
	}
	return SwipeRight
}
