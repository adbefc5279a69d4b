package parser

import "time"

// throttle emits at most one progress observation per interval, matching
// the teacher's query.ThrottledProgressCallback, plus an always-delivered
// final observation regardless of how recently the last one fired.
type throttle struct {
	fn       ProgressFunc
	interval time.Duration
	start    time.Time
	last     time.Time
	fired    bool
}

func newThrottle(fn ProgressFunc, interval time.Duration) *throttle {
	now := time.Now()
	return &throttle{fn: fn, interval: interval, start: now}
}

// maybe reports progress if the throttle interval has elapsed since the
// last observation, or if this is the first observation.
func (t *throttle) maybe(bytesConsumed, fileSize uint64, recordsSoFar int64) {
	if t.fn == nil {
		return
	}
	now := time.Now()
	if t.fired && now.Sub(t.last) < t.interval {
		return
	}
	t.last = now
	t.fired = true
	t.fn(t.compute(bytesConsumed, fileSize, recordsSoFar))
}

// final unconditionally emits the terminal (100%, total, 0) observation.
func (t *throttle) final(recordsSoFar int64) {
	if t.fn == nil {
		return
	}
	t.fn(Progress{Percent: 100, RecordsSoFar: recordsSoFar, ETASeconds: 0})
}

func (t *throttle) compute(bytesConsumed, fileSize uint64, recordsSoFar int64) Progress {
	var percent float64
	if fileSize > 0 {
		percent = float64(bytesConsumed) / float64(fileSize) * 100
		if percent > 100 {
			percent = 100
		}
	}

	elapsed := time.Since(t.start).Seconds()
	var eta float64
	if elapsed > 0 && bytesConsumed > 0 && fileSize > bytesConsumed {
		bytesPerSecond := float64(bytesConsumed) / elapsed
		if bytesPerSecond > 0 {
			eta = float64(fileSize-bytesConsumed) / bytesPerSecond
		}
	}

	return Progress{Percent: percent, RecordsSoFar: recordsSoFar, ETASeconds: eta}
}
