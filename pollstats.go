package taskwatch

import "time"

// PollStats aggregates poll counters, the first/last poll timestamps, and
// cumulative busy time for a task or async operation. Invariant:
// CurrentPolls never goes negative; BusyTime only accumulates on the
// transition CurrentPolls: 1 -> 0.
type PollStats struct {
	CurrentPolls    int64
	Polls           uint64
	FirstPoll       time.Time
	LastPollStarted time.Time
	LastPollEnded   time.Time
	BusyTime        time.Duration
}

// updateOnEnter records entry into a poll. A span may be re-entered while
// still entered (nested or re-entrant polls): CurrentPolls is a counter,
// not a flag. Polls and FirstPoll are only touched on the outermost entry
// (0 -> 1).
func (p *PollStats) updateOnEnter(at time.Time) {
	if p.CurrentPolls == 0 {
		p.LastPollStarted = at
		if p.FirstPoll.IsZero() {
			p.FirstPoll = at
		}
		p.Polls++
	}
	p.CurrentPolls++
}

// updateOnExit mirrors updateOnEnter. BusyTime accrues only on the
// outermost exit (1 -> 0); clock skew producing a negative duration is
// clamped to zero per the duration-arithmetic error policy. recorded is
// true exactly on that outermost-exit transition, in which case elapsed is
// the (at - LastPollStarted) span the caller should feed to a task's
// poll-time histogram, per spec.md section 4.3's Exit row.
func (p *PollStats) updateOnExit(at time.Time) (elapsed time.Duration, recorded bool) {
	if p.CurrentPolls == 0 {
		// Producer sent an Exit without a matching Enter; nothing to do.
		return 0, false
	}
	p.CurrentPolls--
	if p.CurrentPolls != 0 || p.LastPollStarted.IsZero() {
		return 0, false
	}
	p.LastPollEnded = at
	elapsed = at.Sub(p.LastPollStarted)
	if elapsed < 0 {
		elapsed = 0
	}
	p.BusyTime += elapsed
	return elapsed, true
}
