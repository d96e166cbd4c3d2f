package processor

// SilenceInterval is a closed run of low-energy frames.
type SilenceInterval struct {
	Start    float64 `json:"start"`
	Duration float64 `json:"duration"`
}

// End returns the time at which speech resumed.
func (s SilenceInterval) End() float64 {
	return s.Start + s.Duration
}

// SilenceTracker accumulates contiguous quiet frames into silence intervals
// and tracks the last frame that carried speech-level energy.
//
// It is a two-state machine (Active, Quiet). A quiet run is only reported
// once a loud frame closes it; a run still open when the stream ends is
// never emitted.
type SilenceTracker struct {
	silenceThreshold float64
	speechThreshold  float64
	minDuration      float64

	quiet      bool
	quietStart float64
	lastTime   float64

	speechEnd float64
	intervals []SilenceInterval
}

// NewSilenceTracker creates a tracker in the Active state.
func NewSilenceTracker(silenceThreshold, speechThreshold, minDuration float64) *SilenceTracker {
	return &SilenceTracker{
		silenceThreshold: silenceThreshold,
		speechThreshold:  speechThreshold,
		minDuration:      minDuration,
	}
}

// Observe feeds one frame. Frames must arrive in ascending time order.
func (st *SilenceTracker) Observe(time, energy float64) {
	st.lastTime = time

	if energy < st.silenceThreshold {
		if !st.quiet {
			st.quiet = true
			st.quietStart = time
		}
	} else if st.quiet {
		if dur := time - st.quietStart; dur >= st.minDuration {
			st.intervals = append(st.intervals, SilenceInterval{Start: st.quietStart, Duration: dur})
		}
		st.quiet = false
	}

	if energy > st.speechThreshold {
		st.speechEnd = time
	}
}

// Intervals returns the silences emitted so far, ordered by start time.
func (st *SilenceTracker) Intervals() []SilenceInterval {
	return st.intervals
}

// SpeechEnd returns the start time of the last speech-level frame, or 0.
func (st *SilenceTracker) SpeechEnd() float64 {
	return st.speechEnd
}

// Trailing reports the quiet run still open at the last observed frame.
// It is diagnostic only and never becomes a SilenceInterval.
func (st *SilenceTracker) Trailing() (SilenceInterval, bool) {
	if !st.quiet {
		return SilenceInterval{}, false
	}
	return SilenceInterval{Start: st.quietStart, Duration: st.lastTime - st.quietStart}, true
}
