package processor

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// TonalCandidate is a frame judged energetic, in-band and pure enough to
// possibly belong to a beep.
type TonalCandidate struct {
	Time      float64
	Frequency float64
	Purity    float64
	Energy    float64
}

// Beep is an accepted tonal group.
type Beep struct {
	Start     float64 `json:"start"`
	End       float64 `json:"end"`
	Frequency float64 `json:"frequency"`
	Duration  float64 `json:"duration"`
	Purity    float64 `json:"purity"`
}

// tonalCandidate reports whether a frame qualifies as a tonal candidate.
func tonalCandidate(f Frame, cfg *AnalysisConfig) (TonalCandidate, bool) {
	if !f.Spectral || f.Frequency < cfg.BeepFreqMinHz || f.Frequency > cfg.BeepFreqMaxHz || f.Purity <= cfg.BeepPurityMin {
		return TonalCandidate{}, false
	}
	return TonalCandidate{Time: f.Start, Frequency: f.Frequency, Purity: f.Purity, Energy: f.Energy}, true
}

// TonalGroup is the open accumulator of temporally and spectrally
// contiguous candidates.
type TonalGroup struct {
	Start       float64
	LastTime    float64
	Frequencies []float64
	Purities    []float64
}

// Len returns the number of candidates in the group.
func (g *TonalGroup) Len() int {
	return len(g.Frequencies)
}

// lastFrequency is the frequency of the most recently appended candidate.
func (g *TonalGroup) lastFrequency() float64 {
	return g.Frequencies[len(g.Frequencies)-1]
}

// TonalGrouper clusters time-ordered candidates into groups and classifies
// each closed group as a beep or discards it.
//
// Usage: Add every candidate in ascending time order, then call Finish once.
type TonalGrouper struct {
	cfg       *AnalysisConfig
	hopSecs   float64
	tracer    Tracer
	group     TonalGroup
	open      bool
	beeps     []Beep
	evaluated int
}

// NewTonalGrouper creates a grouper. hopSeconds is the frame hop, added to
// the span of a group so its duration covers the final frame.
func NewTonalGrouper(cfg *AnalysisConfig, hopSeconds float64, tracer Tracer) *TonalGrouper {
	if tracer == nil {
		tracer = nopTracer{}
	}
	return &TonalGrouper{cfg: cfg, hopSecs: hopSeconds, tracer: tracer}
}

// Add feeds the next candidate, extending the open group when it is close
// enough in time and frequency, otherwise closing it and starting anew.
func (tg *TonalGrouper) Add(c TonalCandidate) {
	if tg.open && tg.continues(c) {
		tg.extend(c)
		return
	}
	if tg.open {
		tg.evaluate()
	}
	tg.reset(c)
}

// Finish closes the last open group and returns every accepted beep in start order.
func (tg *TonalGrouper) Finish() []Beep {
	if tg.open {
		tg.evaluate()
		tg.open = false
	}
	return tg.beeps
}

// Evaluated returns how many groups have been closed so far.
func (tg *TonalGrouper) Evaluated() int {
	return tg.evaluated
}

func (tg *TonalGrouper) continues(c TonalCandidate) bool {
	return c.Time-tg.group.LastTime < tg.cfg.MaxGroupGapSeconds &&
		math.Abs(c.Frequency-tg.group.lastFrequency()) < tg.cfg.MaxFreqDeltaHz
}

func (tg *TonalGrouper) extend(c TonalCandidate) {
	tg.group.Frequencies = append(tg.group.Frequencies, c.Frequency)
	tg.group.Purities = append(tg.group.Purities, c.Purity)
	tg.group.LastTime = c.Time
}

// reset seeds a fresh group with c.
func (tg *TonalGrouper) reset(c TonalCandidate) {
	tg.group = TonalGroup{
		Start:       c.Time,
		LastTime:    c.Time,
		Frequencies: []float64{c.Frequency},
		Purities:    []float64{c.Purity},
	}
	tg.open = true
}

// evaluate classifies the open group and records a beep if it qualifies.
func (tg *TonalGrouper) evaluate() {
	tg.evaluated++
	g := &tg.group
	cfg := tg.cfg
	count := g.Len()
	duration := g.LastTime - g.Start + tg.hopSecs

	ev := GroupEvent{
		Start:    g.Start,
		End:      g.LastTime + tg.hopSecs,
		Duration: duration,
		Chunks:   count,
	}

	if count < 2 || duration < cfg.MinGroupDuration {
		ev.Verdict = GroupTooShort
		tg.tracer.GroupEvaluated(ev)
		return
	}

	meanFreq, stdDev := stat.PopMeanStdDev(g.Frequencies, nil)
	meanPurity := stat.Mean(g.Purities, nil)
	maxPurity := floats.Max(g.Purities)

	ev.MeanFreq = meanFreq
	ev.StdDev = stdDev
	ev.MeanPurity = meanPurity
	ev.MaxPurity = maxPurity

	stable := stdDev < cfg.StableStdDevHz
	goodPurity := meanPurity > cfg.GoodPurityMin || maxPurity > cfg.AltPurityMin
	enoughChunks := count >= cfg.MinChunksLong || (count >= cfg.MinChunksShort && maxPurity > cfg.HighPurityMin)
	excellent := maxPurity > cfg.ExcellentPurityMin && count >= cfg.MinChunksShort

	if (stable && goodPurity && enoughChunks) || excellent {
		ev.Verdict = GroupAccepted
		tg.beeps = append(tg.beeps, Beep{
			Start:     g.Start,
			End:       g.LastTime + tg.hopSecs,
			Frequency: meanFreq,
			Duration:  duration,
			Purity:    meanPurity,
		})
	} else {
		ev.Verdict = GroupRejected
	}
	tg.tracer.GroupEvaluated(ev)
}
