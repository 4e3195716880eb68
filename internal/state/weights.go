package state

import (
	"database/sql"
	"math"
	"sync"
)

// linkWeight is one link's durable weight-side state.
type linkWeight struct {
	typ       string
	logW      float64
	stickyS   float64 // optional target-side stickiness s_j, default 1.0 (off)
}

// typeStats holds the rolling mean/std of W_log over links of one type, used
// for the standardized weight read W̃. Updated at end of tick,
// read by the next tick's diffusion pass.
type typeStats struct {
	mean float64
	std  float64
	n    int
}

// WeightTable is the durable, non-bitemporal store of link weights. It also holds the
// per-type rolling statistics the diffusion engine needs for standardized
// weight reads.
type WeightTable struct {
	mu    sync.RWMutex
	links map[string]*linkWeight // keyed by link logical id
	stats map[string]typeStats   // keyed by link type
}

// NewWeightTable creates an empty table.
func NewWeightTable() *WeightTable {
	return &WeightTable{
		links: make(map[string]*linkWeight),
		stats: make(map[string]typeStats),
	}
}

// Seed registers a link's initial weight/type, used when CreateLink runs or
// when the table is loaded from the durable store at startup.
func (w *WeightTable) Seed(logicalID, linkType string, logW float64) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if _, ok := w.links[logicalID]; ok {
		return
	}
	w.links[logicalID] = &linkWeight{typ: linkType, logW: logW, stickyS: 1.0}
}

// Set unconditionally overwrites a link's W_log and type (used by
// SupersedeLink corrections, unlike Seed which only sets on first sight).
func (w *WeightTable) Set(logicalID, linkType string, logW float64) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if lw, ok := w.links[logicalID]; ok {
		lw.logW = logW
		lw.typ = linkType
		return
	}
	w.links[logicalID] = &linkWeight{typ: linkType, logW: logW, stickyS: 1.0}
}

// Get returns a link's current W_log and type.
func (w *WeightTable) Get(logicalID string) (logW float64, linkType string, ok bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	lw, ok := w.links[logicalID]
	if !ok {
		return 0, "", false
	}
	return lw.logW, lw.typ, true
}

// Stickiness returns the target-side stickiness s_j for a link,
// defaulting to 1.0 (no retention loss) when unset.
func (w *WeightTable) Stickiness(logicalID string) float64 {
	w.mu.RLock()
	defer w.mu.RUnlock()
	lw, ok := w.links[logicalID]
	if !ok {
		return 1.0
	}
	return lw.stickyS
}

// SetStickiness sets the optional stickiness factor for a link.
func (w *WeightTable) SetStickiness(logicalID string, s float64) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if lw, ok := w.links[logicalID]; ok {
		lw.stickyS = s
	}
}

// Adjust applies a delta to a link's W_log, saturating at the configured
// soft ceiling via a tanh squash.
func (w *WeightTable) Adjust(logicalID string, deltaLogW, softCeiling float64) {
	w.mu.Lock()
	defer w.mu.Unlock()
	lw, ok := w.links[logicalID]
	if !ok {
		return
	}
	raw := lw.logW + deltaLogW
	if softCeiling > 0 {
		lw.logW = softCeiling * math.Tanh(raw/softCeiling)
	} else {
		lw.logW = raw
	}
}

// DecayType multiplies every link of a type by lambdaW, run on the slower cadence the decay engine derives.
func (w *WeightTable) DecayType(linkType string, lambdaW float64) {
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, lw := range w.links {
		if lw.typ == linkType {
			lw.logW *= lambdaW
		}
	}
}

// StandardizedRead returns W̃_j = exp((W_log_j - μ_T)/(σ_T + ε)) using the
// most recently sealed per-type rolling statistics.
func (w *WeightTable) StandardizedRead(logicalID string) float64 {
	const eps = 1e-6
	w.mu.RLock()
	defer w.mu.RUnlock()
	lw, ok := w.links[logicalID]
	if !ok {
		return 1.0
	}
	st := w.stats[lw.typ]
	return math.Exp((lw.logW - st.mean) / (st.std + eps))
}

// SealTypeStats recomputes the rolling mean/std for every link type from the
// current weight population, end-of-tick.
func (w *WeightTable) SealTypeStats() {
	w.mu.Lock()
	defer w.mu.Unlock()

	sums := make(map[string]float64)
	counts := make(map[string]int)
	for _, lw := range w.links {
		sums[lw.typ] += lw.logW
		counts[lw.typ]++
	}
	means := make(map[string]float64, len(sums))
	for t, sum := range sums {
		means[t] = sum / float64(counts[t])
	}

	sqSums := make(map[string]float64)
	for _, lw := range w.links {
		d := lw.logW - means[lw.typ]
		sqSums[lw.typ] += d * d
	}

	stats := make(map[string]typeStats, len(sums))
	for t, n := range counts {
		variance := 0.0
		if n > 0 {
			variance = sqSums[t] / float64(n)
		}
		stats[t] = typeStats{mean: means[t], std: math.Sqrt(variance), n: n}
	}
	w.stats = stats
}

func (w *WeightTable) loadFrom(db *sql.DB) error {
	rows, err := db.Query(`SELECT logical_id, type, weight_log, sticky_s FROM link_weights`)
	if err != nil {
		return err
	}
	defer rows.Close()

	w.mu.Lock()
	defer w.mu.Unlock()
	for rows.Next() {
		var logical, typ string
		var logW, sticky float64
		if err := rows.Scan(&logical, &typ, &logW, &sticky); err != nil {
			return err
		}
		w.links[logical] = &linkWeight{typ: typ, logW: logW, stickyS: sticky}
	}
	return rows.Err()
}

func (w *WeightTable) persistTo(db *sql.DB) error {
	w.mu.RLock()
	snapshot := make(map[string]linkWeight, len(w.links))
	for k, v := range w.links {
		snapshot[k] = *v
	}
	w.mu.RUnlock()

	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for logical, lw := range snapshot {
		if _, err := tx.Exec(`INSERT INTO link_weights(logical_id, type, weight_log, sticky_s)
			VALUES (?, ?, ?, ?)
			ON CONFLICT(logical_id) DO UPDATE SET weight_log = excluded.weight_log, sticky_s = excluded.sticky_s`,
			logical, lw.typ, lw.logW, lw.stickyS); err != nil {
			return err
		}
	}
	return tx.Commit()
}
