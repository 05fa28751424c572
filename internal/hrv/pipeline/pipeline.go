// Package pipeline orchestrates the full batch analysis: it fans the
// per-recording chain (condition -> beats -> metrics) out across
// subjects and conditions, collects results and failures, and runs the
// group statistics and per-subject classification after the barrier.
package pipeline

import (
	"fmt"
	"runtime"
	"sort"
	"sync"

	"github.com/banshee-data/pulse.report/internal/config"
	"github.com/banshee-data/pulse.report/internal/hrv"
	"github.com/banshee-data/pulse.report/internal/hrv/beats"
	"github.com/banshee-data/pulse.report/internal/hrv/classify"
	"github.com/banshee-data/pulse.report/internal/hrv/metrics"
	"github.com/banshee-data/pulse.report/internal/hrv/signalproc"
	"github.com/banshee-data/pulse.report/internal/hrv/stats"
)

// Input is one subject's raw recordings keyed by condition. Waveforms are
// owned by the caller and never modified.
type Input map[hrv.Condition][]float64

// Failure records why one subject-condition chain (or one subject's
// classification) could not produce a result. Err wraps one of the hrv
// sentinel error kinds.
type Failure struct {
	SubjectID int           `json:"subject_id"`
	Condition hrv.Condition `json:"condition,omitempty"`
	Stage     string        `json:"stage"`
	Err       error         `json:"-"`
	Message   string        `json:"error"`
}

// Result is the best-effort outcome of a batch run: every record that
// could be computed, the group-level report over complete subjects, the
// classifications, and the explicit failure log.
type Result struct {
	Records         []hrv.MetricRecord   `json:"records"`
	Group           stats.GroupReport    `json:"group"`
	Classifications []hrv.Classification `json:"classifications"`
	Failures        []Failure            `json:"failures,omitempty"`
}

// Runner executes batch analyses with a fixed configuration.
type Runner struct {
	cfg     *config.AnalysisConfig
	workers int
}

// NewRunner returns a Runner using the given configuration. workers <= 0
// selects one worker per CPU.
func NewRunner(cfg *config.AnalysisConfig, workers int) *Runner {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	return &Runner{cfg: cfg, workers: workers}
}

type unit struct {
	subjectID int
	condition hrv.Condition
	waveform  []float64
}

// Run analyses every subject-condition recording and then the group and
// classification stages. A failure in one recording never aborts the
// batch; it is logged in the result instead.
func (r *Runner) Run(subjects map[int]Input) Result {
	var units []unit
	for id, conds := range subjects {
		for cond, wave := range conds {
			units = append(units, unit{subjectID: id, condition: cond, waveform: wave})
		}
	}
	// Deterministic work order; the result map is order-independent anyway.
	sort.Slice(units, func(i, j int) bool {
		if units[i].subjectID != units[j].subjectID {
			return units[i].subjectID < units[j].subjectID
		}
		return units[i].condition < units[j].condition
	})

	type key struct {
		subject   int
		condition hrv.Condition
	}
	var (
		mu       sync.Mutex
		recordBy = make(map[key]hrv.MetricRecord)
		failures []Failure
	)

	jobs := make(chan unit)
	var wg sync.WaitGroup
	for w := 0; w < r.workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for u := range jobs {
				record, failure := r.analyzeOne(u)
				mu.Lock()
				if failure != nil {
					failures = append(failures, *failure)
				} else {
					recordBy[key{u.subjectID, u.condition}] = record
				}
				mu.Unlock()
			}
		}()
	}
	for _, u := range units {
		jobs <- u
	}
	close(jobs)
	wg.Wait()

	// Barrier reached: group and classification stages need the full
	// record set.
	result := Result{Failures: failures}
	for _, u := range units {
		if rec, ok := recordBy[key{u.subjectID, u.condition}]; ok {
			result.Records = append(result.Records, rec)
		}
	}

	result.Group = stats.Analyze(result.Records, r.cfg)

	subjectIDs := make([]int, 0, len(subjects))
	for id := range subjects {
		subjectIDs = append(subjectIDs, id)
	}
	sort.Ints(subjectIDs)
	for _, id := range subjectIDs {
		perCondition := make(map[hrv.Condition]hrv.MetricRecord, len(hrv.Conditions))
		for _, cond := range hrv.Conditions {
			if rec, ok := recordBy[key{id, cond}]; ok {
				perCondition[cond] = rec
			}
		}
		classification, err := classify.Classify(perCondition, r.cfg)
		if err != nil {
			result.Failures = append(result.Failures, Failure{
				SubjectID: id,
				Stage:     "classify",
				Err:       err,
				Message:   err.Error(),
			})
			continue
		}
		result.Classifications = append(result.Classifications, classification)
	}

	sort.Slice(result.Failures, func(i, j int) bool {
		if result.Failures[i].SubjectID != result.Failures[j].SubjectID {
			return result.Failures[i].SubjectID < result.Failures[j].SubjectID
		}
		return result.Failures[i].Condition < result.Failures[j].Condition
	})
	return result
}

// analyzeOne runs the conditioning, beat extraction, and metric stages
// for a single recording.
func (r *Runner) analyzeOne(u unit) (hrv.MetricRecord, *Failure) {
	fail := func(stage string, err error) *Failure {
		return &Failure{
			SubjectID: u.subjectID,
			Condition: u.condition,
			Stage:     stage,
			Err:       err,
			Message:   fmt.Sprintf("%s %s: %v", u.condition, stage, err),
		}
	}

	sig, err := signalproc.Condition(u.waveform, r.cfg)
	if err != nil {
		return hrv.MetricRecord{}, fail("condition", err)
	}

	peaks, ibis, err := beats.Extract(sig, r.cfg)
	if err != nil {
		return hrv.MetricRecord{}, fail("beats", err)
	}

	record, err := metrics.Compute(u.subjectID, u.condition, sig, peaks, ibis, r.cfg)
	if err != nil {
		return hrv.MetricRecord{}, fail("metrics", err)
	}
	return record, nil
}
