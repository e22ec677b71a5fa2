package indexer

// ProgressPhase names one of the documented points in an Index run at
// which IndexManager reports progress, per spec.md §4.8.
type ProgressPhase string

const (
	PhasePreparingCollection ProgressPhase = "Preparing collection"
	PhaseScanningFiles       ProgressPhase = "Scanning files"
	PhaseProcessingFiles     ProgressPhase = "Processing files"
	PhaseIndexingComplete    ProgressPhase = "Indexing complete"
)

// ProgressFunc receives a phase and, for PhaseProcessingFiles, the current
// file index and total file count. PhaseIndexingComplete carries the number
// of files handed to the pipeline as both values; the other phases pass zero.
// A nil ProgressFunc is always safe to call through reportProgress.
type ProgressFunc func(phase ProgressPhase, current, total int)

func reportProgress(cb ProgressFunc, phase ProgressPhase, current, total int) {
	if cb != nil {
		cb(phase, current, total)
	}
}
