package analyzer

// Stage identifies a phase of the analysis pipeline.
type Stage string

const (
	// StageSymbols is pass 1: per-file symbol and import extraction.
	StageSymbols Stage = "symbols"
	// StageCalls is pass 2: per-file call resolution.
	StageCalls Stage = "calls"
)

// Progress is an advisory event emitted while a pass works through the
// source set. It never affects the computed graph.
type Progress struct {
	Stage       Stage  `json:"stage"`
	Processed   int    `json:"processedCount"`
	Total       int    `json:"totalCount"`
	CurrentFile string `json:"currentFile"`
}

// ProgressFunc receives progress events. It is called from the analysis
// goroutine and should return quickly.
type ProgressFunc func(Progress)

func (a *Analyzer) report(stage Stage, processed, total int, file string) {
	if a.progress == nil {
		return
	}
	a.progress(Progress{Stage: stage, Processed: processed, Total: total, CurrentFile: file})
}
