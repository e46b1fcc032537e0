package models

import (
	"juridisch-advies-backend/generative"
)

// StageID identifies one generation step in the advisory pipeline. The
// four analysis stages are numbered; the final memo call is "synthesis".
type StageID string

const (
	StageProClient   StageID = "1"
	StageRisks       StageID = "2"
	StageProcedural  StageID = "3"
	StageIntegration StageID = "4"
	StageMemo        StageID = "synthesis"
)

// AnalysisStages lists the four analysis stages in run order.
var AnalysisStages = []StageID{StageProClient, StageRisks, StageProcedural, StageIntegration}

// StageOutput is the outcome of one pipeline stage. Each stage produces
// exactly one output per run, in strict stage order.
type StageOutput struct {
	Stage          StageID           `json:"stage"`
	Name           string            `json:"name"`
	Result         generative.Result `json:"result"`
	ElapsedSeconds float64           `json:"elapsed_seconds"`
}

// AdviceMemo is the final advisory note of a run.
type AdviceMemo struct {
	Text           string  `json:"text"`
	AsOfDate       string  `json:"as_of_date"`
	ElapsedSeconds float64 `json:"elapsed_seconds,omitempty"`
}
