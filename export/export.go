package export

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"juridisch-advies-backend/models"
)

var ErrRunIncomplete = errors.New("run has no exportable result")

// Record is the exportable result of one completed run: the case info,
// the four agent outputs and the final advisory note.
type Record struct {
	Timestamp    string            `json:"timestamp"`
	CaseInfo     models.CaseRecord `json:"casus_info"`
	AgentOutputs map[string]string `json:"agent_outputs"`
	FinalAdvice  string            `json:"final_advice"`
	GeneratedAt  time.Time         `json:"-"`
}

// NewRecord builds the export record of a completed run.
func NewRecord(run *models.AdvisoryRun) (Record, error) {
	if run == nil || run.Record == nil || run.Memo == nil {
		return Record{}, ErrRunIncomplete
	}

	outputs := make(map[string]string, len(run.StageOutputs))
	for _, out := range run.StageOutputs {
		if out.Stage == models.StageMemo {
			continue
		}
		outputs["agent"+string(out.Stage)] = out.Result.String()
	}

	generatedAt := time.Now()
	if run.CompletedAt != nil {
		generatedAt = *run.CompletedAt
	}

	return Record{
		Timestamp:    run.Timestamp,
		CaseInfo:     *run.Record,
		AgentOutputs: outputs,
		FinalAdvice:  run.Memo.Text,
		GeneratedAt:  generatedAt,
	}, nil
}

// PlainText renders the advisory note as a downloadable text file.
func (r Record) PlainText() string {
	divider := strings.Repeat("=", 80)
	return fmt.Sprintf(`JURIDISCH ADVIES
%s
Gegenereerd op: %s
Dossier: %s vs %s
%s

%s
`,
		divider,
		r.GeneratedAt.Format("02/01/2006 15:04"),
		r.CaseInfo.ClientName, r.CaseInfo.CounterpartyName,
		divider,
		r.FinalAdvice)
}

// JSON renders the complete analysis, indented and with the Dutch text
// kept as-is rather than HTML-escaped.
func (r Record) JSON() ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(r); err != nil {
		return nil, fmt.Errorf("failed to encode export record: %w", err)
	}
	return buf.Bytes(), nil
}

// TextFilename is the download name of the plain-text advisory note.
func (r Record) TextFilename() string {
	return fmt.Sprintf("juridisch_advies_%s.txt", r.Timestamp)
}

// JSONFilename is the download name of the complete analysis.
func (r Record) JSONFilename() string {
	return fmt.Sprintf("complete_analyse_%s.json", r.Timestamp)
}
