package export

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"juridisch-advies-backend/generative"
	"juridisch-advies-backend/models"
)

func completedRun(t *testing.T) *models.AdvisoryRun {
	t.Helper()
	rec, err := models.NewCaseRecord(models.ExampleCase(), nil, "")
	require.NoError(t, err)

	completedAt := time.Date(2026, 8, 23, 14, 30, 0, 0, time.UTC)
	return &models.AdvisoryRun{
		Record: &rec,
		StageOutputs: []models.StageOutput{
			{Stage: models.StageProClient, Result: generative.OK("analyse een")},
			{Stage: models.StageRisks, Result: generative.OK("analyse twee")},
			{Stage: models.StageProcedural, Result: generative.Fail("Geen response ontvangen")},
			{Stage: models.StageIntegration, Result: generative.OK("analyse vier")},
			{Stage: models.StageMemo, Result: generative.OK("definitief advies")},
		},
		Memo:        &models.AdviceMemo{Text: "definitief advies", AsOfDate: "23/08/2026"},
		Timestamp:   "20260823_143000",
		CompletedAt: &completedAt,
	}
}

func TestNewRecord_RequiresCompletedRun(t *testing.T) {
	tests := []struct {
		name string
		run  *models.AdvisoryRun
	}{
		{name: "nil run", run: nil},
		{name: "no case record", run: &models.AdvisoryRun{Memo: &models.AdviceMemo{Text: "advies"}}},
		{name: "no memo", run: &models.AdvisoryRun{Record: &models.CaseRecord{}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewRecord(tt.run)
			assert.ErrorIs(t, err, ErrRunIncomplete)
		})
	}
}

func TestNewRecord_CollectsAgentOutputs(t *testing.T) {
	rec, err := NewRecord(completedRun(t))
	require.NoError(t, err)

	assert.Equal(t, map[string]string{
		"agent1": "analyse een",
		"agent2": "analyse twee",
		"agent3": "ERROR: Geen response ontvangen",
		"agent4": "analyse vier",
	}, rec.AgentOutputs)
	assert.Equal(t, "definitief advies", rec.FinalAdvice)
	assert.Equal(t, "20260823_143000", rec.Timestamp)
	assert.Equal(t, time.Date(2026, 8, 23, 14, 30, 0, 0, time.UTC), rec.GeneratedAt)
}

func TestNewRecord_TimestampsWhenCompletionUnknown(t *testing.T) {
	run := completedRun(t)
	run.CompletedAt = nil

	rec, err := NewRecord(run)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now(), rec.GeneratedAt, 5*time.Second)
}

func TestPlainText_Layout(t *testing.T) {
	rec := Record{
		CaseInfo: models.CaseRecord{
			ClientName:       "Jan Peeters",
			CounterpartyName: "BelgoBouw NV",
		},
		FinalAdvice: "Het advies luidt als volgt.",
		GeneratedAt: time.Date(2026, 8, 23, 14, 30, 0, 0, time.UTC),
	}

	divider := strings.Repeat("=", 80)
	want := "JURIDISCH ADVIES\n" +
		divider + "\n" +
		"Gegenereerd op: 23/08/2026 14:30\n" +
		"Dossier: Jan Peeters vs BelgoBouw NV\n" +
		divider + "\n\n" +
		"Het advies luidt als volgt.\n"
	assert.Equal(t, want, rec.PlainText())
}

func TestJSON_KeysAndEscaping(t *testing.T) {
	rec, err := NewRecord(completedRun(t))
	require.NoError(t, err)
	rec.FinalAdvice = "zie <bijlage> & verder"

	data, err := rec.JSON()
	require.NoError(t, err)

	var decoded map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Contains(t, decoded, "timestamp")
	assert.Contains(t, decoded, "casus_info")
	assert.Contains(t, decoded, "agent_outputs")
	assert.Contains(t, decoded, "final_advice")
	assert.NotContains(t, decoded, "GeneratedAt")

	var caseInfo map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(decoded["casus_info"], &caseInfo))
	assert.Contains(t, caseInfo, "client_naam")
	assert.Contains(t, caseInfo, "vorderingen")

	// Dutch text stays readable, no HTML escaping
	assert.Contains(t, string(data), "zie <bijlage> & verder")
}

func TestDownloadFilenames(t *testing.T) {
	rec := Record{Timestamp: "20260823_143000"}
	assert.Equal(t, "juridisch_advies_20260823_143000.txt", rec.TextFilename())
	assert.Equal(t, "complete_analyse_20260823_143000.json", rec.JSONFilename())
}
