package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"juridisch-advies-backend/generative"
	"juridisch-advies-backend/logger"
	"juridisch-advies-backend/models"
)

const extractSystemPrompt = `Je bent een juridisch assistent die casusinformatie uit documenten haalt. Je antwoordt uitsluitend met één JSON-object, zonder toelichting eromheen.`

// recognizedFields are the only keys the extractor may return.
var recognizedFields = []string{
	models.FieldClientName,
	models.FieldCounterpartyName,
	models.FieldSituationSummary,
	models.FieldClientObjective,
	models.FieldClaims,
	models.FieldFacts,
	models.FieldEvidence,
}

// Extractor derives case field defaults from ingested document text.
// Its output only fills form fields the lawyer left empty; it is never
// the sole source of truth.
type Extractor struct {
	gen generative.Service
	log logger.Logger
}

// NewExtractor builds an extractor on the given generative backend.
func NewExtractor(gen generative.Service, log logger.Logger) *Extractor {
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	return &Extractor{gen: gen, log: log}
}

// Extract asks the model for the seven case fields as JSON. It never
// fails: any call or parse problem yields an empty mapping and the run
// continues without defaults.
func (e *Extractor) Extract(ctx context.Context, blob models.IngestionBlob) models.CaseDefaults {
	if blob.Empty() {
		return models.CaseDefaults{}
	}

	res := e.gen.Complete(ctx, generative.CompletionRequest{
		System: extractSystemPrompt,
		User:   extractPrompt(blob.Text()),
		Model:  generative.ModelLite,
	})
	if !res.Ok() {
		e.log.Warn("field extraction call failed", map[string]interface{}{"reason": res.Reason})
		return models.CaseDefaults{}
	}

	fields := parseFields(res.Text)
	e.log.Info("field extraction completed", map[string]interface{}{"fields": len(fields)})
	return fields
}

func extractPrompt(documentText string) string {
	return fmt.Sprintf(`Analyseer de onderstaande documentinhoud en vul de casusvelden in.

Geef een JSON-object terug met exact deze zeven sleutels:
- "client_naam": naam van de cliënt
- "tegenpartij_naam": naam van de tegenpartij
- "situatie_samenvatting": beknopte samenvatting van het geschil
- "doel_client": wat de cliënt wil bereiken
- "vorderingen": vorderingen van de tegenpartij, één per regel
- "feitenrelaas": chronologisch overzicht van de relevante feiten
- "bewijsstukken": beschikbare bewijsstukken, één per regel

Gebruik een lege string ("") voor velden die niet uit de documenten blijken.

DOCUMENTINHOUD:
%s`, documentText)
}

// parseFields takes the greedy brace span of the answer, from the first
// "{" to the last "}", and parses it as JSON. Anything that does not
// parse yields an empty mapping.
func parseFields(text string) models.CaseDefaults {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return models.CaseDefaults{}
	}

	var raw map[string]interface{}
	if err := json.Unmarshal([]byte(text[start:end+1]), &raw); err != nil {
		return models.CaseDefaults{}
	}

	fields := models.CaseDefaults{}
	for _, key := range recognizedFields {
		if v, ok := raw[key]; ok {
			if s := coerceString(v); s != "" {
				fields[key] = s
			}
		}
	}
	return fields
}

// coerceString flattens the value shapes models actually return: plain
// strings, arrays of strings, or the odd number.
func coerceString(v interface{}) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case []interface{}:
		var parts []string
		for _, item := range t {
			if s := coerceString(item); s != "" {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, "\n")
	case nil:
		return ""
	default:
		return strings.TrimSpace(fmt.Sprint(t))
	}
}
