package models

import (
	"errors"
	"fmt"
	"strings"
)

// Dutch field keys shared by the intake form, the document extractor and
// the exported case info.
const (
	FieldClientName       = "client_naam"
	FieldClientRole       = "client_rol"
	FieldCounterpartyName = "tegenpartij_naam"
	FieldCounterpartyRole = "tegenpartij_rol"
	FieldSituationSummary = "situatie_samenvatting"
	FieldClientObjective  = "doel_client"
	FieldClaims           = "vorderingen"
	FieldFacts            = "feitenrelaas"
	FieldEvidence         = "bewijsstukken"
)

// Placeholder entries used when the intake leaves a list empty.
const (
	PlaceholderNoClaims   = "Geen vorderingen gespecificeerd"
	PlaceholderNoEvidence = "Geen bewijsstukken gespecificeerd"
)

// DocumentSectionHeader introduces extracted document content appended
// to the facts of a case record.
const DocumentSectionHeader = "--- Geëxtraheerde documentinhoud ---"

var ErrMissingRequiredField = errors.New("required case field missing")

// CaseForm is the raw intake as the lawyer submits it. Empty fields may
// be filled from document extraction before the record is built.
type CaseForm struct {
	ClientName       string   `json:"client_naam"`
	ClientRole       string   `json:"client_rol"`
	CounterpartyName string   `json:"tegenpartij_naam"`
	CounterpartyRole string   `json:"tegenpartij_rol"`
	SituationSummary string   `json:"situatie_samenvatting"`
	ClientObjective  string   `json:"doel_client"`
	Claims           []string `json:"vorderingen"`
	Facts            string   `json:"feitenrelaas"`
	Evidence         []string `json:"bewijsstukken"`
}

// CaseDefaults holds extracted field values keyed by the Dutch field
// names. They only fill form fields the lawyer left empty.
type CaseDefaults map[string]string

// CaseRecord is the validated, fully merged case description every
// pipeline stage reads. Build one with NewCaseRecord and treat it as
// read-only afterwards.
type CaseRecord struct {
	ClientName       string   `json:"client_naam"`
	ClientRole       string   `json:"client_rol"`
	CounterpartyName string   `json:"tegenpartij_naam"`
	CounterpartyRole string   `json:"tegenpartij_rol"`
	SituationSummary string   `json:"situatie_samenvatting"`
	ClientObjective  string   `json:"doel_client"`
	Claims           []string `json:"vorderingen"`
	Facts            string   `json:"feitenrelaas"`
	Evidence         []string `json:"bewijsstukken"`
}

// NewCaseRecord merges the form with extracted defaults, appends the
// extracted document text to the facts and validates the result. Form
// values always win over defaults. The client name, counterparty name
// and situation summary are required; without them no run starts.
func NewCaseRecord(form CaseForm, defaults CaseDefaults, documentText string) (CaseRecord, error) {
	rec := CaseRecord{
		ClientName:       mergeField(form.ClientName, defaults, FieldClientName),
		ClientRole:       mergeField(form.ClientRole, defaults, FieldClientRole),
		CounterpartyName: mergeField(form.CounterpartyName, defaults, FieldCounterpartyName),
		CounterpartyRole: mergeField(form.CounterpartyRole, defaults, FieldCounterpartyRole),
		SituationSummary: mergeField(form.SituationSummary, defaults, FieldSituationSummary),
		ClientObjective:  mergeField(form.ClientObjective, defaults, FieldClientObjective),
		Facts:            mergeField(form.Facts, defaults, FieldFacts),
		Claims:           mergeList(form.Claims, defaults, FieldClaims),
		Evidence:         mergeList(form.Evidence, defaults, FieldEvidence),
	}

	if documentText = strings.TrimSpace(documentText); documentText != "" {
		section := DocumentSectionHeader + "\n" + documentText
		if rec.Facts == "" {
			rec.Facts = section
		} else {
			rec.Facts = rec.Facts + "\n\n" + section
		}
	}

	if len(rec.Claims) == 0 {
		rec.Claims = []string{PlaceholderNoClaims}
	}
	if len(rec.Evidence) == 0 {
		rec.Evidence = []string{PlaceholderNoEvidence}
	}

	for field, value := range map[string]string{
		FieldClientName:       rec.ClientName,
		FieldCounterpartyName: rec.CounterpartyName,
		FieldSituationSummary: rec.SituationSummary,
	} {
		if value == "" {
			return CaseRecord{}, fmt.Errorf("%w: %s", ErrMissingRequiredField, field)
		}
	}

	return rec, nil
}

func mergeField(formValue string, defaults CaseDefaults, key string) string {
	if v := strings.TrimSpace(formValue); v != "" {
		return v
	}
	return strings.TrimSpace(defaults[key])
}

func mergeList(formValues []string, defaults CaseDefaults, key string) []string {
	cleaned := cleanList(formValues)
	if len(cleaned) > 0 {
		return cleaned
	}
	return SplitLines(defaults[key])
}

func cleanList(values []string) []string {
	var out []string
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

// SplitLines turns a one-item-per-line text block into a cleaned list.
func SplitLines(text string) []string {
	return cleanList(strings.Split(text, "\n"))
}

// ExampleCase returns the built-in demo case used by the web form and
// the command line runner.
func ExampleCase() CaseForm {
	return CaseForm{
		ClientName:       "NV TechStart",
		ClientRole:       "Opdrachtnemer/Dienstverlener",
		CounterpartyName: "NV GlobalCorp",
		CounterpartyRole: "Opdrachtgever",
		SituationSummary: "GlobalCorp beëindigde eenzijdig een IT-ontwikkelingscontract met TechStart wegens beweerde wanprestatie. TechStart stelt dat de vertraging te wijten was aan gebrekkige specificaties van GlobalCorp. Er staat €150.000 aan facturen open.",
		ClientObjective:  "Betaling verkrijgen van openstaande facturen en schadevergoeding voor contractbreuk",
		Claims: []string{
			"Terugbetaling voorschotten: €50.000",
			"Schadevergoeding wegens wanprestatie: €200.000",
			"Contractuele boete: €25.000",
		},
		Facts: `Chronologie:
- 01/01/2024: Ondertekening contract voor ontwikkeling ERP-systeem
- 15/03/2024: Eerste milestone opgeleverd conform planning
- 01/05/2024: GlobalCorp wijzigt fundamenteel de specificaties
- 15/06/2024: TechStart meldt vertraging door scopewijziging
- 01/07/2024: GlobalCorp beëindigt contract wegens vertraging
- 15/07/2024: Ingebrekestelling door GlobalCorp`,
		Evidence: []string{
			"Ondertekend contract dd. 01/01/2024",
			"Email correspondentie over scopewijzigingen",
			"Projectdocumentatie en deliverables",
			"Facturen voor verrichte werkzaamheden",
			"Brief contractbeëindiging dd. 01/07/2024",
		},
	}
}
