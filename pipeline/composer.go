package pipeline

import (
	"context"
	"fmt"
	"strings"
	"time"

	"juridisch-advies-backend/generative"
	"juridisch-advies-backend/logger"
	"juridisch-advies-backend/metrics"
	"juridisch-advies-backend/models"
)

// SubjectExcerptChars bounds the situation excerpt on the memo's
// BETREFT line.
const SubjectExcerptChars = 80

const memoStageName = "Advies Generator"

const composerSystem = `Je bent een senior juridisch adviseur die een professionele adviesnota opstelt voor een Belgische juridische context.
Je moet EXACT de gegeven template volgen, inclusief alle asterisken (*) voor bullet points en formatting.
Integreer de analyses van alle agents in de juiste secties volgens de template instructies.
Wees uitgebreid en concreet in je uitwerking.`

// Composer turns the four stage outputs into the final advisory note.
// One call per run, no retries, no structural validation of the answer.
type Composer struct {
	gen    generative.Service
	policy FailurePolicy
	log    logger.Logger
}

// ComposerOption configures a Composer.
type ComposerOption func(*Composer)

// ComposerWithFailurePolicy sets how failed stage outputs appear in the
// memo prompt.
func ComposerWithFailurePolicy(policy FailurePolicy) ComposerOption {
	return func(c *Composer) {
		c.policy = policy
	}
}

// NewComposer builds a composer on the given generative backend.
func NewComposer(gen generative.Service, log logger.Logger, opts ...ComposerOption) *Composer {
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	c := &Composer{gen: gen, log: log}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Compose fills the advisory note template from the case record and the
// four analysis outputs, each cut to its excerpt cap. It returns the
// memo plus the underlying call recorded as the synthesis stage output.
func (c *Composer) Compose(ctx context.Context, rec models.CaseRecord, outputs []models.StageOutput, asOfDate string) (models.AdviceMemo, models.StageOutput) {
	excerpts := make(map[models.StageID]string, len(outputs))
	for _, out := range outputs {
		excerpts[out.Stage] = excerptText(out, SynthesisExcerptChars, c.policy)
	}

	start := time.Now()
	res := c.gen.Complete(ctx, generative.CompletionRequest{
		System: composerSystem,
		User:   composerPrompt(rec, excerpts, asOfDate),
		Model:  generative.ModelAdvanced,
	})
	elapsed := time.Since(start)
	metrics.StageDuration.WithLabelValues(string(models.StageMemo)).Observe(elapsed.Seconds())

	if res.Ok() {
		c.log.Info("advisory note composed", map[string]interface{}{"elapsed": elapsed.Seconds()})
	} else {
		c.log.Warn("advisory note composition failed", map[string]interface{}{"reason": res.Reason})
	}

	memo := models.AdviceMemo{
		Text:           res.String(),
		AsOfDate:       asOfDate,
		ElapsedSeconds: elapsed.Seconds(),
	}
	stageOut := models.StageOutput{
		Stage:          models.StageMemo,
		Name:           memoStageName,
		Result:         res,
		ElapsedSeconds: elapsed.Seconds(),
	}
	return memo, stageOut
}

func composerPrompt(rec models.CaseRecord, excerpts map[models.StageID]string, asOfDate string) string {
	return fmt.Sprintf(`Genereer een juridisch advies EXACT volgens deze template. Gebruik de analyses van de agents om de template in te vullen:

CASUS INFO:
- Cliënt: %s (%s)
- Tegenpartij: %s (%s)
- Situatie: %s
- Doel: %s
- Vorderingen: %s

AGENT ANALYSES (gebruik deze info om de template in te vullen):
Agent 1 (Pro-cliënt argumenten): %s
Agent 2 (Risico's): %s
Agent 3 (Procedurele kansen): %s
Agent 4 (Synthese): %s

VEREISTE OUTPUT (volg EXACT deze template):

**DEEL B: CONCEPT ADVIESNOTA / STRATEGISCH MEMO**
==================================================

**AAN:** Behandelend Advocaat
**VAN:** AI Sparringpartner
**DOSSIER:** %s
**DATUM:** %s
**BETREFT:** Analyse rechtspositie en strategische opties inzake %s...

### 1. KERN VAN DE ZAAK EN ADVIESVRAAG
*   **Conflict:** [Zeer korte samenvatting van het geschil tussen %s en %s]
*   **Adviesvraag:** Wat is de juridische sterkte van onze positie en welke strategische stappen zijn aan te bevelen om het doel van de cliënt te bereiken?

### 2. SAMENVATTING RELEVANTE FEITEN
[Presenteer een beknopte, objectieve en chronologische samenvatting van de juridisch relevante feiten uit de casus]

### 3. JURIDISCHE ANALYSE

**3.1. Toepasselijk Kader**
*   **Rechtsregels:** [Lijst relevante Belgische wetsartikelen zoals art. 1641 oud BW voor verborgen gebreken, art. 1382 oud BW voor aansprakelijkheid, etc.]
*   **Relevante Jurisprudentie:** [Vermeld 1-2 relevante Cassatie-arresten met datum en nummer]

**3.2. Analyse Sterktes en Zwaktes (Debat samengevat)**
*   **Procedurele Kansen (Knock-outs):**
    *   [Gebruik info van Agent 3 - formuleer belangrijkste procedurele verweren]
*   **Inhoudelijke Argumenten pro Cliënt (Onze Case):**
    *   [Gebruik info van Agent 1 - eerste sterke punt]
    *   [Gebruik info van Agent 1 - tweede sterke punt]
*   **Inhoudelijke Tegenargumenten & Risico's (Case van de Tegenpartij):**
    *   [Gebruik info van Agent 2 - sterkste tegenargument]
    *   [Gebruik info van Agent 2 - belangrijkste risico]

**3.3. Analyse Bewijspositie Tegenpartij (Gaten en Kansen)**
*   **Bewijslast Tegenpartij:** De tegenpartij draagt de bewijslast voor [specificeer exact welke stellingen zij moeten bewijzen]
*   **Geïdentificeerde Bewijsgaten:** Op basis van de nu beschikbare stukken, ontbreekt er bewijs voor de volgende cruciale stellingen van de tegenpartij:
    *   Stelling 1: "[Specifieke bewering]". **Ontbrekend bewijs:** [Wat ontbreekt]
    *   Stelling 2: "[Andere bewering]". **Ontbrekend bewijs:** [Wat ontbreekt]
*   **Strategisch Informatieverzoek:** Het is aan te bevelen de tegenpartij te verzoeken de volgende stukken over te leggen:
    1.  [Specifiek document dat hun stelling moet ondersteunen]
    2.  [Ander relevant document]

### 4. GEWOGEN CONCLUSIE EN KANSINSCHATTING
*   **Synthese:** [Geef gewogen oordeel op basis van Agent 4 synthese, integreer procedurele en inhoudelijke aspecten]
*   **Kansinschatting (indicatief):**
    *   Succes in procedure: [Percentage of kwalitatieve inschatting met korte motivering]
    *   Belangrijkste risico: [Identificeer het hoofdrisico voor onze positie]

### 5. STRATEGISCHE OPTIES EN AANBEVELING
**Optie 1: [Geef concrete naam, bv. "Procedureel verweer op basis van klachtplicht"] (Aanbevolen)**
*   **Beschrijving:** [Beschrijf de strategie concreet]
*   **Concrete Stappen:**
    1.  [Eerste concrete stap]
    2.  [Tweede concrete stap]
    3.  [Derde concrete stap]
*   **Voordelen:** [Lijst 2-3 voordelen]

**Optie 2: [Andere strategie, bv. "Inhoudelijk verweer met openheid voor minnelijke regeling"]**
*   **Beschrijving:** [Beschrijf deze alternatieve strategie]
*   **Concrete Stappen:**
    1.  [Eerste stap]
    2.  [Tweede stap]
*   **Voordelen:** [Lijst voordelen]

**Aanbeveling:**
[Motiveer waarom Optie 1 wordt aanbevolen, verwijs naar de sterktes uit de analyse]

BELANGRIJK: Volg deze template EXACT, inclusief de bullet points met asterisken (*), de nummering, en de structuur.`,
		rec.ClientName, rec.ClientRole,
		rec.CounterpartyName, rec.CounterpartyRole,
		rec.SituationSummary,
		rec.ClientObjective,
		strings.Join(rec.Claims, ", "),
		excerpts[models.StageProClient],
		excerpts[models.StageRisks],
		excerpts[models.StageProcedural],
		excerpts[models.StageIntegration],
		rec.ClientName,
		asOfDate,
		Truncate(rec.SituationSummary, SubjectExcerptChars),
		rec.ClientName, rec.CounterpartyName)
}
