package pipeline

import (
	"fmt"
	"strings"

	"juridisch-advies-backend/models"
)

const proClientSystem = `Je bent een ervaren Belgische advocaat die de sterkst mogelijke casus voor de cliënt opbouwt.
Je structureert je analyse volgens 5 pijlers: Narratief, Juridische Interpretatie, Toerekening aan Tegenpartij,
Aanval op Vordering, en Bewijskracht. Je bent grondig maar beknopt.`

func proClientPrompt(rec models.CaseRecord, _ map[models.StageID]string) string {
	return fmt.Sprintf(`Analyseer deze casus en bouw het sterkste pleidooi voor onze cliënt:

CLIËNT: %s (%s)
TEGENPARTIJ: %s (%s)

SITUATIE: %s

DOEL CLIËNT: %s

VORDERINGEN TEGENPARTIJ: %s

FEITEN: %s

BEWIJSSTUKKEN: %s

Structureer je analyse volgens deze 5 pijlers:

1. NARRATIEF & FACTUAL FRAMING
- Presenteer het feitenrelaas vanuit het perspectief van de cliënt
- Contextualiseer ongunstige feiten

2. GUNSTIGE JURIDISCHE INTERPRETATIE
- Selecteer relevante wetsartikelen en rechtspraak
- Interpreteer deze maximaal gunstig voor de cliënt

3. TOEREKENING AAN TEGENPARTIJ
- Identificeer fouten/nalatigheden van de tegenpartij
- Analyseer hun eigen verantwoordelijkheid

4. AANVAL OP DE VORDERING
- Betwist systematisch: fout, schade, causaal verband
- Argumenteer waarom vorderingen ongegrond zijn

5. BEWIJSKRACHTIGE ARGUMENTATIE
- Verwijs naar ondersteunende bewijsstukken
- Wijs op bewijslacunes bij tegenpartij

Wees concreet en verwijs naar Belgisch recht.`,
		rec.ClientName, rec.ClientRole,
		rec.CounterpartyName, rec.CounterpartyRole,
		rec.SituationSummary,
		rec.ClientObjective,
		strings.Join(rec.Claims, ", "),
		rec.Facts,
		strings.Join(rec.Evidence, ", "))
}

const risksSystem = `Je bent de beste advocaat van de tegenpartij. Je identificeert genadeloos alle zwaktes
in de positie van onze cliënt en alle risico's. Je denkt als een tegenstander die wil winnen.`

func risksPrompt(rec models.CaseRecord, excerpts map[models.StageID]string) string {
	return fmt.Sprintf(`Analyseer deze casus TEGEN onze cliënt. Je hebt ook de analyse van Agent 1 gezien:

CASUS INFO:
Cliënt: %s (%s)
Tegenpartij: %s (%s)
Situatie: %s
Vorderingen: %s

AGENT 1 ANALYSE (pro-cliënt):
%s...

Structureer je tegenanalyse volgens deze 5 pijlers:

1. STERKST MOGELIJKE TEGENARGUMENT
- Formuleer het meest overtuigende argument voor de tegenpartij
- Gebruik de gunstigste interpretatie van feiten en recht voor hen

2. IDENTIFICATIE VAN ONZE ZWAKTES
- Welke feiten zijn objectief ongunstig?
- Welke acties zijn moeilijk te verdedigen?
- Welke juridische argumenten zijn wankel?

3. ANALYSE VAN BEWIJSRISICO'S
- Welk bewijs missen we?
- Welke bewijsstukken van tegenpartij zijn schadelijk?
- Kunnen we aan de bewijslast voldoen?

4. WORST-CASE SCENARIO
- Maximale financiële blootstelling?
- Niet-financiële risico's?
- Precedentwerking?

5. ANTICIPATIE OP ONS VERWEER
- Hoe zal tegenpartij onze argumenten weerleggen?
- Welke tegenargumenten zijn het sterkst?

Wees meedogenloos kritisch.`,
		rec.ClientName, rec.ClientRole,
		rec.CounterpartyName, rec.CounterpartyRole,
		rec.SituationSummary,
		strings.Join(rec.Claims, ", "),
		excerpts[models.StageProClient])
}

const proceduralSystem = `Je bent een expert in Belgisch procesrecht. Je focust uitsluitend op procedurele,
formele en contractuele argumenten die de vordering kunnen doen falen zonder inhoudelijke behandeling.`

func proceduralPrompt(rec models.CaseRecord, _ map[models.StageID]string) string {
	return fmt.Sprintf(`Analyseer procedurele knock-out mogelijkheden voor deze casus:

PARTIJEN: %s vs %s
VORDERINGEN: %s
FEITEN: %s
BEWIJSSTUKKEN: %s

Analyseer systematisch:

1. VERJARING & VERVALTERMIJNEN
- Identificeer toepasselijke termijnen (wettelijk/contractueel)
- Bepaal startdata (gunstig vs conservatief)
- Analyseer stuiting/schorsing

2. KLACHTPLICHT & MELDINGSTERMIJNEN
- Is er een klachtplicht?
- Tijdig geklaagd?
- Correcte wijze en inhoud?

3. CONTRACTUELE ANALYSE
- Exoneratiebedingen
- Garantieclausules
- Boetebedingen
- Forum-/rechtskeuzebedingen
- Finale kwijting
- Pre-processuele vereisten

4. FORMELE VEREISTEN
- Ingebrekestelling correct?
- Alle voorwaarden vervuld?

5. BEVOEGDHEID & ONTVANKELIJKHEID
- Materiële/territoriale bevoegdheid
- Belang en hoedanigheid

Voor elk punt: geef potentie aan (HOOG/GEMIDDELD/LAAG) met juridische basis.`,
		rec.ClientName, rec.CounterpartyName,
		strings.Join(rec.Claims, ", "),
		rec.Facts,
		strings.Join(rec.Evidence, ", "))
}

const integrationSystem = `Je bent de senior partner die alle analyses integreert tot een coherent strategisch advies.
Je weegt de pro's (Agent 1), contra's (Agent 2) en procedurele aspecten (Agent 3) om tot een
evenwichtige kansinschatting en optimale strategie te komen.`

func integrationPrompt(rec models.CaseRecord, excerpts map[models.StageID]string) string {
	return fmt.Sprintf(`Integreer de analyses van alle agenten tot een coherente strategie:

CASUS: %s vs %s
DOEL: %s

AGENT 1 (Pro-cliënt):
%s...

AGENT 2 (Risico's):
%s...

AGENT 3 (Procedureel):
%s...

SYNTHESISEER:

1. WEGING VAN ARGUMENTEN
- Welke argumenten van Agent 1 zijn het sterkst?
- Welke risico's van Agent 2 zijn reëel?
- Welke procedurele punten van Agent 3 zijn kansrijk?

2. KANSINSCHATTING
- Geef een percentage of kwalitatieve inschatting
- Motiveer deze inschatting
- Identificeer het hoofdrisico

3. STRATEGISCHE AANBEVELING
- Formuleer de optimale strategie
- Prioriteer de stappen
- Geef concrete acties

Wees evenwichtig en realistisch in je beoordeling.`,
		rec.ClientName, rec.CounterpartyName,
		rec.ClientObjective,
		excerpts[models.StageProClient],
		excerpts[models.StageRisks],
		excerpts[models.StageProcedural])
}
