package ingest

import (
	"context"
	"path/filepath"
	"strings"
	"time"

	"juridisch-advies-backend/generative"
	"juridisch-advies-backend/logger"
	"juridisch-advies-backend/metrics"
	"juridisch-advies-backend/models"
)

// UploadedFile is one file of an ingestion batch, in upload order. Err
// marks a file whose bytes could not be read from storage; it keeps its
// slot in the blob as a failed unit.
type UploadedFile struct {
	Name string
	Data []byte
	Err  error
}

var imageMimeTypes = map[string]string{
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".webp": "image/webp",
}

const ingestSystemPrompt = `Je bent een juridisch documentverwerker. Je leest gescande documenten en foto's nauwkeurig en geeft de inhoud letterlijk en volledig terug.`

// Ingestor turns an upload batch into one merged ingestion blob. One
// failing file or page never aborts the batch: its slot in the blob
// carries a visible error marker instead.
type Ingestor struct {
	gen        generative.Service
	rasterizer Rasterizer
	log        logger.Logger
}

// NewIngestor builds an ingestor. A nil rasterizer disables per-page
// rendering: paginated documents are then submitted whole.
func NewIngestor(gen generative.Service, rasterizer Rasterizer, log logger.Logger) *Ingestor {
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	return &Ingestor{gen: gen, rasterizer: rasterizer, log: log}
}

// Ingest extracts all files in upload order, pages in ascending order,
// and returns them as one blob.
func (in *Ingestor) Ingest(ctx context.Context, files []UploadedFile, describeVisuals bool) models.IngestionBlob {
	var blob models.IngestionBlob
	for _, file := range files {
		start := time.Now()
		units := in.ingestFile(ctx, file, describeVisuals)

		failed := 0
		for _, u := range units {
			status := "ok"
			if u.Failed {
				status = "failed"
				failed++
			}
			metrics.IngestionUnits.WithLabelValues(status).Inc()
		}
		in.log.Info("document ingested", map[string]interface{}{
			"file":    file.Name,
			"units":   len(units),
			"failed":  failed,
			"elapsed": time.Since(start).Seconds(),
		})

		blob.Units = append(blob.Units, units...)
	}
	return blob
}

func (in *Ingestor) ingestFile(ctx context.Context, file UploadedFile, describeVisuals bool) []models.ExtractedUnit {
	if file.Err != nil {
		return []models.ExtractedUnit{{
			SourceName:    file.Name,
			Failed:        true,
			FailureReason: "Bestand niet leesbaar: " + file.Err.Error(),
		}}
	}

	ext := strings.ToLower(filepath.Ext(file.Name))

	if mime, ok := imageMimeTypes[ext]; ok {
		return []models.ExtractedUnit{in.extractUnit(ctx, file.Name, 0, mime, file.Data, describeVisuals)}
	}
	if ext == ".pdf" {
		return in.ingestPaginated(ctx, file, describeVisuals)
	}

	return []models.ExtractedUnit{{
		SourceName:    file.Name,
		Failed:        true,
		FailureReason: "Niet-ondersteund bestandstype: " + ext,
	}}
}

// ingestPaginated rasterizes the document and extracts every page on its
// own. When rasterization is unavailable or the document cannot be
// opened, the whole file goes into a single multimodal call instead.
func (in *Ingestor) ingestPaginated(ctx context.Context, file UploadedFile, describeVisuals bool) []models.ExtractedUnit {
	if in.rasterizer == nil {
		return []models.ExtractedUnit{in.extractUnit(ctx, file.Name, 0, "application/pdf", file.Data, describeVisuals)}
	}

	pages, err := in.rasterizer.Rasterize(file.Data)
	if err != nil {
		in.log.Warn("rasterization failed, submitting whole document", map[string]interface{}{
			"file":  file.Name,
			"error": err.Error(),
		})
		return []models.ExtractedUnit{in.extractUnit(ctx, file.Name, 0, "application/pdf", file.Data, describeVisuals)}
	}

	units := make([]models.ExtractedUnit, 0, len(pages))
	for _, page := range pages {
		if page.Err != nil {
			units = append(units, models.ExtractedUnit{
				SourceName:    file.Name,
				PageNumber:    page.Number,
				Failed:        true,
				FailureReason: page.Err.Error(),
			})
			continue
		}
		units = append(units, in.extractUnit(ctx, file.Name, page.Number, "image/png", page.PNG, describeVisuals))
	}
	return units
}

// extractUnit runs the extraction call for one image, page or whole
// document and splits the answer into its text and visual sections.
func (in *Ingestor) extractUnit(ctx context.Context, source string, page int, mime string, data []byte, describeVisuals bool) models.ExtractedUnit {
	unit := models.ExtractedUnit{SourceName: source, PageNumber: page}

	res := in.gen.DescribeVisual(ctx, generative.VisualRequest{
		Prompt:   unitPrompt(describeVisuals),
		MIMEType: mime,
		Data:     data,
		Model:    generative.ModelLite,
	})
	if !res.Ok() {
		unit.Failed = true
		unit.FailureReason = res.Reason
		return unit
	}

	unit.RawText, unit.VisualDescription = splitSections(res.Text)
	return unit
}

// unitPrompt asks for two delimited sections so that evidentiary photos
// keep their non-textual meaning next to the printed text.
func unitPrompt(describeVisuals bool) string {
	var b strings.Builder
	b.WriteString(ingestSystemPrompt)
	b.WriteString("\n\nAnalyseer dit document of deze afbeelding uit een juridisch dossier.\n\n")
	b.WriteString("TEKST:\nGeef hier alle zichtbare tekst letterlijk weer, inclusief datums, bedragen, namen en handtekeningvermeldingen. Schrijf \"(geen tekst aanwezig)\" als er geen tekst is.\n")
	if describeVisuals {
		b.WriteString("\nVISUEEL:\nBeschrijf hier objectief alle niet-tekstuele visuele inhoud die juridisch relevant kan zijn: schade, voorwerpen, personen, locaties, toestand van goederen. Schrijf \"(geen visuele inhoud)\" als die er niet is.\n")
	}
	b.WriteString("\nGebruik exact deze sectiekoppen.")
	return b.String()
}

// splitSections separates the TEKST and VISUEEL sections of a unit
// response. Without section headers the whole answer counts as text.
func splitSections(text string) (string, string) {
	raw := text
	visual := ""
	if idx := strings.Index(text, "VISUEEL:"); idx >= 0 {
		raw = text[:idx]
		visual = strings.TrimSpace(text[idx+len("VISUEEL:"):])
	}
	raw = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(raw), "TEKST:"))
	return strings.TrimSpace(raw), visual
}
