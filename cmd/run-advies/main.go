package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"juridisch-advies-backend/config"
	"juridisch-advies-backend/export"
	"juridisch-advies-backend/extract"
	"juridisch-advies-backend/generative"
	"juridisch-advies-backend/ingest"
	"juridisch-advies-backend/logger"
	"juridisch-advies-backend/models"
	"juridisch-advies-backend/pipeline"
)

func main() {
	casusPath := flag.String("casus", "", "Pad naar een JSON-bestand met de casusgegevens")
	voorbeeld := flag.Bool("voorbeeld", false, "Gebruik de ingebouwde voorbeeldcasus")
	documenten := flag.String("documenten", "", "Komma-gescheiden lijst van documentbestanden")
	uitvoer := flag.String("uitvoer", ".", "Map waarin de adviesbestanden worden geschreven")
	parallel := flag.Bool("parallel", false, "Voer onafhankelijke analyses gelijktijdig uit")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	appLogger := logger.NewStructured(cfg.Logging.Level, cfg.Logging.Format)

	form, err := loadForm(*casusPath, *voorbeeld)
	if err != nil {
		log.Fatalf("Failed to load case: %v", err)
	}

	// Initialize Gemini client
	ctx := context.Background()
	geminiClient, err := genai.NewClient(ctx, option.WithAPIKey(cfg.Gemini.APIKey))
	if err != nil {
		log.Fatalf("Failed to initialize Gemini: %v", err)
	}
	defer geminiClient.Close()

	gen := generative.NewGeminiService(geminiClient, cfg.Gemini, appLogger)

	// 1. Ingest documents, when given
	var blob models.IngestionBlob
	if *documenten != "" {
		files, err := loadFiles(*documenten)
		if err != nil {
			log.Fatalf("Failed to read documents: %v", err)
		}
		fmt.Println("==> Documenten verwerken")
		ingestor := ingest.NewIngestor(gen, ingest.NewFitzRasterizer(cfg.Ingest.RasterDPI), appLogger)
		blob = ingestor.Ingest(ctx, files, cfg.Ingest.DescribeVisuals)
		summary := blob.Summary()
		fmt.Printf("    %d onderdelen verwerkt, %d mislukt\n", summary.TotalUnits, summary.FailedUnits)
	}

	// 2. Derive form defaults from the extracted content
	defaults := models.CaseDefaults{}
	if !blob.Empty() {
		fmt.Println("==> Casusvelden afleiden")
		defaults = extract.NewExtractor(gen, appLogger).Extract(ctx, blob)
	}

	// 3. Assemble the case record
	rec, err := models.NewCaseRecord(form, defaults, blob.Text())
	if err != nil {
		log.Fatalf("Incomplete case: %v", err)
	}

	// 4. Run the analysis stages
	opts := []pipeline.RunnerOption{
		pipeline.WithStageObserver(func(stage models.StageID, name string) {
			fmt.Printf("==> %s\n", name)
		}),
	}
	if *parallel {
		opts = append(opts, pipeline.WithParallelIndependents())
	}
	runner, err := pipeline.NewRunner(gen, appLogger, opts...)
	if err != nil {
		log.Fatalf("Failed to build pipeline: %v", err)
	}
	outputs := runner.Run(ctx, rec)

	// 5. Compose the final advice memo
	fmt.Println("==> Definitief advies opstellen")
	composer := pipeline.NewComposer(gen, appLogger)
	memo, memoOut := composer.Compose(ctx, rec, outputs, time.Now().Format("02/01/2006"))

	// 6. Write the export files
	now := time.Now()
	run := &models.AdvisoryRun{
		Record:       &rec,
		StageOutputs: append(outputs, memoOut),
		Memo:         &memo,
		Timestamp:    now.Format("20060102_150405"),
		CompletedAt:  &now,
	}
	record, err := export.NewRecord(run)
	if err != nil {
		log.Fatalf("Failed to build export: %v", err)
	}

	if err := os.MkdirAll(*uitvoer, 0o755); err != nil {
		log.Fatalf("Failed to create output directory: %v", err)
	}
	txtPath := filepath.Join(*uitvoer, record.TextFilename())
	if err := os.WriteFile(txtPath, []byte(record.PlainText()), 0o644); err != nil {
		log.Fatalf("Failed to write advice file: %v", err)
	}
	jsonData, err := record.JSON()
	if err != nil {
		log.Fatalf("Failed to encode analysis: %v", err)
	}
	jsonPath := filepath.Join(*uitvoer, record.JSONFilename())
	if err := os.WriteFile(jsonPath, jsonData, 0o644); err != nil {
		log.Fatalf("Failed to write analysis file: %v", err)
	}

	fmt.Printf("\nAdvies geschreven naar %s\n", txtPath)
	fmt.Printf("Volledige analyse geschreven naar %s\n", jsonPath)
}

// loadForm reads the case form from a JSON file, or returns the built-in
// example case.
func loadForm(path string, voorbeeld bool) (models.CaseForm, error) {
	if voorbeeld {
		return models.ExampleCase(), nil
	}
	if path == "" {
		return models.CaseForm{}, fmt.Errorf("geef -casus of -voorbeeld op")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return models.CaseForm{}, err
	}
	var form models.CaseForm
	if err := json.Unmarshal(data, &form); err != nil {
		return models.CaseForm{}, err
	}
	return form, nil
}

// loadFiles reads the listed files from disk in the order given.
func loadFiles(list string) ([]ingest.UploadedFile, error) {
	var files []ingest.UploadedFile
	for _, path := range strings.Split(list, ",") {
		path = strings.TrimSpace(path)
		if path == "" {
			continue
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		files = append(files, ingest.UploadedFile{Name: filepath.Base(path), Data: data})
	}
	return files, nil
}
