package generative

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"

	"juridisch-advies-backend/config"
	"juridisch-advies-backend/logger"
	"juridisch-advies-backend/metrics"
)

// GeminiService implements Service on top of the Gemini API.
type GeminiService struct {
	client *genai.Client
	cfg    config.GeminiConfig
	log    logger.Logger
}

// NewGeminiService wraps an existing Gemini client. The caller owns the
// client and is responsible for closing it.
func NewGeminiService(client *genai.Client, cfg config.GeminiConfig, log logger.Logger) *GeminiService {
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	return &GeminiService{client: client, cfg: cfg, log: log}
}

// Complete sends a single-turn prompt and returns the model text.
func (s *GeminiService) Complete(ctx context.Context, req CompletionRequest) Result {
	if s.client == nil {
		return Fail("gemini client not set")
	}
	name := s.modelName(req.Model)
	model := s.newModel(name)

	fullPrompt := fmt.Sprintf("System: %s\n\nUser: %s", req.System, req.User)
	return s.generate(ctx, name, model, genai.Text(fullPrompt))
}

// DescribeVisual sends a prompt together with one binary attachment.
func (s *GeminiService) DescribeVisual(ctx context.Context, req VisualRequest) Result {
	if s.client == nil {
		return Fail("gemini client not set")
	}
	name := s.modelName(req.Model)
	model := s.newModel(name)

	parts := []genai.Part{
		genai.Text(req.Prompt),
		genai.Blob{MIMEType: req.MIMEType, Data: req.Data},
	}
	return s.generate(ctx, name, model, parts...)
}

func (s *GeminiService) modelName(class ModelClass) string {
	if class == ModelAdvanced {
		return s.cfg.AdvancedModel
	}
	return s.cfg.LiteModel
}

func (s *GeminiService) newModel(name string) *genai.GenerativeModel {
	model := s.client.GenerativeModel(name)
	model.SetTemperature(s.cfg.Temperature)
	model.SetTopP(s.cfg.TopP)
	model.SetTopK(s.cfg.TopK)
	model.SetMaxOutputTokens(s.cfg.MaxOutputTokens)
	model.SafetySettings = []*genai.SafetySetting{
		{Category: genai.HarmCategoryHarassment, Threshold: genai.HarmBlockNone},
		{Category: genai.HarmCategoryHateSpeech, Threshold: genai.HarmBlockNone},
		{Category: genai.HarmCategorySexuallyExplicit, Threshold: genai.HarmBlockNone},
		{Category: genai.HarmCategoryDangerousContent, Threshold: genai.HarmBlockNone},
	}
	return model
}

func (s *GeminiService) generate(ctx context.Context, name string, model *genai.GenerativeModel, parts ...genai.Part) Result {
	resp, err := model.GenerateContent(ctx, parts...)
	if err != nil {
		s.log.Warn("generative call failed", map[string]interface{}{
			"model": name,
			"error": err.Error(),
		})
		metrics.GenerativeCalls.WithLabelValues(name, "failed").Inc()
		return Fail(err.Error())
	}

	text := responseText(resp)
	if text == "" {
		s.log.Warn("generative call returned no content", map[string]interface{}{"model": name})
		metrics.GenerativeCalls.WithLabelValues(name, "failed").Inc()
		return Fail("Geen response ontvangen")
	}

	metrics.GenerativeCalls.WithLabelValues(name, "ok").Inc()
	return OK(text)
}

// responseText joins the text parts of the first candidate.
func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 {
		return ""
	}
	cand := resp.Candidates[0]
	if cand.Content == nil {
		return ""
	}
	var b strings.Builder
	for _, part := range cand.Content.Parts {
		if t, ok := part.(genai.Text); ok {
			b.WriteString(string(t))
		}
	}
	return b.String()
}
