package generative

import "context"

// ModelClass selects which configured model a call runs on.
type ModelClass string

const (
	ModelLite     ModelClass = "lite"
	ModelAdvanced ModelClass = "advanced"
)

// Result is the outcome of a single generative call. Calls never surface
// as Go errors: a failure is carried in the result itself so callers can
// decide whether to embed the failure marker or drop the output.
type Result struct {
	Text   string `json:"text"`
	Reason string `json:"reason,omitempty"`
	Failed bool   `json:"failed"`
}

// OK wraps a successful completion.
func OK(text string) Result {
	return Result{Text: text}
}

// Fail wraps a failed call with the reason it failed.
func Fail(reason string) Result {
	return Result{Reason: reason, Failed: true}
}

// Ok reports whether the call produced usable text.
func (r Result) Ok() bool {
	return !r.Failed
}

// String renders the result the way it appears inside documents: the
// text itself, or an inline failure marker.
func (r Result) String() string {
	if r.Failed {
		return "ERROR: " + r.Reason
	}
	return r.Text
}

// CompletionRequest is a plain text generation request.
type CompletionRequest struct {
	System string
	User   string
	Model  ModelClass
}

// VisualRequest is a multimodal request carrying one binary attachment,
// typically a page image or a whole document.
type VisualRequest struct {
	Prompt   string
	MIMEType string
	Data     []byte
	Model    ModelClass
}

// Service is the generative backend used by ingestion, extraction and the
// advisory pipeline.
type Service interface {
	Complete(ctx context.Context, req CompletionRequest) Result
	DescribeVisual(ctx context.Context, req VisualRequest) Result
}
