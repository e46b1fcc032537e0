package models

import (
	"bufio"
	"fmt"
	"strconv"
	"strings"
)

// Delimiters wrapping each unit inside the merged ingestion text. The
// format is stable so previews can split the blob back into segments.
const (
	unitHeaderPrefix = "=== DOCUMENT: "
	unitHeaderSuffix = " ==="
	unitFooter       = "=== EINDE DOCUMENT ==="
	pageMarker       = " (pagina "
)

// VisualSectionLabel introduces the visual description inside a rendered
// unit, below the extracted text.
const VisualSectionLabel = "[Visuele beschrijving]"

// ExtractedUnit is the result of extracting one image or one page of a
// paginated document. A failed unit keeps its slot in the blob with the
// failure reason rendered in place of content.
type ExtractedUnit struct {
	SourceName        string `json:"source_name"`
	PageNumber        int    `json:"page_number,omitempty"`
	RawText           string `json:"raw_text,omitempty"`
	VisualDescription string `json:"visual_description,omitempty"`
	Failed            bool   `json:"failed,omitempty"`
	FailureReason     string `json:"failure_reason,omitempty"`
}

// Heading renders the unit's delimiter heading, with the 1-based page
// number for paginated sources.
func (u ExtractedUnit) Heading() string {
	if u.PageNumber > 0 {
		return fmt.Sprintf("%s%s%d)", u.SourceName, pageMarker, u.PageNumber)
	}
	return u.SourceName
}

// Content renders the unit body: extracted text, the visual description
// when present, or a visible error marker when extraction failed.
func (u ExtractedUnit) Content() string {
	if u.Failed {
		return "ERROR: " + u.FailureReason
	}
	if u.VisualDescription != "" {
		if u.RawText == "" {
			return VisualSectionLabel + "\n" + u.VisualDescription
		}
		return u.RawText + "\n\n" + VisualSectionLabel + "\n" + u.VisualDescription
	}
	return u.RawText
}

// IngestionBlob is the ordered set of extracted units from one upload
// batch. Units appear in upload order, pages in ascending order.
type IngestionBlob struct {
	Units []ExtractedUnit `json:"units"`
}

// Empty reports whether the blob contains no units at all.
func (b IngestionBlob) Empty() bool {
	return len(b.Units) == 0
}

// Text merges all units into one delimiter-wrapped text block.
func (b IngestionBlob) Text() string {
	blocks := make([]string, 0, len(b.Units))
	for _, u := range b.Units {
		blocks = append(blocks, unitHeaderPrefix+u.Heading()+unitHeaderSuffix+"\n"+u.Content()+"\n"+unitFooter)
	}
	return strings.Join(blocks, "\n\n")
}

// Summary condenses the blob into per-unit outcomes for run records.
func (b IngestionBlob) Summary() IngestionSummary {
	sum := IngestionSummary{TotalUnits: len(b.Units)}
	for _, u := range b.Units {
		outcome := UnitOutcome{SourceName: u.SourceName, PageNumber: u.PageNumber, Status: "ok"}
		if u.Failed {
			outcome.Status = "failed"
			outcome.Reason = u.FailureReason
			sum.FailedUnits++
		}
		sum.Units = append(sum.Units, outcome)
	}
	return sum
}

// UnitOutcome records how a single unit fared during ingestion.
type UnitOutcome struct {
	SourceName string `json:"source_name"`
	PageNumber int    `json:"page_number,omitempty"`
	Status     string `json:"status"`
	Reason     string `json:"reason,omitempty"`
}

// IngestionSummary aggregates unit outcomes for one upload batch.
type IngestionSummary struct {
	TotalUnits  int           `json:"total_units"`
	FailedUnits int           `json:"failed_units"`
	Units       []UnitOutcome `json:"units,omitempty"`
}

// BlobSegment is one parsed segment of a merged blob.
type BlobSegment struct {
	SourceName string
	PageNumber int
	Content    string
}

// ParseSegments splits a merged blob back into its per-unit segments.
// Text outside delimiter pairs is ignored.
func ParseSegments(text string) []BlobSegment {
	var segments []BlobSegment
	var current *BlobSegment
	var body []string

	scanner := bufio.NewScanner(strings.NewReader(text))
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case current == nil && strings.HasPrefix(line, unitHeaderPrefix) && strings.HasSuffix(line, unitHeaderSuffix):
			heading := strings.TrimSuffix(strings.TrimPrefix(line, unitHeaderPrefix), unitHeaderSuffix)
			name, page := parseHeading(heading)
			current = &BlobSegment{SourceName: name, PageNumber: page}
			body = body[:0]
		case current != nil && line == unitFooter:
			current.Content = strings.Join(body, "\n")
			segments = append(segments, *current)
			current = nil
		case current != nil:
			body = append(body, line)
		}
	}
	return segments
}

func parseHeading(heading string) (string, int) {
	idx := strings.LastIndex(heading, pageMarker)
	if idx < 0 || !strings.HasSuffix(heading, ")") {
		return heading, 0
	}
	page, err := strconv.Atoi(heading[idx+len(pageMarker) : len(heading)-1])
	if err != nil || page < 1 {
		return heading, 0
	}
	return heading[:idx], page
}
