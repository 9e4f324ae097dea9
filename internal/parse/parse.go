// Package parse turns raw multimodal input (text, image, audio) into a
// structured problem record, with deterministic corruption guards ahead of
// the model-backed structuring step. Ambiguous input is surfaced, never
// silently guessed at.
package parse

// #region imports
import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/danielpatrickdp/mathpilot/internal/extract"
	"github.com/danielpatrickdp/mathpilot/internal/llm"
)

// #endregion

// #region collaborators

// Error tokens the extraction collaborators return instead of text.
const (
	ErrTokenOCRMissing = "ERROR_OCR_MISSING"
	ErrTokenOCRFailed  = "ERROR_OCR_FAILED"
	ErrTokenASRMissing = "ERROR_ASR_MISSING"
	ErrTokenASRFailed  = "ERROR_ASR_FAILED"
)

// OCR extracts text from an image file, returning an ERROR_* token on failure.
type OCR interface {
	ExtractText(imagePath string) string
}

// ASR transcribes an audio file, returning an ERROR_* token on failure.
type ASR interface {
	Transcribe(audioPath string) string
}

// #endregion

// #region record

// Problem is the structured parse result.
type Problem struct {
	ProblemText     string `json:"problem_text"`
	InputType       string `json:"input_type"`
	IsAmbiguous     bool   `json:"is_ambiguous"`
	AmbiguityReason string `json:"ambiguity_reason"`

	RawCombined string   `json:"-"`
	Sources     []string `json:"-"`
}

// #endregion

// #region corruption

// Markers that show up in garbage OCR/ASR output.
var corruptionMarkers = []string{
	"&", "~", "Xt", "X1", "?=", "--", "|", "ERROR", "sec8", "tane",
}

// looksCorrupted is a deterministic check for unusable extracted text:
// too short, known artifact markers, or a high non-alphanumeric ratio.
func looksCorrupted(text string) bool {
	if len(text) < 3 {
		return true
	}
	for _, m := range corruptionMarkers {
		if strings.Contains(text, m) {
			return true
		}
	}
	clean := 0
	for _, c := range text {
		if c == ' ' || c == '\t' || c == '\n' ||
			(c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') {
			clean++
		}
	}
	return float64(clean)/float64(len(text)) < 0.5
}

// #endregion

// #region parser

const structurePrompt = `Input: User text (raw).
Task: Convert input into STRICT JSON.
Rules:
1. Extract the core math problem into 'problem_text'.
2. Identify input type ('text', 'latex').
3. Detect ambiguity. If inputs are conflicting or gibberish, set 'is_ambiguous': true.
4. DO NOT solve the problem.
5. DO NOT normalize or paraphrase the problem text.
Output STRICT JSON with keys: 'problem_text', 'input_type', 'is_ambiguous', 'ambiguity_reason'.

Process this raw input into structured JSON:
%s`

// Parser is the input stage.
type Parser struct {
	llm llm.Client
	ocr OCR
	asr ASR
}

// New wires the stage. ocr and asr may be nil when the modality is unused.
func New(client llm.Client, ocr OCR, asr ASR) *Parser {
	return &Parser{llm: client, ocr: ocr, asr: asr}
}

// Run extracts and structures the problem. All failures degrade to an
// ambiguous Problem with a reason; this stage never returns an error.
func (p *Parser) Run(ctx context.Context, text, imagePath, audioPath string) Problem {
	var raws, sources []string

	if imagePath != "" {
		ocrText := ErrTokenOCRMissing
		if p.ocr != nil {
			ocrText = p.ocr.ExtractText(imagePath)
		}
		if looksCorrupted(ocrText) {
			return Problem{
				InputType:       "image",
				IsAmbiguous:     true,
				AmbiguityReason: "OCR output is corrupted or unreadable",
				RawCombined:     "OCR Output: " + ocrText,
				Sources:         []string{"image"},
			}
		}
		raws = append(raws, "OCR Output: "+ocrText)
		sources = append(sources, "image")
	}

	if audioPath != "" {
		asrText := ErrTokenASRMissing
		if p.asr != nil {
			asrText = p.asr.Transcribe(audioPath)
		}
		if looksCorrupted(asrText) {
			return Problem{
				InputType:       "audio",
				IsAmbiguous:     true,
				AmbiguityReason: "Audio transcript is corrupted or unintelligible",
				RawCombined:     "Audio Transcript: " + asrText,
				Sources:         []string{"audio"},
			}
		}
		raws = append(raws, "Audio Transcript: "+asrText)
		sources = append(sources, "audio")
	}

	if text != "" {
		raws = append(raws, "User Text: "+text)
		sources = append(sources, "text")
	}

	if len(raws) == 0 {
		return Problem{
			InputType:       "none",
			IsAmbiguous:     true,
			AmbiguityReason: "No valid input provided",
		}
	}

	combined := strings.Join(raws, "\n")

	raw, err := p.llm.Generate(ctx, fmt.Sprintf(structurePrompt, combined))
	if err != nil {
		return degraded(combined, sources, fmt.Sprintf("parser model call failed: %v", err))
	}

	var prob Problem
	if err := extract.JSON(raw, &prob); err != nil {
		return degraded(combined, sources, fmt.Sprintf("parser output could not be decoded: %v", err))
	}
	if prob.ProblemText == "" && !prob.IsAmbiguous {
		return degraded(combined, sources, "parser returned no problem text")
	}

	// Ambiguity contract: a reason implies the flag; the flag implies a reason.
	if prob.AmbiguityReason != "" {
		prob.IsAmbiguous = true
	} else if prob.IsAmbiguous {
		prob.AmbiguityReason = "Ambiguous input detected (unspecified by parser)"
	}

	prob.RawCombined = combined
	prob.Sources = sources
	log.Printf("[PARSE] sources=%v ambiguous=%v", sources, prob.IsAmbiguous)
	return prob
}

// degraded keeps the raw input visible and flags the record ambiguous so
// the orchestrator halts for a human instead of guessing.
func degraded(combined string, sources []string, reason string) Problem {
	return Problem{
		ProblemText:     combined,
		InputType:       "degraded",
		IsAmbiguous:     true,
		AmbiguityReason: reason,
		RawCombined:     combined,
		Sources:         sources,
	}
}

// #endregion
