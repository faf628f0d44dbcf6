package styleplan

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Captioner is the completion surface the caption strategy needs from the
// generation backend client.
type Captioner interface {
	GenerateText(ctx context.Context, req TextRequest) (string, error)
}

// TextRequest mirrors the backend client's completion request so this package
// does not depend on the transport package directly.
type TextRequest struct {
	Prompt   string
	ImageURL string
}

// CaptionPlanner asks a captioning model to propose styles tailored to the
// source image, falling back to the static plan on any call or parse failure.
type CaptionPlanner struct {
	captioner Captioner
	fallback  Planner
	logger    zerolog.Logger
}

// NewCaptionPlanner wires the captioning strategy with its static fallback.
func NewCaptionPlanner(captioner Captioner, logger zerolog.Logger) *CaptionPlanner {
	return &CaptionPlanner{captioner: captioner, fallback: NewStaticPlanner(), logger: logger}
}

const captionPromptTemplate = `Look at this photograph and propose %d distinct artistic restyling directions for it.
Answer with exactly %d lines, each formatted as:
name | instruction
The name is a short label of at most three words. The instruction is one sentence telling an image editing model how to restyle the photo. No numbering, no bullets, no extra text.`

// Plan proposes count styles for the image. It never fails outright: every
// error path degrades to the static plan.
func (p *CaptionPlanner) Plan(ctx context.Context, imageURL string, count int) ([]Style, error) {
	if count <= 0 {
		count = 1
	}
	if p.captioner == nil || strings.TrimSpace(imageURL) == "" {
		return p.fallback.Plan(ctx, imageURL, count)
	}

	text, err := p.captioner.GenerateText(ctx, TextRequest{
		Prompt:   fmt.Sprintf(captionPromptTemplate, count, count),
		ImageURL: imageURL,
	})
	if err != nil {
		p.logger.Warn().Err(err).Msg("styleplan: captioning call failed, using static plan")
		return p.fallback.Plan(ctx, imageURL, count)
	}

	plan := parsePlan(text, count)
	if len(plan) < count {
		p.logger.Warn().Int("parsed", len(plan)).Int("wanted", count).Msg("styleplan: caption response incomplete, using static plan")
		return p.fallback.Plan(ctx, imageURL, count)
	}
	return plan, nil
}

// parsePlan extracts up to count "name | instruction" lines. Leading bullet
// and number markers are stripped so labels stay renderable as-is.
func parsePlan(text string, count int) []Style {
	titler := cases.Title(language.English)
	var plan []Style
	for _, line := range strings.Split(text, "\n") {
		line = stripMarker(strings.TrimSpace(line))
		if line == "" {
			continue
		}
		name, instruction, ok := strings.Cut(line, "|")
		if !ok {
			continue
		}
		name = strings.TrimSpace(name)
		instruction = strings.TrimSpace(instruction)
		if name == "" || instruction == "" {
			continue
		}
		plan = append(plan, Style{Name: titler.String(strings.ToLower(name)), Instruction: instruction})
		if len(plan) == count {
			break
		}
	}
	return plan
}

func stripMarker(line string) string {
	line = strings.TrimLeft(line, "-*•> \t")
	// drop "1." / "2)" style prefixes
	for i, r := range line {
		if r >= '0' && r <= '9' {
			continue
		}
		if r == '.' || r == ')' {
			return strings.TrimSpace(line[i+1:])
		}
		if i == 0 {
			return line
		}
		return strings.TrimSpace(line)
	}
	return line
}

var _ Planner = (*CaptionPlanner)(nil)
