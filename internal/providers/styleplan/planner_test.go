package styleplan

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

type fakeCaptioner struct {
	text string
	err  error
}

func (f *fakeCaptioner) GenerateText(ctx context.Context, req TextRequest) (string, error) {
	return f.text, f.err
}

func TestStaticPlanReturnsRequestedCount(t *testing.T) {
	planner := NewStaticPlanner()
	for _, count := range []int{1, 4, 6, 8} {
		plan, err := planner.Plan(context.Background(), "", count)
		if err != nil {
			t.Fatalf("Plan(%d): %v", count, err)
		}
		if len(plan) != count {
			t.Fatalf("Plan(%d) returned %d styles", count, len(plan))
		}
		for _, style := range plan {
			if style.Name == "" || style.Instruction == "" {
				t.Fatalf("empty style in plan: %+v", style)
			}
		}
	}
}

func TestCaptionPlanParsesResponse(t *testing.T) {
	captioner := &fakeCaptioner{text: "golden hour | Warm sunset tones.\nink sketch | Loose pen and ink drawing.\nmosaic | Tiled glass mosaic look."}
	planner := NewCaptionPlanner(captioner, zerolog.New(io.Discard))

	plan, err := planner.Plan(context.Background(), "https://cdn/in.png", 3)
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	if len(plan) != 3 {
		t.Fatalf("unexpected plan size: %d", len(plan))
	}
	if plan[0].Name != "Golden Hour" {
		t.Fatalf("unexpected name: %q", plan[0].Name)
	}
	if plan[1].Instruction != "Loose pen and ink drawing." {
		t.Fatalf("unexpected instruction: %q", plan[1].Instruction)
	}
}

func TestCaptionPlanStripsListMarkers(t *testing.T) {
	captioner := &fakeCaptioner{text: "1. noir | Dark shadows.\n- pop art | Bold colors.\n• sepia | Old photograph."}
	planner := NewCaptionPlanner(captioner, zerolog.New(io.Discard))

	plan, err := planner.Plan(context.Background(), "https://cdn/in.png", 3)
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	for _, style := range plan {
		if strings.ContainsAny(style.Name[:1], "-*•>0123456789") {
			t.Fatalf("label still carries a marker: %q", style.Name)
		}
	}
	if plan[0].Name != "Noir" || plan[1].Name != "Pop Art" || plan[2].Name != "Sepia" {
		t.Fatalf("unexpected labels: %+v", plan)
	}
}

func TestCaptionPlanFallsBackOnCallFailure(t *testing.T) {
	captioner := &fakeCaptioner{err: errors.New("backend down")}
	planner := NewCaptionPlanner(captioner, zerolog.New(io.Discard))

	plan, err := planner.Plan(context.Background(), "https://cdn/in.png", 4)
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	if len(plan) != 4 {
		t.Fatalf("fallback plan size: %d", len(plan))
	}
}

func TestCaptionPlanFallsBackOnShortParse(t *testing.T) {
	captioner := &fakeCaptioner{text: "only one | Single style."}
	planner := NewCaptionPlanner(captioner, zerolog.New(io.Discard))

	plan, err := planner.Plan(context.Background(), "https://cdn/in.png", 4)
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	if len(plan) != 4 {
		t.Fatalf("fallback plan size: %d", len(plan))
	}
	if plan[0].Name != curatedStyles[0].Name {
		t.Fatalf("expected static fallback, got %+v", plan[0])
	}
}
