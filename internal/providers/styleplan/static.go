package styleplan

import "context"

// curatedStyles is the pre-curated product list. The order is deliberate: the
// first entries are the ones shown when fewer styles are requested.
var curatedStyles = []Style{
	{Name: "Noir Film", Instruction: "Restyle the photograph as a high-contrast black and white film noir still with deep shadows and dramatic lighting."},
	{Name: "Watercolor", Instruction: "Repaint the photograph as a soft watercolor illustration with visible paper texture and gentle color bleeding."},
	{Name: "Pop Art", Instruction: "Restyle the photograph as bold pop art with saturated flat colors, thick outlines, and halftone dots."},
	{Name: "Vintage Polaroid", Instruction: "Give the photograph a faded vintage polaroid look with warm tones, light leaks, and a soft vignette."},
	{Name: "Cyberpunk Neon", Instruction: "Restyle the photograph with a cyberpunk palette of neon magenta and cyan, wet reflections, and moody night lighting."},
	{Name: "Studio Portrait", Instruction: "Relight the photograph as a clean studio shot with a seamless backdrop, soft key light, and crisp focus."},
}

// StaticPlanner returns the curated list without inspecting the image.
type StaticPlanner struct{}

// NewStaticPlanner builds the static strategy.
func NewStaticPlanner() *StaticPlanner {
	return &StaticPlanner{}
}

// Plan returns the first count curated styles, cycling when more styles are
// requested than the list holds.
func (p *StaticPlanner) Plan(ctx context.Context, imageURL string, count int) ([]Style, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if count <= 0 {
		count = 1
	}
	plan := make([]Style, count)
	for i := range plan {
		plan[i] = curatedStyles[i%len(curatedStyles)]
	}
	return plan, nil
}

var _ Planner = (*StaticPlanner)(nil)
