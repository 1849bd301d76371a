package studio

import (
	"encoding/json"
	"sync"

	"github.com/invopop/jsonschema"
)

type Camera struct {
	Angle       string `json:"angle" jsonschema_description:"Camera angle, e.g. low angle, over the shoulder"`
	Movement    string `json:"movement" jsonschema_description:"Camera movement, e.g. slow dolly in, static"`
	LensEffects string `json:"lens_effects" jsonschema_description:"Lens and optical effects, e.g. shallow depth of field"`
}

type ShotStyle struct {
	VisualStyle  string `json:"visual_style"`
	Mood         string `json:"mood"`
	Lighting     string `json:"lighting"`
	ColorPalette string `json:"color_palette"`
}

type Audio struct {
	Ambience string   `json:"ambience"`
	SFX      []string `json:"sfx"`
	Music    string   `json:"music"`
}

// StoryboardShot is one scene of a JSON storyboard.
type StoryboardShot struct {
	ShotNumber        int       `json:"shot_number" jsonschema_description:"1-based position of the scene"`
	SceneDescription  string    `json:"scene_description"`
	SuggestedDuration string    `json:"suggested_duration" jsonschema_description:"Suggested clip length, e.g. 4s"`
	Subject           string    `json:"subject"`
	Action            string    `json:"action"`
	Scene             string    `json:"scene" jsonschema_description:"Setting and environment"`
	Camera            Camera    `json:"camera"`
	Style             ShotStyle `json:"style"`
	Audio             Audio     `json:"audio"`
	GenerationPrompt  string    `json:"generation_prompt" jsonschema_description:"Self-contained video generation prompt for this scene"`
}

// LogoSegment is one timed segment of a logo animation.
type LogoSegment struct {
	SegmentNumber    int       `json:"segment_number"`
	SegmentTitle     string    `json:"segment_title"`
	TimeRange        string    `json:"time_range" jsonschema_description:"Start and end, e.g. 0s-2s"`
	Subject          string    `json:"subject"`
	Action           string    `json:"action"`
	Background       string    `json:"background"`
	Camera           Camera    `json:"camera"`
	Style            ShotStyle `json:"style"`
	Audio            Audio     `json:"audio"`
	GenerationPrompt string    `json:"generation_prompt" jsonschema_description:"Self-contained prompt that explicitly references the provided logo image"`
}

// IntroSegment is one timed segment of a channel intro.
type IntroSegment struct {
	SegmentNumber    int       `json:"segment_number"`
	SegmentTitle     string    `json:"segment_title"`
	TimeRange        string    `json:"time_range"`
	Subject          string    `json:"subject"`
	Action           string    `json:"action"`
	OnScreenText     string    `json:"on_screen_text" jsonschema_description:"Text shown on screen, empty if none"`
	Camera           Camera    `json:"camera"`
	Style            ShotStyle `json:"style"`
	Audio            Audio     `json:"audio"`
	GenerationPrompt string    `json:"generation_prompt"`
}

// ExplainerSegment is one timed segment of an explainer video.
type ExplainerSegment struct {
	SegmentNumber    int       `json:"segment_number"`
	SegmentTitle     string    `json:"segment_title"`
	TimeRange        string    `json:"time_range"`
	KeyPoint         string    `json:"key_point" jsonschema_description:"The single idea this segment explains"`
	Narration        string    `json:"narration" jsonschema_description:"Voice-over script for the segment"`
	Visuals          string    `json:"visuals"`
	OnScreenText     string    `json:"on_screen_text"`
	Camera           Camera    `json:"camera"`
	Style            ShotStyle `json:"style"`
	Audio            Audio     `json:"audio"`
	GenerationPrompt string    `json:"generation_prompt"`
}

var (
	schemaMu    sync.Mutex
	schemaCache = map[Recipe]string{}
)

// itemSchema returns the indented JSON schema of one output item for recipe.
func itemSchema(recipe Recipe) string {
	schemaMu.Lock()
	defer schemaMu.Unlock()

	if s, ok := schemaCache[recipe]; ok {
		return s
	}

	var v any
	switch recipe {
	case RecipeLogo:
		v = &LogoSegment{}
	case RecipeIntro:
		v = &IntroSegment{}
	case RecipeExplainer:
		v = &ExplainerSegment{}
	default:
		v = &StoryboardShot{}
	}

	r := &jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}
	data, err := json.MarshalIndent(r.Reflect(v), "", "  ")
	if err != nil {
		// Reflected schemas of plain structs always marshal.
		panic(err)
	}
	schemaCache[recipe] = string(data)
	return schemaCache[recipe]
}
