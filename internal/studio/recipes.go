package studio

import (
	"context"
	"fmt"
	"strings"

	"github.com/tamirka/ainario/internal/gemini"
)

type Recipe string

const (
	RecipeLogo       Recipe = "logo"
	RecipeIntro      Recipe = "intro"
	RecipeStoryboard Recipe = "storyboard"
	RecipeExplainer  Recipe = "explainer"
)

func ParseRecipe(value string) (Recipe, bool) {
	switch Recipe(strings.ToLower(strings.TrimSpace(value))) {
	case RecipeLogo:
		return RecipeLogo, true
	case RecipeIntro, "channel_intro", "channel-intro":
		return RecipeIntro, true
	case RecipeStoryboard:
		return RecipeStoryboard, true
	case RecipeExplainer:
		return RecipeExplainer, true
	}
	return "", false
}

type OutputFormat string

const (
	FormatClassic OutputFormat = "classic"
	FormatJSON    OutputFormat = "json"
)

// ParseFormat maps anything but "json" to the classic block format.
func ParseFormat(value string) OutputFormat {
	if strings.EqualFold(strings.TrimSpace(value), string(FormatJSON)) {
		return FormatJSON
	}
	return FormatClassic
}

// ImageSource yields an encoded image on demand. Encoding happens when a flow needs it.
type ImageSource func(context.Context) (gemini.Image, error)

// Prompt is a ready request: a system instruction plus ordered content parts.
type Prompt struct {
	Instruction string
	Parts       []gemini.Part
}

type LogoInput struct {
	Logo           ImageSource
	AnimationStyle string
	Background     string
	SFX            string
	Tagline        string
	Format         OutputFormat
}

type IntroInput struct {
	ChannelName string
	Topic       string
	VisualStyle string
	Energy      string
	Elements    string
	Format      OutputFormat
}

type StoryboardInput struct {
	Scenes    []string
	Reference ImageSource
	Style     string
	Format    OutputFormat
}

type ExplainerInput struct {
	Topic       string
	KeyPoints   string
	VisualStyle string
	Duration    string
	Audience    string
	CTA         string
}

const (
	classicSegmentRules = `Write each segment as one block that starts with a header line in exactly this form:
--- PROMPT <n>: <segment title> (<start>s-<end>s) ---
Number the blocks from 1. Under the header write a single self-contained video generation prompt covering subject, action, camera, lighting, style and sound.
Write nothing before the first header or after the last block.`

	jsonRules = `Return ONLY a JSON array, with no markdown fences and no commentary. Every element must be an object that follows this JSON schema:
%s`
)

var logoInstructions = map[OutputFormat]string{
	FormatClassic: `You are a senior motion designer writing prompts for an AI video generator.
Turn the provided logo image into a logo reveal animation of about 8 seconds, split into 3 to 4 timed segments.
Every prompt must mention "the provided logo image" and must keep its shapes, colors and lettering unchanged.
` + classicSegmentRules,
	FormatJSON: `You are a senior motion designer writing prompts for an AI video generator.
Turn the provided logo image into a logo reveal animation of about 8 seconds, split into 3 to 4 timed segments.
Every generation_prompt must mention "the provided logo image" and must keep its shapes, colors and lettering unchanged.
` + jsonRules,
}

var introInstructions = map[OutputFormat]string{
	FormatClassic: `You are a creative director for online video channels.
Design a 5 to 8 second channel intro, split into 3 to 4 timed segments, that ends on the channel name.
` + classicSegmentRules,
	FormatJSON: `You are a creative director for online video channels.
Design a 5 to 8 second channel intro, split into 3 to 4 timed segments, that ends on the channel name.
` + jsonRules,
}

var storyboardInstructions = map[OutputFormat]string{
	FormatClassic: `You are a film director and storyboard artist writing prompts for an AI video generator.
You receive a style guide and a numbered list of scenes, some followed by a preview frame.
For every scene write one block that starts with a header line in exactly this form:
--- SCENE <n> ---
Use the scene numbers as given. Under the header describe subject, action, setting, camera angle and movement, lighting, mood, color palette and sound, then end with a single self-contained generation prompt for that scene.
Apply the style guide to every scene so the shots feel like one film, and match the composition of a preview frame when one is attached.
Write nothing before the first header or after the last block.`,
	FormatJSON: `You are a film director and storyboard artist writing prompts for an AI video generator.
You receive a style guide and a numbered list of scenes, some followed by a preview frame.
Produce exactly one element per scene, in order, with shot_number equal to the scene number.
Apply the style guide to every scene so the shots feel like one film, and match the composition of a preview frame when one is attached.
` + jsonRules,
}

const explainerInstruction = `You are a scriptwriter and art director for explainer videos.
Break the explainer into timed segments that fit the requested duration. Each segment explains exactly one key point with narration, visuals and on-screen text, and the last segment delivers the call to action.
` + jsonRules

const styleAnalysisInstruction = `You are a cinematographer. Describe the visual style of the attached reference image as a short comma separated list of keywords: lighting, color palette, texture, lens and mood.
Answer with the keywords only, at most 25 words, no sentences.`

const storyboardFraming = "Create a storyboard master prompt for the scenes below. Keep characters, wardrobe and locations consistent from scene to scene."

func instructionFor(recipe Recipe, format OutputFormat) string {
	var table map[OutputFormat]string
	switch recipe {
	case RecipeLogo:
		table = logoInstructions
	case RecipeIntro:
		table = introInstructions
	case RecipeStoryboard:
		table = storyboardInstructions
	case RecipeExplainer:
		return fmt.Sprintf(explainerInstruction, itemSchema(RecipeExplainer))
	}
	if format == FormatJSON {
		return fmt.Sprintf(table[FormatJSON], itemSchema(recipe))
	}
	return table[FormatClassic]
}

func BuildLogo(in LogoInput, logo gemini.Image) Prompt {
	var b strings.Builder
	b.WriteString("Logo animation brief\n")
	fmt.Fprintf(&b, "- Animation style: %s\n", orDefault(describe(animationStyles, in.AnimationStyle), "designer's choice"))
	fmt.Fprintf(&b, "- Background: %s\n", orDefault(in.Background, "designer's choice, keep the logo readable"))
	fmt.Fprintf(&b, "- Sound effects: %s\n", orDefault(in.SFX, "designer's choice"))
	if tagline := strings.TrimSpace(in.Tagline); tagline != "" {
		fmt.Fprintf(&b, "- Tagline to reveal after the logo: %q\n", tagline)
	} else {
		b.WriteString("- Tagline: none, do not add any text\n")
	}
	b.WriteString("The logo image follows.")

	return Prompt{
		Instruction: instructionFor(RecipeLogo, in.Format),
		Parts: []gemini.Part{
			gemini.TextPart(b.String()),
			gemini.ImagePart(logo),
		},
	}
}

func BuildChannelIntro(in IntroInput) Prompt {
	var b strings.Builder
	b.WriteString("Channel intro brief\n")
	fmt.Fprintf(&b, "- Channel name: %s\n", strings.TrimSpace(in.ChannelName))
	fmt.Fprintf(&b, "- Topic: %s\n", strings.TrimSpace(in.Topic))
	fmt.Fprintf(&b, "- Visual style: %s\n", orDefault(describe(visualStyles, in.VisualStyle), "designer's choice"))
	fmt.Fprintf(&b, "- Energy: %s\n", orDefault(describe(energies, in.Energy), "Balanced"))
	if elements := strings.TrimSpace(in.Elements); elements != "" {
		fmt.Fprintf(&b, "- Elements to include: %s\n", elements)
	}

	return Prompt{
		Instruction: instructionFor(RecipeIntro, in.Format),
		Parts:       []gemini.Part{gemini.TextPart(strings.TrimRight(b.String(), "\n"))},
	}
}

// BuildStoryboard assembles the master synthesis request. images is indexed like
// in.Scenes; blank scenes contribute no parts and scene numbers count only the rest.
func BuildStoryboard(in StoryboardInput, styleGuide string, images []*gemini.Image) Prompt {
	parts := []gemini.Part{
		gemini.TextPart(storyboardFraming),
		gemini.TextPart("STYLE GUIDE (apply to every scene):\n" + styleGuide),
	}

	n := 0
	for i, scene := range in.Scenes {
		scene = strings.TrimSpace(scene)
		if scene == "" {
			continue
		}
		n++
		var img *gemini.Image
		if i < len(images) {
			img = images[i]
		}
		text := fmt.Sprintf("SCENE %d:\n%s", n, scene)
		if img != nil {
			text += "\n(preview frame attached)"
		}
		parts = append(parts, gemini.TextPart(text))
		if img != nil {
			parts = append(parts, gemini.ImagePart(*img))
		}
	}

	return Prompt{
		Instruction: instructionFor(RecipeStoryboard, in.Format),
		Parts:       parts,
	}
}

func BuildExplainer(in ExplainerInput) Prompt {
	var b strings.Builder
	b.WriteString("Explainer video brief\n")
	fmt.Fprintf(&b, "- Topic: %s\n", strings.TrimSpace(in.Topic))
	if points := strings.TrimSpace(in.KeyPoints); points != "" {
		fmt.Fprintf(&b, "- Key points:\n%s\n", points)
	} else {
		b.WriteString("- Key points: none given, choose the 3 to 5 most important points yourself\n")
	}
	fmt.Fprintf(&b, "- Visual style: %s\n", orDefault(describe(visualStyles, in.VisualStyle), "designer's choice"))
	fmt.Fprintf(&b, "- Duration: %s\n", orDefault(describe(durations, in.Duration), "60 seconds"))
	fmt.Fprintf(&b, "- Audience: %s\n", orDefault(in.Audience, "general audience"))
	fmt.Fprintf(&b, "- Call to action: %s", orDefault(in.CTA, "none"))

	return Prompt{
		Instruction: instructionFor(RecipeExplainer, FormatJSON),
		Parts:       []gemini.Part{gemini.TextPart(b.String())},
	}
}

// StyleGuide combines the named cinematic style with keywords derived from a
// reference image. Either part may be missing.
func StyleGuide(style, keywords string) string {
	var b strings.Builder
	if isNoStyle(style) {
		b.WriteString("Visual style: no specific cinematic style; keep one consistent, natural look across all scenes.")
	} else {
		fmt.Fprintf(&b, "Visual style: %s.", describe(cinematicStyles, style))
	}
	if kw := strings.TrimSpace(keywords); kw != "" {
		fmt.Fprintf(&b, "\nReference image keywords: %s.", strings.TrimRight(kw, ". "))
	}
	return b.String()
}

// ScenePrompt is the single-image request text for one storyboard scene.
func ScenePrompt(styleGuide, scene string) string {
	return fmt.Sprintf("%s\nScene: %s\nCinematic storyboard frame, no text, no captions, no borders.", styleGuide, strings.TrimSpace(scene))
}

func orDefault(value, fallback string) string {
	if v := strings.TrimSpace(value); v != "" {
		return v
	}
	return fallback
}
