// Package studio builds film prompts, runs the storyboard pipeline and owns the
// display state of a generation.
package studio

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/tamirka/ainario/internal/gemini"
)

const (
	StoryboardAspectRatio = "4:3"
	PreviewAspectRatio    = "16:9"
)

// Generator is the generative service boundary.
type Generator interface {
	GenerateText(ctx context.Context, instruction string, parts []gemini.Part) (string, error)
	GenerateImage(ctx context.Context, prompt, aspectRatio string) (gemini.Image, error)
}

type Options struct {
	Generator Generator
	Logger    *slog.Logger
	// FanOutLimit caps concurrent scene image requests. Zero means unlimited.
	FanOutLimit int
	// FanOutInterval spaces scene image requests. Zero means no pacing.
	FanOutInterval time.Duration
	NewRunID       func() string
}

type Studio struct {
	gen            Generator
	logger         *slog.Logger
	fanOutLimit    int
	fanOutInterval time.Duration
	newRunID       func() string
}

func New(opts Options) *Studio {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	newRunID := opts.NewRunID
	if newRunID == nil {
		newRunID = uuid.NewString
	}
	return &Studio{
		gen:            opts.Generator,
		logger:         logger,
		fanOutLimit:    opts.FanOutLimit,
		fanOutInterval: opts.FanOutInterval,
		newRunID:       newRunID,
	}
}

type Result struct {
	RunID  string
	Recipe Recipe
	Format OutputFormat
	Prompt string
}

type StoryboardResult struct {
	Result
	// Images is indexed like the input scenes; nil marks a scene without a preview.
	Images     []*gemini.Image
	StyleGuide string
}

func (s *Studio) Logo(ctx context.Context, in LogoInput) (Result, error) {
	if in.Logo == nil {
		return Result{}, missing("Please upload a logo image.", "logo")
	}
	runID := s.newRunID()
	logger := s.logger.With("run_id", runID, "recipe", RecipeLogo)

	logo, err := in.Logo(ctx)
	if err != nil {
		logger.Error("logo encoding failed", "err", err)
		return Result{}, &GenerationError{
			Lines: []string{"Could not read the logo image.", "Please choose another file."},
			Cause: err,
		}
	}
	return s.runRecipe(ctx, logger, runID, RecipeLogo, in.Format, BuildLogo(in, logo))
}

func (s *Studio) ChannelIntro(ctx context.Context, in IntroInput) (Result, error) {
	if strings.TrimSpace(in.ChannelName) == "" {
		return Result{}, missing("Please enter the channel name.", "channel name")
	}
	if strings.TrimSpace(in.Topic) == "" {
		return Result{}, missing("Please enter the channel topic.", "topic")
	}
	runID := s.newRunID()
	logger := s.logger.With("run_id", runID, "recipe", RecipeIntro)
	return s.runRecipe(ctx, logger, runID, RecipeIntro, in.Format, BuildChannelIntro(in))
}

func (s *Studio) Explainer(ctx context.Context, in ExplainerInput) (Result, error) {
	if strings.TrimSpace(in.Topic) == "" {
		return Result{}, missing("Please enter a topic.", "topic")
	}
	runID := s.newRunID()
	logger := s.logger.With("run_id", runID, "recipe", RecipeExplainer)
	return s.runRecipe(ctx, logger, runID, RecipeExplainer, FormatJSON, BuildExplainer(in))
}

func (s *Studio) runRecipe(ctx context.Context, logger *slog.Logger, runID string, recipe Recipe, format OutputFormat, prompt Prompt) (Result, error) {
	start := time.Now()
	text, err := s.gen.GenerateText(ctx, prompt.Instruction, prompt.Parts)
	if err != nil {
		logger.Error("prompt generation failed", "err", err)
		return Result{}, &GenerationError{
			Lines: []string{"Could not generate the " + recipeLabel(recipe) + " prompt.", "Please try again."},
			Cause: err,
		}
	}
	logger.Info("prompt generated", "format", format, "took", time.Since(start))
	return Result{
		RunID:  runID,
		Recipe: recipe,
		Format: format,
		Prompt: NormalizeOutput(format, text),
	}, nil
}

// Preview renders one 16:9 image for a final, possibly edited, prompt.
func (s *Studio) Preview(ctx context.Context, prompt string) (gemini.Image, error) {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return gemini.Image{}, missing("Please enter a prompt to preview.", "prompt")
	}
	img, err := s.gen.GenerateImage(ctx, prompt, PreviewAspectRatio)
	if err != nil {
		s.logger.Error("preview generation failed", "err", err)
		return gemini.Image{}, &GenerationError{
			Lines: []string{"Could not generate the preview image.", "Please try again."},
			Cause: err,
		}
	}
	return img, nil
}

func recipeLabel(recipe Recipe) string {
	switch recipe {
	case RecipeLogo:
		return "logo animation"
	case RecipeIntro:
		return "channel intro"
	case RecipeExplainer:
		return "explainer"
	}
	return string(recipe)
}
