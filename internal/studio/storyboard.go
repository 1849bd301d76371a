package studio

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/tamirka/ainario/internal/gemini"
)

// Storyboard runs the full pipeline: style resolution, one preview image per
// scene in parallel, then the master prompt. Only the master prompt call is
// fatal; a failed style analysis or scene image degrades the result.
func (s *Studio) Storyboard(ctx context.Context, in StoryboardInput) (StoryboardResult, error) {
	if !hasScene(in.Scenes) {
		return StoryboardResult{}, &GenerationError{
			Lines: []string{"Please add at least one scene."},
			Cause: ErrNoScenes,
		}
	}

	runID := s.newRunID()
	logger := s.logger.With("run_id", runID, "recipe", RecipeStoryboard)
	start := time.Now()

	styleGuide := s.resolveStyle(ctx, logger, in)
	images := s.sceneImages(ctx, logger, in.Scenes, styleGuide)

	prompt := BuildStoryboard(in, styleGuide, images)
	text, err := s.gen.GenerateText(ctx, prompt.Instruction, prompt.Parts)
	if err != nil {
		logger.Error("storyboard synthesis failed", "err", err)
		return StoryboardResult{}, &GenerationError{
			Lines: []string{"Could not generate storyboard.", "Please try again."},
			Cause: err,
		}
	}

	logger.Info("storyboard generated",
		"scenes", countScenes(in.Scenes),
		"images", countImages(images),
		"format", in.Format,
		"took", time.Since(start),
	)

	return StoryboardResult{
		Result: Result{
			RunID:  runID,
			Recipe: RecipeStoryboard,
			Format: in.Format,
			Prompt: NormalizeOutput(in.Format, text),
		},
		Images:     images,
		StyleGuide: styleGuide,
	}, nil
}

func (s *Studio) resolveStyle(ctx context.Context, logger *slog.Logger, in StoryboardInput) string {
	if in.Reference == nil {
		return StyleGuide(in.Style, "")
	}
	keywords, err := s.analyzeStyle(ctx, in.Reference)
	if err != nil {
		logger.Warn("style analysis skipped", "err", err)
		return StyleGuide(in.Style, "")
	}
	return StyleGuide(in.Style, keywords)
}

func (s *Studio) analyzeStyle(ctx context.Context, ref ImageSource) (string, error) {
	img, err := ref(ctx)
	if err != nil {
		return "", fmt.Errorf("encode reference: %w", err)
	}
	text, err := s.gen.GenerateText(ctx, styleAnalysisInstruction, []gemini.Part{
		gemini.TextPart("Reference image:"),
		gemini.ImagePart(img),
	})
	if err != nil {
		return "", fmt.Errorf("analyze reference: %w", err)
	}
	return strings.Join(strings.Fields(text), " "), nil
}

// sceneImages requests one preview per non-blank scene. The returned slice has
// len(scenes) entries and entry i belongs to scenes[i]; blank or failed scenes are nil.
func (s *Studio) sceneImages(ctx context.Context, logger *slog.Logger, scenes []string, styleGuide string) []*gemini.Image {
	images := make([]*gemini.Image, len(scenes))

	var limiter *rate.Limiter
	if s.fanOutInterval > 0 {
		limiter = rate.NewLimiter(rate.Every(s.fanOutInterval), 1)
	}

	var eg errgroup.Group
	if s.fanOutLimit > 0 {
		eg.SetLimit(s.fanOutLimit)
	}
	for i, scene := range scenes {
		if strings.TrimSpace(scene) == "" {
			continue
		}
		i, scene := i, scene
		eg.Go(func() error {
			if limiter != nil {
				if err := limiter.Wait(ctx); err != nil {
					logger.Warn("scene image skipped", "scene", i+1, "err", err)
					return nil
				}
			}
			img, err := s.gen.GenerateImage(ctx, ScenePrompt(styleGuide, scene), StoryboardAspectRatio)
			if err != nil {
				logger.Warn("scene image failed", "scene", i+1, "err", err)
				return nil
			}
			images[i] = &img
			return nil
		})
	}
	// Workers never return an error, so Wait collects every outcome.
	_ = eg.Wait()
	return images
}

func hasScene(scenes []string) bool {
	return countScenes(scenes) > 0
}

func countScenes(scenes []string) int {
	n := 0
	for _, scene := range scenes {
		if strings.TrimSpace(scene) != "" {
			n++
		}
	}
	return n
}

func countImages(images []*gemini.Image) int {
	n := 0
	for _, img := range images {
		if img != nil {
			n++
		}
	}
	return n
}
