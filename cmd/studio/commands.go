package main

import (
	"bufio"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/tamirka/ainario/internal/gemini"
	"github.com/tamirka/ainario/internal/media"
	"github.com/tamirka/ainario/internal/studio"
)

// Studio is the part of *studio.Studio the commands call.
type Studio interface {
	Logo(ctx context.Context, in studio.LogoInput) (studio.Result, error)
	ChannelIntro(ctx context.Context, in studio.IntroInput) (studio.Result, error)
	Explainer(ctx context.Context, in studio.ExplainerInput) (studio.Result, error)
	Storyboard(ctx context.Context, in studio.StoryboardInput) (studio.StoryboardResult, error)
	Preview(ctx context.Context, prompt string) (gemini.Image, error)
}

// Connect builds the service and the deadline each workflow runs under.
// A zero timeout means no deadline.
type Connect func(context.Context) (Studio, time.Duration, error)

type cli struct {
	connect Connect
	studio  Studio
	timeout time.Duration
	cancel  context.CancelFunc
	format  string
}

// newRootCmd builds the command tree. connect runs once before any
// subcommand that needs the generative service.
func newRootCmd(connect Connect) *cobra.Command {
	c := &cli{connect: connect}

	root := &cobra.Command{
		Use:           "studio",
		Short:         "Generate video prompts, storyboards and previews",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPostRun: func(*cobra.Command, []string) {
			if c.cancel != nil {
				c.cancel()
			}
		},
	}
	root.PersistentFlags().StringVar(&c.format, "format", string(studio.FormatClassic), "output format: classic or json")

	root.AddCommand(
		c.catalogCmd(),
		c.logoCmd(),
		c.introCmd(),
		c.explainerCmd(),
		c.storyboardCmd(),
		c.previewCmd(),
	)
	return root
}

func (c *cli) preRun(cmd *cobra.Command, _ []string) error {
	if c.studio == nil {
		st, timeout, err := c.connect(cmd.Context())
		if err != nil {
			return err
		}
		c.studio, c.timeout = st, timeout
	}
	if c.timeout > 0 {
		ctx, cancel := context.WithTimeout(cmd.Context(), c.timeout)
		c.cancel = cancel
		cmd.SetContext(ctx)
	}
	return nil
}

func (c *cli) catalogCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "catalog",
		Short: "Print the style and option catalogs as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(studio.Catalog())
		},
	}
}

func (c *cli) logoCmd() *cobra.Command {
	var in studio.LogoInput
	cmd := &cobra.Command{
		Use:     "logo <image>",
		Short:   "Write a logo animation prompt for an image file",
		Args:    cobra.ExactArgs(1),
		PreRunE: c.preRun,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			in.Logo = func(ctx context.Context) (gemini.Image, error) {
				return media.EncodeFile(ctx, path)
			}
			in.Format = studio.ParseFormat(c.format)
			res, err := c.studio.Logo(cmd.Context(), in)
			if err != nil {
				return userError(err)
			}
			return printResult(cmd.OutOrStdout(), res)
		},
	}
	cmd.Flags().StringVar(&in.AnimationStyle, "animation", "", "animation style")
	cmd.Flags().StringVar(&in.Background, "background", "", "background")
	cmd.Flags().StringVar(&in.SFX, "sfx", "", "sound effects")
	cmd.Flags().StringVar(&in.Tagline, "tagline", "", "tagline shown after the reveal")
	return cmd
}

func (c *cli) introCmd() *cobra.Command {
	var in studio.IntroInput
	cmd := &cobra.Command{
		Use:     "intro",
		Short:   "Write a channel intro prompt",
		Args:    cobra.NoArgs,
		PreRunE: c.preRun,
		RunE: func(cmd *cobra.Command, _ []string) error {
			in.Format = studio.ParseFormat(c.format)
			res, err := c.studio.ChannelIntro(cmd.Context(), in)
			if err != nil {
				return userError(err)
			}
			return printResult(cmd.OutOrStdout(), res)
		},
	}
	cmd.Flags().StringVar(&in.ChannelName, "name", "", "channel name")
	cmd.Flags().StringVar(&in.Topic, "topic", "", "channel topic")
	cmd.Flags().StringVar(&in.VisualStyle, "visual-style", "", "visual style")
	cmd.Flags().StringVar(&in.Energy, "energy", "", "energy level")
	cmd.Flags().StringVar(&in.Elements, "elements", "", "elements to include")
	return cmd
}

func (c *cli) explainerCmd() *cobra.Command {
	var in studio.ExplainerInput
	var points []string
	cmd := &cobra.Command{
		Use:     "explainer",
		Short:   "Write an explainer video script as JSON",
		Args:    cobra.NoArgs,
		PreRunE: c.preRun,
		RunE: func(cmd *cobra.Command, _ []string) error {
			lines := make([]string, 0, len(points))
			for _, p := range points {
				if p = strings.TrimSpace(p); p != "" {
					lines = append(lines, "- "+p)
				}
			}
			in.KeyPoints = strings.Join(lines, "\n")
			res, err := c.studio.Explainer(cmd.Context(), in)
			if err != nil {
				return userError(err)
			}
			return printResult(cmd.OutOrStdout(), res)
		},
	}
	cmd.Flags().StringVar(&in.Topic, "topic", "", "topic to explain")
	cmd.Flags().StringArrayVar(&points, "point", nil, "key point (repeatable)")
	cmd.Flags().StringVar(&in.VisualStyle, "visual-style", "", "visual style")
	cmd.Flags().StringVar(&in.Duration, "duration", "", "target duration")
	cmd.Flags().StringVar(&in.Audience, "audience", "", "target audience")
	cmd.Flags().StringVar(&in.CTA, "cta", "", "call to action")
	return cmd
}

func (c *cli) storyboardCmd() *cobra.Command {
	var (
		scenes     []string
		scenesFile string
		style      string
		reference  string
		imageDir   string
	)
	cmd := &cobra.Command{
		Use:     "storyboard",
		Short:   "Render scene previews and write the master storyboard prompt",
		Args:    cobra.NoArgs,
		PreRunE: c.preRun,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if scenesFile != "" {
				fromFile, err := readScenes(cmd.InOrStdin(), scenesFile)
				if err != nil {
					return err
				}
				scenes = append(scenes, fromFile...)
			}

			in := studio.StoryboardInput{
				Scenes: scenes,
				Style:  style,
				Format: studio.ParseFormat(c.format),
			}
			if reference != "" {
				in.Reference = func(ctx context.Context) (gemini.Image, error) {
					return media.EncodeFile(ctx, reference)
				}
			}

			res, err := c.studio.Storyboard(cmd.Context(), in)
			if err != nil {
				return userError(err)
			}

			if imageDir != "" {
				if err := os.MkdirAll(imageDir, 0o755); err != nil {
					return err
				}
				for i, img := range res.Images {
					if img == nil {
						continue
					}
					path, err := saveImage(imageDir, fmt.Sprintf("scene-%02d", i+1), *img)
					if err != nil {
						return err
					}
					fmt.Fprintf(cmd.ErrOrStderr(), "scene %d preview: %s\n", i+1, path)
				}
			}
			return printResult(cmd.OutOrStdout(), res.Result)
		},
	}
	cmd.Flags().StringArrayVar(&scenes, "scene", nil, "scene description (repeatable, order kept)")
	cmd.Flags().StringVar(&scenesFile, "scenes-file", "", "file with one scene per line, - for stdin")
	cmd.Flags().StringVar(&style, "style", studio.NoStyle, "cinematic style key or name")
	cmd.Flags().StringVar(&reference, "reference", "", "reference image for style analysis")
	cmd.Flags().StringVar(&imageDir, "image-dir", "", "directory for scene preview images")
	return cmd
}

func (c *cli) previewCmd() *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:     "preview <prompt>",
		Short:   "Render one prompt as a 16:9 image",
		Args:    cobra.MinimumNArgs(1),
		PreRunE: c.preRun,
		RunE: func(cmd *cobra.Command, args []string) error {
			img, err := c.studio.Preview(cmd.Context(), strings.Join(args, " "))
			if err != nil {
				return userError(err)
			}
			dir, base := filepath.Split(out)
			if dir == "" {
				dir = "."
			}
			base = strings.TrimSuffix(base, filepath.Ext(base))
			path, err := saveImage(dir, base, img)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "preview", "output file; the extension follows the image type")
	return cmd
}

func printResult(w io.Writer, res studio.Result) error {
	_, err := fmt.Fprintln(w, res.Prompt)
	return err
}

// userError flattens the display lines of a generation error.
func userError(err error) error {
	var genErr *studio.GenerationError
	if errors.As(err, &genErr) {
		if genErr.Cause == nil {
			return errors.New(strings.Join(genErr.Lines, " "))
		}
		return fmt.Errorf("%s: %w", strings.Join(genErr.Lines, " "), genErr.Cause)
	}
	return err
}

// readScenes reads one scene per line. Blank lines stay as empty scenes.
func readScenes(stdin io.Reader, path string) ([]string, error) {
	r := stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		r = f
	}

	var scenes []string
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		scenes = append(scenes, strings.TrimSpace(sc.Text()))
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	for len(scenes) > 0 && scenes[len(scenes)-1] == "" {
		scenes = scenes[:len(scenes)-1]
	}
	return scenes, nil
}

func saveImage(dir, base string, img gemini.Image) (string, error) {
	data, err := base64.StdEncoding.DecodeString(img.Data)
	if err != nil {
		return "", fmt.Errorf("decode image: %w", err)
	}
	ext := ".png"
	if exts, _ := mime.ExtensionsByType(img.MimeType); len(exts) > 0 {
		ext = exts[0]
	}
	path := filepath.Join(dir, base+ext)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", err
	}
	return path, nil
}
