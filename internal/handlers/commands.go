package handlers

import (
	"strings"
	"unicode"

	"github.com/tamirka/ainario/internal/studio"
)

const startText = "🎬 AI Film Studio\n\n" +
	"I turn your ideas into ready-to-use video generation prompts.\n\n" +
	"/intro - channel intro\n" +
	"/explainer - explainer video script\n" +
	"/storyboard - storyboard with scene previews\n" +
	"photo + /logo - logo animation\n" +
	"/preview - render a prompt as an image\n" +
	"/help - details and styles"

const (
	introUsage = "Usage:\n/intro channel name | topic | visual style | energy | elements\n" +
		"Add format=json on the first line for JSON output."
	explainerUsage = "Usage:\n/explainer topic | key points; separated; by semicolons | visual style | duration | audience | call to action\n" +
		"Only the topic is required."
	logoUsage = "Send your logo as a photo with the caption:\n/logo animation style | background | sound effects | tagline"
)

func helpText() string {
	cat := studio.Catalog()
	var b strings.Builder
	b.WriteString("🎬 Help\n\n")
	b.WriteString(introUsage + "\n\n")
	b.WriteString(explainerUsage + "\n\n")
	b.WriteString("/storyboard style=<style> format=json\none scene per line\n")
	b.WriteString("Attach a photo with this caption to use it as a style reference.\n\n")
	b.WriteString(logoUsage + "\n\n")
	b.WriteString("/preview [prompt] renders the prompt, or the first prompt of your last result.\n")
	b.WriteString("/clear forgets your last result.\n\n")
	b.WriteString("Cinematic styles: " + optionKeys(cat.CinematicStyles) + "\n")
	b.WriteString("Animation styles: " + optionKeys(cat.AnimationStyles) + "\n")
	b.WriteString("Visual styles: " + optionKeys(cat.VisualStyles) + "\n")
	b.WriteString("Energies: " + optionKeys(cat.Energies) + "\n")
	b.WriteString("Durations: " + optionKeys(cat.Durations))
	return b.String()
}

func optionKeys(options []studio.NamedOption) string {
	keys := make([]string, 0, len(options))
	for _, o := range options {
		keys = append(keys, o.Key)
	}
	return strings.Join(keys, ", ")
}

// splitCommand parses "/cmd@bot args" from a caption the way the Bot API does
// for message text: args start after the first whitespace character.
func splitCommand(text string) (string, string, bool) {
	text = strings.TrimLeftFunc(text, unicode.IsSpace)
	if !strings.HasPrefix(text, "/") {
		return "", "", false
	}
	head, args := text, ""
	if end := strings.IndexFunc(text, unicode.IsSpace); end >= 0 {
		head, args = text[:end], text[end+1:]
	}
	command := strings.TrimPrefix(head, "/")
	if at := strings.IndexByte(command, '@'); at >= 0 {
		command = command[:at]
	}
	if command == "" {
		return "", "", false
	}
	return strings.ToLower(command), args, true
}

var optionKeysAllowed = map[string]bool{"style": true, "format": true}

// parseOptions pulls key=value tokens out of line. A style value may span
// several words: it is quoted, the longest catalog style name, or otherwise
// everything up to the next option.
func parseOptions(line string) (map[string]string, string) {
	opts := map[string]string{}
	var rest []string
	tokens := strings.Fields(line)
	for i := 0; i < len(tokens); i++ {
		key, value, ok := optionToken(tokens[i])
		if !ok {
			rest = append(rest, tokens[i])
			continue
		}
		if key == "style" {
			var n int
			value, n = styleValue(value, tokens[i+1:])
			i += n
		}
		opts[key] = value
	}
	return opts, strings.Join(rest, " ")
}

func optionToken(token string) (string, string, bool) {
	key, value, ok := strings.Cut(token, "=")
	key = strings.ToLower(key)
	if !ok || !optionKeysAllowed[key] || value == "" {
		return "", "", false
	}
	return key, value, true
}

// styleValue completes a style value that starts with first, returning the
// value and how many of the following tokens it consumed.
func styleValue(first string, following []string) (string, int) {
	if strings.HasPrefix(first, `"`) {
		words := []string{first}
		if len(first) > 1 && strings.HasSuffix(first, `"`) {
			return strings.Trim(first, `"`), 0
		}
		for n, w := range following {
			words = append(words, w)
			if strings.HasSuffix(w, `"`) {
				return strings.Trim(strings.Join(words, " "), `"`), n + 1
			}
		}
		return strings.Trim(strings.Join(words, " "), `"`), len(following)
	}

	words := []string{first}
	for _, w := range following {
		if _, _, ok := optionToken(w); ok {
			break
		}
		words = append(words, w)
	}
	for n := len(words); n > 0; n-- {
		if knownStyle(strings.Join(words[:n], " ")) {
			return strings.Join(words[:n], " "), n - 1
		}
	}
	return strings.Join(words, " "), len(words) - 1
}

func knownStyle(value string) bool {
	for _, o := range studio.Catalog().CinematicStyles {
		if strings.EqualFold(o.Key, value) || strings.EqualFold(o.Name, value) {
			return true
		}
	}
	return false
}

func splitFields(text string, n int) []string {
	fields := strings.SplitN(text, "|", n)
	for i := range fields {
		fields[i] = strings.TrimSpace(fields[i])
	}
	for len(fields) < n {
		fields = append(fields, "")
	}
	return fields
}

func parseIntro(args string) (studio.IntroInput, bool) {
	opts, rest := parseOptions(strings.ReplaceAll(args, "\n", " "))
	f := splitFields(rest, 5)
	if f[0] == "" || f[1] == "" {
		return studio.IntroInput{}, false
	}
	return studio.IntroInput{
		ChannelName: f[0],
		Topic:       f[1],
		VisualStyle: f[2],
		Energy:      f[3],
		Elements:    f[4],
		Format:      studio.ParseFormat(opts["format"]),
	}, true
}

func parseExplainer(args string) (studio.ExplainerInput, bool) {
	f := splitFields(strings.ReplaceAll(args, "\n", " "), 6)
	if f[0] == "" {
		return studio.ExplainerInput{}, false
	}
	var points []string
	for _, p := range strings.Split(f[1], ";") {
		if p = strings.TrimSpace(p); p != "" {
			points = append(points, "- "+p)
		}
	}
	return studio.ExplainerInput{
		Topic:       f[0],
		KeyPoints:   strings.Join(points, "\n"),
		VisualStyle: f[2],
		Duration:    f[3],
		Audience:    f[4],
		CTA:         f[5],
	}, true
}

// parseStoryboard reads options from the first line and one scene per line.
// Blank lines between scenes are kept as empty scenes.
func parseStoryboard(args string) studio.StoryboardInput {
	lines := strings.Split(strings.TrimRightFunc(args, unicode.IsSpace), "\n")
	opts, rest := parseOptions(lines[0])

	scenes := lines[1:]
	if strings.TrimSpace(rest) != "" {
		scenes = append([]string{rest}, scenes...)
	}
	for i := range scenes {
		scenes[i] = strings.TrimSpace(scenes[i])
	}

	style := opts["style"]
	if style == "" {
		style = studio.NoStyle
	}
	return studio.StoryboardInput{
		Scenes: scenes,
		Style:  style,
		Format: studio.ParseFormat(opts["format"]),
	}
}

func parseLogo(args string) studio.LogoInput {
	opts, rest := parseOptions(strings.ReplaceAll(args, "\n", " "))
	f := splitFields(rest, 4)
	return studio.LogoInput{
		AnimationStyle: f[0],
		Background:     f[1],
		SFX:            f[2],
		Tagline:        f[3],
		Format:         studio.ParseFormat(opts["format"]),
	}
}
