package studio

import (
	"bytes"
	"encoding/json"
	"regexp"
	"strings"
)

var (
	sceneMarkerRegex  = regexp.MustCompile(`(?m)^[ \t]*---[ \t]*SCENE[ \t]+\d+[ \t]*---[ \t]*$`)
	promptMarkerRegex = regexp.MustCompile(`(?m)^[ \t]*---[ \t]*PROMPT[ \t]+\d+:[^\n]*---[ \t]*$`)
)

func markerFor(recipe Recipe) *regexp.Regexp {
	if recipe == RecipeStoryboard {
		return sceneMarkerRegex
	}
	return promptMarkerRegex
}

// ExtractFirstPrompt picks the first example prompt out of a master prompt.
// It tries a JSON array, then a {"scenes"|"segments": [...]} wrapper, then
// the recipe's classic block markers.
func ExtractFirstPrompt(recipe Recipe, text string) (string, bool) {
	body := stripCodeFence(text)
	if p, ok := firstFromArray(body); ok {
		return p, true
	}
	if p, ok := firstFromWrapper(body); ok {
		return p, true
	}
	return firstFromMarkers(markerFor(recipe), text)
}

// Blocks splits classic output into the text under each marker, in order.
func Blocks(recipe Recipe, text string) []string {
	re := markerFor(recipe)
	locs := re.FindAllStringIndex(text, -1)
	blocks := make([]string, 0, len(locs))
	for i, loc := range locs {
		end := len(text)
		if i+1 < len(locs) {
			end = locs[i+1][0]
		}
		blocks = append(blocks, strings.TrimSpace(text[loc[0]:end]))
	}
	return blocks
}

func firstFromArray(body string) (string, bool) {
	var items []json.RawMessage
	if err := json.Unmarshal([]byte(body), &items); err != nil || len(items) == 0 {
		return "", false
	}
	return promptFromItem(items[0])
}

func firstFromWrapper(body string) (string, bool) {
	var wrapper struct {
		Scenes   []json.RawMessage `json:"scenes"`
		Segments []json.RawMessage `json:"segments"`
	}
	if err := json.Unmarshal([]byte(body), &wrapper); err != nil {
		return "", false
	}
	switch {
	case len(wrapper.Scenes) > 0:
		return promptFromItem(wrapper.Scenes[0])
	case len(wrapper.Segments) > 0:
		return promptFromItem(wrapper.Segments[0])
	}
	return "", false
}

func promptFromItem(raw json.RawMessage) (string, bool) {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		s = strings.TrimSpace(s)
		return s, s != ""
	}

	var item struct {
		GenerationPrompt string `json:"generation_prompt"`
	}
	if err := json.Unmarshal(raw, &item); err == nil {
		if p := strings.TrimSpace(item.GenerationPrompt); p != "" {
			return p, true
		}
	}

	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		return "", false
	}
	return buf.String(), true
}

func firstFromMarkers(re *regexp.Regexp, text string) (string, bool) {
	locs := re.FindAllStringIndex(text, 2)
	if len(locs) == 0 {
		return "", false
	}
	end := len(text)
	if len(locs) > 1 {
		end = locs[1][0]
	}
	p := strings.TrimSpace(text[locs[0][1]:end])
	return p, p != ""
}
