package studio

import (
	"encoding/json"
	"reflect"
	"strings"
	"testing"
)

func TestNormalizeOutputRoundTrip(t *testing.T) {
	inputs := []string{
		`[{"shot_number":1,"camera":{"angle":"low","movement":"dolly"},"audio":{"sfx":["wind","rain"]}}]`,
		"```json\n{\"scenes\":[{\"generation_prompt\":\"a candle\"}]}\n```",
		"```\n[1, 2.5, \"three\", null, true]\n```",
	}
	for _, in := range inputs {
		out := NormalizeOutput(FormatJSON, in)

		var want, got any
		if err := json.Unmarshal([]byte(stripCodeFence(in)), &want); err != nil {
			t.Fatalf("bad fixture %q: %v", in, err)
		}
		if err := json.Unmarshal([]byte(out), &got); err != nil {
			t.Fatalf("output does not parse: %v\n%s", err, out)
		}
		if !reflect.DeepEqual(got, want) {
			t.Errorf("round trip changed value:\n in: %s\nout: %s", in, out)
		}
		if !strings.Contains(out, "\n  ") {
			t.Errorf("output not indented: %s", out)
		}
	}
}

func TestNormalizeOutputLenient(t *testing.T) {
	tests := []struct {
		name   string
		format OutputFormat
		in     string
		want   string
	}{
		{"invalid json unchanged", FormatJSON, `[{"shot_number": 1,}`, `[{"shot_number": 1,}`},
		{"invalid json loses fence", FormatJSON, "```json\nnot json at all\n```", "not json at all"},
		{"classic untouched", FormatClassic, "```\n--- SCENE 1 ---\nx\n```", "```\n--- SCENE 1 ---\nx\n```"},
		{"key order kept", FormatJSON, `{"z":1,"a":2}`, "{\n  \"z\": 1,\n  \"a\": 2\n}"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeOutput(tt.format, tt.in); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestExtractFirstPrompt(t *testing.T) {
	tests := []struct {
		name   string
		recipe Recipe
		in     string
		want   string
		ok     bool
	}{
		{
			name:   "scene markers",
			recipe: RecipeStoryboard,
			in:     "--- SCENE 1 ---\n  a lit candle flickers  \n--- SCENE 2 ---\nthe sun rises",
			want:   "a lit candle flickers",
			ok:     true,
		},
		{
			name:   "single scene block",
			recipe: RecipeStoryboard,
			in:     "--- SCENE 1 ---\nonly one\n",
			want:   "only one",
			ok:     true,
		},
		{
			name:   "prompt markers",
			recipe: RecipeLogo,
			in:     "--- PROMPT 1: Spark (0s-2s) ---\nthe provided logo image ignites\n--- PROMPT 2: Hold (2s-8s) ---\nrest",
			want:   "the provided logo image ignites",
			ok:     true,
		},
		{
			name:   "markers are recipe specific",
			recipe: RecipeStoryboard,
			in:     "--- PROMPT 1: Spark (0s-2s) ---\nignites",
			ok:     false,
		},
		{
			name:   "json array",
			recipe: RecipeStoryboard,
			in:     `[{"shot_number":1,"generation_prompt":" candle "},{"generation_prompt":"sun"}]`,
			want:   "candle",
			ok:     true,
		},
		{
			name:   "fenced wrapper",
			recipe: RecipeExplainer,
			in:     "```json\n{\"segments\":[{\"generation_prompt\":\"cells divide\"}]}\n```",
			want:   "cells divide",
			ok:     true,
		},
		{
			name:   "scenes wrapper",
			recipe: RecipeStoryboard,
			in:     `{"scenes":[{"generation_prompt":"harbor"}]}`,
			want:   "harbor",
			ok:     true,
		},
		{
			name:   "item without prompt field",
			recipe: RecipeIntro,
			in:     `[{"segment_number":1}]`,
			want:   "{\n  \"segment_number\": 1\n}",
			ok:     true,
		},
		{
			name:   "string items",
			recipe: RecipeIntro,
			in:     `["first", "second"]`,
			want:   "first",
			ok:     true,
		},
		{
			name:   "nothing recognizable",
			recipe: RecipeStoryboard,
			in:     "just prose",
			ok:     false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ExtractFirstPrompt(tt.recipe, tt.in)
			if ok != tt.ok || got != tt.want {
				t.Errorf("got (%q, %v), want (%q, %v)", got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestBlocks(t *testing.T) {
	text := "--- PROMPT 1: Open (0s-2s) ---\nA\n\n--- PROMPT 2: Close (2s-5s) ---\nB\n"
	got := Blocks(RecipeIntro, text)
	want := []string{"--- PROMPT 1: Open (0s-2s) ---\nA", "--- PROMPT 2: Close (2s-5s) ---\nB"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Blocks = %q", got)
	}
	if got := Blocks(RecipeStoryboard, text); len(got) != 0 {
		t.Errorf("storyboard markers matched prompt blocks: %q", got)
	}
}
