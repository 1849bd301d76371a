package studio

import "strings"

type NamedOption struct {
	Key         string `json:"key"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

type Catalogs struct {
	AnimationStyles []NamedOption `json:"animation_styles"`
	VisualStyles    []NamedOption `json:"visual_styles"`
	Energies        []NamedOption `json:"energies"`
	Durations       []NamedOption `json:"durations"`
	CinematicStyles []NamedOption `json:"cinematic_styles"`
}

// NoStyle is the cinematic style sentinel for "leave the look to the model".
const NoStyle = "No Style"

var animationStyles = []NamedOption{
	{Key: "energetic_burst", Name: "Energetic Burst", Description: "fast particle explosion that snaps into the logo, punchy and bright"},
	{Key: "elegant_reveal", Name: "Elegant Reveal", Description: "slow light sweep uncovering the logo, premium and calm"},
	{Key: "glitch", Name: "Glitch", Description: "digital distortion, RGB split and scanlines resolving into a clean logo"},
	{Key: "3d_rotation", Name: "3D Rotation", Description: "the logo extruded in 3D, rotating into a front facing hero pose"},
	{Key: "liquid_morph", Name: "Liquid Morph", Description: "fluid ink or liquid metal flowing together to form the logo"},
	{Key: "hand_drawn", Name: "Hand Drawn", Description: "sketch lines drawing the logo stroke by stroke before it fills with color"},
	{Key: "particle_assembly", Name: "Particle Assembly", Description: "thousands of tiny particles swarming and assembling the logo"},
}

var visualStyles = []NamedOption{
	{Key: "modern_minimal", Name: "Modern Minimal", Description: "clean flat shapes, generous negative space, two accent colors"},
	{Key: "cinematic", Name: "Cinematic", Description: "filmic lighting, shallow depth of field, anamorphic flares"},
	{Key: "neon_cyberpunk", Name: "Neon Cyberpunk", Description: "night city, neon signage, wet reflective surfaces"},
	{Key: "retro_vhs", Name: "Retro VHS", Description: "80s palette, tape noise, chromatic aberration"},
	{Key: "playful_cartoon", Name: "Playful Cartoon", Description: "bold outlines, bouncy motion, saturated colors"},
	{Key: "corporate_clean", Name: "Corporate Clean", Description: "bright studio look, blue and white palette, precise motion graphics"},
	{Key: "whiteboard", Name: "Whiteboard", Description: "hand drawn doodles on a white board, marker strokes"},
	{Key: "isometric_3d", Name: "Isometric 3D", Description: "soft isometric 3D scenes with pastel lighting"},
}

var energies = []NamedOption{
	{Key: "calm", Name: "Calm", Description: "slow pacing, soft transitions, ambient sound"},
	{Key: "balanced", Name: "Balanced", Description: "steady pacing with one clear accent beat"},
	{Key: "high", Name: "High Energy", Description: "fast cuts, whooshes, bass hits, kinetic typography"},
}

var durations = []NamedOption{
	{Key: "30s", Name: "30 seconds", Description: "4 to 5 segments"},
	{Key: "60s", Name: "60 seconds", Description: "6 to 8 segments"},
	{Key: "90s", Name: "90 seconds", Description: "8 to 10 segments"},
	{Key: "120s", Name: "2 minutes", Description: "10 to 12 segments"},
}

var cinematicStyles = []NamedOption{
	{Key: "none", Name: NoStyle},
	{Key: "noir_thriller", Name: "Noir Thriller", Description: "high contrast low key lighting, hard shadows, rain slick streets, desaturated palette"},
	{Key: "wes_anderson", Name: "Symmetrical Pastel", Description: "perfectly centered symmetrical framing, pastel palette, flat staging"},
	{Key: "epic_fantasy", Name: "Epic Fantasy", Description: "sweeping landscapes, golden hour light, volumetric fog, heroic scale"},
	{Key: "sci_fi", Name: "Sci-Fi", Description: "cool teal and orange grade, clean futuristic surfaces, practical lights"},
	{Key: "documentary", Name: "Documentary", Description: "handheld camera, natural light, observational framing"},
	{Key: "anime", Name: "Anime", Description: "cel shaded animation look, expressive skies, crisp line art"},
	{Key: "vintage_film", Name: "Vintage Film", Description: "16mm grain, warm faded colors, soft halation"},
}

func Catalog() Catalogs {
	return Catalogs{
		AnimationStyles: cloneOptions(animationStyles),
		VisualStyles:    cloneOptions(visualStyles),
		Energies:        cloneOptions(energies),
		Durations:       cloneOptions(durations),
		CinematicStyles: cloneOptions(cinematicStyles),
	}
}

// lookup matches an option by key or display name, case-insensitively.
func lookup(options []NamedOption, value string) (NamedOption, bool) {
	value = strings.ToLower(strings.TrimSpace(value))
	if value == "" {
		return NamedOption{}, false
	}
	for _, opt := range options {
		if strings.ToLower(opt.Key) == value || strings.ToLower(opt.Name) == value {
			return opt, true
		}
	}
	return NamedOption{}, false
}

// describe renders "Name (description)" for known values and passes unknown ones through.
func describe(options []NamedOption, value string) string {
	opt, ok := lookup(options, value)
	if !ok {
		return strings.TrimSpace(value)
	}
	if opt.Description == "" {
		return opt.Name
	}
	return opt.Name + " (" + opt.Description + ")"
}

func isNoStyle(style string) bool {
	switch strings.ToLower(strings.TrimSpace(style)) {
	case "", "none", "no style", "no_style":
		return true
	}
	return false
}

func cloneOptions(in []NamedOption) []NamedOption {
	return append([]NamedOption(nil), in...)
}
