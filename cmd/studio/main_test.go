package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/tamirka/ainario/internal/gemini"
	"github.com/tamirka/ainario/internal/studio"
)

const pngData = "iVBORw0KGgoAAAANSUhEUgAAAAEAAAABCAQAAAC1HAwCAAAAC0lEQVR42mP8/x8AAwMB/6X+ZQAAAABJRU5ErkJggg=="

type fakeGenerator struct {
	mu           sync.Mutex
	imagePrompts []string
}

func (f *fakeGenerator) GenerateText(context.Context, string, []gemini.Part) (string, error) {
	return "--- SCENE 1 ---\nfirst", nil
}

func (f *fakeGenerator) GenerateImage(_ context.Context, prompt, _ string) (gemini.Image, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.imagePrompts = append(f.imagePrompts, prompt)
	return gemini.Image{MimeType: "image/png", Data: pngData}, nil
}

func run(t *testing.T, gen studio.Generator, args ...string) (string, string, error) {
	t.Helper()
	return runWithTimeout(t, gen, 0, args...)
}

func runWithTimeout(t *testing.T, gen studio.Generator, timeout time.Duration, args ...string) (string, string, error) {
	t.Helper()
	connects := 0
	root := newRootCmd(func(context.Context) (Studio, time.Duration, error) {
		connects++
		return studio.New(studio.Options{Generator: gen}), timeout, nil
	})
	var stdout, stderr bytes.Buffer
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetIn(strings.NewReader("from stdin\n\n"))
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	if connects > 1 {
		t.Errorf("connected %d times", connects)
	}
	return stdout.String(), stderr.String(), err
}

func TestStoryboardCommand(t *testing.T) {
	gen := &fakeGenerator{}
	dir := t.TempDir()

	out, errOut, err := run(t, gen, "storyboard",
		"--scene", "a lit candle",
		"--scene", "",
		"--scenes-file", "-",
		"--style", "noir_thriller",
		"--image-dir", dir,
	)
	if err != nil {
		t.Fatalf("storyboard: %v", err)
	}
	if out != "--- SCENE 1 ---\nfirst\n" {
		t.Errorf("stdout = %q", out)
	}
	if len(gen.imagePrompts) != 2 {
		t.Errorf("image prompts = %d", len(gen.imagePrompts))
	}
	for _, name := range []string{"scene-01.png", "scene-03.png"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("missing %s: %v", name, err)
		}
	}
	if _, err := os.Stat(filepath.Join(dir, "scene-02.png")); !os.IsNotExist(err) {
		t.Errorf("blank scene produced an image")
	}
	if !strings.Contains(errOut, "scene 3 preview") {
		t.Errorf("stderr = %q", errOut)
	}
}

func TestStoryboardWithoutScenes(t *testing.T) {
	_, _, err := run(t, &fakeGenerator{}, "storyboard", "--scene", "  ")
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, studio.ErrNoScenes) {
		t.Errorf("err = %v", err)
	}
	if !strings.HasPrefix(err.Error(), "Please add at least one scene.") {
		t.Errorf("message = %q", err.Error())
	}
}

func TestPreviewCommand(t *testing.T) {
	gen := &fakeGenerator{}
	out := filepath.Join(t.TempDir(), "frame.jpg")

	stdout, _, err := run(t, gen, "preview", "-o", out, "a", "red", "door")
	if err != nil {
		t.Fatalf("preview: %v", err)
	}
	want := strings.TrimSuffix(out, ".jpg") + ".png"
	if strings.TrimSpace(stdout) != want {
		t.Errorf("stdout = %q, want %q", stdout, want)
	}
	if _, err := os.Stat(want); err != nil {
		t.Errorf("preview file: %v", err)
	}
	if !reflect.DeepEqual(gen.imagePrompts, []string{"a red door"}) {
		t.Errorf("prompts = %q", gen.imagePrompts)
	}
}

func TestCatalogSkipsConnect(t *testing.T) {
	root := newRootCmd(func(context.Context) (Studio, time.Duration, error) {
		return nil, 0, errors.New("should not connect")
	})
	var stdout bytes.Buffer
	root.SetOut(&stdout)
	root.SetArgs([]string{"catalog"})
	if err := root.Execute(); err != nil {
		t.Fatalf("catalog: %v", err)
	}

	var cat studio.Catalogs
	if err := json.Unmarshal(stdout.Bytes(), &cat); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(cat.CinematicStyles) == 0 {
		t.Error("empty cinematic styles")
	}
}

func TestIntroRequiresTopic(t *testing.T) {
	_, _, err := run(t, &fakeGenerator{}, "intro", "--name", "Pan & Fire")
	if !errors.Is(err, studio.ErrMissingField) {
		t.Errorf("err = %v", err)
	}
}

// blockingGenerator waits for the request context to end.
type blockingGenerator struct{}

func (blockingGenerator) GenerateText(ctx context.Context, _ string, _ []gemini.Part) (string, error) {
	<-ctx.Done()
	return "", ctx.Err()
}

func (blockingGenerator) GenerateImage(ctx context.Context, _, _ string) (gemini.Image, error) {
	<-ctx.Done()
	return gemini.Image{}, ctx.Err()
}

func TestRequestTimeout(t *testing.T) {
	done := make(chan error, 1)
	go func() {
		_, _, err := runWithTimeout(t, blockingGenerator{}, 20*time.Millisecond, "intro", "--name", "Pan & Fire", "--topic", "cooking")
		done <- err
	}()

	select {
	case err := <-done:
		if !errors.Is(err, context.DeadlineExceeded) {
			t.Errorf("err = %v, want deadline exceeded", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("workflow ignored the request timeout")
	}
}

func TestReadScenes(t *testing.T) {
	got, err := readScenes(strings.NewReader(" one \n\nthree\n\n\n"), "-")
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(got, []string{"one", "", "three"}) {
		t.Errorf("scenes = %q", got)
	}
}
