package session

import (
	"errors"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/tamirka/ainario/internal/studio"
)

func TestStoreLifecycle(t *testing.T) {
	s := NewStore(Options{TTL: time.Minute})
	const key = "tg:42"

	if got := s.Get(key); got.View != studio.Idle || got.Result != nil {
		t.Fatalf("fresh session = %+v", got)
	}

	if _, err := s.Begin(key); err != nil {
		t.Fatalf("Begin: %v", err)
	}
	if _, err := s.Begin(key); !errors.Is(err, ErrBusy) {
		t.Fatalf("second Begin err = %v, want ErrBusy", err)
	}

	sess, err := s.Fail(key, []string{"Could not generate storyboard.", "Please try again."})
	if err != nil || sess.View != studio.ShowingError || len(sess.Errors) != 2 {
		t.Fatalf("Fail = %+v, %v", sess, err)
	}

	// Starting again clears the old error before any new outcome.
	sess, err = s.Begin(key)
	if err != nil || sess.Errors != nil {
		t.Fatalf("Begin after error = %+v, %v", sess, err)
	}

	res := studio.Result{RunID: "r1", Recipe: studio.RecipeStoryboard, Prompt: "--- SCENE 1 ---\nx"}
	sess, err = s.Succeed(key, res)
	if err != nil || sess.View != studio.ShowingResult || !reflect.DeepEqual(*sess.Result, res) {
		t.Fatalf("Succeed = %+v, %v", sess, err)
	}
	if got := s.Get(key); got.Result == nil || got.Result.RunID != "r1" {
		t.Errorf("stored = %+v", got)
	}

	if _, err := s.Succeed(key, res); !errors.Is(err, studio.ErrIllegalTransition) {
		t.Errorf("Succeed outside Saving err = %v", err)
	}

	// The next action drops the old result, and a failure never shows it again.
	sess, err = s.Begin(key)
	if err != nil || sess.Result != nil {
		t.Fatalf("Begin after result = %+v, %v", sess, err)
	}
	sess, err = s.Fail(key, []string{"Could not generate the preview image.", "Please try again."})
	if err != nil || sess.Result != nil || sess.View != studio.ShowingError {
		t.Fatalf("Fail after result = %+v, %v", sess, err)
	}
	if got := s.Get(key); got.Result != nil || len(got.Errors) != 2 {
		t.Errorf("stored after failure = %+v", got)
	}

	if sess, err := s.Dismiss(key); err != nil || sess.View != studio.Idle {
		t.Errorf("Dismiss = %+v, %v", sess, err)
	}

	s.Reset(key)
	if s.Len() != 0 {
		t.Errorf("Len = %d after Reset", s.Len())
	}
}

func TestStoreConcurrentBegin(t *testing.T) {
	s := NewStore(Options{})
	var wg sync.WaitGroup
	var mu sync.Mutex
	started := 0
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := s.Begin("web:1"); err == nil {
				mu.Lock()
				started++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	if started != 1 {
		t.Errorf("started = %d, want exactly 1", started)
	}
}

func TestStoreExpires(t *testing.T) {
	s := NewStore(Options{TTL: 10 * time.Millisecond})
	if _, err := s.Begin("k"); err != nil {
		t.Fatal(err)
	}
	time.Sleep(30 * time.Millisecond)
	if got := s.Get("k"); got.View != studio.Idle {
		t.Errorf("expired session view = %s", got.View)
	}
}
