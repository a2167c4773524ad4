package screen

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/lehigh-university-libraries/arviewer/internal/models"
)

type fakeScene struct {
	mu      sync.Mutex
	applies int
	stops   int
	running bool
	err     error
}

func (f *fakeScene) Apply(ctx context.Context) (models.SceneConfig, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.applies++
	if f.err != nil {
		return models.SceneConfig{}, f.err
	}
	f.running = true
	return models.SceneConfig{TrackerURI: "/blob/t", ImageURI: "/blob/i"}, nil
}

func (f *fakeScene) Stop(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stops++
	f.running = false
	return nil
}

func (f *fakeScene) Running() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.running
}

func (f *fakeScene) applyCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.applies
}

func (f *fakeScene) stopCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.stops
}

func newTestController(t *testing.T, scene *fakeScene, ready bool) (*Controller, chan error) {
	t.Helper()
	applied := make(chan error, 4)
	c := New(context.Background(), Config{
		Scene:       scene,
		Ready:       func() bool { return ready },
		SettleDelay: 10 * time.Millisecond,
		OnApplied: func(cfg models.SceneConfig, err error) {
			applied <- err
		},
	})
	t.Cleanup(c.Close)
	return c, applied
}

func waitApplied(t *testing.T, applied chan error) error {
	t.Helper()
	select {
	case err := <-applied:
		return err
	case <-time.After(2 * time.Second):
		t.Fatal("Timed out waiting for scene apply")
		return nil
	}
}

func TestInitialScreenIsUpload(t *testing.T) {
	c, _ := newTestController(t, &fakeScene{}, true)
	if c.Screen() != models.ScreenUpload {
		t.Errorf("Expected upload screen, got %s", c.Screen())
	}
}

func TestGoToARRequiresReadiness(t *testing.T) {
	scene := &fakeScene{}
	c, _ := newTestController(t, scene, false)

	if err := c.GoToAR(context.Background()); !errors.Is(err, ErrNotReady) {
		t.Fatalf("Expected ErrNotReady, got %v", err)
	}
	if c.Screen() != models.ScreenUpload {
		t.Errorf("Expected screen to stay on upload, got %s", c.Screen())
	}
	time.Sleep(30 * time.Millisecond)
	if scene.applyCount() != 0 {
		t.Errorf("Expected no scene apply, got %d", scene.applyCount())
	}
}

func TestGoToARAppliesAfterSettleDelay(t *testing.T) {
	scene := &fakeScene{}
	c, applied := newTestController(t, scene, true)
	transitions, cancel := c.Subscribe()
	defer cancel()

	start := time.Now()
	if err := c.GoToAR(context.Background()); err != nil {
		t.Fatalf("GoToAR failed: %v", err)
	}
	if c.Screen() != models.ScreenAR {
		t.Fatalf("Expected AR screen, got %s", c.Screen())
	}
	if !c.Pending() {
		t.Error("Expected pending apply right after transition")
	}

	select {
	case tr := <-transitions:
		if tr.From != models.ScreenUpload || tr.To != models.ScreenAR {
			t.Errorf("Unexpected transition %+v", tr)
		}
	default:
		t.Error("Expected a transition notification")
	}

	if err := waitApplied(t, applied); err != nil {
		t.Fatalf("Unexpected apply error: %v", err)
	}
	if elapsed := time.Since(start); elapsed < 10*time.Millisecond {
		t.Errorf("Expected apply after settle delay, fired after %s", elapsed)
	}
	if c.Pending() {
		t.Error("Expected pending to clear after apply")
	}
}

func TestSecondGoToARWhilePendingIsRejected(t *testing.T) {
	scene := &fakeScene{}
	c, applied := newTestController(t, scene, true)

	if err := c.GoToAR(context.Background()); err != nil {
		t.Fatalf("GoToAR failed: %v", err)
	}
	if err := c.GoToAR(context.Background()); !errors.Is(err, ErrPending) {
		t.Errorf("Expected ErrPending, got %v", err)
	}
	waitApplied(t, applied)
	if scene.applyCount() != 1 {
		t.Errorf("Expected exactly one apply, got %d", scene.applyCount())
	}
}

func TestGoToUploadStopsTracking(t *testing.T) {
	scene := &fakeScene{}
	c, applied := newTestController(t, scene, true)

	if err := c.GoToAR(context.Background()); err != nil {
		t.Fatalf("GoToAR failed: %v", err)
	}
	waitApplied(t, applied)

	if err := c.GoToUpload(context.Background()); err != nil {
		t.Fatalf("GoToUpload failed: %v", err)
	}
	if c.Screen() != models.ScreenUpload {
		t.Errorf("Expected upload screen, got %s", c.Screen())
	}
	if scene.stopCount() != 1 || scene.Running() {
		t.Errorf("Expected one stop and idle engine, got stops=%d running=%v", scene.stopCount(), scene.Running())
	}
}

func TestGoToUploadCancelsPendingApply(t *testing.T) {
	scene := &fakeScene{}
	applied := make(chan error, 1)
	c := New(context.Background(), Config{
		Scene:       scene,
		Ready:       func() bool { return true },
		SettleDelay: 50 * time.Millisecond,
		OnApplied:   func(cfg models.SceneConfig, err error) { applied <- err },
	})
	defer c.Close()

	if err := c.GoToAR(context.Background()); err != nil {
		t.Fatalf("GoToAR failed: %v", err)
	}
	if err := c.GoToUpload(context.Background()); err != nil {
		t.Fatalf("GoToUpload failed: %v", err)
	}

	select {
	case <-applied:
		t.Fatal("Expected cancelled apply not to run")
	case <-time.After(120 * time.Millisecond):
	}
	if scene.applyCount() != 0 {
		t.Errorf("Expected no applies, got %d", scene.applyCount())
	}
	if c.Pending() {
		t.Error("Expected nothing pending")
	}
}

func TestGoToUploadFromUploadIsInvalid(t *testing.T) {
	c, _ := newTestController(t, &fakeScene{}, true)
	if err := c.GoToUpload(context.Background()); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("Expected ErrInvalidTransition, got %v", err)
	}
}

func TestApplyErrorIsReported(t *testing.T) {
	scene := &fakeScene{err: errors.New("target load failed")}
	c, applied := newTestController(t, scene, true)

	if err := c.GoToAR(context.Background()); err != nil {
		t.Fatalf("GoToAR failed: %v", err)
	}
	if err := waitApplied(t, applied); err == nil {
		t.Fatal("Expected apply error to be reported")
	}
	if c.Screen() != models.ScreenAR {
		t.Errorf("Expected to stay on AR screen, got %s", c.Screen())
	}
	if err := c.GoToUpload(context.Background()); err != nil {
		t.Errorf("Expected GoToUpload to succeed from AR, got %v", err)
	}
}

func TestNotifierCancelIsIdempotent(t *testing.T) {
	n := NewNotifier()
	_, cancel := n.Subscribe()
	cancel()
	cancel()
	n.publish(models.Transition{To: models.ScreenAR})
}
