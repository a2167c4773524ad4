package screen

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/lehigh-university-libraries/arviewer/internal/models"
)

const DefaultSettleDelay = 100 * time.Millisecond

var (
	ErrNotReady          = errors.New("required files are missing")
	ErrPending           = errors.New("AR scene is still starting")
	ErrInvalidTransition = errors.New("invalid screen transition")
)

// SceneRunner is the part of the scene initializer the controller drives
type SceneRunner interface {
	Apply(ctx context.Context) (models.SceneConfig, error)
	Stop(ctx context.Context) error
	Running() bool
}

// Controller is the Upload/AR state machine
type Controller struct {
	ctx       context.Context
	scene     SceneRunner
	ready     func() bool
	settle    time.Duration
	notifier  *Notifier
	onApplied func(models.SceneConfig, error)

	mu      sync.Mutex
	screen  models.Screen
	gen     uint64
	timer   *time.Timer
	pending bool
}

// Config wires a controller
type Config struct {
	Scene       SceneRunner
	Ready       func() bool
	SettleDelay time.Duration
	// OnApplied is called after each settle-delay apply that was not cancelled
	OnApplied func(models.SceneConfig, error)
}

// New creates a controller in the Upload state. ctx bounds the scheduled scene applies.
func New(ctx context.Context, cfg Config) *Controller {
	if cfg.SettleDelay <= 0 {
		cfg.SettleDelay = DefaultSettleDelay
	}
	if cfg.Ready == nil {
		cfg.Ready = func() bool { return false }
	}
	return &Controller{
		ctx:       ctx,
		scene:     cfg.Scene,
		ready:     cfg.Ready,
		settle:    cfg.SettleDelay,
		notifier:  NewNotifier(),
		onApplied: cfg.OnApplied,
		screen:    models.ScreenUpload,
	}
}

// Screen returns the current screen
func (c *Controller) Screen() models.Screen {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.screen
}

// Pending reports whether an AR entry is waiting for its scene apply
func (c *Controller) Pending() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pending
}

// Subscribe returns a channel of screen transitions
func (c *Controller) Subscribe() (<-chan models.Transition, func()) {
	return c.notifier.Subscribe()
}

// GoToAR switches to the AR screen and schedules the scene apply after the settle delay.
// Without both required files it does nothing and returns ErrNotReady.
func (c *Controller) GoToAR(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.pending {
		return ErrPending
	}
	if c.screen != models.ScreenUpload {
		return ErrInvalidTransition
	}
	if !c.ready() {
		return ErrNotReady
	}

	c.screen = models.ScreenAR
	c.gen++
	c.pending = true
	gen := c.gen
	c.timer = time.AfterFunc(c.settle, func() { c.fire(gen) })

	c.notifier.publish(models.Transition{From: models.ScreenUpload, To: models.ScreenAR, At: time.Now()})
	slog.Info("Screen changed", "from", models.ScreenUpload, "to", models.ScreenAR, "settle", c.settle)
	return nil
}

// GoToUpload stops tracking and returns to the Upload screen
func (c *Controller) GoToUpload(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.screen != models.ScreenAR {
		return ErrInvalidTransition
	}

	c.gen++
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	c.pending = false

	if c.scene != nil && c.scene.Running() {
		if err := c.scene.Stop(ctx); err != nil {
			slog.Error("Unable to stop AR tracking", "err", err)
		}
	}

	c.screen = models.ScreenUpload
	c.notifier.publish(models.Transition{From: models.ScreenAR, To: models.ScreenUpload, At: time.Now()})
	slog.Info("Screen changed", "from", models.ScreenAR, "to", models.ScreenUpload)
	return nil
}

// Close cancels any scheduled apply
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gen++
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	c.pending = false
}

func (c *Controller) fire(gen uint64) {
	c.mu.Lock()
	if gen != c.gen || c.screen != models.ScreenAR {
		c.mu.Unlock()
		return
	}
	c.timer = nil
	c.mu.Unlock()

	var (
		cfg models.SceneConfig
		err error
	)
	if c.scene != nil {
		cfg, err = c.scene.Apply(c.ctx)
	}

	c.mu.Lock()
	stale := gen != c.gen
	if !stale {
		c.pending = false
	}
	c.mu.Unlock()

	if stale {
		// the user left AR while the apply was running
		if c.scene != nil && c.scene.Running() {
			if stopErr := c.scene.Stop(c.ctx); stopErr != nil {
				slog.Error("Unable to stop AR tracking", "err", stopErr)
			}
		}
		return
	}
	if c.onApplied != nil {
		c.onApplied(cfg, err)
	}
}
