package scene

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/lehigh-university-libraries/arviewer/internal/models"
)

// Engine is the configuration surface of the external AR/3D engine
type Engine interface {
	// LoadReference decodes the reference image the target plane will show
	LoadReference(ctx context.Context, imageURI string) error
	// Stop ends the running tracking session. Safe to call when idle.
	Stop(ctx context.Context) error
	Configure(ctx context.Context, trackerURI, imageURI string) error
	AttachModel(ctx context.Context, modelURI string) error
	ShowPlaceholder(ctx context.Context) error
	// Start re-arms auto start so detection begins without user action
	Start(ctx context.Context) error
	Running() bool
}

// HandleSource provides the live handles the scene is built from
type HandleSource interface {
	EnsureHandle(kind models.SlotKind) (string, error)
	Handle(kind models.SlotKind) string
}

// SceneLoadError means the reference image could not be loaded into the scene
type SceneLoadError struct {
	URI string
	Err error
}

func (e *SceneLoadError) Error() string {
	return fmt.Sprintf("target load failed: %v", e.Err)
}

func (e *SceneLoadError) Unwrap() error {
	return e.Err
}

// Initializer drives the engine through the ordered reinitialization sequence
type Initializer struct {
	engine  Engine
	handles HandleSource
	applied *models.SceneConfig
	mu      sync.Mutex
}

func NewInitializer(engine Engine, handles HandleSource) *Initializer {
	return &Initializer{
		engine:  engine,
		handles: handles,
	}
}

// Config derives the scene config, creating required handles if they were released
func (i *Initializer) Config() (models.SceneConfig, error) {
	tracker, err := i.handles.EnsureHandle(models.SlotTracker)
	if err != nil {
		return models.SceneConfig{}, fmt.Errorf("failed to resolve tracker handle: %w", err)
	}
	image, err := i.handles.EnsureHandle(models.SlotImage)
	if err != nil {
		return models.SceneConfig{}, fmt.Errorf("failed to resolve image handle: %w", err)
	}
	return models.SceneConfig{
		TrackerURI: tracker,
		ImageURI:   image,
		ModelURI:   i.handles.Handle(models.SlotModel),
	}, nil
}

// Apply derives the config from the handle source and applies it
func (i *Initializer) Apply(ctx context.Context) (models.SceneConfig, error) {
	i.mu.Lock()
	defer i.mu.Unlock()

	cfg, err := i.Config()
	if err != nil {
		return models.SceneConfig{}, err
	}
	if err := i.apply(ctx, cfg); err != nil {
		return models.SceneConfig{}, err
	}
	return cfg, nil
}

// ApplyConfig applies an explicit config
func (i *Initializer) ApplyConfig(ctx context.Context, cfg models.SceneConfig) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.apply(ctx, cfg)
}

// The reference image is loaded before the running session is stopped so a
// failed load leaves the previous scene as it was.
func (i *Initializer) apply(ctx context.Context, cfg models.SceneConfig) error {
	if err := i.engine.LoadReference(ctx, cfg.ImageURI); err != nil {
		slog.Error("Reference image failed to load", "uri", cfg.ImageURI, "err", err)
		return &SceneLoadError{URI: cfg.ImageURI, Err: err}
	}

	if err := i.engine.Stop(ctx); err != nil {
		return fmt.Errorf("failed to stop tracking: %w", err)
	}

	if err := i.engine.Configure(ctx, cfg.TrackerURI, cfg.ImageURI); err != nil {
		return fmt.Errorf("failed to configure target: %w", err)
	}

	if cfg.HasModel() {
		if err := i.engine.AttachModel(ctx, cfg.ModelURI); err != nil {
			return fmt.Errorf("failed to attach model: %w", err)
		}
	} else if err := i.engine.ShowPlaceholder(ctx); err != nil {
		return fmt.Errorf("failed to show placeholder: %w", err)
	}

	if err := i.engine.Start(ctx); err != nil {
		return fmt.Errorf("failed to start tracking: %w", err)
	}

	applied := cfg
	i.applied = &applied
	slog.Info("AR scene applied", "tracker", cfg.TrackerURI, "image", cfg.ImageURI, "model", cfg.ModelURI)
	return nil
}

// Stop tears down the running tracking session, if any
func (i *Initializer) Stop(ctx context.Context) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	if !i.engine.Running() {
		return nil
	}
	if err := i.engine.Stop(ctx); err != nil {
		return fmt.Errorf("failed to stop tracking: %w", err)
	}
	slog.Info("AR tracking stopped")
	return nil
}

// Running reports whether the engine is tracking
func (i *Initializer) Running() bool {
	return i.engine.Running()
}

// Applied returns the last successfully applied config
func (i *Initializer) Applied() (models.SceneConfig, bool) {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.applied == nil {
		return models.SceneConfig{}, false
	}
	return *i.applied, true
}
