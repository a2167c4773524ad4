package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/lehigh-university-libraries/arviewer/internal/assets"
	"github.com/lehigh-university-libraries/arviewer/internal/hints"
	"github.com/lehigh-university-libraries/arviewer/internal/models"
	"github.com/lehigh-university-libraries/arviewer/internal/observability"
	"github.com/lehigh-university-libraries/arviewer/internal/scene"
	"github.com/lehigh-university-libraries/arviewer/internal/screen"
)

const (
	LabelStart      = "Start AR Experience"
	LabelRequired   = "Upload Required Files First"
	LabelProcessing = "Processing image..."
	LabelStarting   = "Starting AR..."
	LabelRunning    = "AR Experience Running"
)

// Engine is the scene engine as seen by the session
type Engine interface {
	scene.Engine
	Markup() string
}

// Config wires a session
type Config struct {
	Validator     *assets.Validator
	Store         *assets.Store
	Engine        Engine
	Hints         *hints.Store
	Metrics       *observability.Collector
	SettleDelay   time.Duration
	ReleaseOnBack bool
}

// Session is the process-wide aggregate of the three asset slots and the current screen
type Session struct {
	validator     *assets.Validator
	store         *assets.Store
	engine        Engine
	scene         *scene.Initializer
	screen        *screen.Controller
	hints         *hints.Store
	metrics       *observability.Collector
	releaseOnBack bool

	mu         sync.Mutex
	status     models.Status
	gens       map[models.SlotKind]uint64
	processing map[models.SlotKind]bool
	applies    uint64
	// arActive is set when GoToAR commits and cleared by Back. Slots are read-only while set.
	arActive bool
	closed   bool
}

// New creates the session. ctx bounds background scene applies.
func New(ctx context.Context, cfg Config) *Session {
	if cfg.Store == nil {
		cfg.Store = assets.NewStore(nil)
	}
	if cfg.Validator == nil {
		cfg.Validator = assets.NewValidator(nil)
	}
	if cfg.Engine == nil {
		cfg.Engine = scene.NewMarkupEngine(cfg.Store.Handles(), scene.DefaultOptions())
	}
	if cfg.Hints == nil {
		cfg.Hints = hints.New("")
	}

	s := &Session{
		validator:     cfg.Validator,
		store:         cfg.Store,
		engine:        cfg.Engine,
		hints:         cfg.Hints,
		metrics:       cfg.Metrics,
		releaseOnBack: cfg.ReleaseOnBack,
		gens:          make(map[models.SlotKind]uint64),
		processing:    make(map[models.SlotKind]bool),
	}
	s.scene = scene.NewInitializer(cfg.Engine, cfg.Store)
	s.screen = screen.New(ctx, screen.Config{
		Scene:       s.scene,
		Ready:       s.ready,
		SettleDelay: cfg.SettleDelay,
		OnApplied:   s.applied,
	})
	s.status = s.initialStatus()
	return s
}

func (s *Session) initialStatus() models.Status {
	h, err := s.hints.Load()
	if err != nil {
		slog.Warn("Unable to load display hints", "err", err)
	}
	if msg := h.Message(); msg != "" {
		return models.NewStatus(msg, models.AccentInfo)
	}
	return models.NewStatus("Please upload all required files to start AR experience", models.AccentInfo)
}

// Select validates f for the slot and stores it. Oversized reference images are
// compressed first; if the slot is reassigned meanwhile the result is discarded.
func (s *Session) Select(ctx context.Context, kind models.SlotKind, f models.File) error {
	s.mu.Lock()
	if s.arActive {
		s.mu.Unlock()
		s.metrics.ObserveSelection(string(kind), "locked")
		return ErrSlotsLocked
	}
	s.gens[kind]++
	gen := s.gens[kind]
	slow := s.validator.NeedsProcessing(kind, f)
	if slow {
		s.processing[kind] = true
		s.status = models.NewStatus("Processing image...", models.AccentInfo)
	}
	s.mu.Unlock()

	started := time.Now()
	out, err := s.validator.Validate(ctx, kind, f)
	if slow {
		s.metrics.ObserveCompression(time.Since(started))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.gens[kind] != gen {
		slog.Info("Discarding stale selection", "slot", kind, "name", f.Name)
		s.metrics.ObserveSelection(string(kind), "superseded")
		return ErrSuperseded
	}
	delete(s.processing, kind)
	if s.arActive {
		// AR started while a quick selection was validating
		s.metrics.ObserveSelection(string(kind), "locked")
		return ErrSlotsLocked
	}

	if err != nil {
		s.store.Clear(kind)
		s.status = rejectionStatus(kind, err)
		s.metrics.ObserveSelection(string(kind), outcome(err))
		s.metrics.SetLiveHandles(s.store.Handles().Live())
		slog.Warn("File rejected", "slot", kind, "name", f.Name, "err", err)
		return err
	}

	s.store.Set(kind, &out)
	s.metrics.ObserveSelection(string(kind), "accepted")
	s.metrics.SetLiveHandles(s.store.Handles().Live())
	s.status = s.acceptedStatus(kind, out)
	slog.Info("File loaded", "slot", kind, "name", out.Name, "bytes", out.Size())
	return nil
}

// Clear empties a slot and invalidates any selection still processing for it
func (s *Session) Clear(kind models.SlotKind) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.arActive {
		return ErrSlotsLocked
	}
	s.gens[kind]++
	delete(s.processing, kind)
	s.store.Clear(kind)
	s.metrics.SetLiveHandles(s.store.Handles().Live())
	s.status = s.readinessStatus()
	return nil
}

// Start enters the AR screen. The scene is applied after the settle delay.
func (s *Session) Start(ctx context.Context) error {
	s.mu.Lock()
	applies := s.applies
	s.mu.Unlock()

	if err := s.screen.GoToAR(ctx); err != nil {
		return err
	}
	s.metrics.ObserveTransition(string(models.ScreenAR))

	h := hints.Hints{}
	if f, ok := s.store.File(models.SlotTracker); ok {
		h.MindFileName = f.Name
	}
	if f, ok := s.store.File(models.SlotImage); ok {
		h.ImageFileName = f.Name
	}
	if f, ok := s.store.File(models.SlotModel); ok {
		h.ModelFileName = f.Name
	}
	if err := s.hints.Save(h); err != nil {
		slog.Warn("Unable to save display hints", "err", err)
	}

	s.mu.Lock()
	if s.applies == applies {
		s.status = models.NewStatus("Starting AR experience...", models.AccentInfo)
	}
	s.mu.Unlock()
	return nil
}

// Back stops tracking and returns to the Upload screen
func (s *Session) Back(ctx context.Context) error {
	if err := s.screen.GoToUpload(ctx); err != nil {
		return err
	}
	s.metrics.ObserveTransition(string(models.ScreenUpload))

	if s.releaseOnBack {
		s.store.ReleaseHandle(models.SlotTracker)
		s.store.ReleaseHandle(models.SlotImage)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.arActive = false
	s.metrics.SetLiveHandles(s.store.Handles().Live())
	s.status = s.readinessStatus()
	return nil
}

// ReportTransportError records a failed network round trip and returns it as a *TransportError
func (s *Session) ReportTransportError(op string, err error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = models.NewStatus("Upload failed. Please check your connection and try again.", models.AccentError)
	slog.Error("Transport failure", "op", op, "err", err)
	return &TransportError{Op: op, Err: err}
}

// Subscribe returns a channel of screen transitions
func (s *Session) Subscribe() (<-chan models.Transition, func()) {
	return s.screen.Subscribe()
}

// Screen returns the current screen
func (s *Session) Screen() models.Screen {
	return s.screen.Screen()
}

// Status returns the current status line
func (s *Session) Status() models.Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// Markup returns the current AR scene subtree
func (s *Session) Markup() string {
	return s.engine.Markup()
}

// Affordance returns the state of the start button
func (s *Session) Affordance() models.Affordance {
	scr, pending := s.screen.Screen(), s.screen.Pending()
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.affordance(scr, pending)
}

// State returns a snapshot for the page
func (s *Session) State() models.SessionState {
	scr, pending := s.screen.Screen(), s.screen.Pending()
	running := s.scene.Running()
	// only a scene applied for the current AR entry is handed out; while the
	// apply is pending the previous run's subtree may name released handles
	var markup string
	if scr == models.ScreenAR && running && !pending {
		markup = s.engine.Markup()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	slots := make([]models.SlotState, 0, len(models.SlotKinds))
	for _, kind := range models.SlotKinds {
		st := models.SlotState{
			Kind:       kind,
			Required:   kind.Required(),
			Processing: s.processing[kind],
		}
		if f, ok := s.store.File(kind); ok {
			st.Filename = f.Name
			st.Size = f.Size()
			st.MIMEType = f.MIMEType
			st.HandleURI = s.store.Handle(kind)
		}
		slots = append(slots, st)
	}

	return models.SessionState{
		Screen:  scr,
		Status:  s.status,
		Start:   s.affordance(scr, pending),
		Slots:   slots,
		Running: running,
		Scene:   markup,
	}
}

// Close stops tracking and releases every live handle. Called once at teardown.
func (s *Session) Close() {
	s.screen.Close()
	if err := s.scene.Stop(context.Background()); err != nil {
		slog.Error("Unable to stop AR tracking", "err", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	n := s.store.ReleaseAll()
	s.metrics.SetLiveHandles(s.store.Handles().Live())
	slog.Info("Session closed", "released_handles", n)
}

func (s *Session) ready() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	// GoToAR calls this last, so a true result always commits the transition
	ok := len(s.processing) == 0 && s.store.Ready()
	if ok {
		s.arActive = true
	}
	return ok
}

func (s *Session) applied(cfg models.SceneConfig, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.applies++
	if err != nil {
		var loadErr *scene.SceneLoadError
		if errors.As(err, &loadErr) {
			s.status = models.NewStatus("Failed to load target image. Please try another image.", models.AccentError)
		} else {
			s.status = models.NewStatus("Unable to start AR experience: "+err.Error(), models.AccentError)
		}
		s.metrics.ObserveSceneApply("failed")
		return
	}
	s.metrics.ObserveSceneApply("ok")
	s.metrics.SetLiveHandles(s.store.Handles().Live())
	s.status = models.NewStatus("AR experience running. Point your camera at the target image.", models.AccentSuccess)
}

func (s *Session) affordance(scr models.Screen, pending bool) models.Affordance {
	switch {
	case len(s.processing) > 0:
		return models.Affordance{Label: LabelProcessing}
	case pending:
		return models.Affordance{Label: LabelStarting}
	case scr == models.ScreenAR:
		return models.Affordance{Label: LabelRunning}
	case s.store.Ready():
		return models.Affordance{Enabled: true, Label: LabelStart}
	default:
		return models.Affordance{Label: LabelRequired}
	}
}

func (s *Session) acceptedStatus(kind models.SlotKind, f models.File) models.Status {
	if kind.Required() && s.store.Ready() && len(s.processing) == 0 {
		return models.NewStatus("All files loaded! Ready to start AR experience.", models.AccentSuccess)
	}
	switch kind {
	case models.SlotTracker:
		return models.NewStatus(".mind file loaded successfully", models.AccentSuccess)
	case models.SlotImage:
		return models.NewStatus("Target image loaded successfully", models.AccentSuccess)
	default:
		return models.NewStatus(fmt.Sprintf("3D model %q loaded successfully", f.Name), models.AccentSuccess)
	}
}

func (s *Session) readinessStatus() models.Status {
	if s.store.Ready() {
		return models.NewStatus("All files loaded! Ready to start AR experience.", models.AccentSuccess)
	}
	needed := make([]string, 0, 2)
	for _, kind := range s.store.Missing() {
		needed = append(needed, kind.Label())
	}
	return models.NewStatus("Required: "+strings.Join(needed, " and "), models.AccentError)
}

func rejectionStatus(kind models.SlotKind, err error) models.Status {
	var perr *assets.ProcessingError
	if errors.As(err, &perr) {
		return models.NewStatus("Error processing image. Please try again.", models.AccentError)
	}
	switch kind {
	case models.SlotTracker:
		return models.NewStatus("Please select a valid .mind file", models.AccentError)
	case models.SlotImage:
		return models.NewStatus("Please select a valid image file (PNG/JPG)", models.AccentError)
	default:
		return models.NewStatus("Please select a valid .glb or .gltf file", models.AccentError)
	}
}

func outcome(err error) string {
	var perr *assets.ProcessingError
	if errors.As(err, &perr) {
		return "failed"
	}
	return "rejected"
}
