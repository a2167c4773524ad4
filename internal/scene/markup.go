package scene

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"log/slog"
	"sync"

	"github.com/lehigh-university-libraries/arviewer/internal/imaging"
	"github.com/lehigh-university-libraries/arviewer/internal/storage"
)

// BlobSource resolves handle URIs to their data
type BlobSource interface {
	Get(handle string) (*storage.Blob, bool)
}

// Options is the MindAR configuration rendered onto the scene
type Options struct {
	MaxTrack   int
	UILoading  bool
	UIScanning bool
	UIError    bool
}

func DefaultOptions() Options {
	return Options{
		MaxTrack:   1,
		UILoading:  true,
		UIScanning: true,
		UIError:    true,
	}
}

type markupData struct {
	Generation  int
	TrackerURI  string
	ImageURI    string
	ModelURI    string
	Placeholder bool
	AutoStart   bool
	MaxTrack    int
	UILoading   string
	UIScanning  string
	UIError     string
	AspectRatio float64
}

var sceneTemplate = template.Must(template.New("scene").Parse(`<a-scene id="arScene" data-generation="{{.Generation}}" mindar-image="imageTargetSrc: {{.TrackerURI}}; maxTrack: {{.MaxTrack}}; autoStart: {{.AutoStart}}; uiLoading: {{.UILoading}}; uiScanning: {{.UIScanning}}; uiError: {{.UIError}};" color-space="sRGB" renderer="colorManagement: true, physicallyCorrectLights" vr-mode-ui="enabled: false" device-orientation-permission-ui="enabled: false">
  <a-assets>
    <img id="card" src="{{.ImageURI}}" crossorigin="anonymous" />
{{- if .ModelURI}}
    <a-asset-item id="uploadedModelAsset" src="{{.ModelURI}}"></a-asset-item>
{{- end}}
  </a-assets>
  <a-camera position="0 0 0" look-controls="enabled: false"></a-camera>
  <a-light type="ambient" intensity="0.8"></a-light>
  <a-light type="directional" position="0 1 1" intensity="0.6"></a-light>
  <a-entity mindar-image-target="targetIndex: 0">
    <a-plane src="#card" position="0 0 0" height="{{printf "%.3f" .AspectRatio}}" width="1" rotation="0 0 0"></a-plane>
{{- if .ModelURI}}
    <a-gltf-model id="uploadedModel" src="#uploadedModelAsset" position="0 0 0.1" scale="0.1 0.1 0.1" rotation="0 0 0" visible="true"></a-gltf-model>
{{- end}}
{{- if .Placeholder}}
    <a-box id="placeholderBox" position="0 0 0.1" scale="0.2 0.2 0.2" color="#667eea" visible="true"></a-box>
    <a-text id="placeholderText" value="Upload a 3D model to see it here" position="0 0.3 0.1" align="center" width="1.5" color="#ffffff" visible="true"></a-text>
{{- end}}
  </a-entity>
</a-scene>
`))

// MarkupEngine renders the whole a-scene subtree from scratch on every start.
// MindAR only reads imageTargetSrc when it attaches, so the page swaps the
// subtree wholesale instead of patching attributes.
type MarkupEngine struct {
	blobs   BlobSource
	opts    Options
	state   markupData
	markup  string
	running bool
	mu      sync.Mutex
}

func NewMarkupEngine(blobs BlobSource, opts Options) *MarkupEngine {
	if opts.MaxTrack <= 0 {
		opts.MaxTrack = 1
	}
	e := &MarkupEngine{
		blobs: blobs,
		opts:  opts,
	}
	e.state = e.baseState()
	e.state.Placeholder = true
	e.markup = e.render(e.state)
	return e
}

func (e *MarkupEngine) LoadReference(ctx context.Context, imageURI string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	blob, ok := e.blobs.Get(imageURI)
	if !ok {
		return fmt.Errorf("reference image %s is not available", imageURI)
	}
	w, h, err := imaging.Dimensions(blob.Data)
	if err != nil {
		return fmt.Errorf("failed to decode reference image: %w", err)
	}
	if w == 0 || h == 0 {
		return fmt.Errorf("reference image has no pixels")
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.state.AspectRatio = float64(h) / float64(w)
	return nil
}

// Stop ends tracking and swaps in an idle subtree that references no handles
func (e *MarkupEngine) Stop(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.running = false
	aspect := e.state.AspectRatio
	generation := e.state.Generation
	e.state = e.baseState()
	e.state.Generation = generation
	e.state.AspectRatio = aspect
	e.state.Placeholder = true
	e.markup = e.render(e.state)
	return nil
}

func (e *MarkupEngine) Configure(ctx context.Context, trackerURI, imageURI string) error {
	if trackerURI == "" || imageURI == "" {
		return fmt.Errorf("tracker and image handles are required")
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	aspect := e.state.AspectRatio
	generation := e.state.Generation
	e.state = e.baseState()
	e.state.Generation = generation
	e.state.AspectRatio = aspect
	e.state.TrackerURI = trackerURI
	e.state.ImageURI = imageURI
	return nil
}

func (e *MarkupEngine) AttachModel(ctx context.Context, modelURI string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.state.ModelURI = modelURI
	e.state.Placeholder = false
	return nil
}

func (e *MarkupEngine) ShowPlaceholder(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.state.ModelURI = ""
	e.state.Placeholder = true
	return nil
}

func (e *MarkupEngine) Start(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.state.AutoStart = true
	e.state.Generation++
	e.markup = e.render(e.state)
	e.running = true
	return nil
}

func (e *MarkupEngine) Running() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.running
}

// Markup returns the scene subtree produced by the last start, or the idle subtree after a stop
func (e *MarkupEngine) Markup() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.markup
}

// Generation counts how many times the subtree has been rebuilt
func (e *MarkupEngine) Generation() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state.Generation
}

func (e *MarkupEngine) baseState() markupData {
	return markupData{
		MaxTrack:    e.opts.MaxTrack,
		UILoading:   yesNo(e.opts.UILoading),
		UIScanning:  yesNo(e.opts.UIScanning),
		UIError:     yesNo(e.opts.UIError),
		AspectRatio: 0.552,
	}
}

func (e *MarkupEngine) render(data markupData) string {
	var buf bytes.Buffer
	if err := sceneTemplate.Execute(&buf, data); err != nil {
		slog.Error("Unable to render scene markup", "err", err)
		return ""
	}
	return buf.String()
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
