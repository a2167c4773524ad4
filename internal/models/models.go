package models

import (
	"fmt"
	"strings"
	"time"
)

// SlotKind identifies one of the three asset slots
type SlotKind string

const (
	SlotTracker SlotKind = "tracker"
	SlotImage   SlotKind = "image"
	SlotModel   SlotKind = "model"
)

// SlotKinds lists the slots in display order
var SlotKinds = []SlotKind{SlotTracker, SlotImage, SlotModel}

// ParseSlotKind maps a URL segment or form value to a slot kind
func ParseSlotKind(s string) (SlotKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "tracker", "mind":
		return SlotTracker, nil
	case "image", "reference":
		return SlotImage, nil
	case "model":
		return SlotModel, nil
	default:
		return "", fmt.Errorf("unknown slot kind: %q", s)
	}
}

// Required reports whether the slot must be filled before AR can start
func (k SlotKind) Required() bool {
	return k == SlotTracker || k == SlotImage
}

// Label is the human readable name used in status text
func (k SlotKind) Label() string {
	switch k {
	case SlotTracker:
		return ".mind file"
	case SlotImage:
		return "target image"
	case SlotModel:
		return "3D model"
	default:
		return string(k)
	}
}

// Screen is the visible UI state
type Screen string

const (
	ScreenUpload Screen = "upload"
	ScreenAR     Screen = "ar"
)

// Accent is the visual colour attached to a status message
type Accent string

const (
	AccentSuccess Accent = "success"
	AccentInfo    Accent = "info"
	AccentError   Accent = "error"
)

// Color returns the border colour the page uses for the accent
func (a Accent) Color() string {
	switch a {
	case AccentSuccess:
		return "#4CAF50"
	case AccentError:
		return "#ff4444"
	default:
		return "#667eea"
	}
}

// Status is the user-facing status line
type Status struct {
	Text   string `json:"text"`
	Accent Accent `json:"accent"`
	Color  string `json:"color"`
}

// NewStatus builds a status with its colour filled in
func NewStatus(text string, accent Accent) Status {
	return Status{Text: text, Accent: accent, Color: accent.Color()}
}

// Affordance describes the "start" button
type Affordance struct {
	Enabled bool   `json:"enabled"`
	Label   string `json:"label"`
}

// SlotState is the public view of an asset slot
type SlotState struct {
	Kind       SlotKind `json:"kind"`
	Required   bool     `json:"required"`
	Filename   string   `json:"filename,omitempty"`
	Size       int64    `json:"size,omitempty"`
	MIMEType   string   `json:"mime_type,omitempty"`
	HandleURI  string   `json:"handle,omitempty"`
	Processing bool     `json:"processing"`
}

// SceneConfig is derived from the session's live handles whenever the scene is applied
type SceneConfig struct {
	TrackerURI string `json:"tracker_uri"`
	ImageURI   string `json:"image_uri"`
	ModelURI   string `json:"model_uri,omitempty"`
}

// HasModel reports whether a model should be attached to the anchor
func (c SceneConfig) HasModel() bool {
	return c.ModelURI != ""
}

// SessionState is returned by the session API
type SessionState struct {
	Screen  Screen      `json:"screen"`
	Status  Status      `json:"status"`
	Start   Affordance  `json:"start"`
	Slots   []SlotState `json:"slots"`
	Running bool        `json:"running"`
	Scene   string      `json:"scene,omitempty"`
}

// Transition is emitted whenever the screen changes
type Transition struct {
	From Screen    `json:"from"`
	To   Screen    `json:"to"`
	At   time.Time `json:"at"`
}

// UploadResult is returned by the legacy upload route
type UploadResult struct {
	MindURL  string `json:"mindUrl"`
	ImageURL string `json:"imageUrl"`
}

// File is a user-supplied file held in memory
type File struct {
	Name     string
	MIMEType string
	Data     []byte
}

// Size returns the byte size of the file
func (f File) Size() int64 {
	return int64(len(f.Data))
}
