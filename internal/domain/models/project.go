// internal/domain/models/project.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Project is a choreography document: metadata, a list of visual elements,
// and one serialized keyframe map.
//
// NOTE:
//   - KeyframesJSON is the sole persisted form of animation keyframes. It is
//     a JSON object string keyed by element id ("{}" when empty). Keyframes
//     are deliberately NOT embedded on elements; the keyed map lets the save
//     path update one element's animation without touching its siblings.
//   - Keys for deleted elements may linger in the blob. They are pruned only
//     by the explicit compaction operation, never as a merge side effect.
type Project struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name        string             `bson:"name" json:"name"`
	Description string             `bson:"description" json:"description"`
	Owner       primitive.ObjectID `bson:"owner" json:"owner"`
	IsPrivate   bool               `bson:"is_private" json:"is_private"`
	Duration    float64            `bson:"duration" json:"duration"` // seconds
	AudioURL    string             `bson:"audio_url,omitempty" json:"audio_url,omitempty"`
	Elements    []Element          `bson:"elements" json:"elements"`

	KeyframesJSON string `bson:"keyframes_json" json:"keyframes_json"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// Element is one positioned, styled, optionally animated visual object.
// It is embedded in Project and has no independent lifecycle.
type Element struct {
	ID        string           `bson:"id" json:"id"`
	Type      string           `bson:"type" json:"type"` // rectangle, circle, image, text, ...
	Position  Point            `bson:"position" json:"position"`
	Size      Size             `bson:"size" json:"size"`
	Style     ElementStyle     `bson:"style" json:"style"`
	Content   string           `bson:"content,omitempty" json:"content,omitempty"` // text or image URL
	Animation ElementAnimation `bson:"animation,omitempty" json:"animation,omitempty"`
}

// Point is a 2D canvas position.
type Point struct {
	X float64 `bson:"x" json:"x"`
	Y float64 `bson:"y" json:"y"`
}

// Size is an element's bounding box.
type Size struct {
	Width  float64 `bson:"width" json:"width"`
	Height float64 `bson:"height" json:"height"`
}

// ElementStyle carries the visual attributes of an element.
type ElementStyle struct {
	Color           string  `bson:"color,omitempty" json:"color,omitempty"`
	BackgroundColor string  `bson:"background_color,omitempty" json:"background_color,omitempty"`
	BorderColor     string  `bson:"border_color,omitempty" json:"border_color,omitempty"`
	BorderWidth     float64 `bson:"border_width,omitempty" json:"border_width,omitempty"`
	Opacity         float64 `bson:"opacity,omitempty" json:"opacity,omitempty"`
	ZIndex          int     `bson:"z_index,omitempty" json:"z_index,omitempty"`
}

// ElementAnimation is the coarse on/off animation window for an element.
// Fine-grained motion lives in the project's keyframe map.
type ElementAnimation struct {
	StartTime float64  `bson:"start_time,omitempty" json:"start_time,omitempty"`
	EndTime   float64  `bson:"end_time,omitempty" json:"end_time,omitempty"`
	Effects   []string `bson:"effects,omitempty" json:"effects,omitempty"`
}

// Keyframe is a timestamped position/opacity sample for one element.
// This is the stored shape; the merge path accepts a looser wire form so a
// malformed sample can be dropped without failing the whole batch.
type Keyframe struct {
	Time     float64 `bson:"time" json:"time"`
	Position Point   `bson:"position" json:"position"`
	Opacity  float64 `bson:"opacity" json:"opacity"`
}

// EmptyKeyframes is the canonical empty keyframe blob.
const EmptyKeyframes = "{}"
