package meta

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ResourceStatus represents the current state of a resource
type ResourceStatus struct {
	// Phase represents the current phase of the resource
	Phase string `json:"phase,omitempty"`

	// Message provides a human-readable message indicating details about why the resource is in this phase
	Message string `json:"message,omitempty"`

	// Reason is a brief CamelCase string that describes any failure and is meant for machine parsing
	Reason string `json:"reason,omitempty"`

	// LastTransitionTime is the last time the condition transitioned from one status to another
	LastTransitionTime time.Time `json:"last_transition_time,omitempty"`
}

// TypeMeta describes an individual object in an API response or request
// with strings representing the type of the object and its API schema version.
type TypeMeta struct {
	// Kind is a string value representing the REST resource this object represents.
	Kind string `json:"kind,omitempty"`

	// APIVersion defines the versioned schema of this representation of an object.
	APIVersion string `json:"api_version,omitempty"`
}

// ObjectMeta is the row identity shared by every persisted record: a store-assigned
// uuid and server-maintained timestamps. Clients never write these columns directly.
type ObjectMeta struct {
	// ID is assigned on insert and never changes afterwards.
	ID string `gorm:"primaryKey;type:varchar(36)" json:"id"`

	// CreatedAt is set by gorm when the row is inserted.
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`

	// UpdatedAt is refreshed by gorm on every update.
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// GetID returns the ID of the record
func (o *ObjectMeta) GetID() string {
	return o.ID
}

// BeforeCreate is a GORM hook that assigns a fresh uuid when none was supplied.
// Supplied timestamps are stored in UTC so text-encoded columns sort chronologically.
func (o *ObjectMeta) BeforeCreate(tx *gorm.DB) error {
	if o.ID == "" {
		o.ID = uuid.NewString()
	}
	if !o.CreatedAt.IsZero() {
		o.CreatedAt = o.CreatedAt.UTC()
	}
	if !o.UpdatedAt.IsZero() {
		o.UpdatedAt = o.UpdatedAt.UTC()
	}
	return nil
}

// BaseResource is the base type that versioned API resources embed
type BaseResource struct {
	TypeMeta   `json:",inline"`
	ObjectMeta `json:",inline"`

	// ResourceVersion identifies the internal version of this object
	// so clients can tell when it has changed.
	ResourceVersion int `json:"resource_version,omitempty" gorm:"column:resource_version"`

	// Annotations are unstructured key value data stored with a resource.
	Annotations map[string]string `gorm:"serializer:json" json:"annotations,omitempty"`

	// Status represents the current state of the resource
	Status ResourceStatus `json:"status,omitempty" gorm:"embedded;embeddedPrefix:status_"`
}

// ResourceValidator defines the interface for resource validation
type ResourceValidator interface {
	Validate() error
}

// GetResourceVersion returns the resource version
func (b *BaseResource) GetResourceVersion() int {
	return b.ResourceVersion
}

// SetResourceVersion overwrites the resource version
func (b *BaseResource) SetResourceVersion(version int) {
	b.ResourceVersion = version
}

// GetKind returns the kind of the resource
func (b *BaseResource) GetKind() string {
	return b.Kind
}

// GetAPIVersion returns the API version
func (b *BaseResource) GetAPIVersion() string {
	return b.APIVersion
}

// SetStatus updates the resource status
func (b *BaseResource) SetStatus(phase, message, reason string) {
	b.Status.Phase = phase
	b.Status.Message = message
	b.Status.Reason = reason
	b.Status.LastTransitionTime = time.Now()
}

// Validate performs basic validation of the resource
func (b *BaseResource) Validate() error {
	if b.Kind == "" {
		return errors.New("kind is required")
	}
	if b.APIVersion == "" {
		return errors.New("apiVersion is required")
	}
	return nil
}

// BeforeCreate is a GORM hook that runs before creating a resource
func (b *BaseResource) BeforeCreate(tx *gorm.DB) error {
	if err := b.ObjectMeta.BeforeCreate(tx); err != nil {
		return err
	}
	if b.ResourceVersion == 0 {
		b.ResourceVersion = 1
	}

	if b.Status.Phase == "" {
		b.SetStatus("Pending", "Resource is being created", "")
	}

	return b.Validate()
}

// BeforeUpdate is a GORM hook that runs before updating a resource
func (b *BaseResource) BeforeUpdate(tx *gorm.DB) error {
	b.ResourceVersion++
	return b.Validate()
}

// SetAnnotation sets an annotation key-value pair
func (b *BaseResource) SetAnnotation(key, value string) {
	if b.Annotations == nil {
		b.Annotations = make(map[string]string)
	}
	b.Annotations[key] = value
}

// GetAnnotation gets an annotation value by key
func (b *BaseResource) GetAnnotation(key string) (string, bool) {
	if b.Annotations == nil {
		return "", false
	}
	value, exists := b.Annotations[key]
	return value, exists
}

// DeleteAnnotation deletes an annotation key
func (b *BaseResource) DeleteAnnotation(key string) {
	if b.Annotations == nil {
		return
	}
	delete(b.Annotations, key)
}
