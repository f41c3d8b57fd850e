package apiv1

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"community-admin/meta"
)

// Column names used for ordering and single-field updates.
const (
	ColumnDisplayOrder = "display_order"
	ColumnCreatedAt    = "created_at"
)

// Storage location of partner avatars.
const (
	AvatarBucket = "partners_images"
	AvatarFolder = "partner_testimonials"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	if err := v.RegisterValidation("notblank", notBlank); err != nil {
		panic(fmt.Sprintf("failed to register notblank validator: %v", err))
	}
	return v
}

func notBlank(fl validator.FieldLevel) bool {
	return strings.TrimSpace(fl.Field().String()) != ""
}

func validationError(err error) error {
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		var messages []string
		for _, fieldErr := range validationErrors {
			messages = append(messages, fmt.Sprintf("Field: %s, Tag: %s", fieldErr.Field(), fieldErr.Tag()))
		}
		return fmt.Errorf("validation failed: %v", messages)
	}
	return fmt.Errorf("validation error: %w", err)
}

// PartnerTestimonial is a partner's quoted endorsement plus its display metadata.
// It is the row shape of the partner_testimonials table.
type PartnerTestimonial struct {
	meta.ObjectMeta

	// PartnerName is the endorsing partner, never blank
	PartnerName string `gorm:"size:255;not null" json:"partner_name"`

	// PartnerTitle is the partner's role or organization
	PartnerTitle *string `gorm:"size:255" json:"partner_title"`

	// Testimonial is the quoted endorsement body
	Testimonial string `gorm:"type:text;not null" json:"testimonial"`

	// AvatarURL is the public URL of an uploaded avatar
	AvatarURL *string `gorm:"type:text" json:"avatar_url"`

	// DisplayOrder positions the testimonial in lists; duplicates and gaps are allowed
	DisplayOrder int `gorm:"not null;index" json:"display_order"`

	// IsActive marks testimonials shown on the public site
	IsActive bool `gorm:"not null" json:"is_active"`
}

// TableName specifies the table name for GORM
func (PartnerTestimonial) TableName() string {
	return "partner_testimonials"
}

// Validate checks the required text fields of a row
func (p *PartnerTestimonial) Validate() error {
	if strings.TrimSpace(p.PartnerName) == "" {
		return errors.New("partner_name is required")
	}
	if strings.TrimSpace(p.Testimonial) == "" {
		return errors.New("testimonial is required")
	}
	return nil
}

// Matches reports whether query occurs, case-insensitively, in the partner name,
// title or testimonial body. An empty query matches everything.
func (p *PartnerTestimonial) Matches(query string) bool {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return true
	}
	for _, field := range []string{p.PartnerName, deref(p.PartnerTitle), p.Testimonial} {
		if strings.Contains(strings.ToLower(field), query) {
			return true
		}
	}
	return false
}

// OrderRef pairs a testimonial id with the display order the caller last observed.
type OrderRef struct {
	ID           string `json:"id" binding:"required"`
	DisplayOrder int    `json:"display_order"`
}

// NewPartnerTestimonial is the insert payload. Omitted optional fields take
// their defaults: display order 0 and active.
type NewPartnerTestimonial struct {
	PartnerName  string  `json:"partner_name" binding:"required" validate:"required,notblank,max=255"`
	PartnerTitle *string `json:"partner_title" validate:"omitempty,max=255"`
	Testimonial  string  `json:"testimonial" binding:"required" validate:"required,notblank"`
	AvatarURL    *string `json:"avatar_url"`
	DisplayOrder *int    `json:"display_order"`
	IsActive     *bool   `json:"is_active"`
}

// Validate checks the insert payload
func (n *NewPartnerTestimonial) Validate() error {
	if err := validate.Struct(n); err != nil {
		return validationError(err)
	}
	return nil
}

// Row builds the row to insert with defaults applied. Empty optional text is stored as NULL.
func (n *NewPartnerTestimonial) Row() *PartnerTestimonial {
	row := &PartnerTestimonial{
		PartnerName:  n.PartnerName,
		PartnerTitle: nullIfEmpty(n.PartnerTitle),
		Testimonial:  n.Testimonial,
		AvatarURL:    nullIfEmpty(n.AvatarURL),
		DisplayOrder: 0,
		IsActive:     true,
	}
	if n.DisplayOrder != nil {
		row.DisplayOrder = *n.DisplayOrder
	}
	if n.IsActive != nil {
		row.IsActive = *n.IsActive
	}
	return row
}

// PartnerTestimonialPatch is a partial update; nil fields are left untouched.
// An empty PartnerTitle or AvatarURL clears the column.
type PartnerTestimonialPatch struct {
	PartnerName  *string `json:"partner_name,omitempty" validate:"omitempty,notblank,max=255"`
	PartnerTitle *string `json:"partner_title,omitempty" validate:"omitempty,max=255"`
	Testimonial  *string `json:"testimonial,omitempty" validate:"omitempty,notblank"`
	AvatarURL    *string `json:"avatar_url,omitempty"`
	DisplayOrder *int    `json:"display_order,omitempty"`
	IsActive     *bool   `json:"is_active,omitempty"`
}

// IsEmpty reports whether the patch sets no field at all
func (p *PartnerTestimonialPatch) IsEmpty() bool {
	return p.PartnerName == nil && p.PartnerTitle == nil && p.Testimonial == nil &&
		p.AvatarURL == nil && p.DisplayOrder == nil && p.IsActive == nil
}

// Validate checks the patch. A present name or testimonial must not be blank.
func (p *PartnerTestimonialPatch) Validate() error {
	if p.IsEmpty() {
		return errors.New("patch sets no fields")
	}
	// omitempty skips "" behind a pointer too, so blank values are caught here
	if p.PartnerName != nil && strings.TrimSpace(*p.PartnerName) == "" {
		return errors.New("partner_name must not be blank")
	}
	if p.Testimonial != nil && strings.TrimSpace(*p.Testimonial) == "" {
		return errors.New("testimonial must not be blank")
	}
	if err := validate.Struct(p); err != nil {
		return validationError(err)
	}
	return nil
}

// Columns returns the column assignments of the patch
func (p *PartnerTestimonialPatch) Columns() map[string]interface{} {
	cols := make(map[string]interface{})
	if p.PartnerName != nil {
		cols["partner_name"] = *p.PartnerName
	}
	if p.PartnerTitle != nil {
		cols["partner_title"] = nullIfEmpty(p.PartnerTitle)
	}
	if p.Testimonial != nil {
		cols["testimonial"] = *p.Testimonial
	}
	if p.AvatarURL != nil {
		cols["avatar_url"] = nullIfEmpty(p.AvatarURL)
	}
	if p.DisplayOrder != nil {
		cols[ColumnDisplayOrder] = *p.DisplayOrder
	}
	if p.IsActive != nil {
		cols["is_active"] = *p.IsActive
	}
	return cols
}

// PartnerView is the shape the admin content page renders.
type PartnerView struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Title        string `json:"title"`
	Testimonial  string `json:"testimonial"`
	Avatar       string `json:"avatar"`
	DisplayOrder int    `json:"display_order"`
	IsActive     bool   `json:"is_active"`
}

// ToView maps a row to its UI shape, turning NULL text into empty strings
func (p *PartnerTestimonial) ToView() PartnerView {
	return PartnerView{
		ID:           p.ID,
		Name:         p.PartnerName,
		Title:        deref(p.PartnerTitle),
		Testimonial:  p.Testimonial,
		Avatar:       deref(p.AvatarURL),
		DisplayOrder: p.DisplayOrder,
		IsActive:     p.IsActive,
	}
}

// ToViews maps rows to views, preserving order
func ToViews(rows []PartnerTestimonial) []PartnerView {
	views := make([]PartnerView, 0, len(rows))
	for i := range rows {
		views = append(views, rows[i].ToView())
	}
	return views
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// nullIfEmpty returns nil for a nil or empty string so the column is stored as NULL.
// The result is typed *string so gorm writes NULL through map updates as well.
func nullIfEmpty(s *string) *string {
	if s == nil || *s == "" {
		return nil
	}
	v := *s
	return &v
}
