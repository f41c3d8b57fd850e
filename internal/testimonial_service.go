package internal

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"community-admin/apiv1"
	"community-admin/internal/logger"
)

// Avatar upload settings.
const (
	DefaultAvatarExtension   = "jpg"
	DefaultAvatarContentType = "image/*"
	AvatarCacheControl       = "3600"
)

// Move directions.
const (
	MoveUp   = "up"
	MoveDown = "down"
)

var testimonialOrder = []string{
	apiv1.ColumnDisplayOrder + " ASC",
	apiv1.ColumnCreatedAt + " DESC",
}

// TestimonialStore is the row store the service reads and writes through
type TestimonialStore interface {
	Create(ctx context.Context, resource *apiv1.PartnerTestimonial) error
	List(ctx context.Context, q Query) ([]apiv1.PartnerTestimonial, int64, error)
	UpdateColumns(ctx context.Context, id string, columns map[string]interface{}) (*apiv1.PartnerTestimonial, error)
	Delete(ctx context.Context, id string) error
	Max(ctx context.Context, column string) (int64, bool, error)
}

// TestimonialService manages partner testimonials and their avatars.
// It holds no mutable state; every call is one or two round trips to the stores.
type TestimonialService struct {
	store   TestimonialStore
	objects ObjectStore
	logger  logger.Logger
	newID   func() string
}

// NewTestimonialService creates a service over the given stores
func NewTestimonialService(store TestimonialStore, objects ObjectStore, log logger.Logger) *TestimonialService {
	return &TestimonialService{
		store:   store,
		objects: objects,
		logger:  log,
		newID:   uuid.NewString,
	}
}

// List returns every testimonial ordered by display order, newest first within a tie
func (s *TestimonialService) List(ctx context.Context) (rows []apiv1.PartnerTestimonial, err error) {
	defer func() { observe("list", err) }()

	rows, _, err = s.store.List(ctx, Query{Order: testimonialOrder})
	if err != nil {
		s.logger.Error("Error fetching partner testimonials", "error", err)
		return nil, &FetchError{Op: "list", Err: err}
	}
	if rows == nil {
		rows = make([]apiv1.PartnerTestimonial, 0)
	}
	return rows, nil
}

// Insert creates one testimonial. The created row is not returned; callers re-list.
func (s *TestimonialService) Insert(ctx context.Context, input apiv1.NewPartnerTestimonial) (err error) {
	defer func() { observe("insert", err) }()

	if err := input.Validate(); err != nil {
		return &WriteError{Op: "insert", Err: fmt.Errorf("%w: %v", ErrValidation, err)}
	}

	row := input.Row()
	if err := s.store.Create(ctx, row); err != nil {
		s.logger.Error("Error creating partner testimonial", "error", err)
		return &WriteError{Op: "insert", Err: err}
	}

	s.logger.Info("Partner testimonial created", "id", row.ID)
	return nil
}

// Update applies the patch to the row with the given id and returns the row as
// stored afterwards. It returns nil, nil when no row has that id.
func (s *TestimonialService) Update(ctx context.Context, id string, patch apiv1.PartnerTestimonialPatch) (row *apiv1.PartnerTestimonial, err error) {
	defer func() { observe("update", err) }()
	return s.update(ctx, "update", id, patch)
}

func (s *TestimonialService) update(ctx context.Context, op, id string, patch apiv1.PartnerTestimonialPatch) (*apiv1.PartnerTestimonial, error) {
	if err := patch.Validate(); err != nil {
		return nil, &WriteError{Op: op, Err: fmt.Errorf("%w: %v", ErrValidation, err)}
	}

	row, err := s.store.UpdateColumns(ctx, id, patch.Columns())
	if err != nil {
		s.logger.Error("Error updating partner testimonial", "id", id, "error", err)
		return nil, &WriteError{Op: op, Err: err}
	}
	if row == nil {
		s.logger.Warn("No partner testimonial matched update", "id", id)
	}
	return row, nil
}

// Delete removes the row with the given id. A missing id is not an error.
func (s *TestimonialService) Delete(ctx context.Context, id string) (err error) {
	defer func() { observe("delete", err) }()

	err = s.store.Delete(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		s.logger.Error("Error deleting partner testimonial", "id", id, "error", err)
		return &WriteError{Op: "delete", Err: err}
	}

	s.logger.Info("Partner testimonial deleted", "id", id)
	return nil
}

// UploadAvatar stores an avatar image under a fresh path and returns its public URL.
// The URL does not become part of any row until the caller writes it.
func (s *TestimonialService) UploadAvatar(ctx context.Context, data []byte, fileName, mimeType string) (url string, err error) {
	defer func() { observe("upload_avatar", err) }()

	if len(data) == 0 {
		return "", &UploadError{Op: "upload_avatar", Err: fmt.Errorf("%w: file is empty", ErrValidation)}
	}

	path := fmt.Sprintf("%s/%s.%s", apiv1.AvatarFolder, s.newID(), avatarExtension(fileName))
	contentType := mimeType
	if contentType == "" {
		contentType = DefaultAvatarContentType
	}

	err = s.objects.Upload(ctx, apiv1.AvatarBucket, path, data, UploadOptions{
		ContentType:  contentType,
		CacheControl: AvatarCacheControl,
		Upsert:       false,
	})
	if err != nil {
		s.logger.Error("Error uploading image", "path", path, "error", err)
		return "", &UploadError{Op: "upload_avatar", Err: err}
	}

	AvatarUploadBytes.Add(float64(len(data)))
	s.logger.Info("Avatar uploaded", "bucket", apiv1.AvatarBucket, "path", path, "size", len(data))
	return s.objects.PublicURL(apiv1.AvatarBucket, path), nil
}

// avatarExtension returns the lower-cased extension of fileName, or jpg when it has none
func avatarExtension(fileName string) string {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(filepath.Base(fileName)), "."))
	if ext == "" {
		return DefaultAvatarExtension
	}
	return ext
}

// SetDisplayOrder writes the display order of one row
func (s *TestimonialService) SetDisplayOrder(ctx context.Context, id string, order int) (err error) {
	defer func() { observe("set_display_order", err) }()

	_, err = s.update(ctx, "set_display_order", id, apiv1.PartnerTestimonialPatch{DisplayOrder: &order})
	return err
}

// SwapDisplayOrder gives a the display order of b, then b the display order of a.
// The two writes are not atomic. When the second fails the first stays applied
// and the returned SwapError reports step 2.
func (s *TestimonialService) SwapDisplayOrder(ctx context.Context, a, b apiv1.OrderRef) error {
	if err := s.SetDisplayOrder(ctx, a.ID, b.DisplayOrder); err != nil {
		return &SwapError{Step: 1, ID: a.ID, Err: err}
	}
	if err := s.SetDisplayOrder(ctx, b.ID, a.DisplayOrder); err != nil {
		PartialSwaps.Inc()
		s.logger.Warn("Display order swap partially applied", "applied", a.ID, "failed", b.ID, "error", err)
		return &SwapError{Step: 2, ID: b.ID, Err: err}
	}
	return nil
}

// NextDisplayOrder returns one past the largest display order, or 1 for an empty collection
func (s *TestimonialService) NextDisplayOrder(ctx context.Context) (int, error) {
	highest, ok, err := s.store.Max(ctx, apiv1.ColumnDisplayOrder)
	if err != nil {
		return 0, &FetchError{Op: "next_display_order", Err: err}
	}
	if !ok {
		return 1, nil
	}
	return int(highest) + 1, nil
}

// Move swaps the row with its neighbour in list order. It fails with ErrNotFound
// for an unknown id and ErrCannotMove when the row is already at that edge.
func (s *TestimonialService) Move(ctx context.Context, id, direction string) error {
	var delta int
	switch direction {
	case MoveUp:
		delta = -1
	case MoveDown:
		delta = 1
	default:
		return fmt.Errorf("%w: unknown direction %q", ErrValidation, direction)
	}

	rows, err := s.List(ctx)
	if err != nil {
		return err
	}

	index := -1
	for i := range rows {
		if rows[i].ID == id {
			index = i
			break
		}
	}
	if index < 0 {
		return ErrNotFound
	}

	neighbour := index + delta
	if neighbour < 0 || neighbour >= len(rows) {
		return ErrCannotMove
	}

	return s.SwapDisplayOrder(ctx,
		apiv1.OrderRef{ID: rows[index].ID, DisplayOrder: rows[index].DisplayOrder},
		apiv1.OrderRef{ID: rows[neighbour].ID, DisplayOrder: rows[neighbour].DisplayOrder},
	)
}
