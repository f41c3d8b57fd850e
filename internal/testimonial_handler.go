package internal

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"community-admin/apiv1"
	"community-admin/internal/logger"
)

// MaxAvatarSize bounds the size of an uploaded avatar
const MaxAvatarSize = 5 << 20

// TestimonialHandler exposes the testimonial service over HTTP. Like the admin
// page it serves, it re-lists the collection after every mutation.
type TestimonialHandler struct {
	service *TestimonialService
	logger  logger.Logger
}

// NewTestimonialHandler creates a handler over the given service
func NewTestimonialHandler(service *TestimonialService, log logger.Logger) *TestimonialHandler {
	return &TestimonialHandler{service: service, logger: log}
}

type setOrderRequest struct {
	DisplayOrder *int `json:"display_order" binding:"required"`
}

type swapRequest struct {
	A apiv1.OrderRef `json:"a"`
	B apiv1.OrderRef `json:"b"`
}

// Register registers the testimonial routes
func (h *TestimonialHandler) Register(routes gin.IRoutes) {
	routes.GET("/partners", h.ListViews)
	routes.GET("/partner-testimonials", h.List)
	routes.POST("/partner-testimonials", h.Create)
	routes.POST("/partner-testimonials/swap", h.Swap)
	routes.POST("/partner-testimonials/avatar", h.UploadAvatar)
	routes.PATCH("/partner-testimonials/:id", h.Update)
	routes.PUT("/partner-testimonials/:id/order", h.SetOrder)
	routes.POST("/partner-testimonials/:id/move", h.Move)
	routes.DELETE("/partner-testimonials/:id", h.Delete)
}

// List handles GET requests; q searches the text fields and active filters by flag
func (h *TestimonialHandler) List(c *gin.Context) {
	var active *bool
	if raw := c.Query("active"); raw != "" {
		value, err := strconv.ParseBool(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid active filter"})
			return
		}
		active = &value
	}

	rows, err := h.service.List(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}

	query := c.Query("q")
	filtered := make([]apiv1.PartnerTestimonial, 0, len(rows))
	for i := range rows {
		if active != nil && rows[i].IsActive != *active {
			continue
		}
		if !rows[i].Matches(query) {
			continue
		}
		filtered = append(filtered, rows[i])
	}

	c.JSON(http.StatusOK, filtered)
}

// ListViews handles GET requests for the rows mapped to their page shape
func (h *TestimonialHandler) ListViews(c *gin.Context) {
	rows, err := h.service.List(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, apiv1.ToViews(rows))
}

// Create handles POST requests to insert a testimonial.
// An omitted display order places the row after all others.
func (h *TestimonialHandler) Create(c *gin.Context) {
	var input apiv1.NewPartnerTestimonial
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx := c.Request.Context()
	if input.DisplayOrder == nil {
		next, err := h.service.NextDisplayOrder(ctx)
		if err != nil {
			h.fail(c, err)
			return
		}
		input.DisplayOrder = &next
	}

	if err := h.service.Insert(ctx, input); err != nil {
		h.fail(c, err)
		return
	}
	h.relist(c, http.StatusCreated)
}

// Update handles PATCH requests
func (h *TestimonialHandler) Update(c *gin.Context) {
	var patch apiv1.PartnerTestimonialPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	row, err := h.service.Update(c.Request.Context(), c.Param("id"), patch)
	if err != nil {
		h.fail(c, err)
		return
	}
	if row == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": ErrNotFound.Error()})
		return
	}
	c.JSON(http.StatusOK, row)
}

// SetOrder handles PUT requests writing one display order
func (h *TestimonialHandler) SetOrder(c *gin.Context) {
	var req setOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.service.SetDisplayOrder(c.Request.Context(), c.Param("id"), *req.DisplayOrder); err != nil {
		h.fail(c, err)
		return
	}
	h.relist(c, http.StatusOK)
}

// Swap handles POST requests exchanging the display order of two rows
func (h *TestimonialHandler) Swap(c *gin.Context) {
	var req swapRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	err := h.service.SwapDisplayOrder(c.Request.Context(), req.A, req.B)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.relist(c, http.StatusOK)
}

// Move handles POST requests moving a row one place up or down
func (h *TestimonialHandler) Move(c *gin.Context) {
	direction := c.Query("direction")
	if direction != MoveUp && direction != MoveDown {
		c.JSON(http.StatusBadRequest, gin.H{"error": "direction must be up or down"})
		return
	}

	if err := h.service.Move(c.Request.Context(), c.Param("id"), direction); err != nil {
		h.fail(c, err)
		return
	}
	h.relist(c, http.StatusOK)
}

// Delete handles DELETE requests
func (h *TestimonialHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// UploadAvatar handles multipart uploads of the "file" field
func (h *TestimonialHandler) UploadAvatar(c *gin.Context) {
	header, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file is required"})
		return
	}
	if header.Size > MaxAvatarSize {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": fmt.Sprintf("file exceeds %d bytes", MaxAvatarSize)})
		return
	}

	file, err := header.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	url, err := h.service.UploadAvatar(c.Request.Context(), data, header.Filename, header.Header.Get("Content-Type"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"url": url})
}

func (h *TestimonialHandler) relist(c *gin.Context, status int) {
	rows, err := h.service.List(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(status, rows)
}

// fail writes the status code matching err
func (h *TestimonialHandler) fail(c *gin.Context, err error) {
	var (
		swapErr   *SwapError
		uploadErr *UploadError
	)

	switch {
	case errors.As(err, &swapErr) && swapErr.Partial():
		body := gin.H{"error": err.Error(), "step": swapErr.Step}
		if rows, listErr := h.service.List(c.Request.Context()); listErr == nil {
			body["items"] = rows
		}
		c.JSON(http.StatusConflict, body)
	case errors.Is(err, ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, ErrCannotMove):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	case errors.Is(err, ErrObjectExists):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.As(err, &uploadErr):
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
