package internal

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"community-admin/apiv1"
	"community-admin/internal/config"
	"community-admin/internal/logger"
)

// APIBasePath prefixes every admin API route
const APIBasePath = "/api/v1"

// Dependencies are the components the HTTP surface is built from
type Dependencies struct {
	DB      *gorm.DB
	Service *TestimonialService
	Objects ObjectStore
	Logger  logger.Logger
	Auth    config.AuthSettings
}

// NewDependencies wires the stores and the testimonial service over db
func NewDependencies(db *gorm.DB, cfg *config.Config, log logger.Logger) Dependencies {
	objects := NewGormObjectStore(db, cfg.Server.PublicBaseURL)
	return Dependencies{
		DB:      db,
		Service: NewTestimonialService(NewDAO[apiv1.PartnerTestimonial](db), objects, log),
		Objects: objects,
		Logger:  log,
		Auth:    cfg.Auth,
	}
}

// RegisterRoutes registers the public routes and the admin API on engine
func RegisterRoutes(engine *gin.Engine, deps Dependencies) {
	engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	engine.GET("/metrics", gin.WrapH(MetricsHandler()))
	NewStorageHandler(deps.Objects, deps.Logger).Register(engine)

	api := engine.Group(APIBasePath)
	if deps.Auth.Enabled {
		api.Use(RequireAdmin(deps.DB, deps.Auth.Realm, deps.Logger))
	}

	NewTestimonialHandler(deps.Service, deps.Logger).Register(api)
	NewRouter[apiv1.Admin](deps.DB).Register(api, "/admins")
}
