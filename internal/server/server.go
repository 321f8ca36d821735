// Package server assembles the reference EEOS backend: the gin engine,
// its middleware and the stores behind it.
package server

import (
	"database/sql"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"EEOS-client/internal/attendance"
	"EEOS-client/internal/platform/auth"
	"EEOS-client/internal/platform/config"
	"EEOS-client/internal/platform/db"
)

// Stores are the backends the handlers run on.
type Stores struct {
	Auth       auth.Store
	Attendance attendance.Store
}

// OpenStores builds the stores named by cfg.Store. For "mysql" the returned
// *sql.DB must be closed by the caller; for "memory" it is nil and the
// stores are seeded with development data.
func OpenStores(cfg config.ServerConfig) (Stores, *sql.DB, error) {
	switch cfg.Store {
	case "memory":
		a, p := NewMemoryStores()
		SeedDev(a, p)
		return Stores{Auth: a, Attendance: p}, nil, nil
	case "mysql":
		conn, err := db.Connect(cfg.DB)
		if err != nil {
			return Stores{}, nil, err
		}
		return Stores{
			Auth:       auth.NewMySQLStore(conn),
			Attendance: attendance.NewMySQLStore(conn),
		}, conn, nil
	default:
		return Stores{}, nil, fmt.Errorf("unknown server store %q", cfg.Store)
	}
}

func NewMemoryStores() (*auth.MemoryStore, *attendance.MemoryStore) {
	return auth.NewMemoryStore(), attendance.NewMemoryStore()
}

// NewAuthService builds the token service from server configuration.
func NewAuthService(cfg config.ServerConfig, store auth.Store, opts ...auth.Option) *auth.Service {
	return auth.NewService(store, auth.TokenConfig{
		Secret:     []byte(cfg.JWTSecret),
		Issuer:     cfg.JWTIssuer,
		AccessTTL:  cfg.AccessTTL,
		RefreshTTL: cfg.RefreshTTL,
		Rotate:     cfg.RotateRefresh,
	}, opts...)
}

// NewRouter wires every route. Dev mode adds CORS and the swagger UI.
func NewRouter(mode string, cfg config.ServerConfig, authSvc *auth.Service, stores Stores) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())
	_ = r.SetTrustedProxies(nil)

	if mode == config.ModeDev {
		r.Use(cors.New(cors.Config{
			AllowOrigins:     cfg.CORSOrigins,
			AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "X-Request-Id"},
			ExposeHeaders:    []string{"Content-Length"},
			AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	r.GET("/healthz", func(c *gin.Context) { c.String(http.StatusOK, "ok") })

	auth.RegisterRoutes(r, authSvc)
	attendance.RegisterRoutes(r, attendance.NewService(stores.Attendance), auth.RequireAuth(authSvc))
	return r
}
