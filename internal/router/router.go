package router

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/psds-microservice/crm-service/api"
	"github.com/psds-microservice/crm-service/internal/handler"
	"github.com/psds-microservice/crm-service/internal/logging"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

const (
	PathHealth  = "/health"
	PathReady   = "/ready"
	PathSwagger = "/swagger"
)

// Handlers groups everything the router mounts.
type Handlers struct {
	Health   *handler.HealthHandler
	Contact  *handler.ContactHandler
	Requests *handler.RequestHandler
	Admin    *handler.AdminHandler
	Tickets  *handler.TicketHandler
	Clients  *handler.ClientHandler
}

type Options struct {
	// AllowedOrigins lists CORS origins; "*" allows any.
	AllowedOrigins []string
	Logger         logging.Logger
}

func New(h Handlers, opts Options) http.Handler {
	handler.UseJSONFieldNames()

	r := gin.New()
	r.Use(gin.Recovery(), RequestID(), AccessLog(opts.Logger), SecurityHeaders())
	if mw := CORS(opts.AllowedOrigins); mw != nil {
		r.Use(mw)
	}

	r.GET(PathHealth, h.Health.Health)
	r.GET(PathReady, h.Health.Ready)
	r.GET(PathSwagger, func(c *gin.Context) { c.Redirect(http.StatusFound, PathSwagger+"/") })
	r.GET(PathSwagger+"/*any", func(c *gin.Context) {
		if strings.TrimPrefix(c.Param("any"), "/") == "openapi.json" {
			c.Data(http.StatusOK, "application/json", api.OpenAPISpec)
			return
		}
		if strings.TrimPrefix(c.Param("any"), "/") == "" {
			c.Request.URL.Path = PathSwagger + "/index.html"
			c.Request.RequestURI = PathSwagger + "/index.html"
		}
		ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL(PathSwagger+"/openapi.json"))(c)
	})

	r.POST("/api/contact", h.Contact.Submit)

	admin := r.Group("/api/admin")
	{
		admin.GET("/requests", h.Requests.List)
		admin.GET("/requests/view", h.Requests.View)
		admin.GET("/requests/stats", h.Requests.Stats)
		admin.POST("/requests/bulk-status", h.Requests.BulkStatus)
		admin.GET("/requests/:id", h.Requests.Get)
		admin.PATCH("/requests/:id", h.Requests.UpdateStatus)
		admin.PUT("/requests/:id/notes", h.Requests.SaveNotes)
		admin.POST("/reload", h.Admin.Reload)
		admin.GET("/overview", h.Admin.Overview)
	}

	v1 := r.Group("/api/v1")
	{
		v1.GET("/tickets", h.Tickets.List)
		v1.POST("/tickets", h.Tickets.Create)
		v1.GET("/tickets/stats", h.Tickets.Stats)
		v1.GET("/tickets/:id", h.Tickets.Get)
		v1.PATCH("/tickets/:id", h.Tickets.UpdateStatus)
		v1.POST("/tickets/:id/advance", h.Tickets.Advance)
		v1.POST("/tickets/:id/attachments", h.Tickets.Attach)

		v1.GET("/clients", h.Clients.List)
		v1.POST("/clients", h.Clients.Create)
		v1.GET("/clients/:id", h.Clients.Get)
	}

	return r
}
