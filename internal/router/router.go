package router

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	echoSwagger "github.com/swaggo/echo-swagger"

	"trimsdesk/internal/handler"
	"trimsdesk/internal/metrics"
	"trimsdesk/internal/module"
)

// Handlers groups the HTTP handlers mounted by Register.
type Handlers struct {
	Auth     *handler.AuthHandler
	Nav      *handler.NavHandler
	Bookings *handler.BookingHandler
	Buyers   *handler.BuyerHandler
	Notes    *handler.NoteHandler
	Emb      *handler.EmbHandler
	Merch    *handler.MerchHandler
	Personal *handler.PersonalHandler
	System   *handler.SystemHandler
	Admin    *handler.AdminHandler
}

// Register wires routes and middleware. registry may be nil, in which case
// /metrics is not served.
func Register(
	e *echo.Echo,
	h Handlers,
	guard *handler.Guard,
	m *metrics.Metrics,
	registry *prometheus.Registry,
	log logrus.FieldLogger,
) {
	e.Use(middleware.RequestID())
	e.Use(requestLogger(log))
	e.Use(middleware.Recover())
	e.Use(m.Middleware())

	e.Validator = &CustomValidator{validator: validator.New()}

	e.GET("/healthz", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})
	if registry != nil {
		e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))
	}
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	api := e.Group("/api")

	// Public routes
	api.POST("/auth/register", h.Auth.Register)
	api.POST("/auth/login", h.Auth.Login)
	api.POST("/auth/refresh", h.Auth.Refresh)

	// Secured routes (require a valid token and a live session)
	secured := api.Group("", guard.JWT(), guard.Session())

	secured.POST("/auth/logout", h.Auth.Logout)
	secured.GET("/session", h.Auth.Session)

	secured.GET("/nav/sidebar", h.Nav.Sidebar)
	secured.GET("/nav/current", h.Nav.Current)
	secured.POST("/nav/:page", h.Nav.Activate)

	page := guard.RequirePage

	// Booking routes; reports read the same data.
	secured.GET("/bookings", h.Bookings.List, page(module.Booking, module.Report))
	secured.GET("/bookings/:id", h.Bookings.Get, page(module.Booking, module.Report))
	secured.POST("/bookings", h.Bookings.Create, page(module.Booking))
	secured.PUT("/bookings/:id", h.Bookings.Update, page(module.Booking))
	secured.DELETE("/bookings/:id", h.Bookings.Delete, page(module.Booking))

	// Buyer library; the booking form reads it for its buyer list.
	secured.GET("/buyers", h.Buyers.List, page(module.Booking, module.BuyerManagement))
	secured.POST("/buyers", h.Buyers.Add, page(module.BuyerManagement))
	secured.POST("/buyers/remap", h.Buyers.Remap, page(module.BuyerManagement))
	secured.PUT("/buyers/:id", h.Buyers.Rename, page(module.BuyerManagement))
	secured.DELETE("/buyers/:id", h.Buyers.Delete, page(module.BuyerManagement))

	notes := secured.Group("/notes", page(module.BuyerNotes))
	notes.GET("", h.Notes.List)
	notes.POST("", h.Notes.Create)
	notes.PUT("/:id", h.Notes.Update)
	notes.DELETE("/:id", h.Notes.Delete)

	secured.GET("/emb-jobs", h.Emb.List, page(module.EmbEntry, module.EmbReport))
	secured.POST("/emb-jobs", h.Emb.Submit, page(module.EmbEntry))
	secured.PUT("/emb-jobs/:id", h.Emb.Update, page(module.EmbReport))
	secured.DELETE("/emb-jobs/:id", h.Emb.Delete, page(module.EmbReport))

	secured.GET("/merch/buyers", h.Merch.ListBuyers, page(module.Merchandising, module.MerchandisingBuyers))
	secured.POST("/merch/buyers", h.Merch.AddBuyer, page(module.MerchandisingBuyers))
	secured.PUT("/merch/buyers/:id", h.Merch.RenameBuyer, page(module.MerchandisingBuyers))
	secured.DELETE("/merch/buyers/:id", h.Merch.DeleteBuyer, page(module.MerchandisingBuyers))

	packing := secured.Group("/merch/packing", page(module.Merchandising))
	packing.GET("", h.Merch.ListPacking)
	packing.POST("", h.Merch.CreatePacking)
	packing.PUT("/:id", h.Merch.UpdatePacking)
	packing.DELETE("/:id", h.Merch.DeletePacking)

	tasks := secured.Group("/tasks", page(module.MyTasks))
	tasks.GET("", h.Personal.ListTasks)
	tasks.POST("", h.Personal.CreateTask)
	tasks.PUT("/:id", h.Personal.UpdateTask)
	tasks.POST("/:id/toggle", h.Personal.ToggleTask)
	tasks.DELETE("/:id", h.Personal.DeleteTask)

	diary := secured.Group("/diary", page(module.MyDiary))
	diary.GET("", h.Personal.ListDiary)
	diary.POST("", h.Personal.CreateDiary)
	diary.PUT("/:id", h.Personal.UpdateDiary)
	diary.DELETE("/:id", h.Personal.DeleteDiary)

	secured.GET("/profile", h.System.GetProfile, page(module.Profile))
	secured.PUT("/profile", h.System.UpdateProfile, page(module.Profile))

	// Settings and notices are read by every signed-in session.
	secured.GET("/settings", h.System.GetSettings)
	secured.PUT("/settings", h.System.SaveSettings, page(module.Settings))
	secured.GET("/notices", h.System.ListNotices)
	secured.POST("/notices", h.System.AddNotice, page(module.Settings))
	secured.DELETE("/notices/:id", h.System.DeleteNotice, page(module.Settings))

	admin := secured.Group("/admin", page(module.Settings))
	admin.GET("/users", h.Admin.ListUsers)
	admin.PUT("/users/:username", h.Admin.UpdateUser)
	admin.POST("/users/:username/approve", h.Admin.ApproveUser)
	admin.DELETE("/users/:username", h.Admin.DeleteUser)
}

// requestLogger logs one line per request through log.
func requestLogger(log logrus.FieldLogger) echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			entry := log.WithFields(logrus.Fields{
				"method":     v.Method,
				"uri":        v.URI,
				"status":     v.Status,
				"latency":    v.Latency.String(),
				"request_id": v.RequestID,
			})
			switch {
			case v.Error != nil:
				entry.WithError(v.Error).Warn("request failed")
			case v.Status >= http.StatusInternalServerError:
				entry.Error("request")
			default:
				entry.Debug("request")
			}
			return nil
		},
	})
}

// CustomValidator wraps validator for Echo.
type CustomValidator struct {
	validator *validator.Validate
}

// Validate implements echo.Validator interface.
func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validator.Struct(i)
}
