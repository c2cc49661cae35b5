package server

import (
	"net/http"

	"templatestore-backend/internal/handler"
	appmw "templatestore-backend/internal/middleware"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

type Server struct {
	echo           *echo.Echo
	webhookHandler *handler.WebhookHandler
	licenseHandler *handler.LicenseHandler
	adminAuth      *appmw.AdminAuth
}

func NewServer(webhookHandler *handler.WebhookHandler, licenseHandler *handler.LicenseHandler, adminAuth *appmw.AdminAuth) *Server {
	e := echo.New()

	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	s := &Server{
		echo:           e,
		webhookHandler: webhookHandler,
		licenseHandler: licenseHandler,
		adminAuth:      adminAuth,
	}

	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	api := s.echo.Group("/api")

	api.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	api.POST("/licenses/validate", s.licenseHandler.ValidateLicense)

	admin := api.Group("/admin", s.adminAuth.Middleware())
	admin.POST("/licenses/revoke", s.licenseHandler.RevokeLicense)
	admin.GET("/orders/:externalId/licenses", s.licenseHandler.OrderLicenses)

	// Raw body endpoint; the payment processor posts signed deliveries here.
	s.echo.POST("/webhook/payment", s.webhookHandler.PaymentWebhook)
}

func (s *Server) Start(address string) error {
	return s.echo.Start(address)
}

func (s *Server) Shutdown() error {
	return s.echo.Close()
}
