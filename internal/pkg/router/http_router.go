package router

import (
	"github.com/JorisBrandt/PayImport/app/controllers"
	"github.com/JorisBrandt/PayImport/internal/pkg/session"

	"github.com/gofiber/fiber/v2"
)

type HttpRouter struct {
}

func (h HttpRouter) InstallRouter(app *fiber.App) {
	// init session
	session.NewSessionStore()

	// Initialize controllers with repositories
	controllers.InitializeAdminImportController()
	controllers.InitializeAdminSubscriptionController()

	h.registerAdminRoutes(app)
}

func NewHttpRouter() *HttpRouter {
	return &HttpRouter{}
}
