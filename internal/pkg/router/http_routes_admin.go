package router

import (
	"strings"
	"time"

	"github.com/JorisBrandt/PayImport/app/controllers"
	"github.com/JorisBrandt/PayImport/internal/pkg/env"
	"github.com/JorisBrandt/PayImport/internal/pkg/middleware"
	"github.com/JorisBrandt/PayImport/internal/pkg/session"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/csrf"
)

func (h HttpRouter) registerAdminRoutes(app *fiber.App) {
	csrfConf := csrf.Config{
		Storage:        session.GetStorage(),
		KeyLookup:      "form:_csrf",
		ContextKey:     "csrf",
		CookieName:     "csrf_",
		CookieSameSite: "Lax",
		Expiration:     1 * time.Hour,
		CookieSecure:   !env.IsDev(),
		Next: func(c *fiber.Ctx) bool {
			return strings.HasPrefix(c.Path(), "/api/")
		},
	}

	adminGroup := app.Group("/admin", middleware.RequireAdmin, csrf.New(csrfConf))
	adminGroup.Get("/import", controllers.HandleAdminImportForm)
	adminGroup.Post("/import", controllers.HandleAdminImportUpload)
	adminGroup.Get("/subscriptions", controllers.HandleAdminSubscriptionList)
}
