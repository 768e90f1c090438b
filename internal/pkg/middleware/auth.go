package middleware

import (
	"crypto/subtle"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/basicauth"

	"github.com/JorisBrandt/PayImport/internal/pkg/env"
)

// RequireAdmin protects the admin surface with HTTP basic auth. Credentials
// come from ADMIN_USER / ADMIN_PASSWORD; an unset password locks the surface
// entirely instead of letting everyone in.
func RequireAdmin(c *fiber.Ctx) error {
	user := env.GetEnv("ADMIN_USER", "admin")
	password := env.GetEnv("ADMIN_PASSWORD", "")
	if password == "" {
		return fiber.NewError(fiber.StatusForbidden, "Admin access is not configured.")
	}

	handler := basicauth.New(basicauth.Config{
		Realm: "PayImport Admin",
		Authorizer: func(u, p string) bool {
			userOK := subtle.ConstantTimeCompare([]byte(u), []byte(user)) == 1
			passOK := subtle.ConstantTimeCompare([]byte(p), []byte(password)) == 1
			return userOK && passOK
		},
	})

	return handler(c)
}
