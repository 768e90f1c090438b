package controllers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/JorisBrandt/PayImport/app/repository"
)

const subscriptionsPerPage = 50

// AdminSubscriptionController serves the read-only subscription overview
// next to the import page.
type AdminSubscriptionController struct {
	repos *repository.Repositories
}

var adminSubscriptionController *AdminSubscriptionController

// InitializeAdminSubscriptionController wires the controller against the
// global repository factory. Must run after the database is set up.
func InitializeAdminSubscriptionController() {
	adminSubscriptionController = NewAdminSubscriptionController(repository.GetGlobalRepositories())
}

// NewAdminSubscriptionController creates the controller with its repositories.
func NewAdminSubscriptionController(repos *repository.Repositories) *AdminSubscriptionController {
	return &AdminSubscriptionController{repos: repos}
}

// HandleAdminSubscriptionList renders the subscription overview.
func HandleAdminSubscriptionList(c *fiber.Ctx) error {
	return adminSubscriptionController.HandleList(c)
}

// HandleList renders a paginated subscription table plus the most recently
// mirrored gateway customers.
func (sc *AdminSubscriptionController) HandleList(c *fiber.Ctx) error {
	page := c.QueryInt("page", 1)
	if page < 1 {
		page = 1
	}

	total, err := sc.repos.Subscription.Count()
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "Subscriptions could not be loaded.")
	}
	subs, err := sc.repos.Subscription.List((page-1)*subscriptionsPerPage, subscriptionsPerPage)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "Subscriptions could not be loaded.")
	}

	customers, err := sc.repos.Customer.List(0, 10)
	if err != nil {
		customers = nil
	}

	totalPages := int((total + subscriptionsPerPage - 1) / subscriptionsPerPage)
	if totalPages < 1 {
		totalPages = 1
	}

	return c.Render("subscriptions", fiber.Map{
		"Title":         "Subscriptions",
		"Subscriptions": subs,
		"Customers":     customers,
		"Total":         total,
		"Page":          page,
		"TotalPages":    totalPages,
	})
}
