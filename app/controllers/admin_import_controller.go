package controllers

import (
	"bufio"
	"context"
	"io"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/valyala/fasthttp"

	"github.com/JorisBrandt/PayImport/app/models"
	"github.com/JorisBrandt/PayImport/app/repository"
	"github.com/JorisBrandt/PayImport/internal/pkg/importer"
	"github.com/JorisBrandt/PayImport/internal/pkg/mollie"
	"github.com/JorisBrandt/PayImport/internal/pkg/session"
)

// lastImportSessionKey stores the row count of the admin's most recent
// upload, shown again on the import form.
const lastImportSessionKey = "last_import_items"

// AdminImportController serves the subscription import page and executes
// uploaded files synchronously in the request, streaming the plain-text run
// log back to the browser.
type AdminImportController struct {
	repos *repository.Repositories
}

var adminImportController *AdminImportController

// InitializeAdminImportController wires the controller against the global
// repository factory. Must run after the database is set up.
func InitializeAdminImportController() {
	adminImportController = NewAdminImportController(repository.GetGlobalRepositories())
}

// NewAdminImportController creates the controller with its repositories.
func NewAdminImportController(repos *repository.Repositories) *AdminImportController {
	return &AdminImportController{repos: repos}
}

// HandleAdminImportForm renders the CSV upload form.
func HandleAdminImportForm(c *fiber.Ctx) error {
	return adminImportController.HandleForm(c)
}

// HandleAdminImportUpload runs an uploaded file through the import pipeline.
func HandleAdminImportUpload(c *fiber.Ctx) error {
	return adminImportController.HandleUpload(c)
}

// HandleForm renders the import form.
func (ic *AdminImportController) HandleForm(c *fiber.Ctx) error {
	return c.Render("import", fiber.Map{
		"Title":      "Subscription Import",
		"CSRF":       c.Locals("csrf"),
		"LastImport": session.GetSessionValue(c, lastImportSessionKey),
	})
}

// HandleUpload validates the uploaded file and processes it. The import runs
// synchronously; the run log is streamed as plain text while rows are being
// processed.
func (ic *AdminImportController) HandleUpload(c *fiber.Ctx) error {
	fileHeader, err := c.FormFile("import_file")
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "No import file uploaded.")
	}

	if !isCSVContentType(fileHeader.Header.Get(fiber.HeaderContentType)) {
		return fiber.NewError(fiber.StatusUnsupportedMediaType, "Uploaded file is not a CSV file.")
	}

	file, err := fileHeader.Open()
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Import file could not be read.")
	}
	defer file.Close()

	raw, err := io.ReadAll(file)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Import file could not be read.")
	}

	data, rowErrs, err := importer.DecodeFile(raw)
	if err != nil {
		log.Errorf("import upload rejected: %v", err)
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	deps := ic.pipelineDeps()

	// Remember the upload size for the form page. Best effort, the session
	// cookie goes out with the response headers before the body streams.
	_ = session.SetSessionValue(c, lastImportSessionKey, strconv.Itoa(len(data.Items())))

	c.Set(fiber.HeaderContentType, "text/plain; charset=utf-8")
	c.Context().SetBodyStreamWriter(fasthttp.StreamWriter(func(w *bufio.Writer) {
		runLog := importer.NewRunLog(flushWriter{w})

		for _, rowErr := range rowErrs {
			runLog.Printf("- skipping unusable %v", rowErr)
		}

		pipeline := importer.NewPipeline(runLog, importer.DefaultConfig(runLog, deps))
		data.Process(context.Background(), pipeline)

		runLog.Printf("Import finished.")
	}))

	return nil
}

// pipelineDeps assembles the pipeline collaborators. The gateway client is
// built per configuration so test and live configurations use their own API
// keys; customer reconciliation runs against the default configuration.
func (ic *AdminImportController) pipelineDeps() importer.Deps {
	deps := importer.Deps{
		Repos: ic.repos,
		Gateway: func(cfg *models.GatewayConfig) importer.Gateway {
			return mollie.NewClient(cfg.APIKey)
		},
	}

	if cfg, err := ic.repos.GatewayConfig.GetDefault(); err == nil && cfg.APIKey != "" {
		reconciler := mollie.NewReconciler(mollie.NewClient(cfg.APIKey), ic.repos.Customer, ic.repos.User)
		deps.Reconcile = reconciler.Reconcile
	} else {
		log.Warn("customer reconciliation disabled: no default gateway configuration")
	}

	return deps
}

// isCSVContentType accepts text/csv, ignoring media type parameters.
func isCSVContentType(contentType string) bool {
	mediaType := strings.TrimSpace(strings.Split(contentType, ";")[0])
	return strings.EqualFold(mediaType, "text/csv")
}

// flushWriter flushes after every write so log lines reach the client while
// the import is still running.
type flushWriter struct {
	w *bufio.Writer
}

func (f flushWriter) Write(p []byte) (int, error) {
	n, err := f.w.Write(p)
	if err != nil {
		return n, err
	}
	return n, f.w.Flush()
}
