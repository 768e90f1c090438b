package controllers

import (
	"bytes"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JorisBrandt/PayImport/app/models"
	"github.com/JorisBrandt/PayImport/app/repository"
)

func TestIsCSVContentType(t *testing.T) {
	assert.True(t, isCSVContentType("text/csv"))
	assert.True(t, isCSVContentType("text/csv; charset=utf-8"))
	assert.True(t, isCSVContentType("TEXT/CSV"))
	assert.False(t, isCSVContentType("application/vnd.ms-excel"))
	assert.False(t, isCSVContentType("text/plain"))
	assert.False(t, isCSVContentType(""))
}

// stubSubscriptionRepo covers only the calls the import path makes.
type stubSubscriptionRepo struct {
	repository.SubscriptionRepository
	saved map[uint]*models.Subscription
}

func (r *stubSubscriptionRepo) GetByID(id uint) (*models.Subscription, error) {
	if s, ok := r.saved[id]; ok {
		return s, nil
	}
	return nil, fmt.Errorf("subscription %d not found", id)
}

func (r *stubSubscriptionRepo) GetBySource(source, sourceID string) (*models.Subscription, error) {
	for _, s := range r.saved {
		if s.Source == source && s.SourceID == sourceID {
			return s, nil
		}
	}
	return nil, fmt.Errorf("subscription %s/%s not found", source, sourceID)
}

func (r *stubSubscriptionRepo) Save(sub *models.Subscription) error {
	if sub.ID == 0 {
		sub.ID = uint(len(r.saved) + 1)
	}
	r.saved[sub.ID] = sub
	return nil
}

func (r *stubSubscriptionRepo) Reload(sub *models.Subscription) (*models.Subscription, error) {
	return r.GetByID(sub.ID)
}

func (r *stubSubscriptionRepo) SetMeta(subscriptionID uint, key, value string) error {
	return nil
}

type stubConfigRepo struct {
	repository.GatewayConfigRepository
}

func (r *stubConfigRepo) GetDefault() (*models.GatewayConfig, error) {
	return nil, fmt.Errorf("no gateway config available")
}

func newUploadApp(t *testing.T) (*fiber.App, *stubSubscriptionRepo) {
	t.Helper()

	subs := &stubSubscriptionRepo{saved: make(map[uint]*models.Subscription)}
	controller := NewAdminImportController(&repository.Repositories{
		Subscription:  subs,
		GatewayConfig: &stubConfigRepo{},
	})

	app := fiber.New()
	app.Post("/admin/import", controller.HandleUpload)
	return app, subs
}

func csvUploadRequest(t *testing.T, contentType, body string) *http.Request {
	t.Helper()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	header := make(map[string][]string)
	header["Content-Disposition"] = []string{`form-data; name="import_file"; filename="subscriptions.csv"`}
	header["Content-Type"] = []string{contentType}
	part, err := writer.CreatePart(header)
	require.NoError(t, err)
	_, err = part.Write([]byte(body))
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/admin/import", &buf)
	req.Header.Set(fiber.HeaderContentType, writer.FormDataContentType())
	return req
}

func TestHandleUploadRejectsNonCSV(t *testing.T) {
	app, subs := newUploadApp(t)

	req := csvUploadRequest(t, "application/pdf", "source,source_id\nimport,ext-1\n")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnsupportedMediaType, resp.StatusCode)
	assert.Empty(t, subs.saved)
}

func TestHandleUploadRejectsMissingFile(t *testing.T) {
	app, _ := newUploadApp(t)

	req := httptest.NewRequest(http.MethodPost, "/admin/import", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestHandleUploadProcessesFile(t *testing.T) {
	app, subs := newUploadApp(t)

	csv := "source,source_id,email,amount,currency,interval\nimport,ext-1,a@b.com,10.00,EUR,1 month\n"
	resp, err := app.Test(csvUploadRequest(t, "text/csv", csv), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get(fiber.HeaderContentType), "text/plain")

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "Processing item #1...")
	assert.Contains(t, string(body), "Create subscription #1")
	assert.Contains(t, string(body), "Import finished.")

	require.Len(t, subs.saved, 1)
	var sub *models.Subscription
	for _, s := range subs.saved {
		sub = s
	}
	assert.Equal(t, "import", sub.Source)
	assert.Equal(t, "ext-1", sub.SourceID)
	assert.Equal(t, models.SubscriptionStatusActive, sub.Status)
	require.NotNil(t, sub.CurrentPhase())
	assert.Equal(t, "10", sub.CurrentPhase().Amount.String())
}
