package listings

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"testing"

	listsvc "savanna-backend/internal/application/listings"
	"savanna-backend/internal/domain"

	"github.com/glebarez/sqlite"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupListingsTest(t *testing.T) (*Handlers, *gorm.DB) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&domain.Listing{}))
	svc := &listsvc.Service{DB: db}
	return NewHandlers(svc, nil), db
}

func listingApp(h *Handlers) *fiber.App {
	app := fiber.New()
	app.Get("/get-active-listings", h.GetActiveListings)
	app.Get("/get-all-listings", h.GetAllListings)
	app.Get("/get-listings-by-status/:status", h.GetListingsByStatus)
	app.Get("/get-listing/:listing_id", h.GetListingByID)
	app.Post("/create-listing", h.CreateListing)
	app.Patch("/update-listing/:listing_id", h.UpdateListing)
	app.Delete("/delete-listing/:listing_id", h.DeleteListing)
	app.Get("/live", h.Live)
	return app
}

func postJSON(t *testing.T, app *fiber.App, method, path string, payload map[string]interface{}) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(payload)
	require.NoError(t, err)
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	rec := httptest.NewRecorder()
	rec.Code = resp.StatusCode
	_, err = rec.Body.ReadFrom(resp.Body)
	require.NoError(t, err)
	return rec
}

func validPayload() map[string]interface{} {
	return map[string]interface{}{
		"title":       "Oak Street Cottage",
		"description": "Three bed cottage near downtown",
		"price":       250000,
		"location":    "Oak Street",
		"city":        "Savannah",
		"state":       "GA",
		"beds":        3,
		"baths":       2,
		"sqft":        1650,
		"status":      domain.ListingForSale,
	}
}

func TestCreateListing_Success(t *testing.T) {
	h, _ := setupListingsTest(t)
	app := listingApp(h)

	rec := postJSON(t, app, "POST", "/create-listing", validPayload())
	assert.Equal(t, 201, rec.Code)

	var result map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t, "success", result["status"])
	data := result["data"].(map[string]interface{})
	assert.Equal(t, domain.SourceManual, data["source"])
	assert.NotEmpty(t, data["listing_id"])
}

func TestCreateListing_IgnoresClientSource(t *testing.T) {
	h, _ := setupListingsTest(t)
	app := listingApp(h)

	payload := validPayload()
	payload["source"] = domain.SourceRealTracks
	rec := postJSON(t, app, "POST", "/create-listing", payload)
	assert.Equal(t, 201, rec.Code)

	var result map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	data := result["data"].(map[string]interface{})
	assert.Equal(t, domain.SourceManual, data["source"])
}

func TestCreateListing_MissingField(t *testing.T) {
	h, _ := setupListingsTest(t)
	app := listingApp(h)

	payload := validPayload()
	delete(payload, "title")
	rec := postJSON(t, app, "POST", "/create-listing", payload)
	assert.Equal(t, 400, rec.Code)

	var result map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t, "error", result["status"])
}

func TestCreateListing_MissingNumericFieldRejected(t *testing.T) {
	h, db := setupListingsTest(t)
	app := listingApp(h)

	for _, key := range []string{"price", "beds", "baths", "sqft"} {
		payload := validPayload()
		delete(payload, key)
		rec := postJSON(t, app, "POST", "/create-listing", payload)
		assert.Equal(t, 400, rec.Code, "missing %s", key)
	}

	// null is the same as absent for a required number
	payload := validPayload()
	payload["price"] = nil
	rec := postJSON(t, app, "POST", "/create-listing", payload)
	assert.Equal(t, 400, rec.Code)

	var count int64
	require.NoError(t, db.Model(&domain.Listing{}).Count(&count).Error)
	assert.Equal(t, int64(0), count)
}

func TestCreateListing_MistypedNumericFieldRejected(t *testing.T) {
	h, db := setupListingsTest(t)
	app := listingApp(h)

	payload := validPayload()
	payload["price"] = "abc"
	rec := postJSON(t, app, "POST", "/create-listing", payload)
	assert.Equal(t, 400, rec.Code)

	var count int64
	require.NoError(t, db.Model(&domain.Listing{}).Count(&count).Error)
	assert.Equal(t, int64(0), count)
}

func TestGetListingByID_InvalidUUID(t *testing.T) {
	h, _ := setupListingsTest(t)
	app := listingApp(h)

	req := httptest.NewRequest("GET", "/get-listing/not-a-uuid", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, 400, resp.StatusCode)
}

func TestGetListingByID_NotFound(t *testing.T) {
	h, _ := setupListingsTest(t)
	app := listingApp(h)

	req := httptest.NewRequest("GET", "/get-listing/00000000-0000-0000-0000-000000000099", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, 404, resp.StatusCode)
}

func TestGetActiveListings_OnlyVisibleStatuses(t *testing.T) {
	h, _ := setupListingsTest(t)
	app := listingApp(h)

	for _, status := range []string{domain.ListingForSale, domain.ListingSold, domain.ListingHidden} {
		payload := validPayload()
		payload["status"] = status
		rec := postJSON(t, app, "POST", "/create-listing", payload)
		require.Equal(t, 201, rec.Code)
	}

	req := httptest.NewRequest("GET", "/get-active-listings", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)

	var result map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
	data := result["data"].([]interface{})
	require.Len(t, data, 1)
	listing := data[0].(map[string]interface{})
	assert.Equal(t, domain.ListingForSale, listing["status"])
}

func TestGetListingsByStatus_Invalid(t *testing.T) {
	h, _ := setupListingsTest(t)
	app := listingApp(h)

	req := httptest.NewRequest("GET", "/get-listings-by-status/archived", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, 400, resp.StatusCode)
}

func TestUpdateListing_PartialPatch(t *testing.T) {
	h, _ := setupListingsTest(t)
	app := listingApp(h)

	rec := postJSON(t, app, "POST", "/create-listing", validPayload())
	require.Equal(t, 201, rec.Code)
	var created map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	id := created["data"].(map[string]interface{})["listing_id"].(string)

	rec = postJSON(t, app, "PATCH", "/update-listing/"+id, map[string]interface{}{
		"price":  275000,
		"status": domain.ListingPending,
	})
	assert.Equal(t, 200, rec.Code)

	var result map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	data := result["data"].(map[string]interface{})
	assert.Equal(t, 275000.0, data["price"])
	assert.Equal(t, domain.ListingPending, data["status"])
	assert.Equal(t, "Oak Street Cottage", data["title"])
}

func TestUpdateListing_NullNumericFieldRejected(t *testing.T) {
	h, _ := setupListingsTest(t)
	app := listingApp(h)

	rec := postJSON(t, app, "POST", "/create-listing", validPayload())
	require.Equal(t, 201, rec.Code)
	var created map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	id := created["data"].(map[string]interface{})["listing_id"].(string)

	rec = postJSON(t, app, "PATCH", "/update-listing/"+id, map[string]interface{}{
		"price": nil,
	})
	assert.Equal(t, 400, rec.Code)

	rec = postJSON(t, app, "PATCH", "/update-listing/"+id, map[string]interface{}{
		"sqft": "large",
	})
	assert.Equal(t, 400, rec.Code)

	// stored values untouched
	req := httptest.NewRequest("GET", "/get-listing/"+id, nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	var result map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
	data := result["data"].(map[string]interface{})
	assert.Equal(t, 250000.0, data["price"])
	assert.Equal(t, 1650.0, data["sqft"])
}

func TestUpdateListing_SourceFieldRejected(t *testing.T) {
	h, _ := setupListingsTest(t)
	app := listingApp(h)

	rec := postJSON(t, app, "POST", "/create-listing", validPayload())
	require.Equal(t, 201, rec.Code)
	var created map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	id := created["data"].(map[string]interface{})["listing_id"].(string)

	rec = postJSON(t, app, "PATCH", "/update-listing/"+id, map[string]interface{}{
		"source": "bogus",
	})
	assert.Equal(t, 400, rec.Code)
}

func TestUpdateListing_UnknownFieldRejected(t *testing.T) {
	h, _ := setupListingsTest(t)
	app := listingApp(h)

	rec := postJSON(t, app, "POST", "/create-listing", validPayload())
	require.Equal(t, 201, rec.Code)
	var created map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	id := created["data"].(map[string]interface{})["listing_id"].(string)

	rec = postJSON(t, app, "PATCH", "/update-listing/"+id, map[string]interface{}{
		"listing_id": "11111111-1111-1111-1111-111111111111",
	})
	assert.Equal(t, 400, rec.Code)
}

func TestUpdateListing_NotFound(t *testing.T) {
	h, _ := setupListingsTest(t)
	app := listingApp(h)

	rec := postJSON(t, app, "PATCH", "/update-listing/00000000-0000-0000-0000-000000000099", map[string]interface{}{
		"price": 1,
	})
	assert.Equal(t, 404, rec.Code)
}

func TestDeleteListing_Idempotent(t *testing.T) {
	h, _ := setupListingsTest(t)
	app := listingApp(h)

	rec := postJSON(t, app, "POST", "/create-listing", validPayload())
	require.Equal(t, 201, rec.Code)
	var created map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	id := created["data"].(map[string]interface{})["listing_id"].(string)

	req := httptest.NewRequest("DELETE", "/delete-listing/"+id, nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)

	// deleting again is still 200
	req = httptest.NewRequest("DELETE", "/delete-listing/"+id, nil)
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)
}

func TestLive_UnavailableWithoutBus(t *testing.T) {
	h, _ := setupListingsTest(t)
	app := listingApp(h)

	req := httptest.NewRequest("GET", "/live", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, 503, resp.StatusCode)
}
