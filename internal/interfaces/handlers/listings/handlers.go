package listings

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	listsvc "savanna-backend/internal/application/listings"
	"savanna-backend/internal/application/live"
	"savanna-backend/internal/pkg/response"
)

// LiveBus delivers change notifications for the SSE stream.
type LiveBus interface {
	Subscribe(ctx context.Context, channel string) (<-chan struct{}, error)
}

type Handlers struct {
	Service *listsvc.Service
	Bus     LiveBus
}

func NewHandlers(service *listsvc.Service, bus LiveBus) *Handlers {
	return &Handlers{Service: service, Bus: bus}
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, listsvc.ErrNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, listsvc.ErrValidation):
		return fiber.StatusBadRequest
	default:
		return fiber.StatusInternalServerError
	}
}

// GetActiveListings returns for-sale and pending listings, newest first.
func (h *Handlers) GetActiveListings(c *fiber.Ctx) error {
	items, err := h.Service.GetActive(c.Context())
	if err != nil {
		return response.Error(c, "Failed to fetch listings", statusFor(err), err.Error())
	}
	return response.Success(c, "Listings fetched successfully", items, nil)
}

func (h *Handlers) GetAllListings(c *fiber.Ctx) error {
	items, err := h.Service.GetAll(c.Context())
	if err != nil {
		return response.Error(c, "Failed to fetch listings", statusFor(err), err.Error())
	}
	return response.Success(c, "Listings fetched successfully", items, nil)
}

func (h *Handlers) GetListingsByStatus(c *fiber.Ctx) error {
	items, err := h.Service.GetByStatus(c.Context(), c.Params("status"))
	if err != nil {
		return response.Error(c, "Failed to fetch listings", statusFor(err), err.Error())
	}
	return response.Success(c, "Listings fetched successfully", items, nil)
}

func (h *Handlers) GetListingByID(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("listing_id"))
	if err != nil {
		return response.Error(c, "Invalid listing id", fiber.StatusBadRequest, err.Error())
	}
	listing, err := h.Service.GetByID(c.Context(), id)
	if err != nil {
		return response.Error(c, "Failed to fetch listing", statusFor(err), err.Error())
	}
	if listing == nil {
		return response.Error(c, "Listing not found", fiber.StatusNotFound, nil)
	}
	return response.Success(c, "Listing fetched successfully", listing, nil)
}

func (h *Handlers) CreateListing(c *fiber.Ctx) error {
	var body map[string]interface{}
	if err := c.BodyParser(&body); err != nil {
		return response.Error(c, "Invalid request body", fiber.StatusBadRequest, err.Error())
	}

	numbers := make(map[string]*float64, 4)
	for _, key := range []string{"price", "beds", "baths", "sqft"} {
		val, err := numField(body, key)
		if err != nil {
			return response.Error(c, "Failed to create listing", fiber.StatusBadRequest, err.Error())
		}
		numbers[key] = val
	}

	input := listsvc.CreateListingInput{
		Title:        asString(body["title"]),
		Description:  asString(body["description"]),
		Price:        numbers["price"],
		Location:     asString(body["location"]),
		Address:      optString(body, "address"),
		City:         asString(body["city"]),
		State:        asString(body["state"]),
		Zip:          optString(body, "zip"),
		Beds:         numbers["beds"],
		Baths:        numbers["baths"],
		Sqft:         numbers["sqft"],
		PropertyType: optString(body, "property_type"),
		YearBuilt:    optInt(body, "year_built"),
		Features:     asStrings(body["features"]),
		Images:       asStrings(body["images"]),
		Status:       asString(body["status"]),
		MlsNumber:    optString(body, "mls_number"),
	}

	listing, err := h.Service.CreateListing(c.Context(), input)
	if err != nil {
		return response.Error(c, "Failed to create listing", statusFor(err), err.Error())
	}
	return response.SuccessCreated(c, "Listing created successfully", listing, nil)
}

// updatableKeys are the body fields accepted on update, keyed by column name.
// Numeric fields are coerced here so the service sees typed values. Source
// is absent on purpose: only the stored-source override writes it.
var updatableKeys = map[string]struct{}{
	"title": {}, "description": {}, "price": {}, "location": {},
	"address": {}, "city": {}, "state": {}, "zip": {},
	"beds": {}, "baths": {}, "sqft": {},
	"property_type": {}, "year_built": {},
	"features": {}, "images": {},
	"status": {}, "mls_number": {},
}

func (h *Handlers) UpdateListing(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("listing_id"))
	if err != nil {
		return response.Error(c, "Invalid listing id", fiber.StatusBadRequest, err.Error())
	}

	var body map[string]interface{}
	if err := c.BodyParser(&body); err != nil {
		return response.Error(c, "Invalid request body", fiber.StatusBadRequest, err.Error())
	}

	updates := make(map[string]interface{}, len(body))
	for key, value := range body {
		if _, ok := updatableKeys[key]; !ok {
			return response.Error(c, "Failed to update listing", fiber.StatusBadRequest,
				fmt.Sprintf("unknown field: %s", key))
		}
		switch key {
		case "price", "beds", "baths", "sqft":
			if value == nil {
				return response.Error(c, "Failed to update listing", fiber.StatusBadRequest,
					fmt.Sprintf("field %s cannot be cleared", key))
			}
			n, ok := toFloat(value)
			if !ok {
				return response.Error(c, "Failed to update listing", fiber.StatusBadRequest,
					fmt.Sprintf("field %s must be a number", key))
			}
			updates[key] = n
		case "year_built":
			if value == nil {
				updates[key] = nil
				break
			}
			n, ok := toFloat(value)
			if !ok {
				return response.Error(c, "Failed to update listing", fiber.StatusBadRequest,
					"field year_built must be a number")
			}
			updates[key] = int(n)
		default:
			updates[key] = value
		}
	}

	listing, err := h.Service.UpdateListing(c.Context(), id, updates)
	if err != nil {
		return response.Error(c, "Failed to update listing", statusFor(err), err.Error())
	}
	return response.Success(c, "Listing updated successfully", listing, nil)
}

func (h *Handlers) DeleteListing(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("listing_id"))
	if err != nil {
		return response.Error(c, "Invalid listing id", fiber.StatusBadRequest, err.Error())
	}
	if err := h.Service.RemoveListing(c.Context(), id); err != nil {
		return response.Error(c, "Failed to delete listing", statusFor(err), err.Error())
	}
	return response.Success(c, "Listing deleted successfully", nil, nil)
}

// Live streams the active-listing snapshot as server-sent events. The first
// event carries the current snapshot; a fresh one is sent whenever a listing
// changes.
func (h *Handlers) Live(c *fiber.Ctx) error {
	if h.Bus == nil {
		return response.Error(c, "Live updates are not available", fiber.StatusServiceUnavailable, nil)
	}

	ctx, cancel := context.WithCancel(context.Background())
	notes, err := h.Bus.Subscribe(ctx, listsvc.ChangeChannel)
	if err != nil {
		cancel()
		if errors.Is(err, live.ErrDisabled) {
			return response.Error(c, "Live updates are not available", fiber.StatusServiceUnavailable, nil)
		}
		return response.Error(c, "Failed to open live stream", fiber.StatusInternalServerError, err.Error())
	}

	c.Set(fiber.HeaderContentType, "text/event-stream")
	c.Set(fiber.HeaderCacheControl, "no-cache")
	c.Set(fiber.HeaderConnection, "keep-alive")

	service := h.Service
	c.Context().SetBodyStreamWriter(func(w *bufio.Writer) {
		defer cancel()
		if !writeSnapshot(w, func() (interface{}, error) { return service.GetActive(ctx) }) {
			return
		}
		keepAlive := time.NewTicker(25 * time.Second)
		defer keepAlive.Stop()
		for {
			select {
			case _, ok := <-notes:
				if !ok {
					return
				}
				if !writeSnapshot(w, func() (interface{}, error) { return service.GetActive(ctx) }) {
					return
				}
			case <-keepAlive.C:
				if _, err := fmt.Fprint(w, ": ping\n\n"); err != nil {
					return
				}
				if err := w.Flush(); err != nil {
					return
				}
			}
		}
	})
	return nil
}

func writeSnapshot(w *bufio.Writer, fetch func() (interface{}, error)) bool {
	snapshot, err := fetch()
	if err != nil {
		return false
	}
	payload, err := json.Marshal(snapshot)
	if err != nil {
		return false
	}
	if _, err := fmt.Fprintf(w, "data: %s\n\n", payload); err != nil {
		return false
	}
	return w.Flush() == nil
}
