package leads

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	leadsvc "savanna-backend/internal/application/leads"
	"savanna-backend/internal/application/live"
	"savanna-backend/internal/pkg/response"
)

type LiveBus interface {
	Subscribe(ctx context.Context, channel string) (<-chan struct{}, error)
}

type Handlers struct {
	Service *leadsvc.Service
	Bus     LiveBus
}

func NewHandlers(service *leadsvc.Service, bus LiveBus) *Handlers {
	return &Handlers{Service: service, Bus: bus}
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, leadsvc.ErrNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, leadsvc.ErrValidation):
		return fiber.StatusBadRequest
	default:
		return fiber.StatusInternalServerError
	}
}

// SubmitLead captures a lead from the public site.
func (h *Handlers) SubmitLead(c *fiber.Ctx) error {
	var body map[string]interface{}
	if err := c.BodyParser(&body); err != nil {
		return response.Error(c, "Invalid request body", fiber.StatusBadRequest, err.Error())
	}

	input := leadsvc.SubmitLeadInput{
		Name:          asString(body["name"]),
		Email:         asString(body["email"]),
		Phone:         optString(body, "phone"),
		PreferredDate: optString(body, "preferred_date"),
		PreferredTime: optString(body, "preferred_time"),
		Message:       optString(body, "message"),
		ListingTitle:  optString(body, "listing_title"),
	}
	if raw, ok := body["listing_id"]; ok && raw != nil {
		id, err := uuid.Parse(asString(raw))
		if err != nil {
			return response.Error(c, "Invalid listing id", fiber.StatusBadRequest, err.Error())
		}
		input.ListingID = &id
	}

	lead, err := h.Service.SubmitLead(c.Context(), input)
	if err != nil {
		return response.Error(c, "Failed to submit lead", statusFor(err), err.Error())
	}
	return response.SuccessCreated(c, "Lead submitted successfully", lead, nil)
}

func (h *Handlers) GetAllLeads(c *fiber.Ctx) error {
	items, err := h.Service.GetAll(c.Context())
	if err != nil {
		return response.Error(c, "Failed to fetch leads", statusFor(err), err.Error())
	}
	return response.Success(c, "Leads fetched successfully", items, nil)
}

func (h *Handlers) GetLeadsByStatus(c *fiber.Ctx) error {
	items, err := h.Service.GetByStatus(c.Context(), c.Params("status"))
	if err != nil {
		return response.Error(c, "Failed to fetch leads", statusFor(err), err.Error())
	}
	return response.Success(c, "Leads fetched successfully", items, nil)
}

func (h *Handlers) UpdateLeadStatus(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("lead_id"))
	if err != nil {
		return response.Error(c, "Invalid lead id", fiber.StatusBadRequest, err.Error())
	}

	var body map[string]interface{}
	if err := c.BodyParser(&body); err != nil {
		return response.Error(c, "Invalid request body", fiber.StatusBadRequest, err.Error())
	}

	lead, err := h.Service.UpdateStatus(c.Context(), id, asString(body["status"]))
	if err != nil {
		return response.Error(c, "Failed to update lead", statusFor(err), err.Error())
	}
	return response.Success(c, "Lead updated successfully", lead, nil)
}

// Live streams the full lead list as server-sent events for the admin board.
func (h *Handlers) Live(c *fiber.Ctx) error {
	if h.Bus == nil {
		return response.Error(c, "Live updates are not available", fiber.StatusServiceUnavailable, nil)
	}

	ctx, cancel := context.WithCancel(context.Background())
	notes, err := h.Bus.Subscribe(ctx, leadsvc.ChangeChannel)
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
		if !writeSnapshot(w, func() (interface{}, error) { return service.GetAll(ctx) }) {
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
				if !writeSnapshot(w, func() (interface{}, error) { return service.GetAll(ctx) }) {
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

func asString(v interface{}) string {
	s, _ := v.(string)
	return s
}

func optString(body map[string]interface{}, key string) *string {
	v, ok := body[key]
	if !ok || v == nil {
		return nil
	}
	s, ok := v.(string)
	if !ok {
		return nil
	}
	return &s
}
