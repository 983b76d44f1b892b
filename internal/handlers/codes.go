// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package handlers

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"codeberg.org/oliverandrich/qrtrack/internal/auth"
	"codeberg.org/oliverandrich/qrtrack/internal/models"
	"codeberg.org/oliverandrich/qrtrack/internal/qrimage"
	"codeberg.org/oliverandrich/qrtrack/internal/services/codes"
	"codeberg.org/oliverandrich/qrtrack/internal/services/stats"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// Metadata headers sent with a freshly created code.
const (
	HeaderCodeID        = "X-QR-UUID"
	HeaderCodeURL       = "X-QR-URL"
	HeaderCodeColor     = "X-QR-Color"
	HeaderCodeSize      = "X-QR-Size"
	HeaderCodeCreatedAt = "X-QR-Created-At"
)

var exposedHeaders = strings.Join([]string{
	HeaderCodeID, HeaderCodeURL, HeaderCodeColor, HeaderCodeSize, HeaderCodeCreatedAt,
}, ", ")

// Renderer draws a code as an image.
type Renderer interface {
	Render(code *models.Code, trackingURL string) ([]byte, error)
}

// CodeHandlers serves the owner-facing code endpoints. Every route runs
// behind the identity middleware.
type CodeHandlers struct {
	codes       *codes.Service
	stats       *stats.Aggregator
	renderer    Renderer
	trackingURL func(id string) string
}

// NewCodes creates a new CodeHandlers instance. trackingURL builds the
// address encoded into rendered images.
func NewCodes(svc *codes.Service, agg *stats.Aggregator, renderer Renderer, trackingURL func(id string) string) *CodeHandlers {
	return &CodeHandlers{
		codes:       svc,
		stats:       agg,
		renderer:    renderer,
		trackingURL: trackingURL,
	}
}

// CreateCodeRequest is the request body for creating a code.
type CreateCodeRequest struct {
	URL   string `json:"url"`
	Color string `json:"color"`
	Size  int    `json:"size"`
}

// UpdateCodeRequest is the request body for a partial update.
type UpdateCodeRequest struct {
	URL   *string `json:"url"`
	Color *string `json:"color"`
	Size  *int    `json:"size"`
}

// CodeResponse is the public view of a code. Timestamps are Unix milliseconds.
type CodeResponse struct {
	ID        string `json:"id"`
	URL       string `json:"url"`
	Color     string `json:"color"`
	Size      int    `json:"size"`
	OwnerID   string `json:"ownerId"`
	CreatedAt int64  `json:"createdAt"`
	UpdatedAt int64  `json:"updatedAt"`
}

func newCodeResponse(code *models.Code) CodeResponse {
	return CodeResponse{
		ID:        code.ID.String(),
		URL:       code.URL,
		Color:     code.Color,
		Size:      code.Size,
		OwnerID:   code.OwnerID.String(),
		CreatedAt: code.CreatedAt.UnixMilli(),
		UpdatedAt: code.UpdatedAt.UnixMilli(),
	}
}

// VisitResponse is one entry of the stats listing.
type VisitResponse struct {
	ID        string `json:"id"`
	CodeID    string `json:"codeId"`
	IP        string `json:"ip"`
	Country   string `json:"country"`
	Timezone  string `json:"timezone"`
	CreatedAt int64  `json:"createdAt"`
}

func newVisitResponse(v *models.Visit) VisitResponse {
	return VisitResponse{
		ID:        v.ID.String(),
		CodeID:    v.CodeID.String(),
		IP:        v.IP,
		Country:   v.Country,
		Timezone:  v.Timezone,
		CreatedAt: v.CreatedAt.UnixMilli(),
	}
}

// StatsResponse is the body of the stats endpoint.
type StatsResponse struct {
	CodeID     string          `json:"codeId"`
	TotalScans int64           `json:"totalScans"`
	Scans      []VisitResponse `json:"scans"`
}

// Create stores a code and answers with its rendered image. The code's
// metadata travels in X-QR-* headers.
func (h *CodeHandlers) Create(c echo.Context) error {
	var req CreateCodeRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c)
	}

	code, err := h.codes.Create(c.Request().Context(), auth.UserID(c.Request().Context()), codes.CreateParams{
		URL:   req.URL,
		Color: req.Color,
		Size:  req.Size,
	})
	if err != nil {
		return respondError(c, err)
	}

	png, err := h.renderer.Render(code, h.trackingURL(code.ID.String()))
	if err != nil {
		return respondError(c, err)
	}

	header := c.Response().Header()
	header.Set(echo.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="qr_%s.png"`, code.ID))
	header.Set(echo.HeaderAccessControlExposeHeaders, exposedHeaders)
	header.Set(HeaderCodeID, code.ID.String())
	header.Set(HeaderCodeURL, code.URL)
	header.Set(HeaderCodeColor, code.Color)
	header.Set(HeaderCodeSize, strconv.Itoa(code.Size))
	header.Set(HeaderCodeCreatedAt, strconv.FormatInt(code.CreatedAt.UnixMilli(), 10))

	return c.Blob(http.StatusCreated, qrimage.ContentType, png)
}

// List returns the caller's codes, newest first.
func (h *CodeHandlers) List(c echo.Context) error {
	list, err := h.codes.List(c.Request().Context(), auth.UserID(c.Request().Context()))
	if err != nil {
		return respondError(c, err)
	}

	resp := make([]CodeResponse, len(list))
	for i := range list {
		resp[i] = newCodeResponse(&list[i])
	}
	return c.JSON(http.StatusOK, resp)
}

// Get returns one owned code.
func (h *CodeHandlers) Get(c echo.Context) error {
	code, err := ownedCode(c, h.codes)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, newCodeResponse(code))
}

// Update applies a partial update to an owned code.
func (h *CodeHandlers) Update(c echo.Context) error {
	id, err := codeID(c)
	if err != nil {
		return respondError(c, err)
	}

	var req UpdateCodeRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c)
	}

	code, err := h.codes.Update(c.Request().Context(), id, auth.UserID(c.Request().Context()), codes.UpdateParams{
		URL:   req.URL,
		Color: req.Color,
		Size:  req.Size,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, newCodeResponse(code))
}

// Image renders an owned code.
func (h *CodeHandlers) Image(c echo.Context) error {
	code, err := ownedCode(c, h.codes)
	if err != nil {
		return respondError(c, err)
	}

	png, err := h.renderer.Render(code, h.trackingURL(code.ID.String()))
	if err != nil {
		return respondError(c, err)
	}
	return c.Blob(http.StatusOK, qrimage.ContentType, png)
}

// Stats returns the visit summary of an owned code.
func (h *CodeHandlers) Stats(c echo.Context) error {
	id, err := codeID(c)
	if err != nil {
		return respondError(c, err)
	}

	result, err := h.stats.Aggregate(c.Request().Context(), id, auth.UserID(c.Request().Context()))
	if err != nil {
		return respondError(c, err)
	}

	resp := StatsResponse{
		CodeID:     result.CodeID.String(),
		TotalScans: result.TotalVisits,
		Scans:      make([]VisitResponse, len(result.Visits)),
	}
	for i := range result.Visits {
		resp.Scans[i] = newVisitResponse(&result.Visits[i])
	}
	return c.JSON(http.StatusOK, resp)
}

// ownedCode loads the :id code if the caller owns it.
func ownedCode(c echo.Context, svc *codes.Service) (*models.Code, error) {
	id, err := codeID(c)
	if err != nil {
		return nil, err
	}
	return svc.Get(c.Request().Context(), id, auth.UserID(c.Request().Context()))
}

// codeID parses the :id path parameter. A malformed ID is reported as not
// found so it cannot be told apart from an unknown one.
func codeID(c echo.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, codes.ErrNotFound
	}
	return id, nil
}
