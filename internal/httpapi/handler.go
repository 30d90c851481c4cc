// Package httpapi serves scouts over HTTP.
package httpapi

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/xtding233/gacha-scout/internal/card"
	"github.com/xtding233/gacha-scout/internal/errs"
	"github.com/xtding233/gacha-scout/internal/gacha"
	"github.com/xtding233/gacha-scout/internal/rates"
	"github.com/xtding233/gacha-scout/internal/scout"
	"github.com/xtding233/gacha-scout/internal/session"
)

const maxCount = 50

// Scouter renders scouts.
type Scouter interface {
	Scout(ctx context.Context, req gacha.DrawRequest, opts scout.ScoutOptions) (scout.Result, error)
}

// RateSource returns the rarity table a box is currently drawn with.
type RateSource interface {
	Table(box gacha.Box) (gacha.RarityTable, error)
}

var _ RateSource = (*gacha.Engine)(nil)

type Handler struct {
	scouter  Scouter
	drawer   scout.Drawer
	rates    RateSource
	sessions session.Store
	logger   *slog.Logger
}

func NewHandler(sc Scouter, d scout.Drawer, rs RateSource, sessions session.Store, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Handler{scouter: sc, drawer: d, rates: rs, sessions: sessions, logger: logger}
}

func (h *Handler) Register(e *echo.Echo) {
	e.GET("/healthz", h.Healthz)
	e.GET("/v1/scout", h.Scout)
	e.GET("/v1/draw", h.Draw)
	e.GET("/v1/rates/:box", h.Rates)
}

// NewServer returns an echo instance with middleware and routes installed.
func NewServer(h *Handler, logger *slog.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(RequestIDMiddleware())
	e.Use(LoggingMiddleware(logger))
	h.Register(e)
	return e
}

func (h *Handler) Healthz(c echo.Context) error {
	return c.String(http.StatusOK, "OK")
}

// Scout renders a scout and returns the image itself.
func (h *Handler) Scout(c echo.Context) error {
	req, err := h.drawRequest(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
	}
	opts := scout.ScoutOptions{
		Align:  c.QueryParam("align") == "true",
		Labels: c.QueryParam("labels") == "true",
	}
	if raw := c.QueryParam("rows"); raw != "" {
		if opts.Rows, err = strconv.Atoi(raw); err != nil || opts.Rows < 1 {
			return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "rows must be a positive integer"})
		}
	}

	res, err := h.scouter.Scout(c.Request().Context(), req, opts)
	if err != nil {
		return h.mapError(c, err)
	}
	ids := make([]string, len(res.Cards))
	for i, cd := range res.Cards {
		ids[i] = strconv.Itoa(cd.ID)
	}
	c.Response().Header().Set("X-Scout-Cards", strings.Join(ids, ","))
	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("inline; filename=%q", res.Name))
	return c.Blob(http.StatusOK, res.ContentType, res.Image)
}

// Draw returns the drawn cards as JSON without rendering.
func (h *Handler) Draw(c echo.Context) error {
	req, err := h.drawRequest(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
	}
	cards, err := h.drawer.Draw(c.Request().Context(), req)
	if err != nil {
		return h.mapError(c, err)
	}
	requestID, _ := c.Get("request_id").(string)
	return c.JSON(http.StatusOK, toResponse(req, cards, requestID))
}

func (h *Handler) Rates(c echo.Context) error {
	box := gacha.Box(c.Param("box"))
	t, err := h.rates.Table(box)
	if err != nil {
		return h.mapError(c, err)
	}
	out := RatesResponse{Box: string(box), Rates: make(map[string]float64, len(t))}
	for r, p := range t {
		out.Rates[r.String()] = p
	}
	return c.JSON(http.StatusOK, out)
}

// drawRequest reads box, count, guaranteed and filter parameters. With
// again=true and a user, the user's last filter is reused when the request
// names none. Every successful parse becomes the user's new last filter.
func (h *Handler) drawRequest(c echo.Context) (gacha.DrawRequest, error) {
	req := gacha.DrawRequest{Box: gacha.BoxHonour, Count: 1}
	if b := c.QueryParam("box"); b != "" {
		req.Box = gacha.Box(strings.ToLower(b))
	}
	if raw := c.QueryParam("count"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > maxCount {
			return req, fmt.Errorf("count must be an integer between 1 and %d", maxCount)
		}
		req.Count = n
	}
	req.GuaranteedRare = c.QueryParam("guaranteed") == "true"

	f := card.Filter{}
	params := c.QueryParams()
	for _, d := range card.Dimensions {
		for _, v := range params[string(d)] {
			f.Add(d, strings.Split(v, ",")...)
		}
	}

	user := c.QueryParam("user")
	if user != "" && h.sessions != nil {
		ctx := c.Request().Context()
		if len(f) == 0 && c.QueryParam("again") == "true" {
			if s, ok := h.sessions.Get(ctx, user); ok {
				f = s.Filter
			}
		}
		h.sessions.Put(ctx, user, session.Session{Filter: f})
	}
	req.Filter = f
	return req, nil
}

func toResponse(req gacha.DrawRequest, cards []card.Card, requestID string) DrawResponse {
	out := DrawResponse{
		Box:       string(req.Box),
		Count:     len(cards),
		Cards:     make([]CardResponse, len(cards)),
		Unique:    len(card.Unique(cards)),
		RequestID: requestID,
	}
	for i, c := range cards {
		out.Cards[i] = CardResponse{
			ID:          c.ID,
			Name:        c.Name,
			Rarity:      c.Rarity.String(),
			Attribute:   c.Attribute,
			MainUnit:    c.MainUnit,
			SubUnit:     c.SubUnit,
			Year:        c.Year,
			Image:       c.FullImageURL(),
			Thumbnail:   c.ThumbnailURL(),
			ReleaseDate: c.ReleaseDate,
		}
	}
	return out
}

func (h *Handler) mapError(c echo.Context, err error) error {
	requestID, _ := c.Get("request_id").(string)

	switch {
	case errors.Is(err, errs.ErrPoolExhausted):
		return c.JSON(http.StatusNotFound, ErrorResponse{Error: "no matching cards"})
	case errors.Is(err, gacha.ErrUnknownBox):
		return c.JSON(http.StatusNotFound, ErrorResponse{Error: err.Error()})
	case errors.Is(err, gacha.ErrInvalidCount), errors.Is(err, gacha.ErrInvalidTable), errors.Is(err, rates.ErrInvalidConfig):
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
	case errors.Is(err, errs.ErrTransport):
		h.logger.Error("upstream failure", "request_id", requestID, "error", err)
		return c.JSON(http.StatusBadGateway, ErrorResponse{Error: "upstream failure"})
	default:
		h.logger.Error("internal error", "request_id", requestID, "error", err)
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal error"})
	}
}
