package server

import (
	"database/sql"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/carrivo/assistant/internal/search"
	"github.com/carrivo/assistant/internal/store"
)

type RoadmapsHandler struct {
	Store *store.Store
}

func (h *RoadmapsHandler) Register(g *echo.Group) {
	g.GET("", h.list)
	g.GET("/categories", h.categories)
	g.GET("/:slug", h.bySlug)
}

type RoadmapResponse struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Category    string `json:"category"`
	URL         string `json:"url"`
	Slug        string `json:"slug"`
}

func toRoadmapResponse(g search.RoadmapGuide) RoadmapResponse {
	return RoadmapResponse{
		ID:          g.ID.String(),
		Title:       g.Title,
		Description: g.Description,
		Category:    g.Category,
		URL:         g.URL,
		Slug:        g.Slug,
	}
}

func (h *RoadmapsHandler) list(c echo.Context) error {
	guides, err := h.Store.PublishedRoadmaps(c.Request().Context(), c.QueryParam("category"))
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	out := make([]RoadmapResponse, 0, len(guides))
	for _, g := range guides {
		out = append(out, toRoadmapResponse(g))
	}
	return c.JSON(http.StatusOK, out)
}

func (h *RoadmapsHandler) categories(c echo.Context) error {
	categories, err := h.Store.RoadmapCategories(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if categories == nil {
		categories = []string{}
	}
	return c.JSON(http.StatusOK, map[string][]string{"categories": categories})
}

func (h *RoadmapsHandler) bySlug(c echo.Context) error {
	guide, err := h.Store.RoadmapBySlug(c.Request().Context(), c.Param("slug"))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return echo.NewHTTPError(http.StatusNotFound, "roadmap not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if !guide.Published {
		return echo.NewHTTPError(http.StatusNotFound, "roadmap not found")
	}
	return c.JSON(http.StatusOK, toRoadmapResponse(guide))
}
