package handlers

import (
	"net/http"
	"strconv"

	"stagedoor/internal/models"

	"github.com/gin-gonic/gin"
)

// CreateShow handles POST /api/v1/shows.
func (h *Handlers) CreateShow(c *gin.Context) {
	var req models.CreateShowRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, "Invalid request body: "+err.Error())
		return
	}

	show, err := h.services.Shows.Create(c.Request.Context(), &req)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, show)
}

// GetShow handles GET /api/v1/shows/:id.
func (h *Handlers) GetShow(c *gin.Context) {
	show, err := h.services.Shows.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, show)
}

// ListShows handles GET /api/v1/shows.
func (h *Handlers) ListShows(c *gin.Context) {
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		h.badRequest(c, "Invalid page parameter")
		return
	}

	pageSize, err := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	if err != nil || pageSize < 1 || pageSize > 100 {
		h.badRequest(c, "Invalid page_size parameter")
		return
	}

	resp, err := h.services.Shows.List(c.Request.Context(), page, pageSize)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// SearchShows handles GET /api/v1/shows/search.
func (h *Handlers) SearchShows(c *gin.Context) {
	var req models.SearchShowsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.badRequest(c, "Invalid search parameters: "+err.Error())
		return
	}

	resp, err := h.services.Shows.Search(c.Request.Context(), &req)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// CreateShowTime handles POST /api/v1/shows/:id/show-times.
func (h *Handlers) CreateShowTime(c *gin.Context) {
	var req models.CreateShowTimeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, "Invalid request body: "+err.Error())
		return
	}

	showTime, err := h.services.Shows.CreateShowTime(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, showTime)
}

// ListShowTimes handles GET /api/v1/shows/:id/show-times.
func (h *Handlers) ListShowTimes(c *gin.Context) {
	showTimes, err := h.services.Shows.ListShowTimes(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"show_times": showTimes})
}
