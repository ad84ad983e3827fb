package handlers

import (
	"net/http"
	"strconv"
	"tourboard/internal/middleware"
	"tourboard/internal/services"
	"tourboard/internal/utils"

	"github.com/gin-gonic/gin"
)

type ThreadHandler struct {
	threads *services.ThreadService
}

func NewThreadHandler(threads *services.ThreadService) *ThreadHandler {
	return &ThreadHandler{threads: threads}
}

type threadRequest struct {
	Title     string   `json:"title" binding:"required"`
	Content   string   `json:"content"`
	Area      string   `json:"area"`
	FilePaths []string `json:"file_paths"`
}

func (r threadRequest) input() services.ThreadInput {
	return services.ThreadInput{Title: r.Title, Content: r.Content, Area: r.Area, FilePaths: r.FilePaths}
}

func (h *ThreadHandler) List(c *gin.Context) {
	page := 1
	if p := c.Query("page"); p != "" {
		if pageNum, err := strconv.Atoi(p); err == nil && pageNum > 0 {
			page = pageNum
		}
	}

	threads, total, err := h.threads.List(c.Request.Context(), c.Query("area"), page)
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"threads": threads, "total": total, "page": page})
}

func (h *ThreadHandler) Search(c *gin.Context) {
	threads, err := h.threads.Search(c.Request.Context(), services.SearchQuery{
		Keyword: c.Query("keyword"),
		By:      c.Query("type"),
		Sort:    c.Query("sort"),
		Page:    utils.StringToInt(c.Query("page")),
	})
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"threads": threads})
}

func (h *ThreadHandler) Detail(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var viewerID *uint
	if user := middleware.CurrentUser(c); user != nil {
		viewerID = &user.ID
	}
	detail, err := h.threads.Get(c.Request.Context(), id, viewerID)
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, detail)
}

func (h *ThreadHandler) Create(c *gin.Context) {
	var req threadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "title is required")
		return
	}

	user := middleware.CurrentUser(c)
	thread, err := h.threads.Create(c.Request.Context(), user.ID, req.input())
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, thread)
}

func (h *ThreadHandler) Update(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req threadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "title is required")
		return
	}

	user := middleware.CurrentUser(c)
	thread, err := h.threads.Update(c.Request.Context(), id, user.ID, req.input())
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, thread)
}

func (h *ThreadHandler) Delete(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	user := middleware.CurrentUser(c)
	result, err := h.threads.Delete(c.Request.Context(), id, user.ID)
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}
