package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/ritalabs/rita/internal/services"
	"github.com/ritalabs/rita/pkg/response"
)

type QuestionHandler struct {
	catalog *services.CatalogService
}

func NewQuestionHandler(catalog *services.CatalogService) *QuestionHandler {
	return &QuestionHandler{catalog: catalog}
}

// List returns the catalog in survey order
// GET /api/questions
func (h *QuestionHandler) List(c *gin.Context) {
	questions, err := h.catalog.GetOrdered()
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, questions)
}

// Get returns one question
// GET /api/questions/:id
func (h *QuestionHandler) Get(c *gin.Context) {
	id, err := parseQuestionID(c)
	if err != nil {
		response.BadRequest(c, "invalid question id")
		return
	}
	q, err := h.catalog.GetByID(id)
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, q)
}

// Create appends a question to the catalog
// POST /api/questions
func (h *QuestionHandler) Create(c *gin.Context) {
	var in services.QuestionInput
	if err := c.ShouldBindJSON(&in); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	q, err := h.catalog.Add(&in)
	if err != nil {
		respondError(c, err)
		return
	}
	response.Created(c, q)
}

// Update replaces a question's editable fields
// PUT /api/questions/:id
func (h *QuestionHandler) Update(c *gin.Context) {
	id, err := parseQuestionID(c)
	if err != nil {
		response.BadRequest(c, "invalid question id")
		return
	}
	var in services.QuestionInput
	if err := c.ShouldBindJSON(&in); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	q, err := h.catalog.Update(id, &in)
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, q)
}

// Delete removes a question; the catalog can never become empty
// DELETE /api/questions/:id
func (h *QuestionHandler) Delete(c *gin.Context) {
	id, err := parseQuestionID(c)
	if err != nil {
		response.BadRequest(c, "invalid question id")
		return
	}
	if err := h.catalog.Delete(id); err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, gin.H{"deleted": true})
}

// Reorder applies a full new question ordering
// PUT /api/questions/reorder
func (h *QuestionHandler) Reorder(c *gin.Context) {
	var req struct {
		IDs []uint `json:"ids" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	if err := h.catalog.Reorder(req.IDs); err != nil {
		respondError(c, err)
		return
	}
	questions, err := h.catalog.GetOrdered()
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, questions)
}

func parseQuestionID(c *gin.Context) (uint, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	return uint(id), err
}
