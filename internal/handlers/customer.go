package handlers

import (
	"fmt"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/ritalabs/rita/internal/middleware"
	"github.com/ritalabs/rita/internal/services"
	"github.com/ritalabs/rita/pkg/response"
)

type CustomerHandler struct {
	customers *services.CustomerService
	importer  *services.ImportService
}

func NewCustomerHandler(db *gorm.DB) *CustomerHandler {
	return &CustomerHandler{
		customers: services.NewCustomerService(db),
		importer:  services.NewImportService(db),
	}
}

// List returns a filtered page of customers
// GET /api/customers
func (h *CustomerHandler) List(c *gin.Context) {
	filter := services.CustomerFilter{
		Status: c.Query("status"),
		Store:  c.Query("store"),
		Search: c.Query("search"),
	}
	filter.Page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	filter.PageSize, _ = strconv.Atoi(c.DefaultQuery("page_size", "50"))
	if v := c.Query("batch_id"); v != "" {
		if id, err := strconv.ParseUint(v, 10, 32); err == nil {
			batchID := uint(id)
			filter.BatchID = &batchID
		}
	}

	customers, total, err := h.customers.List(filter)
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, gin.H{
		"total":     total,
		"page":      filter.Page,
		"page_size": filter.PageSize,
		"items":     customers,
	})
}

// Get returns one customer with their responses
// GET /api/customers/:id
func (h *CustomerHandler) Get(c *gin.Context) {
	customer, err := h.customers.Get(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, customer)
}

// SetPhone fills in or fixes a customer's phone number
// PUT /api/customers/:id/phone
func (h *CustomerHandler) SetPhone(c *gin.Context) {
	var req struct {
		PhoneNumber string `json:"phone_number" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	customer, err := h.customers.SetPhone(c.Param("id"), req.PhoneNumber)
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, customer)
}

// Delete removes a customer
// DELETE /api/customers/:id
func (h *CustomerHandler) Delete(c *gin.Context) {
	if err := h.customers.Delete(c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, gin.H{"deleted": true})
}

// Import ingests a CSV file upload
// POST /api/customers/import
func (h *CustomerHandler) Import(c *gin.Context) {
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		response.BadRequest(c, "missing csv file upload")
		return
	}
	defer file.Close()

	groupName := c.PostForm("group_name")
	if groupName == "" {
		groupName = header.Filename
	}

	summary, err := h.importer.ImportCSV(file, groupName, "file", middleware.GetUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	response.Created(c, summary)
}

// ImportData ingests pasted CSV text
// POST /api/customers/import-data
func (h *CustomerHandler) ImportData(c *gin.Context) {
	var req struct {
		Data      string `json:"data" binding:"required"`
		GroupName string `json:"group_name"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	if req.GroupName == "" {
		req.GroupName = "pasted " + time.Now().Format("2006-01-02 15:04")
	}

	summary, err := h.importer.ImportText(req.Data, req.GroupName, middleware.GetUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	response.Created(c, summary)
}

// Export streams the customer set as CSV
// GET /api/customers/export
func (h *CustomerHandler) Export(c *gin.Context) {
	filename := fmt.Sprintf("customers-%s.csv", time.Now().Format("2006-01-02"))
	c.Header("Content-Type", "text/csv")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	if err := h.importer.ExportCSV(c.Writer); err != nil {
		respondError(c, err)
	}
}

// Batches lists past import runs
// GET /api/customers/batches
func (h *CustomerHandler) Batches(c *gin.Context) {
	batches, err := h.importer.Batches()
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, batches)
}

// StatusCounts summarizes the customer set by status
// GET /api/customers/status-counts
func (h *CustomerHandler) StatusCounts(c *gin.Context) {
	counts, err := h.customers.CountByStatus()
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, counts)
}
