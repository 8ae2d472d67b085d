package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/loyalty-rewards-api/services"
)

// ListCustomers handles GET /api/v1/customers - paged list with optional search
func ListCustomers(c *gin.Context) {
	page, pageSize, ok := parsePage(c)
	if !ok {
		return
	}

	result, err := services.GetCustomerService().List(c.Request.Context(), c.Query("search"), page, pageSize)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, result)
}

// CreateCustomer handles POST /api/v1/customers
func CreateCustomer(c *gin.Context) {
	var input services.CustomerInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respondValidation(c, "Invalid request data", err.Error())
		return
	}

	customer, err := services.GetCustomerService().Create(c.Request.Context(), input)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondSuccess(c, http.StatusCreated, customer)
}

// SearchCustomers handles GET /api/v1/customers/search - prefix search by code or name
func SearchCustomers(c *gin.Context) {
	seq := beginSequence(c)

	limit, err := queryInt(c, "limit", services.SearchLimit)
	if err != nil {
		respondValidation(c, "limit must be an integer", nil)
		return
	}

	customers, err := services.GetCustomerService().Search(c.Request.Context(), c.Query("q"), c.Query("field"), limit)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondSequenced(c, seq, http.StatusOK, customers)
}

// GetCustomer handles GET /api/v1/customers/:id
func GetCustomer(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	customer, err := services.GetCustomerService().Get(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, customer)
}

// UpdateCustomer handles PUT /api/v1/customers/:id
func UpdateCustomer(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	var input services.CustomerInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respondValidation(c, "Invalid request data", err.Error())
		return
	}

	customer, err := services.GetCustomerService().Update(c.Request.Context(), id, input)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, customer)
}

// DeleteCustomer handles DELETE /api/v1/customers/:id along with its orders and counters
func DeleteCustomer(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	if err := services.GetCustomerService().Delete(c.Request.Context(), id); err != nil {
		respondServiceError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"id": id})
}

// GetCustomerOrders handles GET /api/v1/customers/:id/orders
func GetCustomerOrders(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	history, err := services.GetCustomerService().History(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, history)
}

// GetCustomerMilestones handles GET /api/v1/customers/:id/milestones
func GetCustomerMilestones(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	progress, err := services.GetOrderService().Progress(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{
		"threshold":  services.GetOrderService().Threshold(),
		"milestones": progress,
	})
}
