package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/loyalty-rewards-api/services"
)

func ListFoods(c *gin.Context) {
	items, err := services.GetFoodService().List(c.Request.Context(), c.Query("search"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, items)
}

func CreateFood(c *gin.Context) {
	var input services.FoodInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respondValidation(c, "Invalid request data", err.Error())
		return
	}

	item, err := services.GetFoodService().Create(c.Request.Context(), input)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondSuccess(c, http.StatusCreated, item)
}

// SearchFoods serves the item autocomplete
func SearchFoods(c *gin.Context) {
	seq := beginSequence(c)

	limit, err := queryInt(c, "limit", services.SearchLimit)
	if err != nil {
		respondValidation(c, "limit must be an integer", nil)
		return
	}

	items, err := services.GetFoodService().Search(c.Request.Context(), c.Query("q"), c.Query("field"), limit)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondSequenced(c, seq, http.StatusOK, items)
}

func UpdateFood(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	var input services.FoodInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respondValidation(c, "Invalid request data", err.Error())
		return
	}

	item, err := services.GetFoodService().Update(c.Request.Context(), id, input)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, item)
}

func DeleteFood(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	if err := services.GetFoodService().Delete(c.Request.Context(), id); err != nil {
		respondServiceError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"id": id})
}
