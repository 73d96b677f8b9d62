package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/splitly/splitly-api/middleware"
	"github.com/splitly/splitly-api/models"
	"github.com/splitly/splitly-api/services"
)

type ExpenseHandler struct {
	Expenses *services.ExpenseService
	WS       *WSHandler
}

// List returns the distinct expenses the caller holds a share on.
func (h *ExpenseHandler) List(c *gin.Context) {
	userID := middleware.GetUserID(c)

	expenses, err := h.Expenses.ListForUser(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	responses := make([]models.ExpenseResponse, 0, len(expenses))
	for i := range expenses {
		responses = append(responses, expenses[i].Response())
	}

	c.JSON(http.StatusOK, responses)
}

func (h *ExpenseHandler) Get(c *gin.Context) {
	userID := middleware.GetUserID(c)

	expense, err := h.Expenses.Get(c.Request.Context(), userID, c.Param("expenseId"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, expense.Response())
}

func (h *ExpenseHandler) Create(c *gin.Context) {
	userID := middleware.GetUserID(c)

	var req models.ExpenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	expense, err := h.Expenses.Create(c.Request.Context(), userID, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, expense.Response())
}

func (h *ExpenseHandler) Update(c *gin.Context) {
	userID := middleware.GetUserID(c)
	expenseID := c.Param("expenseId")

	var req models.ExpenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	expense, err := h.Expenses.Update(c.Request.Context(), userID, expenseID, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	h.WS.BroadcastUpdate(expenseID, "expense_updated", userID)

	c.JSON(http.StatusOK, expense.Response())
}

func (h *ExpenseHandler) Settle(c *gin.Context) {
	userID := middleware.GetUserID(c)

	share, err := h.Expenses.SettleShare(c.Request.Context(), userID, c.Param("shareId"))
	if err != nil {
		respondError(c, err)
		return
	}

	h.WS.BroadcastUpdate(share.ExpenseID, "share_settled", userID)

	c.JSON(http.StatusOK, share)
}

func (h *ExpenseHandler) Delete(c *gin.Context) {
	userID := middleware.GetUserID(c)
	expenseID := c.Param("expenseId")

	if err := h.Expenses.Delete(c.Request.Context(), userID, expenseID); err != nil {
		respondError(c, err)
		return
	}

	h.WS.BroadcastUpdate(expenseID, "expense_deleted", userID)

	c.Status(http.StatusNoContent)
}
