package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"messaging-service/internal/services"
)

// AccountHandler lets users delete their own account.
type AccountHandler struct {
	accounts services.Accounts
}

func NewAccountHandler(accounts services.Accounts) *AccountHandler {
	return &AccountHandler{accounts: accounts}
}

// DeleteAccount purges the caller and everything referencing them.
func (h *AccountHandler) DeleteAccount(c *gin.Context) {
	result, err := h.accounts.Purge(c.Request.Context(), currentUser(c))
	if err != nil {
		respondError(c, err, "failed to delete account")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":  "success",
		"message": "Account deleted successfully",
		"deleted": result,
	})
}
