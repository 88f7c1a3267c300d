package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"messaging-service/internal/services"
)

func currentUser(c *gin.Context) int {
	return c.GetInt("userID")
}

func pathID(c *gin.Context, name string) (int, bool) {
	id, err := strconv.Atoi(c.Param(name))
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + name})
		return 0, false
	}
	return id, true
}

func queryInt(c *gin.Context, name string, fallback int) (int, bool) {
	raw := c.Query(name)
	if raw == "" {
		return fallback, true
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + name})
		return 0, false
	}
	return v, true
}

func pageFromQuery(c *gin.Context) (services.Page, bool) {
	limit, ok := queryInt(c, "limit", 0)
	if !ok {
		return services.Page{}, false
	}
	offset, ok := queryInt(c, "offset", 0)
	if !ok {
		return services.Page{}, false
	}
	return services.Page{Limit: limit, Offset: offset}, true
}
