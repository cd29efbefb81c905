package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/arnavshah/roster-api-go/pkg/models"
)

// ValidateInput checks an assignment request structurally without
// running the engine
func (h *Handler) ValidateInput(c *gin.Context) {
	var input models.AssignInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"valid": false,
			"error": err.Error(),
		})
		return
	}

	if len(input.Staff) == 0 {
		c.JSON(http.StatusOK, gin.H{
			"valid": false,
			"error": "At least one staff member is required",
		})
		return
	}

	if len(input.Dates) == 0 {
		c.JSON(http.StatusOK, gin.H{
			"valid": false,
			"error": "At least one date is required",
		})
		return
	}

	// Identity resolution mirrors the engine: id, then name, and a
	// member with neither is rejected
	seen := make(map[string]bool)
	var advisories []string
	for i, m := range input.Staff {
		id := m.ID
		if id == "" {
			id = m.Name
		}
		if id == "" {
			c.JSON(http.StatusOK, gin.H{
				"valid": false,
				"error": fmt.Sprintf("Staff member at index %d has no id or name", i),
			})
			return
		}
		if seen[id] {
			c.JSON(http.StatusOK, gin.H{"valid": false, "error": "Duplicate staff ID: " + id})
			return
		}
		seen[id] = true

		if m.MaxDays != nil && m.MinDays > *m.MaxDays {
			advisories = append(advisories, fmt.Sprintf(
				"%s: min_days %d exceeds max_days %d", id, m.MinDays, *m.MaxDays))
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"valid":      true,
		"advisories": advisories,
		"stats": gin.H{
			"staff_count": len(input.Staff),
			"date_count":  len(input.Dates),
		},
	})
}
