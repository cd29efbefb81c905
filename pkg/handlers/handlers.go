package handlers

import (
	"encoding/csv"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/arnavshah/roster-api-go/pkg/auth"
	"github.com/arnavshah/roster-api-go/pkg/database"
	"github.com/arnavshah/roster-api-go/pkg/engine"
	"github.com/arnavshah/roster-api-go/pkg/models"
)

// Handler contains dependencies for the route handlers
type Handler struct {
	DB  *gorm.DB
	Log *zap.Logger
}

// RequestIDMiddleware tags every request with an id for log correlation
func (h *Handler) RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		c.Set("requestID", id)
		c.Header("X-Request-ID", id)
		c.Next()
	}
}

// AuthMiddleware verifies the JWT token for admin routes
func (h *Handler) AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.GetHeader("Authorization")
		if token == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Authorization header required"})
			c.Abort()
			return
		}

		token = strings.TrimPrefix(token, "Bearer ")

		claims, err := auth.VerifyToken(token)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
			c.Abort()
			return
		}

		c.Set("username", claims.Username)
		c.Next()
	}
}

// APIKeyMiddleware verifies the API key for assignment routes using HMAC
func (h *Handler) APIKeyMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.GetHeader("Authorization")
		if key == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "API Key required"})
			c.Abort()
			return
		}

		key = strings.TrimPrefix(key, "Bearer ")

		userID, err := auth.VerifyHMACKey(key)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid API Key signature"})
			c.Abort()
			return
		}

		// Fetch or create the key record so usage can be tracked
		var apiKey database.APIKey
		h.DB.Where(database.APIKey{Key: key}).FirstOrCreate(&apiKey, database.APIKey{
			Key:       key,
			Name:      userID,
			RateLimit: 10000,
		})

		c.Set("apiKey", &apiKey)
		c.Set("userID", userID)
		c.Next()
	}
}

// AssignJSON handles the JSON-based assignment request
func (h *Handler) AssignJSON(c *gin.Context) {
	var input models.AssignInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, models.AssignResponse{
			Success: false,
			Error:   "Malformed request: " + err.Error(),
		})
		return
	}

	h.runAssignment(c, input)
}

// runAssignment executes the engine and writes the response envelope.
// Engine input errors stay inside a success:false envelope; anything
// unexpected is logged in full and surfaced as a generic message.
func (h *Handler) runAssignment(c *gin.Context, input models.AssignInput) {
	format := input.Format
	if q := c.Query("format"); q != "" {
		format = q
	}

	result, err := engine.Assign(input.Staff, input.Dates, input.Constraints)
	if err != nil {
		if isInputError(err) {
			c.JSON(http.StatusOK, models.AssignResponse{
				Success: false,
				Error:   err.Error(),
			})
			return
		}
		h.Log.Error("assignment failed",
			zap.String("request_id", c.GetString("requestID")),
			zap.Int("staff_count", len(input.Staff)),
			zap.Int("date_count", len(input.Dates)),
			zap.Error(err))
		c.JSON(http.StatusInternalServerError, models.AssignResponse{
			Success: false,
			Error:   "Internal error while computing the schedule",
		})
		return
	}

	h.RecordUsage(c, len(input.Staff), len(input.Dates))

	resp := models.AssignResponse{
		Success:  true,
		Stats:    &result.Stats,
		Warnings: result.Warnings,
	}
	if format == "flat" {
		resp.Shifts = result.Flatten()
	} else {
		resp.Schedule = result.Schedule
	}
	c.JSON(http.StatusOK, resp)
}

func isInputError(err error) bool {
	return errors.Is(err, engine.ErrEmptyRoster) ||
		errors.Is(err, engine.ErrEmptyDateList) ||
		errors.Is(err, engine.ErrMissingStaffID) ||
		errors.Is(err, engine.ErrInvalidConstraint)
}

// RecordUsage records API usage in the database using an efficient upsert
func (h *Handler) RecordUsage(c *gin.Context, staffCount, dateCount int) {
	apiKeyRaw, exists := c.Get("apiKey")
	if !exists {
		return
	}
	apiKey := apiKeyRaw.(*database.APIKey)

	today := time.Now().Format("2006-01-02")

	// OnConflict gives a single-query upsert on both Postgres and SQLite
	h.DB.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "key_id"}, {Name: "date"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"request_count": gorm.Expr("request_count + ?", 1),
			"total_staff":   gorm.Expr("total_staff + ?", staffCount),
			"total_dates":   gorm.Expr("total_dates + ?", dateCount),
		}),
	}).Create(&database.APIUsage{
		KeyID:        apiKey.ID,
		Date:         today,
		RequestCount: 1,
		TotalStaff:   staffCount,
		TotalDates:   dateCount,
	})
}

// AssignCSV handles CSV staff uploads for assignment. The staff file
// needs id/name columns plus optional preferred_dates, unavailable_dates
// (|-separated), max_days and min_days; target dates arrive as a
// comma-separated form field.
func (h *Handler) AssignCSV(c *gin.Context) {
	staffFile, _ := c.FormFile("staff_file")
	if staffFile == nil {
		c.JSON(http.StatusBadRequest, models.AssignResponse{
			Success: false,
			Error:   "staff_file is required",
		})
		return
	}

	datesField := c.PostForm("dates")
	var dates []string
	for _, d := range strings.Split(datesField, ",") {
		if d = strings.TrimSpace(d); d != "" {
			dates = append(dates, d)
		}
	}

	f, err := staffFile.Open()
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.AssignResponse{
			Success: false,
			Error:   "Failed to open staff file",
		})
		return
	}
	defer f.Close()

	reader := csv.NewReader(f)
	header, err := reader.Read()
	if err != nil {
		c.JSON(http.StatusBadRequest, models.AssignResponse{
			Success: false,
			Error:   "Failed to read staff file header",
		})
		return
	}
	cols := make(map[string]int)
	for i, name := range header {
		cols[strings.TrimSpace(name)] = i
	}

	field := func(record []string, name string) string {
		if i, ok := cols[name]; ok && i < len(record) {
			return strings.TrimSpace(record[i])
		}
		return ""
	}

	var roster []models.StaffMember
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			continue
		}

		member := models.StaffMember{
			ID:   field(record, "id"),
			Name: field(record, "name"),
		}
		if v := field(record, "preferred_dates"); v != "" {
			member.PreferredDates = strings.Split(v, "|")
		}
		if v := field(record, "unavailable_dates"); v != "" {
			member.UnavailableDates = strings.Split(v, "|")
		}
		if v := field(record, "max_days"); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				member.MaxDays = &n
			}
		}
		if v := field(record, "min_days"); v != "" {
			member.MinDays, _ = strconv.Atoi(v)
		}
		roster = append(roster, member)
	}

	input := models.AssignInput{Staff: roster, Dates: dates}
	if v := c.PostForm("min_staff_per_day"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			input.Constraints.MinStaffPerDay = &n
		}
	}
	if v := c.PostForm("max_staff_per_day"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			input.Constraints.MaxStaffPerDay = &n
		}
	}
	input.Format = c.PostForm("format")

	h.runAssignment(c, input)
}

// Login handles admin login
func (h *Handler) Login(c *gin.Context) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var user database.MasterUser
	if err := h.DB.Where("username = ?", req.Username).First(&user).Error; err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}

	if !auth.CheckPasswordHash(req.Password, user.PasswordHash) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}

	token, err := auth.CreateToken(user.Username)
	if err != nil {
		h.Log.Error("token creation failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not create token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"access_token": token, "token_type": "bearer"})
}

// GenerateKey creates a new API key using the HMAC strategy
func (h *Handler) GenerateKey(c *gin.Context) {
	var req struct {
		Name      string `json:"name"`
		RateLimit int    `json:"rate_limit"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if req.Name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name is required"})
		return
	}

	if req.RateLimit == 0 {
		req.RateLimit = 10000
	}

	key := auth.GenerateHMACKey(req.Name)

	preview := "****"
	if len(key) > 8 {
		preview = key[:3] + "..." + key[len(key)-4:]
	}

	apiKey := database.APIKey{
		Key:        key,
		Name:       req.Name,
		KeyPreview: preview,
		RateLimit:  req.RateLimit,
	}

	if err := h.DB.Create(&apiKey).Error; err != nil {
		h.Log.Error("key record creation failed", zap.String("name", req.Name), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not create key record"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"name": req.Name,
		"key":  key,
	})
}

// ListKeys returns all API keys
func (h *Handler) ListKeys(c *gin.Context) {
	var keys []database.APIKey
	h.DB.Find(&keys)
	c.JSON(http.StatusOK, gin.H{"keys": keys})
}

// RevokeKey deletes an API key
func (h *Handler) RevokeKey(c *gin.Context) {
	id := c.Param("id")
	if err := h.DB.Delete(&database.APIKey{}, id).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not delete key"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Key revoked"})
}

// UpdateKeyLimit updates the rate limit for a key
func (h *Handler) UpdateKeyLimit(c *gin.Context) {
	id := c.Param("id")
	var req struct {
		RateLimit int `json:"rate_limit" form:"rate_limit"`
	}

	// Try JSON first, then Form/Query
	if err := c.ShouldBindJSON(&req); err != nil {
		if err := c.ShouldBindQuery(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "rate_limit is required"})
			return
		}
	}

	if req.RateLimit == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid rate limit"})
		return
	}

	if err := h.DB.Model(&database.APIKey{}).Where("id = ?", id).Update("rate_limit", req.RateLimit).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not update key limit"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Rate limit updated successfully"})
}

// GetUsage returns usage stats for a key
func (h *Handler) GetUsage(c *gin.Context) {
	id := c.Param("id")
	var usage []database.APIUsage
	h.DB.Where("key_id = ?", id).Order("date desc").Limit(30).Find(&usage)
	c.JSON(http.StatusOK, gin.H{"usage": usage})
}
