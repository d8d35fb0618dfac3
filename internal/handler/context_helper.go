package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/student-insight-api/internal/middleware"
	"github.com/noah-isme/student-insight-api/internal/models"
	appErrors "github.com/noah-isme/student-insight-api/pkg/errors"
	"github.com/noah-isme/student-insight-api/pkg/response"
)

func studentFromContext(c *gin.Context) (*models.StudentClaims, bool) {
	student := middleware.CurrentStudent(c)
	if student == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return nil, false
	}
	return student, true
}

// respondTimed writes data with cache and timing metadata.
func respondTimed(c *gin.Context, start time.Time, data interface{}, cacheHit bool) {
	middleware.SetCacheHit(c, cacheHit)
	meta := middleware.ExtractMeta(c)
	if meta == nil {
		meta = make(map[string]interface{})
	}
	meta["processing_time_ms"] = time.Since(start).Milliseconds()
	response.JSON(c, http.StatusOK, data, nil, meta)
}
