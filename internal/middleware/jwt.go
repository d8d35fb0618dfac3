package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/student-insight-api/internal/models"
	"github.com/noah-isme/student-insight-api/internal/service"
	appErrors "github.com/noah-isme/student-insight-api/pkg/errors"
	"github.com/noah-isme/student-insight-api/pkg/response"
)

// ContextStudentKey is the gin context key storing the session claims.
const ContextStudentKey = "currentStudent"

// JWT protects routes by requiring a valid student session token.
func JWT(identity *service.IdentityService) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			response.Error(c, appErrors.Clone(appErrors.ErrUnauthorized, "missing or invalid authorization header"))
			c.Abort()
			return
		}

		claims, err := identity.ValidateToken(token)
		if err != nil {
			response.Error(c, err)
			c.Abort()
			return
		}

		c.Set(ContextStudentKey, claims)
		c.Next()
	}
}

// CurrentStudent returns the claims stored by JWT, or nil.
func CurrentStudent(c *gin.Context) *models.StudentClaims {
	value, exists := c.Get(ContextStudentKey)
	if !exists {
		return nil
	}
	claims, _ := value.(*models.StudentClaims)
	return claims
}

func bearerToken(header string) (string, bool) {
	parts := strings.SplitN(strings.TrimSpace(header), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	token := strings.TrimSpace(parts[1])
	return token, token != ""
}
