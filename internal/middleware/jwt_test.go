package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/student-insight-api/internal/models"
	"github.com/noah-isme/student-insight-api/internal/service"
)

type identityFeed struct{}

func (identityFeed) IdentitySources() int { return 1 }

func (identityFeed) Identities(context.Context, int) ([]models.StudentIdentity, bool) {
	return []models.StudentIdentity{{Name: "4561", ID: "101", StudentKey: 4561}}, true
}

func newProtectedRouter(t *testing.T) (*gin.Engine, *service.IdentityService) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	identity := service.NewIdentityService(identityFeed{}, nil, nil, service.IdentityConfig{Secret: "secret", Expiry: time.Hour})

	router := gin.New()
	router.Use(JWT(identity))
	router.GET("/me", func(c *gin.Context) {
		student := CurrentStudent(c)
		if student == nil {
			c.Status(http.StatusInternalServerError)
			return
		}
		c.String(http.StatusOK, student.Name)
	})
	return router, identity
}

func TestJWTRejectsMissingAndMalformedHeaders(t *testing.T) {
	router, _ := newProtectedRouter(t)

	for _, header := range []string{"", "Token abc", "Bearer ", "Bearer not-a-jwt"} {
		recorder := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		router.ServeHTTP(recorder, req)
		if recorder.Code != http.StatusUnauthorized {
			t.Fatalf("header %q: unexpected status %d", header, recorder.Code)
		}
	}
}

func TestJWTStoresStudentClaims(t *testing.T) {
	router, identity := newProtectedRouter(t)
	login, err := identity.Login(context.Background(), models.LoginRequest{Name: "4561", ID: "101"})
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}

	recorder := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "bearer "+login.AccessToken)
	router.ServeHTTP(recorder, req)

	if recorder.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d", recorder.Code)
	}
	if got := recorder.Body.String(); got != "4561" {
		t.Fatalf("unexpected student: %s", got)
	}
}

func TestResponseMetaRecordsCacheHit(t *testing.T) {
	gin.SetMode(gin.TestMode)
	var meta map[string]interface{}

	router := gin.New()
	router.Use(WithResponseMeta())
	router.GET("/", func(c *gin.Context) {
		SetCacheHit(c, true)
		meta = ExtractMeta(c)
		c.Status(http.StatusNoContent)
	})
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/", nil))

	if got := recorder.Header().Get(SnapshotCacheHeader); got != "HIT" {
		t.Fatalf("unexpected cache header: %q", got)
	}
	if hit, _ := meta[metaCacheHit].(bool); !hit {
		t.Fatalf("expected cache hit in meta, got %v", meta)
	}
	if _, ok := meta["processing_time_ms"]; !ok {
		t.Fatalf("expected processing time in meta")
	}
}
