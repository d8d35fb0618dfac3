package response

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/student-insight-api/internal/models"
	appErrors "github.com/noah-isme/student-insight-api/pkg/errors"
)

func newContext() (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	return c, w
}

func TestJSONEnvelope(t *testing.T) {
	c, w := newContext()
	JSON(c, http.StatusOK, map[string]int{"n": 3}, &models.Pagination{Page: 1, PageSize: 5, TotalCount: 9}, map[string]interface{}{"cache_hit": false})

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "no-store", w.Header().Get("Cache-Control"))
	assert.Equal(t, 3.0, body["data"].(map[string]interface{})["n"])
	assert.Equal(t, 9.0, body["pagination"].(map[string]interface{})["total_count"])
	assert.Equal(t, false, body["meta"].(map[string]interface{})["cache_hit"])
}

func TestErrorEnvelope(t *testing.T) {
	c, w := newContext()
	Error(c, appErrors.ErrAnalysisBusy)

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), `"code":"ANALYSIS_BUSY"`)
}

func TestAttachment(t *testing.T) {
	c, w := newContext()
	Attachment(c, "summary.csv", "text/csv", []byte("a,b\n"))

	assert.Equal(t, `attachment; filename="summary.csv"`, w.Header().Get("Content-Disposition"))
	assert.Equal(t, "text/csv", w.Header().Get("Content-Type"))
	assert.Equal(t, "a,b\n", w.Body.String())
}
