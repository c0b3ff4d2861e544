package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func newTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(APIKeyMiddleware(map[string]string{"k1": "acme"}))
	r.GET("/whoami", func(c *gin.Context) {
		c.String(http.StatusOK, TenantID(c))
	})
	return r
}

func TestAPIKeyMiddleware(t *testing.T) {
	cases := []struct {
		name   string
		header string
		value  string
		status int
		tenant string
	}{
		{"x-api-key", "X-API-Key", "k1", http.StatusOK, "acme"},
		{"bearer", "Authorization", "Bearer k1", http.StatusOK, "acme"},
		{"bearer lower case", "Authorization", "bearer  k1 ", http.StatusOK, "acme"},
		{"unknown key", "X-API-Key", "nope", http.StatusUnauthorized, ""},
		{"basic scheme", "Authorization", "Basic k1", http.StatusUnauthorized, ""},
		{"missing", "", "", http.StatusUnauthorized, ""},
	}

	r := newTestRouter()
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
			if tc.header != "" {
				req.Header.Set(tc.header, tc.value)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			assert.Equal(t, tc.status, w.Code)
			if tc.status == http.StatusOK {
				assert.Equal(t, tc.tenant, w.Body.String())
			}
		})
	}
}
