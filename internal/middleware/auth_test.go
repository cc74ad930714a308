package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func authRouter(tokens []string) *gin.Engine {
	router := gin.New()
	router.Use(APIKeyAuth(tokens))
	router.GET("/protected", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	return router
}

func request(router *gin.Engine, headers map[string]string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	router.ServeHTTP(w, req)
	return w
}

func TestAPIKeyAuth(t *testing.T) {
	router := authRouter([]string{"secret-1", "secret-2"})

	tests := []struct {
		name    string
		headers map[string]string
		want    int
	}{
		{"valid api key header", map[string]string{"X-API-Key": "secret-1"}, http.StatusOK},
		{"second configured key", map[string]string{"X-API-Key": "secret-2"}, http.StatusOK},
		{"valid bearer token", map[string]string{"Authorization": "Bearer secret-1"}, http.StatusOK},
		{"wrong key", map[string]string{"X-API-Key": "nope"}, http.StatusUnauthorized},
		{"bearer without prefix", map[string]string{"Authorization": "secret-1"}, http.StatusUnauthorized},
		{"no credentials", nil, http.StatusUnauthorized},
		{"api key wins over bearer", map[string]string{"X-API-Key": "secret-1", "Authorization": "Bearer nope"}, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := request(router, tt.headers)
			assert.Equal(t, tt.want, w.Code)
		})
	}
}

func TestAPIKeyAuth_NoTokensConfigured(t *testing.T) {
	router := authRouter(nil)

	w := request(router, map[string]string{"X-API-Key": "anything"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAPIKeyAuth_EmptyTokenIgnored(t *testing.T) {
	router := authRouter([]string{""})

	w := request(router, map[string]string{"X-API-Key": ""})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
