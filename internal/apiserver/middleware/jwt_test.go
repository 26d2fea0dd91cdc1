package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	jsvc "github.com/plotdesk/plotdesk/internal/auth/jwt"
	"github.com/stretchr/testify/assert"
)

var testSvc = func() *jsvc.Service {
	s, _ := jsvc.NewService(jsvc.Config{SecretKey: "this-is-a-very-long-secret-key-for-testing", Duration: time.Hour})
	return s
}()

func performRequest(handlers []gin.HandlerFunc, headers map[string]string) *httptest.ResponseRecorder {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	chain := append(handlers, func(c *gin.Context) { c.Status(http.StatusNoContent) })
	r.GET("/p", chain...)
	req := httptest.NewRequest("GET", "/p", nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestJWTAuthMiddleware_MissingHeader(t *testing.T) {
	w := performRequest([]gin.HandlerFunc{JWTAuthMiddleware(testSvc)}, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestJWTAuthMiddleware_BadPrefix(t *testing.T) {
	w := performRequest([]gin.HandlerFunc{JWTAuthMiddleware(testSvc)}, map[string]string{"Authorization": "Token abc"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestJWTAuthMiddleware_InvalidToken(t *testing.T) {
	w := performRequest([]gin.HandlerFunc{JWTAuthMiddleware(testSvc)}, map[string]string{"Authorization": "Bearer invalid"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestJWTAuthMiddleware_Valid(t *testing.T) {
	tok, _ := testSvc.GenerateToken("u-7", "Sam", "sam@example.com", "salesperson")
	w := performRequest([]gin.HandlerFunc{JWTAuthMiddleware(testSvc)}, map[string]string{"Authorization": "Bearer " + tok})
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestAdminOnly_RejectsSalesperson(t *testing.T) {
	tok, _ := testSvc.GenerateToken("u-8", "Sam", "sam@example.com", "salesperson")
	w := performRequest([]gin.HandlerFunc{JWTAuthMiddleware(testSvc), AdminOnly()}, map[string]string{"Authorization": "Bearer " + tok})
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestAdminOnly_AllowsAdmin(t *testing.T) {
	tok, _ := testSvc.GenerateToken("u-9", "Ada", "ada@example.com", "admin")
	w := performRequest([]gin.HandlerFunc{JWTAuthMiddleware(testSvc), AdminOnly()}, map[string]string{"Authorization": "Bearer " + tok})
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestAdminOnly_NoClaims(t *testing.T) {
	w := performRequest([]gin.HandlerFunc{AdminOnly()}, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
