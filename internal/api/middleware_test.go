package api

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/assert/v2"

	"github.com/reorx/linkmind/internal/model"
)

func newSessionTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/whoami", sessionMiddleware(), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"user_id": userIDFromContext(c)})
	})
	return r
}

func TestSessionMiddleware_MissingCookieRejected(t *testing.T) {
	r := newSessionTestRouter()
	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	w := httptest.NewRecorder()

	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestSessionMiddleware_NonNumericCookieRejected(t *testing.T) {
	r := newSessionTestRouter()
	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.AddCookie(&http.Cookie{Name: sessionCookieName, Value: "not-a-number"})
	w := httptest.NewRecorder()

	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestSessionMiddleware_ValidCookieResolvesUserID(t *testing.T) {
	r := newSessionTestRouter()
	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.AddCookie(&http.Cookie{Name: sessionCookieName, Value: "42"})
	w := httptest.NewRecorder()

	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func newProbeAuthTestRouter(bridge ProbeBridge) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/probe-only", probeBearerMiddleware(bridge), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	return r
}

func TestProbeBearerMiddleware_MissingHeaderRejected(t *testing.T) {
	r := newProbeAuthTestRouter(&fakeProbeBridge{})
	req := httptest.NewRequest(http.MethodGet, "/probe-only", nil)
	w := httptest.NewRecorder()

	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestProbeBearerMiddleware_UnknownTokenRejected(t *testing.T) {
	r := newProbeAuthTestRouter(&fakeProbeBridge{device: nil})
	req := httptest.NewRequest(http.MethodGet, "/probe-only", nil)
	req.Header.Set("Authorization", "Bearer lmp_deadbeef")
	w := httptest.NewRecorder()

	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestProbeBearerMiddleware_ValidTokenPasses(t *testing.T) {
	r := newProbeAuthTestRouter(&fakeProbeBridge{device: &model.ProbeDevice{ID: "d1", UserID: 1}})
	req := httptest.NewRequest(http.MethodGet, "/probe-only", nil)
	req.Header.Set("Authorization", "Bearer lmp_deadbeef")
	w := httptest.NewRecorder()

	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}
