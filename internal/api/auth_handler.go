package api

import (
	"fmt"
	"html"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
)

type deviceAuthTokenRequest struct {
	DeviceCode string `json:"device_code" binding:"required"`
}

type deviceAuthorizeRequest struct {
	UserCode string `form:"user_code" binding:"required"`
}

// InitiateDeviceAuth handles POST /api/auth/device.
func (h *Handlers) InitiateDeviceAuth(c *gin.Context) {
	verificationURI := h.webBaseURL + "/auth/device"
	result, err := h.bridge.InitiateDeviceAuth(verificationURI)
	if err != nil {
		slog.Error("initiate device auth failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to start device enrollment"})
		return
	}
	c.JSON(http.StatusOK, result)
}

// PollDeviceToken handles POST /api/auth/token.
func (h *Handlers) PollDeviceToken(c *gin.Context) {
	var req deviceAuthTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "device_code is required"})
		return
	}

	result, err := h.bridge.PollDeviceToken(req.DeviceCode)
	if err != nil {
		slog.Error("poll device token failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to poll device token"})
		return
	}
	c.JSON(http.StatusOK, result)
}

// DeviceAuthPage handles GET /auth/device: a plain HTML form prompting the
// signed-in user to confirm the user_code shown on the probe's terminal.
// Session cookie issuance sits outside this package (spec.md section 2);
// this page only needs the user id sessionMiddleware already resolved.
func (h *Handlers) DeviceAuthPage(c *gin.Context) {
	code := html.EscapeString(c.Query("code"))
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(fmt.Sprintf(`<!DOCTYPE html>
<html><head><title>Authorize device</title></head>
<body>
<h1>Authorize probe device</h1>
<form method="post" action="/auth/device/authorize">
<label>Enter the code shown on your device:</label>
<input type="text" name="user_code" value="%s" placeholder="XXXX-XXXX" />
<button type="submit">Authorize</button>
</form>
</body></html>`, code)))
}

// DeviceAuthorize handles POST /auth/device/authorize.
func (h *Handlers) DeviceAuthorize(c *gin.Context) {
	var req deviceAuthorizeRequest
	if err := c.ShouldBind(&req); err != nil {
		c.Data(http.StatusBadRequest, "text/html; charset=utf-8", []byte(`<h1>Missing or invalid code</h1>`))
		return
	}

	userID := userIDFromContext(c)
	if err := h.bridge.AuthorizeDeviceAuth(req.UserCode, userID); err != nil {
		slog.Warn("authorize device failed", "user_code", req.UserCode, "error", err)
		c.Data(http.StatusBadRequest, "text/html; charset=utf-8", []byte(`<h1>That code is invalid or has expired</h1>`))
		return
	}

	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(`<h1>Device authorized</h1><p>You can close this window and return to your device.</p>`))
}
