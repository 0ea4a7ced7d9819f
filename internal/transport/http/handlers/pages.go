package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Krishna2005-yadav/Crop-System/internal/transport/http/middleware"
)

// PageResponse is the state an interactive page is rendered from.
type PageResponse struct {
	Page  string            `json:"page"`
	Flash *middleware.Flash `json:"flash,omitempty"`
	User  *UserResponse     `json:"user,omitempty"`
}

// Page serves the state of an interactive page and consumes the pending notice.
func Page(name string) gin.HandlerFunc {
	return func(c *gin.Context) {
		resp := PageResponse{Page: name}
		if flash, ok := middleware.PopFlash(c); ok {
			resp.Flash = &flash
		}
		if principal, ok := middleware.GetPrincipal(c); ok {
			user := newUserResponse(principal.User)
			resp.User = &user
		}
		c.JSON(http.StatusOK, resp)
	}
}
