package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Krishna2005-yadav/Crop-System/internal/core/domain"
	"github.com/Krishna2005-yadav/Crop-System/internal/transport/http/middleware"
	"github.com/Krishna2005-yadav/Crop-System/internal/usecase"
)

// SessionCookie describes the cookie carrying the signed session token.
type SessionCookie struct {
	Name   string
	Secure bool
	Domain string
}

func (s SessionCookie) set(c *gin.Context, token string, session domain.Session) {
	maxAge := int(session.TTL(session.CreatedAt) / time.Second)
	if maxAge <= 0 {
		maxAge = -1
	}
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     s.Name,
		Value:    token,
		Path:     "/",
		Domain:   s.Domain,
		MaxAge:   maxAge,
		Secure:   s.Secure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func (s SessionCookie) clear(c *gin.Context) {
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     s.Name,
		Value:    "",
		Path:     "/",
		Domain:   s.Domain,
		MaxAge:   -1,
		Secure:   s.Secure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// AuthHandler exposes signup, login, logout and account endpoints.
type AuthHandler struct {
	auth    *usecase.AuthService
	profile *usecase.ProfileService
	cookie  SessionCookie
}

// NewAuthHandler constructs AuthHandler.
func NewAuthHandler(auth *usecase.AuthService, profile *usecase.ProfileService, cookie SessionCookie) *AuthHandler {
	return &AuthHandler{auth: auth, profile: profile, cookie: cookie}
}

func principalID(c *gin.Context) (int64, bool) {
	id, ok := middleware.GetAuthenticatedUserID(c)
	if !ok {
		respondError(c, usecase.ErrUnauthenticated)
	}
	return id, ok
}

// Signup registers an account.
func (h *AuthHandler) Signup(c *gin.Context) {
	var req SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "Invalid request payload"))
		return
	}

	result, err := h.auth.Signup(c.Request.Context(), usecase.SignupInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, SignupResponse{
		Message:  "Account created successfully",
		User:     newUserResponse(result.User),
		Strength: result.Strength,
	})
}

// Login opens a session and sets the session cookie.
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "Invalid request payload"))
		return
	}

	result, err := h.auth.Login(c.Request.Context(), h.loginInput(c, req))
	if err != nil {
		respondError(c, err)
		return
	}

	h.cookie.set(c, result.Token, result.Session)
	c.JSON(http.StatusOK, LoginResponse{
		Message:   "Login successful",
		User:      newUserResponse(result.User),
		ExpiresAt: result.Session.ExpiresAt,
	})
}

func (h *AuthHandler) loginInput(c *gin.Context, req LoginRequest) usecase.LoginInput {
	return usecase.LoginInput{
		Email:     req.Email,
		Password:  req.Password,
		ClientIP:  c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
	}
}

// Logout destroys the caller's session. Requests without a session succeed.
func (h *AuthHandler) Logout(c *gin.Context) {
	h.logout(c)
	c.JSON(http.StatusOK, MessageResponse{Message: "Logged out successfully"})
}

func (h *AuthHandler) logout(c *gin.Context) {
	if token, err := c.Cookie(h.cookie.Name); err == nil && token != "" {
		if err := h.auth.Logout(c.Request.Context(), token); err != nil {
			_ = c.Error(err)
		}
	}
	h.cookie.clear(c)
}

// Me reports the caller's account, or {"authenticated": false}.
func (h *AuthHandler) Me(c *gin.Context) {
	principal, ok := middleware.GetPrincipal(c)
	if !ok {
		c.JSON(http.StatusOK, MeResponse{Authenticated: false})
		return
	}
	user := newUserResponse(principal.User)
	c.JSON(http.StatusOK, MeResponse{Authenticated: true, User: &user})
}

// CheckAuth reports whether the caller holds a valid session.
func (h *AuthHandler) CheckAuth(c *gin.Context) {
	_, ok := middleware.GetPrincipal(c)
	c.JSON(http.StatusOK, gin.H{"authenticated": ok})
}

// UpdateProfile changes the caller's username or profile picture.
func (h *AuthHandler) UpdateProfile(c *gin.Context) {
	userID, ok := principalID(c)
	if !ok {
		return
	}

	var req ProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "Invalid request payload"))
		return
	}

	user, err := h.profile.UpdateProfile(c.Request.Context(), userID, usecase.ProfileUpdate{
		Username:       req.Username,
		ProfilePicture: req.ProfilePicture,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Profile updated successfully", "user": newUserResponse(*user)})
}

// ChangePassword replaces the caller's password after verifying the current one.
func (h *AuthHandler) ChangePassword(c *gin.Context) {
	userID, ok := principalID(c)
	if !ok {
		return
	}

	var req PasswordChangeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "Invalid request payload"))
		return
	}
	if req.CurrentPassword == "" || req.NewPassword == "" {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "Current and new password are required"))
		return
	}

	if err := h.profile.ChangePassword(c.Request.Context(), userID, req.CurrentPassword, req.NewPassword); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, MessageResponse{Message: "Password changed successfully"})
}

// DeleteAccount removes the caller's account with its history and sessions.
func (h *AuthHandler) DeleteAccount(c *gin.Context) {
	userID, ok := principalID(c)
	if !ok {
		return
	}

	if err := h.profile.DeleteAccount(c.Request.Context(), userID); err != nil {
		respondError(c, err)
		return
	}

	h.cookie.clear(c)
	c.JSON(http.StatusOK, MessageResponse{Message: "Account deleted successfully"})
}

// PasswordStrength returns an advisory strength estimate. It never rejects a password.
func (h *AuthHandler) PasswordStrength(c *gin.Context) {
	var req PasswordStrengthRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "Invalid request payload"))
		return
	}
	c.JSON(http.StatusOK, h.auth.PasswordStrength(req.Password, req.Username, req.Email))
}

// SignupForm handles the interactive signup form.
func (h *AuthHandler) SignupForm(c *gin.Context) {
	var req SignupRequest
	if err := c.ShouldBind(&req); err != nil {
		middleware.RedirectWithFlash(c, "/signup", middleware.FlashDanger, "Invalid form submission.")
		return
	}

	_, err := h.auth.Signup(c.Request.Context(), usecase.SignupInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		middleware.RedirectWithFlash(c, "/signup", middleware.FlashDanger, flashMessage(err))
		return
	}

	middleware.RedirectWithFlash(c, "/login", middleware.FlashSuccess, "Account created successfully! Please log in.")
}

// LoginForm handles the interactive login form. It runs the same login
// pipeline as the API and differs only in how the outcome is rendered.
func (h *AuthHandler) LoginForm(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBind(&req); err != nil {
		middleware.RedirectWithFlash(c, "/login", middleware.FlashDanger, "Invalid form submission.")
		return
	}

	result, err := h.auth.Login(c.Request.Context(), h.loginInput(c, req))
	if err != nil {
		middleware.RedirectWithFlash(c, "/login", middleware.FlashDanger, flashMessage(err))
		return
	}

	h.cookie.set(c, result.Token, result.Session)
	next := "/dashboard"
	if result.User.IsAdmin {
		next = "/admin"
	}
	middleware.RedirectWithFlash(c, next, middleware.FlashSuccess, "Login successful!")
}

// LogoutPage logs out an interactive caller.
func (h *AuthHandler) LogoutPage(c *gin.Context) {
	h.logout(c)
	middleware.RedirectWithFlash(c, "/login", middleware.FlashInfo, "You have been logged out.")
}
