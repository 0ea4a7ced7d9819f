package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Krishna2005-yadav/Crop-System/internal/core/domain"
	"github.com/Krishna2005-yadav/Crop-System/internal/transport/http/middleware"
	"github.com/Krishna2005-yadav/Crop-System/internal/usecase"
)

const adminPage = "/admin"

// AdminHandler exposes the admin console. Every route must sit behind
// AccessGuard.RequireAdmin.
type AdminHandler struct {
	admin *usecase.AdminService
	now   func() time.Time
}

// NewAdminHandler constructs AdminHandler.
func NewAdminHandler(admin *usecase.AdminService) *AdminHandler {
	return &AdminHandler{admin: admin, now: func() time.Time { return time.Now().UTC() }}
}

// WithClock overrides the clock used to render ban status.
func (h *AdminHandler) WithClock(clock func() time.Time) *AdminHandler {
	if clock != nil {
		h.now = clock
	}
	return h
}

// RegisterRoutes binds the admin API under r. Mutating routes run
// actionLimits ahead of requireAdmin.
func (h *AdminHandler) RegisterRoutes(r *gin.RouterGroup, requireAdmin gin.HandlerFunc, actionLimits ...gin.HandlerFunc) {
	r.GET("/users", requireAdmin, h.ListUsers)
	r.GET("/stats", requireAdmin, h.Stats)
	r.GET("/system", requireAdmin, h.System)

	chain := func(handler gin.HandlerFunc) []gin.HandlerFunc {
		out := append([]gin.HandlerFunc{}, actionLimits...)
		return append(out, requireAdmin, handler)
	}
	r.PUT("/users/:id/status", chain(h.UpdateStatus)...)
	r.DELETE("/users/:id", chain(h.DeleteUser)...)
}

// ListUsers lists accounts with their activity counters.
func (h *AdminHandler) ListUsers(c *gin.Context) {
	rows, err := h.admin.ListUsers(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	now := h.now()
	users := make([]AdminUserResponse, 0, len(rows))
	for _, row := range rows {
		users = append(users, newAdminUserResponse(row, now))
	}
	c.JSON(http.StatusOK, gin.H{"users": users})
}

// Stats returns platform-wide totals and distributions.
func (h *AdminHandler) Stats(c *gin.Context) {
	stats, err := h.admin.Stats(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// System returns host and process statistics.
func (h *AdminHandler) System(c *gin.Context) {
	c.JSON(http.StatusOK, h.admin.SystemStats(c.Request.Context()))
}

// UpdateStatus bans, permanently bans or unbans an account.
func (h *AdminHandler) UpdateStatus(c *gin.Context) {
	actorID, ok := principalID(c)
	if !ok {
		return
	}
	targetID, ok := pathID(c)
	if !ok {
		return
	}

	var req StatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "Invalid request payload"))
		return
	}

	result, err := h.admin.UpdateStatus(c.Request.Context(), actorID, targetID, usecase.StatusCommand{
		Action:       req.Action,
		Reason:       req.Reason,
		DurationDays: req.DurationDays,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, StatusResponse{
		Message:         statusMessage(result.Ban),
		UserID:          result.UserID,
		Status:          result.Ban.Status(h.now()),
		SessionsRevoked: result.SessionsRevoked,
	})
}

// DeleteUser removes an account with its history and sessions.
func (h *AdminHandler) DeleteUser(c *gin.Context) {
	actorID, ok := principalID(c)
	if !ok {
		return
	}
	targetID, ok := pathID(c)
	if !ok {
		return
	}

	if err := h.admin.DeleteUser(c.Request.Context(), actorID, targetID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, MessageResponse{Message: "User deleted successfully"})
}

// BanUserForm handles the interactive ban form (ban_type temp|permanent, ban_duration in days).
func (h *AdminHandler) BanUserForm(c *gin.Context) {
	actorID, targetID, ok := h.formTarget(c)
	if !ok {
		return
	}

	cmd := usecase.StatusCommand{Action: usecase.StatusActionBan, Reason: c.PostForm("ban_reason")}
	if c.PostForm("ban_type") == "permanent" {
		cmd.Action = usecase.StatusActionPermanentBan
	} else if raw := c.PostForm("ban_duration"); raw != "" {
		days, err := strconv.Atoi(raw)
		if err != nil || days <= 0 {
			middleware.RedirectWithFlash(c, adminPage, middleware.FlashDanger, "Ban duration must be a positive number of days.")
			return
		}
		cmd.DurationDays = days
	}

	result, err := h.admin.UpdateStatus(c.Request.Context(), actorID, targetID, cmd)
	if err != nil {
		middleware.RedirectWithFlash(c, adminPage, middleware.FlashDanger, flashMessage(err))
		return
	}
	middleware.RedirectWithFlash(c, adminPage, middleware.FlashSuccess, statusMessage(result.Ban))
}

// UnbanUserForm handles the interactive unban form.
func (h *AdminHandler) UnbanUserForm(c *gin.Context) {
	actorID, targetID, ok := h.formTarget(c)
	if !ok {
		return
	}

	if _, err := h.admin.UpdateStatus(c.Request.Context(), actorID, targetID, usecase.StatusCommand{Action: usecase.StatusActionUnban}); err != nil {
		middleware.RedirectWithFlash(c, adminPage, middleware.FlashDanger, flashMessage(err))
		return
	}
	middleware.RedirectWithFlash(c, adminPage, middleware.FlashSuccess, "User has been unbanned.")
}

// DeleteUserForm handles the interactive delete form.
func (h *AdminHandler) DeleteUserForm(c *gin.Context) {
	actorID, targetID, ok := h.formTarget(c)
	if !ok {
		return
	}

	if err := h.admin.DeleteUser(c.Request.Context(), actorID, targetID); err != nil {
		middleware.RedirectWithFlash(c, adminPage, middleware.FlashDanger, flashMessage(err))
		return
	}
	middleware.RedirectWithFlash(c, adminPage, middleware.FlashSuccess, "User deleted successfully.")
}

func (h *AdminHandler) formTarget(c *gin.Context) (int64, int64, bool) {
	actorID, ok := middleware.GetAuthenticatedUserID(c)
	if !ok {
		middleware.RedirectWithFlash(c, "/login", middleware.FlashDanger, "Please log in to access this page.")
		return 0, 0, false
	}
	targetID, err := strconv.ParseInt(c.PostForm("user_id"), 10, 64)
	if err != nil || targetID <= 0 {
		middleware.RedirectWithFlash(c, adminPage, middleware.FlashDanger, "Invalid user.")
		return 0, 0, false
	}
	return actorID, targetID, true
}

func pathID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "Invalid id"))
		return 0, false
	}
	return id, true
}

func statusMessage(ban domain.BanState) string {
	switch ban.Kind {
	case domain.BanPermanent:
		return "User has been permanently banned."
	case domain.BanTemporary:
		return "User has been banned until " + ban.Until.UTC().Format("2006-01-02 15:04") + " UTC."
	default:
		return "User has been unbanned."
	}
}
