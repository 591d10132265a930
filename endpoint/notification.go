package endpoint

import (
	"github.com/gin-gonic/gin"

	"github.com/citasalud/hospital-api/middleware"
	"github.com/citasalud/hospital-api/service"
	"github.com/citasalud/hospital-api/util"
)

// ListNotifications godoc
// @Summary      List the current user's notifications
// @Description  Get undeleted notifications for the authenticated user, newest first
// @Tags         Notifications
// @Produce      json
// @Security     SessionToken
// @Success      200 {object} util.APIResponse "Notifications retrieved"
// @Failure      401 {object} util.APIResponse "Unauthorized"
// @Failure      500 {object} util.APIResponse "Server error"
// @Router       /notification [get]
func ListNotifications(c *gin.Context) {
	userID := middleware.GetUserID(c)
	if userID == 0 {
		util.CallUserNotAuthorized(c, util.APIErrorParams{Msg: "Session does not carry a user"})
		return
	}

	db, ok := getDBOrRespond(c)
	if !ok {
		return
	}

	notifications, err := service.NewNotificationService(db).ListForUser(c.Request.Context(), userID)
	if err != nil {
		respondServiceError(c, "Failed to list notifications", err)
		return
	}

	util.CallSuccessOK(c, util.APISuccessParams{
		Msg: "Notifications retrieved",
		Data: map[string]interface{}{
			"notifications": notifications,
			"total":         len(notifications),
		},
	})
}

// MarkNotificationRead godoc
// @Summary      Mark a notification as read
// @Tags         Notifications
// @Produce      json
// @Security     SessionToken
// @Param        id path int true "Notification ID"
// @Success      200 {object} util.APIResponse "Notification marked as read"
// @Failure      404 {object} util.APIResponse "Notification not found"
// @Failure      500 {object} util.APIResponse "Server error"
// @Router       /notification/{id}/read [put]
func MarkNotificationRead(c *gin.Context) {
	uid, err := parseIDParam(c)
	if err != nil {
		util.CallUserError(c, util.APIErrorParams{Msg: err.Error(), Err: err})
		return
	}

	userID := middleware.GetUserID(c)
	if userID == 0 {
		util.CallUserNotAuthorized(c, util.APIErrorParams{Msg: "Session does not carry a user"})
		return
	}

	db, ok := getDBOrRespond(c)
	if !ok {
		return
	}

	if err := service.NewNotificationService(db).MarkRead(c.Request.Context(), userID, uid); err != nil {
		respondServiceError(c, "Failed to mark notification as read", err)
		return
	}

	util.CallSuccessOK(c, util.APISuccessParams{Msg: "Notification marked as read"})
}

// DeleteNotification godoc
// @Summary      Delete a notification
// @Description  Hide one of the user's notifications without removing the row
// @Tags         Notifications
// @Produce      json
// @Security     SessionToken
// @Param        id path int true "Notification ID"
// @Success      200 {object} util.APIResponse "Notification deleted"
// @Failure      404 {object} util.APIResponse "Notification not found"
// @Failure      500 {object} util.APIResponse "Server error"
// @Router       /notification/{id} [delete]
func DeleteNotification(c *gin.Context) {
	uid, err := parseIDParam(c)
	if err != nil {
		util.CallUserError(c, util.APIErrorParams{Msg: err.Error(), Err: err})
		return
	}

	userID := middleware.GetUserID(c)
	if userID == 0 {
		util.CallUserNotAuthorized(c, util.APIErrorParams{Msg: "Session does not carry a user"})
		return
	}

	db, ok := getDBOrRespond(c)
	if !ok {
		return
	}

	if err := service.NewNotificationService(db).SoftDelete(c.Request.Context(), userID, uid); err != nil {
		respondServiceError(c, "Failed to delete notification", err)
		return
	}

	util.CallSuccessOK(c, util.APISuccessParams{Msg: "Notification deleted"})
}
