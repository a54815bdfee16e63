package controllers

import (
	"log"

	"github.com/gofiber/fiber/v2"

	"github.com/fundfox/FundFox/app/repository"
	"github.com/fundfox/FundFox/internal/pkg/usercontext"
)

// HandleNotifications renders the logged-in user's notifications
func HandleNotifications(c *fiber.Ctx) error {
	uctx := usercontext.GetUserContext(c)
	repo := repository.GetGlobalFactory().GetNotificationRepository()

	notifications, err := repo.GetByUserID(uctx.UserID, 0, 50)
	if err != nil {
		log.Printf("failed to load notifications for user %d: %v", uctx.UserID, err)
	}
	unread, _ := repo.CountUnreadByUserID(uctx.UserID)

	return renderPage(c, "user/notifications", fiber.Map{
		"Title":         "Notifications",
		"Notifications": notifications,
		"UnreadCount":   unread,
	})
}

// HandleNotificationRead marks one notification as read
func HandleNotificationRead(c *fiber.Ctx) error {
	uctx := usercontext.GetUserContext(c)

	id, err := c.ParamsInt("id")
	if err != nil || id < 1 {
		return c.Redirect("/user/notifications", fiber.StatusSeeOther)
	}

	repo := repository.GetGlobalFactory().GetNotificationRepository()
	if err := repo.MarkRead(uint(id), uctx.UserID); err != nil {
		log.Printf("failed to mark notification %d read: %v", id, err)
	}

	return c.Redirect("/user/notifications")
}

// HandleNotificationsReadAll marks all notifications of the user as read
func HandleNotificationsReadAll(c *fiber.Ctx) error {
	uctx := usercontext.GetUserContext(c)

	repo := repository.GetGlobalFactory().GetNotificationRepository()
	if err := repo.MarkAllRead(uctx.UserID); err != nil {
		log.Printf("failed to mark notifications read for user %d: %v", uctx.UserID, err)
	}

	return c.Redirect("/user/notifications")
}

// HandleAPIUnreadCount returns the unread notification badge count
func HandleAPIUnreadCount(c *fiber.Ctx) error {
	uctx := usercontext.GetUserContext(c)

	repo := repository.GetGlobalFactory().GetNotificationRepository()
	unread, err := repo.CountUnreadByUserID(uctx.UserID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   "internal_error",
			"message": "could not load notifications",
		})
	}

	return c.JSON(fiber.Map{"unread": unread})
}
