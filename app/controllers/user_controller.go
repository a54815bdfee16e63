package controllers

import (
	"fmt"
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/sujit-baniya/flash"

	"github.com/fundfox/FundFox/app/models"
	"github.com/fundfox/FundFox/app/repository"
	"github.com/fundfox/FundFox/internal/pkg/usercontext"
)

// HandleUserDashboard renders the personal dashboard: own campaigns, recent
// donations and active recurring donations at a glance.
func HandleUserDashboard(c *fiber.Ctx) error {
	uctx := usercontext.GetUserContext(c)
	repos := repository.GetGlobalRepositories()

	campaigns, err := repos.Campaign.GetByOwnerID(uctx.UserID)
	if err != nil {
		log.Printf("failed to load campaigns for user %d: %v", uctx.UserID, err)
	}
	donations, err := repos.Donation.GetByDonorID(uctx.UserID, 0, 10)
	if err != nil {
		log.Printf("failed to load donations for user %d: %v", uctx.UserID, err)
	}
	recurring, err := repos.Donation.GetRecurringByDonorID(uctx.UserID)
	if err != nil {
		log.Printf("failed to load recurring donations for user %d: %v", uctx.UserID, err)
	}
	unread, _ := repos.Notification.CountUnreadByUserID(uctx.UserID)

	return renderPage(c, "user/dashboard", fiber.Map{
		"Title":       "Dashboard",
		"Campaigns":   campaigns,
		"Donations":   donations,
		"Recurring":   recurring,
		"UnreadCount": unread,
	})
}

// HandleUserProfile renders and updates the profile settings page
func HandleUserProfile(c *fiber.Ctx) error {
	uctx := usercontext.GetUserContext(c)
	repo := repository.GetGlobalFactory().GetUserRepository()

	user, err := repo.GetByID(uctx.UserID)
	if err != nil {
		return c.Redirect("/user/dashboard", fiber.StatusSeeOther)
	}

	if c.Method() == fiber.MethodPost {
		user.Name = c.FormValue("name", user.Name)
		user.Bio = c.FormValue("bio", user.Bio)

		if newPassword := c.FormValue("new_password"); newPassword != "" {
			if !models.CheckPasswordHash(c.FormValue("current_password"), user.Password) {
				fm := fiber.Map{"type": "error", "message": "Current password is incorrect."}
				return flash.WithError(c, fm).Redirect("/user/profile")
			}
			hashed, err := models.HashPassword(newPassword)
			if err != nil {
				fm := fiber.Map{"type": "error", "message": fmt.Sprintf("something went wrong: %s", err)}
				return flash.WithError(c, fm).Redirect("/user/profile")
			}
			user.Password = hashed
		}

		if err := user.Validate(); err != nil {
			fm := fiber.Map{"type": "error", "message": "Please check your input."}
			return flash.WithError(c, fm).Redirect("/user/profile")
		}

		if err := repo.Update(user); err != nil {
			fm := fiber.Map{"type": "error", "message": fmt.Sprintf("something went wrong: %s", err)}
			return flash.WithError(c, fm).Redirect("/user/profile")
		}

		fm := fiber.Map{"type": "success", "message": "Profile updated."}
		return flash.WithSuccess(c, fm).Redirect("/user/profile")
	}

	return renderPage(c, "user/profile", fiber.Map{
		"Title": "Profile",
		"User":  user,
	})
}
