package controllers

import (
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/sujit-baniya/flash"

	"github.com/fundfox/FundFox/app/models"
	"github.com/fundfox/FundFox/app/repository"
	"github.com/fundfox/FundFox/internal/pkg/usercontext"
)

// HandleCommentCreate posts a comment on a campaign page
func HandleCommentCreate(c *fiber.Ctx) error {
	uctx := usercontext.GetUserContext(c)
	repos := repository.GetGlobalRepositories()

	campaign, err := repos.Campaign.GetBySlug(c.Params("slug"))
	if err != nil {
		return c.Redirect("/campaigns", fiber.StatusSeeOther)
	}

	comment := &models.Comment{
		UserID:     uctx.UserID,
		CampaignID: campaign.ID,
		Content:    c.FormValue("content"),
	}

	v := validator.New()
	if err := v.Struct(comment); err != nil {
		fm := fiber.Map{"type": "error", "message": "Comments must be between 1 and 2000 characters."}
		return flash.WithError(c, fm).Redirect("/c/" + campaign.Slug)
	}

	if err := repos.Comment.Create(comment); err != nil {
		fm := fiber.Map{"type": "error", "message": fmt.Sprintf("something went wrong: %s", err)}
		return flash.WithError(c, fm).Redirect("/c/" + campaign.Slug)
	}

	// the owner gets a heads-up unless they commented themselves
	if campaign.OwnerID != uctx.UserID {
		notification := &models.Notification{
			UserID:      campaign.OwnerID,
			Type:        "comment",
			Content:     fmt.Sprintf("%s commented on \"%s\".", uctx.Username, campaign.Title),
			ReferenceID: comment.ID,
		}
		_ = repos.Notification.Create(notification)
	}

	return c.Redirect("/c/" + campaign.Slug)
}

// HandleCommentDelete removes a comment. Allowed for the comment author, the
// campaign owner and admins.
func HandleCommentDelete(c *fiber.Ctx) error {
	uctx := usercontext.GetUserContext(c)
	repos := repository.GetGlobalRepositories()

	id, err := c.ParamsInt("id")
	if err != nil || id < 1 {
		return c.Redirect("/campaigns", fiber.StatusSeeOther)
	}

	comment, err := repos.Comment.GetByID(uint(id))
	if err != nil {
		return c.Redirect("/campaigns", fiber.StatusSeeOther)
	}

	campaign, err := repos.Campaign.GetByID(comment.CampaignID)
	if err != nil {
		return c.Redirect("/campaigns", fiber.StatusSeeOther)
	}

	allowed := uctx.IsAdmin || comment.UserID == uctx.UserID || campaign.OwnerID == uctx.UserID
	if !allowed {
		fm := fiber.Map{"type": "error", "message": "You cannot delete this comment."}
		return flash.WithError(c, fm).Redirect("/c/" + campaign.Slug)
	}

	if err := repos.Comment.Delete(comment.ID); err != nil {
		fm := fiber.Map{"type": "error", "message": fmt.Sprintf("something went wrong: %s", err)}
		return flash.WithError(c, fm).Redirect("/c/" + campaign.Slug)
	}

	return c.Redirect("/c/" + campaign.Slug)
}
