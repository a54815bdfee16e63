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

// HandleUpdateCreate posts an impact-story update on a campaign. Owner only.
func HandleUpdateCreate(c *fiber.Ctx) error {
	uctx := usercontext.GetUserContext(c)
	repos := repository.GetGlobalRepositories()

	campaign, err := repos.Campaign.GetBySlug(c.Params("slug"))
	if err != nil {
		return c.Redirect("/campaigns", fiber.StatusSeeOther)
	}
	if campaign.OwnerID != uctx.UserID {
		return c.Redirect("/c/"+campaign.Slug, fiber.StatusSeeOther)
	}

	if c.Method() == fiber.MethodPost {
		update := &models.CampaignUpdate{
			CampaignID: campaign.ID,
			AuthorID:   uctx.UserID,
			Title:      c.FormValue("title"),
			Content:    c.FormValue("content"),
		}

		if err := update.Validate(); err != nil {
			fm := fiber.Map{"type": "error", "message": "Please provide a title and at least a short update text."}
			return flash.WithError(c, fm).Redirect("/c/" + campaign.Slug + "/updates/new")
		}

		if err := repos.CampaignUpdate.Create(update); err != nil {
			fm := fiber.Map{"type": "error", "message": fmt.Sprintf("something went wrong: %s", err)}
			return flash.WithError(c, fm).Redirect("/c/" + campaign.Slug + "/updates/new")
		}

		go notifyDonorsOfUpdate(campaign, update)

		fm := fiber.Map{"type": "success", "message": "Update published."}
		return flash.WithSuccess(c, fm).Redirect("/c/" + campaign.Slug)
	}

	return renderPage(c, "campaign/update_new", fiber.Map{
		"Title":    "Post an update",
		"Campaign": campaign,
	})
}

// notifyDonorsOfUpdate fans a new update out to everyone who donated to the
// campaign. The owner does not get a notification for their own post.
func notifyDonorsOfUpdate(campaign *models.Campaign, update *models.CampaignUpdate) {
	repos := repository.GetGlobalRepositories()

	donorIDs, err := repos.Donation.GetDistinctDonorIDs(campaign.ID)
	if err != nil {
		log.Printf("failed to load donors of campaign %d for update fan-out: %v", campaign.ID, err)
		return
	}

	content := fmt.Sprintf("\"%s\" posted an update: %s", campaign.Title, update.Title)
	for _, donorID := range donorIDs {
		if donorID == campaign.OwnerID {
			continue
		}
		notification := &models.Notification{
			UserID:      donorID,
			Type:        "update",
			Content:     content,
			ReferenceID: update.ID,
		}
		if err := repos.Notification.Create(notification); err != nil {
			log.Printf("failed to notify donor %d about update %d: %v", donorID, update.ID, err)
		}
	}
}

// HandleUpdateEdit edits an existing impact-story update. Owner only.
func HandleUpdateEdit(c *fiber.Ctx) error {
	uctx := usercontext.GetUserContext(c)
	repos := repository.GetGlobalRepositories()

	id, err := c.ParamsInt("id")
	if err != nil || id < 1 {
		return c.Redirect("/campaigns", fiber.StatusSeeOther)
	}

	update, err := repos.CampaignUpdate.GetByID(uint(id))
	if err != nil {
		return c.Redirect("/campaigns", fiber.StatusSeeOther)
	}

	campaign, err := repos.Campaign.GetByID(update.CampaignID)
	if err != nil {
		return c.Redirect("/campaigns", fiber.StatusSeeOther)
	}
	if campaign.OwnerID != uctx.UserID {
		return c.Redirect("/c/"+campaign.Slug, fiber.StatusSeeOther)
	}

	if c.Method() == fiber.MethodPost {
		update.Title = c.FormValue("title", update.Title)
		update.Content = c.FormValue("content", update.Content)

		if err := update.Validate(); err != nil {
			fm := fiber.Map{"type": "error", "message": "Please provide a title and at least a short update text."}
			return flash.WithError(c, fm).Redirect(fmt.Sprintf("/updates/edit/%d", update.ID))
		}

		if err := repos.CampaignUpdate.Update(update); err != nil {
			fm := fiber.Map{"type": "error", "message": fmt.Sprintf("something went wrong: %s", err)}
			return flash.WithError(c, fm).Redirect(fmt.Sprintf("/updates/edit/%d", update.ID))
		}

		fm := fiber.Map{"type": "success", "message": "Update saved."}
		return flash.WithSuccess(c, fm).Redirect("/c/" + campaign.Slug)
	}

	return renderPage(c, "campaign/update_edit", fiber.Map{
		"Title":    "Edit update",
		"Campaign": campaign,
		"Update":   update,
	})
}

// HandleUpdateDelete removes an impact-story update. Owner or admin.
func HandleUpdateDelete(c *fiber.Ctx) error {
	uctx := usercontext.GetUserContext(c)
	repos := repository.GetGlobalRepositories()

	id, err := c.ParamsInt("id")
	if err != nil || id < 1 {
		return c.Redirect("/campaigns", fiber.StatusSeeOther)
	}

	update, err := repos.CampaignUpdate.GetByID(uint(id))
	if err != nil {
		return c.Redirect("/campaigns", fiber.StatusSeeOther)
	}

	campaign, err := repos.Campaign.GetByID(update.CampaignID)
	if err != nil {
		return c.Redirect("/campaigns", fiber.StatusSeeOther)
	}
	if campaign.OwnerID != uctx.UserID && !uctx.IsAdmin {
		return c.Redirect("/c/"+campaign.Slug, fiber.StatusSeeOther)
	}

	if err := repos.CampaignUpdate.Delete(update.ID); err != nil {
		fm := fiber.Map{"type": "error", "message": fmt.Sprintf("something went wrong: %s", err)}
		return flash.WithError(c, fm).Redirect("/c/" + campaign.Slug)
	}

	return c.Redirect("/c/" + campaign.Slug)
}
