package controllers

import (
	"bufio"
	"fmt"
	"log"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sujit-baniya/flash"
	"github.com/valyala/fasthttp"

	"github.com/fundfox/FundFox/app/models"
	"github.com/fundfox/FundFox/app/repository"
	"github.com/fundfox/FundFox/internal/pkg/covers"
	"github.com/fundfox/FundFox/internal/pkg/metrics/counter"
	"github.com/fundfox/FundFox/internal/pkg/realtime"
	"github.com/fundfox/FundFox/internal/pkg/usercontext"
)

const campaignsPerPage = 12

var slugPattern = regexp.MustCompile(`[^a-z0-9]+`)

// slugify builds a URL slug from a campaign title
func slugify(title string) string {
	slug := strings.ToLower(strings.TrimSpace(title))
	slug = slugPattern.ReplaceAllString(slug, "-")
	slug = strings.Trim(slug, "-")
	if len(slug) > 180 {
		slug = slug[:180]
	}
	return slug
}

// uniqueSlug appends a numeric suffix until the slug is free
func uniqueSlug(repo repository.CampaignRepository, base string) string {
	slug := base
	for i := 2; ; i++ {
		exists, err := repo.SlugExists(slug)
		if err != nil || !exists {
			return slug
		}
		slug = fmt.Sprintf("%s-%d", base, i)
	}
}

// HandleCampaignDiscover renders the public campaign discovery page
func HandleCampaignDiscover(c *fiber.Ctx) error {
	page, _ := strconv.Atoi(c.Query("page", "1"))
	if page < 1 {
		page = 1
	}
	offset := (page - 1) * campaignsPerPage
	query := strings.TrimSpace(c.Query("q"))

	repo := repository.GetGlobalFactory().GetCampaignRepository()

	var campaigns []models.Campaign
	var err error
	if query != "" {
		campaigns, err = repo.Search(query, offset, campaignsPerPage)
	} else {
		campaigns, err = repo.ListByStatus(models.CampaignStatusActive, offset, campaignsPerPage)
	}
	if err != nil {
		log.Printf("campaign discovery failed: %v", err)
	}

	total, _ := repo.CountByStatus(models.CampaignStatusActive)

	return renderPage(c, "campaign/discover", fiber.Map{
		"Title":     "Discover campaigns",
		"Campaigns": campaigns,
		"Query":     query,
		"Page":      page,
		"NextPage":  page + 1,
		"HasMore":   int64(offset+campaignsPerPage) < total,
	})
}

// HandleCampaignShow renders the public campaign page
func HandleCampaignShow(c *fiber.Ctx) error {
	slug := c.Params("slug")
	repos := repository.GetGlobalFactory().GetRepositories()

	campaign, err := repos.Campaign.GetBySlug(slug)
	if err != nil {
		return c.Redirect("/campaigns", fiber.StatusSeeOther)
	}

	uctx := usercontext.GetUserContext(c)
	isOwner := uctx.IsLoggedIn && uctx.UserID == campaign.OwnerID

	// drafts and moderation states are only visible to the owner and admins
	switch campaign.Status {
	case models.CampaignStatusDraft, models.CampaignStatusPending, models.CampaignStatusRejected:
		if !isOwner && !uctx.IsAdmin {
			return c.Redirect("/campaigns", fiber.StatusSeeOther)
		}
	}

	if err := counter.AddCampaignView(campaign.ID); err != nil {
		log.Printf("failed to count campaign view: %v", err)
	}

	comments, _ := repos.Comment.GetByCampaignID(campaign.ID, 0, 50)
	updates, _ := repos.CampaignUpdate.GetByCampaignID(campaign.ID)
	donations, _ := repos.Donation.GetCompletedByCampaignID(campaign.ID, 0, 20)

	return renderPage(c, "campaign/show", fiber.Map{
		"Title":     campaign.Title,
		"Campaign":  campaign,
		"Comments":  comments,
		"Updates":   updates,
		"Donations": donations,
		"IsOwner":   isOwner,
	})
}

// HandleCampaignProgressStream streams ledger updates for a campaign as
// server-sent events, backed by the Redis progress channel.
func HandleCampaignProgressStream(c *fiber.Ctx) error {
	uuid := c.Params("uuid")
	repo := repository.GetGlobalFactory().GetCampaignRepository()
	campaign, err := repo.GetByUUID(uuid)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found", "message": "campaign not found"})
	}

	campaignID := campaign.ID
	c.Set("Content-Type", "text/event-stream")
	c.Set("Cache-Control", "no-cache")
	c.Set("Connection", "keep-alive")

	// the fiber ctx is recycled once the handler returns, only the
	// fasthttp request context stays valid inside the stream writer
	reqCtx := c.Context()
	reqCtx.SetBodyStreamWriter(fasthttp.StreamWriter(func(w *bufio.Writer) {
		ctx := reqCtx
		sub := realtime.SubscribeProgress(ctx, campaignID)
		defer sub.Close()

		ch := sub.Channel()
		keepAlive := time.NewTicker(25 * time.Second)
		defer keepAlive.Stop()

		for {
			select {
			case msg, ok := <-ch:
				if !ok {
					return
				}
				fmt.Fprintf(w, "event: progress\ndata: %s\n\n", msg.Payload)
				if err := w.Flush(); err != nil {
					return
				}
			case <-keepAlive.C:
				fmt.Fprint(w, ": keep-alive\n\n")
				if err := w.Flush(); err != nil {
					return
				}
			case <-ctx.Done():
				return
			}
		}
	}))

	return nil
}

// HandleCampaignCreate renders the create form and stores a new draft
func HandleCampaignCreate(c *fiber.Ctx) error {
	uctx := usercontext.GetUserContext(c)

	if c.Method() == fiber.MethodPost {
		goalAmount, err := parseAmountField(c.FormValue("goal_amount"))
		if err != nil {
			fm := fiber.Map{"type": "error", "message": "Please enter a valid goal amount."}
			return flash.WithError(c, fm).Redirect("/campaigns/create")
		}

		repo := repository.GetGlobalFactory().GetCampaignRepository()
		campaign := &models.Campaign{
			Title:       c.FormValue("title"),
			Description: c.FormValue("description"),
			Story:       c.FormValue("story"),
			GoalAmount:  goalAmount,
			Currency:    strings.ToLower(c.FormValue("currency", "usd")),
			Status:      models.CampaignStatusDraft,
			OwnerID:     uctx.UserID,
		}
		if endDate := c.FormValue("end_date"); endDate != "" {
			if t, err := time.Parse("2006-01-02", endDate); err == nil {
				campaign.EndDate = &t
			}
		}
		campaign.Slug = uniqueSlug(repo, slugify(campaign.Title))

		if err := campaign.Validate(); err != nil {
			fm := fiber.Map{"type": "error", "message": fmt.Sprintf("Please check your input: %s", err)}
			return flash.WithError(c, fm).Redirect("/campaigns/create")
		}

		if err := repo.Create(campaign); err != nil {
			fm := fiber.Map{"type": "error", "message": fmt.Sprintf("something went wrong: %s", err)}
			return flash.WithError(c, fm).Redirect("/campaigns/create")
		}

		fm := fiber.Map{"type": "success", "message": "Campaign draft created. Submit it for review when you are ready."}
		return flash.WithSuccess(c, fm).Redirect("/c/" + campaign.Slug)
	}

	return renderPage(c, "campaign/create", fiber.Map{
		"Title": "Start a campaign",
	})
}

// HandleCampaignEdit lets the owner edit a campaign
func HandleCampaignEdit(c *fiber.Ctx) error {
	repo := repository.GetGlobalFactory().GetCampaignRepository()
	campaign, err := repo.GetByUUID(c.Params("uuid"))
	if err != nil {
		return c.Redirect("/user/campaigns", fiber.StatusSeeOther)
	}

	uctx := usercontext.GetUserContext(c)
	if campaign.OwnerID != uctx.UserID {
		return c.Redirect("/user/campaigns", fiber.StatusSeeOther)
	}

	if c.Method() == fiber.MethodPost {
		campaign.Story = c.FormValue("story", campaign.Story)

		// goal, title and description are frozen once the campaign went live
		switch campaign.Status {
		case models.CampaignStatusDraft, models.CampaignStatusRejected:
			campaign.Title = c.FormValue("title", campaign.Title)
			campaign.Description = c.FormValue("description", campaign.Description)
			if goalAmount, err := parseAmountField(c.FormValue("goal_amount")); err == nil {
				campaign.GoalAmount = goalAmount
			}
			if endDate := c.FormValue("end_date"); endDate != "" {
				if t, err := time.Parse("2006-01-02", endDate); err == nil {
					campaign.EndDate = &t
				}
			}
		}

		if err := campaign.Validate(); err != nil {
			fm := fiber.Map{"type": "error", "message": fmt.Sprintf("Please check your input: %s", err)}
			return flash.WithError(c, fm).Redirect("/campaigns/edit/" + campaign.UUID)
		}

		if err := repo.Update(campaign); err != nil {
			fm := fiber.Map{"type": "error", "message": fmt.Sprintf("something went wrong: %s", err)}
			return flash.WithError(c, fm).Redirect("/campaigns/edit/" + campaign.UUID)
		}

		fm := fiber.Map{"type": "success", "message": "Campaign updated."}
		return flash.WithSuccess(c, fm).Redirect("/c/" + campaign.Slug)
	}

	return renderPage(c, "campaign/edit", fiber.Map{
		"Title":    "Edit campaign",
		"Campaign": campaign,
	})
}

// HandleCampaignSubmit moves a draft (or rejected) campaign into the review queue
func HandleCampaignSubmit(c *fiber.Ctx) error {
	repo := repository.GetGlobalFactory().GetCampaignRepository()
	campaign, err := repo.GetByUUID(c.Params("uuid"))
	if err != nil {
		return c.Redirect("/user/campaigns", fiber.StatusSeeOther)
	}

	uctx := usercontext.GetUserContext(c)
	if campaign.OwnerID != uctx.UserID {
		return c.Redirect("/user/campaigns", fiber.StatusSeeOther)
	}

	if !campaign.CanTransitionTo(models.CampaignStatusPending) {
		fm := fiber.Map{"type": "error", "message": "This campaign cannot be submitted for review."}
		return flash.WithError(c, fm).Redirect("/c/" + campaign.Slug)
	}

	moved, err := repo.UpdateStatus(campaign.ID, campaign.Status, models.CampaignStatusPending)
	if err != nil || !moved {
		fm := fiber.Map{"type": "error", "message": "Could not submit campaign. Please try again."}
		return flash.WithError(c, fm).Redirect("/c/" + campaign.Slug)
	}

	fm := fiber.Map{"type": "success", "message": "Campaign submitted for review."}
	return flash.WithSuccess(c, fm).Redirect("/c/" + campaign.Slug)
}

// HandleCampaignPause pauses an active campaign
func HandleCampaignPause(c *fiber.Ctx) error {
	return handleOwnerTransition(c, models.CampaignStatusActive, models.CampaignStatusPaused, "Campaign paused. It no longer accepts donations.")
}

// HandleCampaignResume reactivates a paused campaign
func HandleCampaignResume(c *fiber.Ctx) error {
	return handleOwnerTransition(c, models.CampaignStatusPaused, models.CampaignStatusActive, "Campaign is live again.")
}

// HandleCampaignCancel permanently cancels a campaign
func HandleCampaignCancel(c *fiber.Ctx) error {
	repo := repository.GetGlobalFactory().GetCampaignRepository()
	campaign, err := repo.GetByUUID(c.Params("uuid"))
	if err != nil {
		return c.Redirect("/user/campaigns", fiber.StatusSeeOther)
	}

	uctx := usercontext.GetUserContext(c)
	if campaign.OwnerID != uctx.UserID {
		return c.Redirect("/user/campaigns", fiber.StatusSeeOther)
	}

	if !campaign.CanTransitionTo(models.CampaignStatusCancelled) {
		fm := fiber.Map{"type": "error", "message": "This campaign cannot be cancelled."}
		return flash.WithError(c, fm).Redirect("/c/" + campaign.Slug)
	}

	if _, err := repo.UpdateStatus(campaign.ID, campaign.Status, models.CampaignStatusCancelled); err != nil {
		fm := fiber.Map{"type": "error", "message": fmt.Sprintf("something went wrong: %s", err)}
		return flash.WithError(c, fm).Redirect("/c/" + campaign.Slug)
	}

	fm := fiber.Map{"type": "success", "message": "Campaign cancelled."}
	return flash.WithSuccess(c, fm).Redirect("/user/campaigns")
}

func handleOwnerTransition(c *fiber.Ctx, from, to, successMsg string) error {
	repo := repository.GetGlobalFactory().GetCampaignRepository()
	campaign, err := repo.GetByUUID(c.Params("uuid"))
	if err != nil {
		return c.Redirect("/user/campaigns", fiber.StatusSeeOther)
	}

	uctx := usercontext.GetUserContext(c)
	if campaign.OwnerID != uctx.UserID {
		return c.Redirect("/user/campaigns", fiber.StatusSeeOther)
	}

	moved, err := repo.UpdateStatus(campaign.ID, from, to)
	if err != nil || !moved {
		fm := fiber.Map{"type": "error", "message": "Status change not possible."}
		return flash.WithError(c, fm).Redirect("/c/" + campaign.Slug)
	}

	fm := fiber.Map{"type": "success", "message": successMsg}
	return flash.WithSuccess(c, fm).Redirect("/c/" + campaign.Slug)
}

// HandleCampaignCoverUpload stores a new cover image for a campaign
func HandleCampaignCoverUpload(c *fiber.Ctx) error {
	repo := repository.GetGlobalFactory().GetCampaignRepository()
	campaign, err := repo.GetByUUID(c.Params("uuid"))
	if err != nil {
		return c.Redirect("/user/campaigns", fiber.StatusSeeOther)
	}

	uctx := usercontext.GetUserContext(c)
	if campaign.OwnerID != uctx.UserID {
		return c.Redirect("/user/campaigns", fiber.StatusSeeOther)
	}

	fileHeader, err := c.FormFile("cover")
	if err != nil {
		fm := fiber.Map{"type": "error", "message": "Please choose an image file."}
		return flash.WithError(c, fm).Redirect("/campaigns/edit/" + campaign.UUID)
	}

	file, err := fileHeader.Open()
	if err != nil {
		fm := fiber.Map{"type": "error", "message": fmt.Sprintf("something went wrong: %s", err)}
		return flash.WithError(c, fm).Redirect("/campaigns/edit/" + campaign.UUID)
	}
	defer file.Close()

	client, err := covers.GetClient()
	if err != nil {
		fm := fiber.Map{"type": "error", "message": "Cover uploads are currently unavailable."}
		return flash.WithError(c, fm).Redirect("/campaigns/edit/" + campaign.UUID)
	}

	url, err := client.ProcessAndUpload(c.Context(), file, campaign.UUID)
	if err != nil {
		log.Printf("cover upload failed for campaign %d: %v", campaign.ID, err)
		fm := fiber.Map{"type": "error", "message": "Could not process the image. Please try another file."}
		return flash.WithError(c, fm).Redirect("/campaigns/edit/" + campaign.UUID)
	}

	campaign.CoverImageURL = url
	if err := repo.Update(campaign); err != nil {
		fm := fiber.Map{"type": "error", "message": fmt.Sprintf("something went wrong: %s", err)}
		return flash.WithError(c, fm).Redirect("/campaigns/edit/" + campaign.UUID)
	}

	fm := fiber.Map{"type": "success", "message": "Cover image updated."}
	return flash.WithSuccess(c, fm).Redirect("/campaigns/edit/" + campaign.UUID)
}

// HandleUserCampaigns lists the logged-in user's campaigns
func HandleUserCampaigns(c *fiber.Ctx) error {
	uctx := usercontext.GetUserContext(c)
	repo := repository.GetGlobalFactory().GetCampaignRepository()

	campaigns, err := repo.GetByOwnerID(uctx.UserID)
	if err != nil {
		log.Printf("failed to load campaigns for user %d: %v", uctx.UserID, err)
	}

	return renderPage(c, "campaign/mine", fiber.Map{
		"Title":     "My campaigns",
		"Campaigns": campaigns,
	})
}

// parseAmountField converts a decimal form value ("250.00") to minor units.
func parseAmountField(raw string) (int64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, fmt.Errorf("amount is empty")
	}
	val, err := strconv.ParseFloat(raw, 64)
	if err != nil || val <= 0 {
		return 0, fmt.Errorf("invalid amount %q", raw)
	}
	return int64(val*100 + 0.5), nil
}
