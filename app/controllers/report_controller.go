package controllers

import (
	"fmt"
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/sujit-baniya/flash"

	"github.com/fundfox/FundFox/app/models"
	"github.com/fundfox/FundFox/app/repository"
	"github.com/fundfox/FundFox/internal/pkg/env"
	"github.com/fundfox/FundFox/internal/pkg/hcaptcha"
	"github.com/fundfox/FundFox/internal/pkg/usercontext"
)

var reportReasons = map[string]bool{
	"fraud":         true,
	"spam":          true,
	"inappropriate": true,
	"misleading":    true,
	"other":         true,
}

// HandleCampaignReport files a fraud/abuse report against a campaign.
// Guests may report too, they just have to pass the captcha.
func HandleCampaignReport(c *fiber.Ctx) error {
	repos := repository.GetGlobalRepositories()

	campaign, err := repos.Campaign.GetBySlug(c.Params("slug"))
	if err != nil {
		return c.Redirect("/campaigns", fiber.StatusSeeOther)
	}

	uctx := usercontext.GetUserContext(c)

	if c.Method() == fiber.MethodPost {
		if !uctx.IsLoggedIn && env.GetEnv("HCAPTCHA_SECRET", "") != "" {
			ok, err := hcaptcha.Verify(c.FormValue("h-captcha-response"))
			if err != nil || !ok {
				fm := fiber.Map{"type": "error", "message": "Captcha verification failed. Please try again."}
				return flash.WithError(c, fm).Redirect("/c/" + campaign.Slug + "/report")
			}
		}

		reason := c.FormValue("reason")
		if !reportReasons[reason] {
			fm := fiber.Map{"type": "error", "message": "Please choose a report reason."}
			return flash.WithError(c, fm).Redirect("/c/" + campaign.Slug + "/report")
		}

		report := &models.CampaignReport{
			CampaignID: campaign.ID,
			Reason:     reason,
			Details:    c.FormValue("details"),
			Status:     models.ReportStatusOpen,
		}
		if uctx.IsLoggedIn {
			reporterID := uctx.UserID
			report.ReporterID = &reporterID
		}
		report.ReporterIPv4, report.ReporterIPv6 = GetClientIP(c)

		if err := repos.Report.Create(report); err != nil {
			log.Printf("failed to file report for campaign %d: %v", campaign.ID, err)
			fm := fiber.Map{"type": "error", "message": fmt.Sprintf("something went wrong: %s", err)}
			return flash.WithError(c, fm).Redirect("/c/" + campaign.Slug + "/report")
		}

		fm := fiber.Map{"type": "success", "message": "Thank you, your report has been filed and will be reviewed."}
		return flash.WithSuccess(c, fm).Redirect("/c/" + campaign.Slug)
	}

	return renderPage(c, "campaign/report", fiber.Map{
		"Title":          "Report campaign",
		"Campaign":       campaign,
		"HCaptchaSitekey": env.GetEnv("HCAPTCHA_SITEKEY", ""),
	})
}
