package controllers

import (
	"log"

	"github.com/gofiber/fiber/v2"

	"github.com/fundfox/FundFox/app/repository"
	"github.com/fundfox/FundFox/internal/pkg/statistics"
)

// HandleStart renders the home page with platform statistics and featured campaigns
func HandleStart(c *fiber.Ctx) error {
	stats := statistics.GetStatistics()

	campaignRepo := repository.GetGlobalFactory().GetCampaignRepository()
	recent, err := campaignRepo.GetRecent(6)
	if err != nil {
		log.Printf("failed to load recent campaigns: %v", err)
	}
	endingSoon, err := campaignRepo.GetActiveEndingSoon(3)
	if err != nil {
		log.Printf("failed to load ending-soon campaigns: %v", err)
	}
	topFunded, err := campaignRepo.GetTopFunded(3)
	if err != nil {
		log.Printf("failed to load top-funded campaigns: %v", err)
	}

	return renderPage(c, "home/index", fiber.Map{
		"Title":           "FundFox - Fund what matters",
		"Stats":           stats,
		"RecentCampaigns": recent,
		"EndingSoon":      endingSoon,
		"TopFunded":       topFunded,
	})
}

// HandleAbout renders the static about page
func HandleAbout(c *fiber.Ctx) error {
	return renderPage(c, "pages/about", fiber.Map{
		"Title": "About",
	})
}

// HandleContact renders the static contact page
func HandleContact(c *fiber.Ctx) error {
	return renderPage(c, "pages/contact", fiber.Map{
		"Title": "Contact",
	})
}
