package controllers

import (
	"fmt"
	"log"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sujit-baniya/flash"

	"github.com/fundfox/FundFox/app/models"
	"github.com/fundfox/FundFox/app/repository"
	"github.com/fundfox/FundFox/internal/pkg/mail"
	"github.com/fundfox/FundFox/internal/pkg/statistics"
	"github.com/fundfox/FundFox/internal/pkg/usercontext"
)

const adminPerPage = 25

// AdminController bundles the admin area handlers with their repositories.
type AdminController struct {
	repos *repository.Repositories
}

var adminController *AdminController

// InitializeAdminController sets up the admin controller with the global
// repository factory. Must be called during router setup.
func InitializeAdminController() {
	adminController = &AdminController{
		repos: repository.GetGlobalRepositories(),
	}
}

func getAdminController() *AdminController {
	if adminController == nil {
		InitializeAdminController()
	}
	return adminController
}

// HandleAdminDashboard renders the admin overview
func HandleAdminDashboard(c *fiber.Ctx) error {
	ac := getAdminController()

	stats := statistics.GetStatistics()

	pendingCampaigns, _ := ac.repos.Campaign.CountByStatus(models.CampaignStatusPending)
	openReports, _ := ac.repos.Report.CountByStatus(models.ReportStatusOpen)
	totalUsers, _ := ac.repos.User.Count()

	return renderPage(c, "admin/dashboard", fiber.Map{
		"Title":            "Admin Dashboard",
		"Stats":            stats,
		"PendingCampaigns": pendingCampaigns,
		"OpenReports":      openReports,
		"TotalUsers":       totalUsers,
	})
}

// HandleAdminModerationQueue lists campaigns waiting for review
func HandleAdminModerationQueue(c *fiber.Ctx) error {
	ac := getAdminController()

	page, _ := strconv.Atoi(c.Query("page", "1"))
	if page < 1 {
		page = 1
	}
	offset := (page - 1) * adminPerPage

	campaigns, err := ac.repos.Campaign.ListByStatus(models.CampaignStatusPending, offset, adminPerPage)
	if err != nil {
		log.Printf("failed to load moderation queue: %v", err)
	}
	total, _ := ac.repos.Campaign.CountByStatus(models.CampaignStatusPending)

	return renderPage(c, "admin/moderation", fiber.Map{
		"Title":     "Moderation queue",
		"Campaigns": campaigns,
		"Page":      page,
		"HasMore":   int64(offset+adminPerPage) < total,
	})
}

// HandleAdminCampaignApprove moves a pending campaign to active
func HandleAdminCampaignApprove(c *fiber.Ctx) error {
	ac := getAdminController()
	uctx := usercontext.GetUserContext(c)

	campaign, err := ac.repos.Campaign.GetByUUID(c.Params("uuid"))
	if err != nil {
		return c.Redirect("/admin/moderation", fiber.StatusSeeOther)
	}

	moved, err := ac.repos.Campaign.UpdateStatus(campaign.ID, models.CampaignStatusPending, models.CampaignStatusActive)
	if err != nil || !moved {
		fm := fiber.Map{"type": "error", "message": "Campaign is no longer pending review."}
		return flash.WithError(c, fm).Redirect("/admin/moderation")
	}

	now := time.Now()
	adminID := uctx.UserID
	campaign.Status = models.CampaignStatusActive
	campaign.VerifiedAt = &now
	campaign.VerifiedByID = &adminID
	campaign.RejectReason = ""
	if err := ac.repos.Campaign.Update(campaign); err != nil {
		log.Printf("failed to record verification for campaign %d: %v", campaign.ID, err)
	}

	ac.notifyOwner(campaign, fmt.Sprintf("Your campaign \"%s\" was approved and is now live.", campaign.Title))

	fm := fiber.Map{"type": "success", "message": "Campaign approved."}
	return flash.WithSuccess(c, fm).Redirect("/admin/moderation")
}

// HandleAdminCampaignReject rejects a pending campaign with a reason
func HandleAdminCampaignReject(c *fiber.Ctx) error {
	ac := getAdminController()

	campaign, err := ac.repos.Campaign.GetByUUID(c.Params("uuid"))
	if err != nil {
		return c.Redirect("/admin/moderation", fiber.StatusSeeOther)
	}

	reason := c.FormValue("reason")
	if reason == "" {
		fm := fiber.Map{"type": "error", "message": "A rejection reason is required."}
		return flash.WithError(c, fm).Redirect("/admin/moderation")
	}

	moved, err := ac.repos.Campaign.UpdateStatus(campaign.ID, models.CampaignStatusPending, models.CampaignStatusRejected)
	if err != nil || !moved {
		fm := fiber.Map{"type": "error", "message": "Campaign is no longer pending review."}
		return flash.WithError(c, fm).Redirect("/admin/moderation")
	}

	campaign.Status = models.CampaignStatusRejected
	campaign.RejectReason = reason
	if err := ac.repos.Campaign.Update(campaign); err != nil {
		log.Printf("failed to store rejection reason for campaign %d: %v", campaign.ID, err)
	}

	ac.notifyOwner(campaign, fmt.Sprintf("Your campaign \"%s\" was rejected: %s", campaign.Title, reason))

	fm := fiber.Map{"type": "success", "message": "Campaign rejected."}
	return flash.WithSuccess(c, fm).Redirect("/admin/moderation")
}

// HandleAdminReports lists open abuse reports
func HandleAdminReports(c *fiber.Ctx) error {
	ac := getAdminController()

	status := c.Query("status", models.ReportStatusOpen)
	page, _ := strconv.Atoi(c.Query("page", "1"))
	if page < 1 {
		page = 1
	}
	offset := (page - 1) * adminPerPage

	reports, err := ac.repos.Report.GetByStatus(status, offset, adminPerPage)
	if err != nil {
		log.Printf("failed to load reports: %v", err)
	}
	total, _ := ac.repos.Report.CountByStatus(status)

	return renderPage(c, "admin/reports", fiber.Map{
		"Title":   "Campaign reports",
		"Reports": reports,
		"Status":  status,
		"Page":    page,
		"HasMore": int64(offset+adminPerPage) < total,
	})
}

// HandleAdminReportResolve closes a report as resolved or dismissed
func HandleAdminReportResolve(c *fiber.Ctx) error {
	ac := getAdminController()
	uctx := usercontext.GetUserContext(c)

	id, err := c.ParamsInt("id")
	if err != nil || id < 1 {
		return c.Redirect("/admin/reports", fiber.StatusSeeOther)
	}

	status := c.FormValue("status")
	if status != models.ReportStatusResolved && status != models.ReportStatusDismissed {
		fm := fiber.Map{"type": "error", "message": "Invalid report resolution."}
		return flash.WithError(c, fm).Redirect("/admin/reports")
	}

	if err := ac.repos.Report.Resolve(uint(id), uctx.UserID, status); err != nil {
		fm := fiber.Map{"type": "error", "message": fmt.Sprintf("something went wrong: %s", err)}
		return flash.WithError(c, fm).Redirect("/admin/reports")
	}

	fm := fiber.Map{"type": "success", "message": "Report closed."}
	return flash.WithSuccess(c, fm).Redirect("/admin/reports")
}

// HandleAdminUsers lists and searches platform users
func HandleAdminUsers(c *fiber.Ctx) error {
	ac := getAdminController()

	query := c.Query("q")
	page, _ := strconv.Atoi(c.Query("page", "1"))
	if page < 1 {
		page = 1
	}
	offset := (page - 1) * adminPerPage

	var users []models.User
	var err error
	if query != "" {
		users, err = ac.repos.User.Search(query)
	} else {
		users, err = ac.repos.User.List(offset, adminPerPage)
	}
	if err != nil {
		log.Printf("failed to load users: %v", err)
	}
	total, _ := ac.repos.User.Count()

	return renderPage(c, "admin/users", fiber.Map{
		"Title":   "Users",
		"Users":   users,
		"Query":   query,
		"Page":    page,
		"HasMore": int64(offset+adminPerPage) < total,
	})
}

// HandleAdminUserStatus enables or disables a user account
func HandleAdminUserStatus(c *fiber.Ctx) error {
	ac := getAdminController()
	uctx := usercontext.GetUserContext(c)

	id, err := c.ParamsInt("id")
	if err != nil || id < 1 {
		return c.Redirect("/admin/users", fiber.StatusSeeOther)
	}
	if uint(id) == uctx.UserID {
		fm := fiber.Map{"type": "error", "message": "You cannot change your own account status."}
		return flash.WithError(c, fm).Redirect("/admin/users")
	}

	status := c.FormValue("status")
	if status != models.STATUS_ACTIVE && status != models.STATUS_DISABLED {
		fm := fiber.Map{"type": "error", "message": "Invalid account status."}
		return flash.WithError(c, fm).Redirect("/admin/users")
	}

	user, err := ac.repos.User.GetByID(uint(id))
	if err != nil {
		return c.Redirect("/admin/users", fiber.StatusSeeOther)
	}

	user.Status = status
	if err := ac.repos.User.Update(user); err != nil {
		fm := fiber.Map{"type": "error", "message": fmt.Sprintf("something went wrong: %s", err)}
		return flash.WithError(c, fm).Redirect("/admin/users")
	}

	fm := fiber.Map{"type": "success", "message": "Account status updated."}
	return flash.WithSuccess(c, fm).Redirect("/admin/users")
}

func (ac *AdminController) notifyOwner(campaign *models.Campaign, content string) {
	notification := &models.Notification{
		UserID:      campaign.OwnerID,
		Type:        "moderation",
		Content:     content,
		ReferenceID: campaign.ID,
	}
	if err := ac.repos.Notification.Create(notification); err != nil {
		log.Printf("failed to create moderation notification: %v", err)
	}

	// best effort email alongside the in-app notification
	go func() {
		owner, err := ac.repos.User.GetByID(campaign.OwnerID)
		if err != nil {
			log.Printf("failed to load owner %d for moderation mail: %v", campaign.OwnerID, err)
			return
		}
		if err := mail.SendMail(owner.Email, "FundFox moderation update", content); err != nil {
			log.Printf("failed to send moderation mail to user %d: %v", owner.ID, err)
		}
	}()
}
