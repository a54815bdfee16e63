package statistics

import (
	"log"
	"strconv"
	"sync"
	"time"

	"github.com/fundfox/FundFox/app/models"
	"github.com/fundfox/FundFox/internal/pkg/cache"
	"github.com/fundfox/FundFox/internal/pkg/database"
)

const (
	CacheKeyCampaignsActive = "statistics:campaigns:active"
	CacheKeyDonationsTotal  = "statistics:donations:total"
	CacheKeyRaisedTotal     = "statistics:raised:total"
	CacheKeyUsers           = "statistics:users:total"
	CacheExpiration         = 30 * time.Minute
)

// StatisticsData holds the platform figures shown on the home page
type StatisticsData struct {
	ActiveCampaigns int
	TotalDonations  int
	TotalRaised     int64 // minor units
	TotalUsers      int
}

var (
	lastCacheUpdate     time.Time
	cacheUpdateMutex    sync.Mutex
	cacheUpdateInterval = 5 * time.Minute
)

// ShouldUpdateCache reports whether the cache is due for a refresh
func ShouldUpdateCache() bool {
	cacheUpdateMutex.Lock()
	defer cacheUpdateMutex.Unlock()

	return time.Since(lastCacheUpdate) > cacheUpdateInterval
}

// UpdateCacheIfNeeded refreshes the cache when the interval has passed
func UpdateCacheIfNeeded() {
	if ShouldUpdateCache() {
		cacheUpdateMutex.Lock()
		defer cacheUpdateMutex.Unlock()

		if err := UpdateStatisticsCache(); err != nil {
			log.Printf("Error updating statistics cache: %v", err)
		} else {
			lastCacheUpdate = time.Now()
		}
	}
}

// UpdateStatisticsCache updates all statistics in the cache
func UpdateStatisticsCache() error {
	db := database.GetDB()

	var activeCampaigns int64
	if err := db.Model(&models.Campaign{}).Where("status = ?", models.CampaignStatusActive).Count(&activeCampaigns).Error; err != nil {
		log.Printf("Error counting active campaigns: %v", err)
		return err
	}

	var totalDonations int64
	if err := db.Model(&models.Donation{}).Where("status = ?", models.DonationStatusCompleted).Count(&totalDonations).Error; err != nil {
		log.Printf("Error counting donations: %v", err)
		return err
	}

	var totalRaised int64
	if err := db.Model(&models.Donation{}).Where("status = ?", models.DonationStatusCompleted).
		Select("COALESCE(SUM(amount), 0)").Scan(&totalRaised).Error; err != nil {
		log.Printf("Error summing donation volume: %v", err)
		return err
	}

	var totalUsers int64
	if err := db.Model(&models.User{}).Count(&totalUsers).Error; err != nil {
		log.Printf("Error counting total users: %v", err)
		return err
	}

	if err := cache.Set(CacheKeyCampaignsActive, strconv.FormatInt(activeCampaigns, 10), CacheExpiration); err != nil {
		return err
	}
	if err := cache.Set(CacheKeyDonationsTotal, strconv.FormatInt(totalDonations, 10), CacheExpiration); err != nil {
		return err
	}
	if err := cache.Set(CacheKeyRaisedTotal, strconv.FormatInt(totalRaised, 10), CacheExpiration); err != nil {
		return err
	}
	if err := cache.Set(CacheKeyUsers, strconv.FormatInt(totalUsers, 10), CacheExpiration); err != nil {
		return err
	}

	log.Printf("Statistics updated in cache: Active Campaigns: %d, Donations: %d, Raised: %d, Users: %d",
		activeCampaigns, totalDonations, totalRaised, totalUsers)

	return nil
}

// GetStatistics returns the cached platform statistics, refreshing stale keys
// from the database on misses.
func GetStatistics() StatisticsData {
	UpdateCacheIfNeeded()

	return StatisticsData{
		ActiveCampaigns: getCachedInt(CacheKeyCampaignsActive),
		TotalDonations:  getCachedInt(CacheKeyDonationsTotal),
		TotalRaised:     getCachedInt64(CacheKeyRaisedTotal),
		TotalUsers:      getCachedInt(CacheKeyUsers),
	}
}

func getCachedInt(key string) int {
	val, err := cache.Get(key)
	if err != nil {
		return 0
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return 0
	}
	return n
}

func getCachedInt64(key string) int64 {
	val, err := cache.Get(key)
	if err != nil {
		return 0
	}
	n, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0
	}
	return n
}
