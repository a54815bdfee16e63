// Package realtime pushes campaign progress to connected browsers via Redis
// pub/sub. Donation confirmations publish here; the campaign page subscribes
// through an SSE endpoint.
package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/redis/go-redis/v9"

	"github.com/fundfox/FundFox/internal/pkg/cache"
)

const progressChannelPrefix = "campaign:progress:"

// ProgressEvent is the payload pushed to campaign page subscribers after a
// donation is confirmed.
type ProgressEvent struct {
	CampaignID    uint  `json:"campaign_id"`
	CurrentAmount int64 `json:"current_amount"` // minor units
	GoalAmount    int64 `json:"goal_amount"`    // minor units
	DonorCount    int64 `json:"donor_count"`
	Completed     bool  `json:"completed"`
}

func progressChannel(campaignID uint) string {
	return fmt.Sprintf("%s%d", progressChannelPrefix, campaignID)
}

// PublishProgress broadcasts a campaign's new ledger state. Failures are
// logged, never surfaced: realtime updates are best-effort.
func PublishProgress(event ProgressEvent) {
	payload, err := json.Marshal(event)
	if err != nil {
		log.Printf("realtime: failed to marshal progress event: %v", err)
		return
	}

	ctx := context.Background()
	if err := cache.GetClient().Publish(ctx, progressChannel(event.CampaignID), payload).Err(); err != nil {
		log.Printf("realtime: failed to publish progress for campaign %d: %v", event.CampaignID, err)
	}
}

// SubscribeProgress subscribes to a campaign's progress channel. The caller
// must Close the returned PubSub when done.
func SubscribeProgress(ctx context.Context, campaignID uint) *redis.PubSub {
	return cache.GetClient().Subscribe(ctx, progressChannel(campaignID))
}
