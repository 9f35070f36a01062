package queue

import (
	"context"
	"time"

	"github.com/civicgrid/victory/internal/domain"
	"github.com/civicgrid/victory/internal/events"
	"github.com/civicgrid/victory/internal/modules/campaigns"
	"github.com/rs/zerolog"
)

// CampaignLookup loads a campaign by ID.
type CampaignLookup interface {
	Get(id string) (*campaigns.Campaign, error)
}

// RegisterListeners registers event listeners that enqueue jobs. It returns a
// function removing them.
func RegisterListeners(bus *events.Bus, enqueuer Enqueuer, lookup CampaignLookup, log zerolog.Logger) func() {
	log = log.With().Str("component", "event_listeners").Logger()

	// P2VDistrictSet -> counts-only pass with the operator's district
	return bus.Subscribe(events.P2VDistrictSet, func(event *events.Event) {
		campaignID, _ := event.Data["campaign_id"].(string)
		electionType, _ := event.Data["election_type"].(string)
		electionLocation, _ := event.Data["election_location"].(string)

		// Bus handlers must not block the emitter.
		go func() {
			c, err := lookup.Get(campaignID)
			if err != nil || c == nil {
				log.Error().Err(err).Str("campaign_id", campaignID).Msg("Failed to load campaign for district re-run")
				return
			}

			preset := &domain.DistrictMatch{ElectionType: electionType, ElectionLocation: electionLocation}
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			jobID, err := enqueuer.Enqueue(ctx, c.RaceQuery(), preset)
			if err != nil {
				log.Error().
					Err(err).
					Str("event_type", string(events.P2VDistrictSet)).
					Str("campaign_id", campaignID).
					Msg("Failed to enqueue job from event")
				return
			}
			log.Info().Str("job_id", jobID).Str("campaign_id", campaignID).Msg("Enqueued pass after manual district")
		}()
	})
}
