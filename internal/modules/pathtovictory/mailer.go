package pathtovictory

import (
	"context"

	"github.com/civicgrid/victory/internal/modules/campaigns"
	"github.com/rs/zerolog"
)

// Mailer delivers the completion email to the campaign owner.
type Mailer interface {
	SendCompletion(ctx context.Context, c campaigns.Campaign, rec Record) error
}

// LogMailer records completion emails in the log instead of sending them.
type LogMailer struct {
	log zerolog.Logger
}

// NewLogMailer creates a LogMailer.
func NewLogMailer(log zerolog.Logger) *LogMailer {
	return &LogMailer{log: log.With().Str("component", "p2v_mailer").Logger()}
}

// SendCompletion logs the email that would be sent.
func (m *LogMailer) SendCompletion(ctx context.Context, c campaigns.Campaign, rec Record) error {
	ev := m.log.Info().
		Str("campaign_id", c.ID).
		Str("candidate", c.CandidateName()).
		Str("office", c.OfficeName).
		Int("projected_turnout", rec.Counts.ProjectedTurnout)
	if rec.Counts.WinNumber != nil {
		ev = ev.Int("win_number", *rec.Counts.WinNumber)
	}
	ev.Msg("Path to victory completion email")
	return nil
}
