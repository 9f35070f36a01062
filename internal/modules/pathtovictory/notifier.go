package pathtovictory

import (
	"context"
	"fmt"
	"strconv"

	"github.com/civicgrid/victory/internal/clients/slack"
	"github.com/civicgrid/victory/internal/domain"
	"github.com/civicgrid/victory/internal/modules/campaigns"
	"github.com/rs/zerolog"
)

// Pass is what the notifier reports for one orchestration pass.
type Pass struct {
	Query      domain.RaceQuery
	Campaign   *campaigns.Campaign
	PassStatus domain.P2VStatus
	Record     Record
	Err        error
}

// Notifier reports orchestration passes to operators.
type Notifier interface {
	NotifyPass(ctx context.Context, p Pass) error
}

// SlackSender posts a message to a routed channel.
type SlackSender interface {
	Send(ctx context.Context, channel slack.Channel, msg slack.Message) error
}

// SlackNotifier routes complete passes to the success channel and all
// others to the issues channel.
type SlackNotifier struct {
	sender SlackSender
	log    zerolog.Logger
}

// NewSlackNotifier creates a SlackNotifier.
func NewSlackNotifier(sender SlackSender, log zerolog.Logger) *SlackNotifier {
	return &SlackNotifier{
		sender: sender,
		log:    log.With().Str("component", "p2v_notifier").Logger(),
	}
}

// NotifyPass sends exactly one message for the pass.
func (n *SlackNotifier) NotifyPass(ctx context.Context, p Pass) error {
	channel, msg := BuildMessage(p)
	if err := n.sender.Send(ctx, channel, msg); err != nil {
		return fmt.Errorf("failed to send p2v notification: %w", err)
	}
	return nil
}

// BuildMessage renders the notification for a pass.
func BuildMessage(p Pass) (slack.Channel, slack.Message) {
	candidate := p.Query.CampaignID
	if p.Campaign != nil && p.Campaign.CandidateName() != "" {
		candidate = p.Campaign.CandidateName()
	}

	channel := slack.ChannelIssues
	title := fmt.Sprintf("Path to Victory %s: %s", p.PassStatus, candidate)
	if p.PassStatus == domain.StatusComplete && p.Err == nil {
		channel = slack.ChannelSuccess
		title = "Path to Victory Complete: " + candidate
	}

	c := p.Record.Counts
	fields := []slack.Field{
		{Title: "Campaign", Value: p.Query.CampaignID, Short: true},
		{Title: "Office", Value: p.Query.OfficeName, Short: true},
		{Title: "State", Value: p.Query.State(), Short: true},
		{Title: "Level", Value: string(p.Query.ElectionLevel), Short: true},
		{Title: "District Type", Value: orNone(p.Record.ElectionType), Short: true},
		{Title: "District", Value: orNone(p.Record.ElectionLocation), Short: true},
		{Title: "Total Voters", Value: strconv.Itoa(c.Total), Short: true},
		{Title: "Projected Turnout", Value: strconv.Itoa(c.ProjectedTurnout), Short: true},
		{Title: "Win Number", Value: intOrNone(c.WinNumber), Short: true},
		{Title: "Voter Contact Goal", Value: intOrNone(c.VoterContactGoal), Short: true},
		{Title: "Record Status", Value: string(p.Record.Status), Short: true},
		{Title: "Attempts", Value: strconv.Itoa(p.Record.Attempts), Short: true},
	}

	text := fmt.Sprintf("%s, %s (%s)", p.Query.OfficeName, p.Query.State(), p.Query.ElectionDate)
	if p.Err != nil {
		fields = append(fields, slack.Field{Title: "Error", Value: p.Err.Error()})
	}

	return channel, slack.Message{Title: title, Text: text, Fields: fields}
}

func orNone(s string) string {
	if s == "" {
		return "none"
	}
	return s
}

func intOrNone(v *int) string {
	if v == nil {
		return "none"
	}
	return strconv.Itoa(*v)
}
