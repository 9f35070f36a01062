// Package di wires the application's databases, repositories, clients,
// services and jobs into a single Container.
package di

import (
	"github.com/nats-io/nats.go"

	"github.com/civicgrid/victory/internal/clientdata"
	"github.com/civicgrid/victory/internal/clients/elections"
	"github.com/civicgrid/victory/internal/clients/llm"
	"github.com/civicgrid/victory/internal/clients/slack"
	"github.com/civicgrid/victory/internal/clients/voterdata"
	"github.com/civicgrid/victory/internal/database"
	"github.com/civicgrid/victory/internal/events"
	"github.com/civicgrid/victory/internal/metrics"
	"github.com/civicgrid/victory/internal/modules/campaigns"
	"github.com/civicgrid/victory/internal/modules/district"
	"github.com/civicgrid/victory/internal/modules/labelmatch"
	"github.com/civicgrid/victory/internal/modules/pathtovictory"
	"github.com/civicgrid/victory/internal/modules/turnout"
	"github.com/civicgrid/victory/internal/modules/viability"
	"github.com/civicgrid/victory/internal/queue"
)

// Container holds all application dependencies. It is created by Wire and
// is the single source of truth for service instances.
type Container struct {
	// Databases
	P2VDB        *database.DB // campaigns and path_to_victory
	ClientDataDB *database.DB // voter-file response cache

	// Repositories
	CampaignRepo   *campaigns.Repository
	P2VRepo        *pathtovictory.Repository
	ClientDataRepo *clientdata.Repository

	// Clients
	VoterData *voterdata.Client
	LLM       *llm.Client
	Elections *elections.Client
	Slack     *slack.Client

	// Services
	EventBus        *events.Bus
	EventManager    *events.Manager
	Metrics         *metrics.Metrics
	LabelMatcher    *labelmatch.Matcher
	DistrictMatcher *district.Matcher
	TurnoutCounter  *turnout.Counter
	P2VStore        *pathtovictory.Store
	Orchestrator    *pathtovictory.Orchestrator
	ViabilityScorer *viability.Scorer

	// Queue. Consumer and NATSConn are nil when running in-process.
	WorkerPool *queue.WorkerPool
	Enqueuer   queue.Enqueuer
	Consumer   *queue.Consumer
	NATSConn   *nats.Conn

	unsubscribeListeners func()
}
