package di

import (
	"fmt"
	"path/filepath"

	"github.com/civicgrid/victory/internal/clientdata"
	"github.com/civicgrid/victory/internal/config"
	"github.com/civicgrid/victory/internal/database"
	"github.com/civicgrid/victory/internal/modules/campaigns"
	"github.com/civicgrid/victory/internal/modules/pathtovictory"
	"github.com/rs/zerolog"
)

// InitializeDatabases opens both databases and applies their schemas.
func InitializeDatabases(cfg *config.Config, log zerolog.Logger) (*Container, error) {
	container := &Container{}

	// p2v.db - campaigns read model and path-to-victory records
	p2vDB, err := database.New(database.Config{
		Path:    filepath.Join(cfg.DataDir, "p2v.db"),
		Profile: database.ProfileStandard,
		Name:    "p2v",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize p2v database: %w", err)
	}
	container.P2VDB = p2vDB

	// client_data.db - voter-file API cache, safe to delete
	clientDataDB, err := database.New(database.Config{
		Path:    filepath.Join(cfg.DataDir, "client_data.db"),
		Profile: database.ProfileCache,
		Name:    "client_data",
	})
	if err != nil {
		p2vDB.Close()
		return nil, fmt.Errorf("failed to initialize client_data database: %w", err)
	}
	container.ClientDataDB = clientDataDB

	for _, db := range []*database.DB{p2vDB, clientDataDB} {
		if err := db.Migrate(); err != nil {
			p2vDB.Close()
			clientDataDB.Close()
			return nil, fmt.Errorf("failed to migrate %s database: %w", db.Name(), err)
		}
	}

	log.Info().Str("data_dir", cfg.DataDir).Msg("Databases initialized")
	return container, nil
}

// InitializeRepositories creates the repositories over the open databases.
func InitializeRepositories(container *Container, log zerolog.Logger) error {
	if container.P2VDB == nil || container.ClientDataDB == nil {
		return fmt.Errorf("databases not initialized")
	}

	container.CampaignRepo = campaigns.NewRepository(container.P2VDB.Conn(), log)
	container.P2VRepo = pathtovictory.NewRepository(container.P2VDB.Conn(), log)
	container.ClientDataRepo = clientdata.NewRepository(container.ClientDataDB.Conn(), log)

	log.Info().Msg("Repositories initialized")
	return nil
}
