package campaigns

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/civicgrid/victory/internal/database"
	"github.com/rs/zerolog"
)

const campaignColumns = `id, candidate_first_name, candidate_last_name, office_name, election_level,
	election_state, election_county, election_municipality, sub_area_name, sub_area_value,
	election_date, election_term, partisan_type, prior_election_dates, race_id, position_id,
	is_admin_created, created_at, updated_at`

// Repository handles campaign read-model operations in p2v.db.
type Repository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewRepository creates a new campaign repository.
func NewRepository(db *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("repository", "campaigns").Logger(),
	}
}

// Get returns a campaign by ID, or nil if it does not exist.
func (r *Repository) Get(id string) (*Campaign, error) {
	row := r.db.QueryRow("SELECT "+campaignColumns+" FROM campaigns WHERE id = ?", id)
	c, err := scanCampaign(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get campaign %s: %w", id, err)
	}
	return c, nil
}

// Upsert inserts or replaces a campaign. CreatedAt is preserved on update.
func (r *Repository) Upsert(c Campaign) error {
	now := time.Now().Unix()

	_, err := r.db.Exec(`
		INSERT INTO campaigns (`+campaignColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			candidate_first_name = excluded.candidate_first_name,
			candidate_last_name = excluded.candidate_last_name,
			office_name = excluded.office_name,
			election_level = excluded.election_level,
			election_state = excluded.election_state,
			election_county = excluded.election_county,
			election_municipality = excluded.election_municipality,
			sub_area_name = excluded.sub_area_name,
			sub_area_value = excluded.sub_area_value,
			election_date = excluded.election_date,
			election_term = excluded.election_term,
			partisan_type = excluded.partisan_type,
			prior_election_dates = excluded.prior_election_dates,
			race_id = excluded.race_id,
			position_id = excluded.position_id,
			is_admin_created = excluded.is_admin_created,
			updated_at = excluded.updated_at
	`,
		c.ID, c.CandidateFirstName, c.CandidateLastName, c.OfficeName, c.ElectionLevel,
		strings.ToUpper(c.ElectionState), c.ElectionCounty, c.ElectionMunicipality, c.SubAreaName, c.SubAreaValue,
		c.ElectionDate, c.ElectionTerm, c.PartisanType, strings.Join(c.PriorElectionDates, ","), c.RaceID, c.PositionID,
		boolToInt(c.IsAdminCreated), now, now,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert campaign %s: %w", c.ID, err)
	}
	return nil
}

// Delete removes a campaign together with its path-to-victory record.
func (r *Repository) Delete(id string) error {
	return database.WithTransaction(r.db, func(tx *sql.Tx) error {
		if _, err := tx.Exec("DELETE FROM path_to_victory WHERE campaign_id = ?", id); err != nil {
			return fmt.Errorf("failed to delete p2v record: %w", err)
		}
		if _, err := tx.Exec("DELETE FROM campaigns WHERE id = ?", id); err != nil {
			return fmt.Errorf("failed to delete campaign: %w", err)
		}
		return nil
	})
}

// ListByIDs returns the campaigns that exist among ids.
func (r *Repository) ListByIDs(ids []string) ([]Campaign, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	args := make([]interface{}, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	rows, err := r.db.Query("SELECT "+campaignColumns+" FROM campaigns WHERE id IN ("+placeholders+")", args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list campaigns: %w", err)
	}
	defer rows.Close()

	var out []Campaign
	for rows.Next() {
		c, err := scanCampaign(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan campaign: %w", err)
		}
		out = append(out, *c)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanCampaign(s scanner) (*Campaign, error) {
	var (
		c          Campaign
		priorDates string
		adminFlag  int
	)
	err := s.Scan(
		&c.ID, &c.CandidateFirstName, &c.CandidateLastName, &c.OfficeName, &c.ElectionLevel,
		&c.ElectionState, &c.ElectionCounty, &c.ElectionMunicipality, &c.SubAreaName, &c.SubAreaValue,
		&c.ElectionDate, &c.ElectionTerm, &c.PartisanType, &priorDates, &c.RaceID, &c.PositionID,
		&adminFlag, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if priorDates != "" {
		c.PriorElectionDates = strings.Split(priorDates, ",")
	}
	c.IsAdminCreated = adminFlag == 1
	return &c, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
