package pathtovictory

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/civicgrid/victory/internal/domain"
	"github.com/rs/zerolog"
)

const recordColumns = `campaign_id, election_type, election_location,
	total, democrat, republican, independent, men, women,
	white, asian, hispanic, african_american,
	average_turnout, average_turnout_percent, projected_turnout, projected_turnout_percent,
	win_number, voter_contact_goal, status, attempts, office_fingerprint, source,
	completed_at, version, created_at, updated_at`

// Repository persists path-to-victory records in p2v.db.
// Writes use an optimistic version column; a lost race returns
// domain.ErrMergeConflict.
type Repository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewRepository creates a new path-to-victory repository.
func NewRepository(db *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("repository", "path_to_victory").Logger(),
	}
}

// Get returns the record for a campaign, or nil if none exists yet.
func (r *Repository) Get(campaignID string) (*Record, error) {
	row := r.db.QueryRow("SELECT "+recordColumns+" FROM path_to_victory WHERE campaign_id = ?", campaignID)
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get p2v record %s: %w", campaignID, err)
	}
	return rec, nil
}

// Save writes rec. When baseline is nil the row must not exist yet;
// otherwise the stored version must still equal baseline.Version.
func (r *Repository) Save(rec Record, baseline *Record) error {
	if baseline == nil {
		return r.insert(rec)
	}
	return r.update(rec, baseline.Version)
}

func (r *Repository) insert(rec Record) error {
	res, err := r.db.Exec(`
		INSERT INTO path_to_victory (`+recordColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(campaign_id) DO NOTHING
	`, append([]interface{}{rec.CampaignID}, append(recordValues(rec), 0, rec.CreatedAt, rec.UpdatedAt)...)...)
	if err != nil {
		return fmt.Errorf("failed to insert p2v record %s: %w", rec.CampaignID, err)
	}
	return checkAffected(res, rec.CampaignID)
}

func (r *Repository) update(rec Record, expectedVersion int) error {
	args := append(recordValues(rec), rec.UpdatedAt, rec.CampaignID, expectedVersion)
	res, err := r.db.Exec(`
		UPDATE path_to_victory SET
			election_type = ?, election_location = ?,
			total = ?, democrat = ?, republican = ?, independent = ?, men = ?, women = ?,
			white = ?, asian = ?, hispanic = ?, african_american = ?,
			average_turnout = ?, average_turnout_percent = ?, projected_turnout = ?, projected_turnout_percent = ?,
			win_number = ?, voter_contact_goal = ?, status = ?, attempts = ?, office_fingerprint = ?, source = ?,
			completed_at = ?,
			version = version + 1,
			updated_at = ?
		WHERE campaign_id = ? AND version = ?
	`, args...)
	if err != nil {
		return fmt.Errorf("failed to update p2v record %s: %w", rec.CampaignID, err)
	}
	return checkAffected(res, rec.CampaignID)
}

// ListStaleWaiting returns campaign IDs whose record has been Waiting since
// before olderThan with fewer than maxAttempts attempts.
func (r *Repository) ListStaleWaiting(olderThan time.Time, maxAttempts int) ([]string, error) {
	rows, err := r.db.Query(`
		SELECT campaign_id FROM path_to_victory
		WHERE status = ? AND updated_at < ? AND attempts < ?
		ORDER BY updated_at ASC
	`, string(domain.StatusWaiting), olderThan.Unix(), maxAttempts)
	if err != nil {
		return nil, fmt.Errorf("failed to list stale p2v records: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan campaign id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// CountByStatus returns the number of records per status.
func (r *Repository) CountByStatus() (map[domain.P2VStatus]int, error) {
	rows, err := r.db.Query("SELECT status, COUNT(*) FROM path_to_victory GROUP BY status")
	if err != nil {
		return nil, fmt.Errorf("failed to count p2v records: %w", err)
	}
	defer rows.Close()

	out := make(map[domain.P2VStatus]int)
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("failed to scan status count: %w", err)
		}
		out[domain.P2VStatus(status)] = n
	}
	return out, rows.Err()
}

// recordValues lists the mutable columns from election_type to completed_at.
func recordValues(rec Record) []interface{} {
	c := rec.Counts
	return []interface{}{
		rec.ElectionType, rec.ElectionLocation,
		c.Total, c.Democrat, c.Republican, c.Independent, c.Men, c.Women,
		c.White, c.Asian, c.Hispanic, c.AfricanAmerican,
		c.AverageTurnout, c.AverageTurnoutPercent, c.ProjectedTurnout, c.ProjectedTurnoutPercent,
		nullInt(c.WinNumber), nullInt(c.VoterContactGoal),
		string(rec.Status), rec.Attempts, rec.OfficeFingerprint, rec.Source,
		nullInt64(rec.CompletedAt),
	}
}

func checkAffected(res sql.Result, campaignID string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("p2v record %s: %w", campaignID, domain.ErrMergeConflict)
	}
	return nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanRecord(s scanner) (*Record, error) {
	var (
		rec         Record
		status      string
		winNumber   sql.NullInt64
		contactGoal sql.NullInt64
		completedAt sql.NullInt64
	)
	c := &rec.Counts
	err := s.Scan(
		&rec.CampaignID, &rec.ElectionType, &rec.ElectionLocation,
		&c.Total, &c.Democrat, &c.Republican, &c.Independent, &c.Men, &c.Women,
		&c.White, &c.Asian, &c.Hispanic, &c.AfricanAmerican,
		&c.AverageTurnout, &c.AverageTurnoutPercent, &c.ProjectedTurnout, &c.ProjectedTurnoutPercent,
		&winNumber, &contactGoal, &status, &rec.Attempts, &rec.OfficeFingerprint, &rec.Source,
		&completedAt, &rec.Version, &rec.CreatedAt, &rec.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	st, err := domain.ParseP2VStatus(status)
	if err != nil {
		return nil, err
	}
	rec.Status = st

	if winNumber.Valid {
		c.WinNumber = domain.IntPtr(int(winNumber.Int64))
	}
	if contactGoal.Valid {
		c.VoterContactGoal = domain.IntPtr(int(contactGoal.Int64))
	}
	if completedAt.Valid {
		ts := completedAt.Int64
		rec.CompletedAt = &ts
	}
	return &rec, nil
}

func nullInt(v *int) interface{} {
	if v == nil {
		return nil
	}
	return *v
}

func nullInt64(v *int64) interface{} {
	if v == nil {
		return nil
	}
	return *v
}
