// Package clientdata provides persistent caching for voter-file API responses.
// Entries are msgpack blobs with expiration timestamps for cache-first reads.
package clientdata

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/vmihailenco/msgpack/v5"
)

const (
	// TableColumns caches the column metadata of one state's voter file.
	TableColumns = "voterdata_columns"
	// TableColumnValues caches the distinct values of one (state, column).
	TableColumnValues = "voterdata_column_values"
)

// AllTables lists all tables in client_data.db for cleanup operations.
var AllTables = []string{
	TableColumns,
	TableColumnValues,
}

var keyColumns = map[string]string{
	TableColumns:      "state",
	TableColumnValues: "column_key",
}

// Repository provides cache operations for client data.
type Repository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewRepository creates a new client data repository.
func NewRepository(db *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("repository", "client_data").Logger(),
	}
}

// keyColumn validates the table name and returns its primary key column.
// Table names are interpolated into SQL, so only known tables pass.
func keyColumn(table string) (string, error) {
	col, ok := keyColumns[table]
	if !ok {
		return "", fmt.Errorf("invalid table name: %s", table)
	}
	return col, nil
}

// Store saves data with expiration = now + ttl.
func (r *Repository) Store(table, key string, data interface{}, ttl time.Duration) error {
	keyCol, err := keyColumn(table)
	if err != nil {
		return err
	}

	blob, err := msgpack.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal data: %w", err)
	}

	query := fmt.Sprintf(
		"INSERT INTO %s (%s, data, expires_at) VALUES (?, ?, ?) "+
			"ON CONFLICT(%s) DO UPDATE SET data = excluded.data, expires_at = excluded.expires_at",
		table, keyCol, keyCol,
	)

	if _, err := r.db.Exec(query, key, blob, time.Now().Add(ttl).Unix()); err != nil {
		return fmt.Errorf("failed to store data in %s: %w", table, err)
	}

	return nil
}

// GetIfFresh decodes the entry into out only if it has not expired.
// Returns false when the key is missing or stale.
func (r *Repository) GetIfFresh(table, key string, out interface{}) (bool, error) {
	keyCol, err := keyColumn(table)
	if err != nil {
		return false, err
	}

	query := fmt.Sprintf("SELECT data FROM %s WHERE %s = ? AND expires_at > ?", table, keyCol)
	return r.load(table, query, out, key, time.Now().Unix())
}

// Get decodes the entry into out regardless of expiration.
// Used as a fallback when the upstream API fails.
func (r *Repository) Get(table, key string, out interface{}) (bool, error) {
	keyCol, err := keyColumn(table)
	if err != nil {
		return false, err
	}

	query := fmt.Sprintf("SELECT data FROM %s WHERE %s = ?", table, keyCol)
	return r.load(table, query, out, key)
}

func (r *Repository) load(table, query string, out interface{}, args ...interface{}) (bool, error) {
	var blob []byte
	err := r.db.QueryRow(query, args...).Scan(&blob)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to get data from %s: %w", table, err)
	}

	if err := msgpack.Unmarshal(blob, out); err != nil {
		// A corrupt blob is treated as a miss so callers refetch
		r.log.Warn().Err(err).Str("table", table).Msg("Discarding undecodable cache entry")
		return false, nil
	}
	return true, nil
}

// Delete removes a specific entry.
func (r *Repository) Delete(table, key string) error {
	keyCol, err := keyColumn(table)
	if err != nil {
		return err
	}

	if _, err := r.db.Exec(fmt.Sprintf("DELETE FROM %s WHERE %s = ?", table, keyCol), key); err != nil {
		return fmt.Errorf("failed to delete from %s: %w", table, err)
	}
	return nil
}

// DeleteExpired removes all rows where expires_at < now.
func (r *Repository) DeleteExpired(table string) (int64, error) {
	if _, err := keyColumn(table); err != nil {
		return 0, err
	}

	result, err := r.db.Exec(fmt.Sprintf("DELETE FROM %s WHERE expires_at < ?", table), time.Now().Unix())
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired from %s: %w", table, err)
	}

	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected for %s: %w", table, err)
	}
	return deleted, nil
}

// DeleteAllExpired removes expired entries from every table.
// Returns a map of table name to number of rows deleted.
func (r *Repository) DeleteAllExpired() (map[string]int64, error) {
	results := make(map[string]int64)

	for _, table := range AllTables {
		deleted, err := r.DeleteExpired(table)
		if err != nil {
			return results, err
		}
		results[table] = deleted
	}

	return results, nil
}
