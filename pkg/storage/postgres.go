package storage

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"smm_go/models"

	_ "github.com/lib/pq"
)

// PostgresStore хранит снимки в таблице account_snapshots.
// CAS реализован через условный UPDATE по колонке revision:
// запись, не совпавшая по ревизии, не затрагивает ни одной строки.
//
// Схема:
//
//	CREATE TABLE account_snapshots (
//	    account_id TEXT PRIMARY KEY,
//	    revision   TEXT NOT NULL,
//	    doc        JSONB NOT NULL,
//	    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
//	);
type PostgresStore struct {
	Conn *sql.DB
}

// NewPostgresStore оборачивает готовое подключение к БД.
func NewPostgresStore(conn *sql.DB) *PostgresStore {
	return &PostgresStore{Conn: conn}
}

// Load читает снимок аккаунта из таблицы.
func (p *PostgresStore) Load(accountID string) (*models.Snapshot, string, error) {
	query := `
		SELECT doc, revision
		FROM account_snapshots
		WHERE account_id = $1
	`
	var raw []byte
	var revision string
	err := p.Conn.QueryRow(query, accountID).Scan(&raw, &revision)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, "", ErrNotFound
	}
	if err != nil {
		return nil, "", fmt.Errorf("чтение снимка %s: %w", accountID, err)
	}
	var snap models.Snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return nil, "", fmt.Errorf("%w: %s: %v", ErrCorrupt, accountID, err)
	}
	return &snap, revision, nil
}

// Save записывает снимок при совпадении базовой ревизии.
// Новая ревизия — sha256 сериализованного документа, как и в FileStore.
func (p *PostgresStore) Save(accountID string, snap *models.Snapshot, baseRevision string) (string, error) {
	raw, err := json.Marshal(snap)
	if err != nil {
		return "", fmt.Errorf("сериализация снимка %s: %w", accountID, err)
	}
	newRevision := revisionOf(raw)

	if baseRevision == "" {
		query := `
			INSERT INTO account_snapshots (account_id, revision, doc)
			VALUES ($1, $2, $3)
			ON CONFLICT (account_id) DO NOTHING
		`
		res, err := p.Conn.Exec(query, accountID, newRevision, raw)
		if err != nil {
			return "", fmt.Errorf("вставка снимка %s: %w", accountID, err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return "", fmt.Errorf("вставка снимка %s: %w", accountID, err)
		}
		if affected == 0 {
			return "", fmt.Errorf("%w: аккаунт %s", ErrConflict, accountID)
		}
		return newRevision, nil
	}

	query := `
		UPDATE account_snapshots
		SET revision = $1, doc = $2, updated_at = NOW()
		WHERE account_id = $3 AND revision = $4
	`
	res, err := p.Conn.Exec(query, newRevision, raw, accountID, baseRevision)
	if err != nil {
		return "", fmt.Errorf("обновление снимка %s: %w", accountID, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return "", fmt.Errorf("обновление снимка %s: %w", accountID, err)
	}
	if affected == 0 {
		return "", fmt.Errorf("%w: аккаунт %s", ErrConflict, accountID)
	}
	return newRevision, nil
}
