package accounts

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite"
)

// One row per user holding the JSON list of accounts
const schema = `CREATE TABLE IF NOT EXISTS accounts (
	user_id TEXT PRIMARY KEY,
	data TEXT NOT NULL
)`

const upsert = `INSERT INTO accounts (user_id, data) VALUES (?, ?)
	ON CONFLICT(user_id) DO UPDATE SET data = excluded.data`

type Database struct {
	db *sql.DB
}

func OpenDatabase(path string) (*Database, error) {

	// Ensure directory exists
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("could not create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("could not open database %s: %w", path, err)
	}
	// A single connection keeps :memory: databases alive and serializes writers
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("could not create schema: %w", err)
	}
	log.Info().Msg(fmt.Sprintf("Opened account database %s", path))

	return &Database{db: db}, nil
}

func (database *Database) Close() error {
	return database.db.Close()
}

func (database *Database) Load(ctx context.Context) (map[string]Accounts, error) {

	rows, err := database.db.QueryContext(ctx, `SELECT user_id, data FROM accounts`)
	if err != nil {
		return nil, fmt.Errorf("could not read accounts: %w", err)
	}
	defer rows.Close()

	data := make(map[string]Accounts)
	for rows.Next() {
		var userID, raw string
		if err := rows.Scan(&userID, &raw); err != nil {
			return nil, err
		}
		accs, err := decode(raw)
		if err != nil {
			log.Error().Err(err).Msg(fmt.Sprintf("Skipping unreadable accounts of user %s", userID))
			continue
		}
		data[userID] = accs
	}
	return data, rows.Err()
}

func (database *Database) Save(ctx context.Context, data map[string]Accounts) error {

	tx, err := database.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, upsert)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for userID, accs := range data {
		raw, err := encode(accs)
		if err != nil {
			return err
		}
		if _, err := stmt.ExecContext(ctx, userID, raw); err != nil {
			return fmt.Errorf("could not save accounts of user %s: %w", userID, err)
		}
	}
	return tx.Commit()
}

func (database *Database) Get(ctx context.Context, userID string) (Accounts, error) {

	var raw string
	err := database.db.QueryRowContext(ctx, `SELECT data FROM accounts WHERE user_id = ?`, userID).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return Accounts{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("could not read accounts of user %s: %w", userID, err)
	}
	return decode(raw)
}

func (database *Database) Put(ctx context.Context, userID string, accs Accounts) error {

	raw, err := encode(accs)
	if err != nil {
		return err
	}
	if _, err := database.db.ExecContext(ctx, upsert, userID, raw); err != nil {
		return fmt.Errorf("could not save accounts of user %s: %w", userID, err)
	}
	return nil
}

func encode(accs Accounts) (string, error) {
	if accs == nil {
		accs = Accounts{}
	}
	raw, err := json.Marshal(accs)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

func decode(raw string) (Accounts, error) {
	var accs Accounts
	if err := json.Unmarshal([]byte(raw), &accs); err != nil {
		return nil, err
	}
	if accs == nil {
		accs = Accounts{}
	}
	return accs, nil
}
