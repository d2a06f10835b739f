package store

import (
	"context"
	"database/sql"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"marketsynth/internal/errors"
	"marketsynth/internal/models"
)

// SQLiteStore implements RunStore using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a new SQLite-based run store.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, errors.NewStorageError("open", dbPath, err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)

	store := &SQLiteStore{db: db}
	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, errors.NewStorageError("init_schema", dbPath, err)
	}
	return store, nil
}

func (s *SQLiteStore) initSchema() error {
	schema := `
	-- Bars table for simulated OHLC series
	CREATE TABLE IF NOT EXISTS bars (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL,
		seq INTEGER NOT NULL,
		timestamp DATETIME NOT NULL,
		open REAL NOT NULL,
		high REAL NOT NULL,
		low REAL NOT NULL,
		close REAL NOT NULL,
		regime TEXT NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		UNIQUE(run_id, seq)
	);
	CREATE INDEX IF NOT EXISTS idx_bars_run ON bars(run_id);

	-- Option quotes table for generated chains
	CREATE TABLE IF NOT EXISTS option_quotes (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL,
		chain_timestamp DATETIME NOT NULL,
		spot_price REAL NOT NULL,
		strike REAL NOT NULL,
		expiry DATETIME NOT NULL,
		option_type TEXT NOT NULL,
		price REAL NOT NULL,
		bid REAL NOT NULL,
		ask REAL NOT NULL,
		implied_vol REAL NOT NULL,
		delta REAL NOT NULL,
		gamma REAL NOT NULL,
		vega REAL NOT NULL,
		theta REAL NOT NULL,
		rho REAL NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		UNIQUE(run_id, strike, expiry, option_type)
	);
	CREATE INDEX IF NOT EXISTS idx_quotes_run ON option_quotes(run_id);
	`
	_, err := s.db.Exec(schema)
	return err
}

// SaveBars persists an ordered bar sequence for a run.
func (s *SQLiteStore) SaveBars(ctx context.Context, runID string, bars []models.Bar) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.NewStorageError("save_bars", runID, err)
	}
	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR REPLACE INTO bars (run_id, seq, timestamp, open, high, low, close, regime)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		tx.Rollback()
		return errors.NewStorageError("save_bars", runID, err)
	}
	defer stmt.Close()

	for i, b := range bars {
		if _, err := stmt.ExecContext(ctx, runID, i, b.Timestamp.UTC().Format(time.RFC3339Nano),
			b.Open, b.High, b.Low, b.Close, b.Regime); err != nil {
			tx.Rollback()
			return errors.NewStorageError("save_bars", runID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return errors.NewStorageError("save_bars", runID, err)
	}
	return nil
}

// GetBars loads the ordered bar sequence for a run.
func (s *SQLiteStore) GetBars(ctx context.Context, runID string) ([]models.Bar, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT timestamp, open, high, low, close, regime
		FROM bars WHERE run_id = ? ORDER BY seq`, runID)
	if err != nil {
		return nil, errors.NewStorageError("get_bars", runID, err)
	}
	defer rows.Close()

	var bars []models.Bar
	for rows.Next() {
		var b models.Bar
		var ts string
		if err := rows.Scan(&ts, &b.Open, &b.High, &b.Low, &b.Close, &b.Regime); err != nil {
			return nil, errors.NewStorageError("get_bars", runID, err)
		}
		b.Timestamp, err = time.Parse(time.RFC3339Nano, ts)
		if err != nil {
			return nil, errors.NewStorageError("get_bars", runID, err)
		}
		bars = append(bars, b)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewStorageError("get_bars", runID, err)
	}
	return bars, nil
}

// SaveChain persists all quotes of an option chain for a run.
func (s *SQLiteStore) SaveChain(ctx context.Context, runID string, chain *models.OptionChain) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.NewStorageError("save_chain", runID, err)
	}
	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR REPLACE INTO option_quotes (run_id, chain_timestamp, spot_price, strike, expiry,
			option_type, price, bid, ask, implied_vol, delta, gamma, vega, theta, rho)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		tx.Rollback()
		return errors.NewStorageError("save_chain", runID, err)
	}
	defer stmt.Close()

	ts := chain.Timestamp.UTC().Format(time.RFC3339Nano)
	for _, e := range chain.Entries {
		for _, q := range []models.OptionQuote{e.Call, e.Put} {
			if _, err := stmt.ExecContext(ctx, runID, ts, chain.SpotPrice, q.Contract.Strike,
				q.Contract.Expiry.UTC().Format(time.RFC3339Nano), string(q.Contract.Type),
				q.Price, q.Bid, q.Ask, q.ImpliedVol,
				q.Greeks.Delta, q.Greeks.Gamma, q.Greeks.Vega, q.Greeks.Theta, q.Greeks.Rho); err != nil {
				tx.Rollback()
				return errors.NewStorageError("save_chain", runID, err)
			}
		}
	}
	if err := tx.Commit(); err != nil {
		return errors.NewStorageError("save_chain", runID, err)
	}
	return nil
}

// GetChain loads the option chain for a run, reassembling call/put pairs
// ordered by expiry then strike.
func (s *SQLiteStore) GetChain(ctx context.Context, runID string) (*models.OptionChain, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT chain_timestamp, spot_price, strike, expiry, option_type,
			price, bid, ask, implied_vol, delta, gamma, vega, theta, rho
		FROM option_quotes WHERE run_id = ? ORDER BY expiry, strike, option_type`, runID)
	if err != nil {
		return nil, errors.NewStorageError("get_chain", runID, err)
	}
	defer rows.Close()

	chain := &models.OptionChain{}
	type key struct {
		strike float64
		expiry string
	}
	index := make(map[key]int)
	for rows.Next() {
		var q models.OptionQuote
		var ts, expiry, typ string
		if err := rows.Scan(&ts, &chain.SpotPrice, &q.Contract.Strike, &expiry, &typ,
			&q.Price, &q.Bid, &q.Ask, &q.ImpliedVol,
			&q.Greeks.Delta, &q.Greeks.Gamma, &q.Greeks.Vega, &q.Greeks.Theta, &q.Greeks.Rho); err != nil {
			return nil, errors.NewStorageError("get_chain", runID, err)
		}
		chain.Timestamp, err = time.Parse(time.RFC3339Nano, ts)
		if err != nil {
			return nil, errors.NewStorageError("get_chain", runID, err)
		}
		q.Contract.Expiry, err = time.Parse(time.RFC3339Nano, expiry)
		if err != nil {
			return nil, errors.NewStorageError("get_chain", runID, err)
		}
		q.Contract.Type = models.OptionType(typ)

		k := key{strike: q.Contract.Strike, expiry: expiry}
		i, ok := index[k]
		if !ok {
			chain.Entries = append(chain.Entries, models.ChainEntry{
				Strike: q.Contract.Strike,
				Expiry: q.Contract.Expiry,
			})
			i = len(chain.Entries) - 1
			index[k] = i
		}
		if q.Contract.Type == models.OptionCall {
			chain.Entries[i].Call = q
		} else {
			chain.Entries[i].Put = q
		}
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewStorageError("get_chain", runID, err)
	}
	if len(chain.Entries) == 0 {
		return nil, errors.NewStorageError("get_chain", runID, errors.ErrDataNotFound)
	}
	return chain, nil
}

// ListRuns returns the distinct run IDs present in the store.
func (s *SQLiteStore) ListRuns(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT DISTINCT run_id FROM bars ORDER BY run_id`)
	if err != nil {
		return nil, errors.NewStorageError("list_runs", "", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, errors.NewStorageError("list_runs", "", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewStorageError("list_runs", "", err)
	}
	return ids, nil
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	if err := s.db.Close(); err != nil {
		return errors.NewStorageError("close", "", err)
	}
	return nil
}
