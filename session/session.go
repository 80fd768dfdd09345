// Package session records every tool invocation of a research session in a
// local SQLite database, so interactions can be replayed and audited after
// the fact.
package session

import (
	"database/sql"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaSQL string

// DefaultDatabasePath is where session logs are stored unless overridden.
var DefaultDatabasePath = ".lexgrep/sessions.db"

// resultLimit caps the stored result payload; oversized results are
// replaced with a truncation marker, matching the log's purpose as an
// audit trail rather than a cache.
const resultLimit = 2000

// Call is one logged tool invocation.
type Call struct {
	Tool      string
	Args      json.RawMessage
	Result    json.RawMessage
	CreatedAt time.Time
}

// Log is an open session writing to a SQLite database.
type Log struct {
	ID        string
	StartedAt time.Time

	mu   sync.Mutex
	db   *sql.DB
	next int
}

// Open creates a new session in the database at dbPath, creating the file
// and schema as needed. An empty dbPath means DefaultDatabasePath.
func Open(dbPath string) (*Log, error) {
	if dbPath == "" {
		dbPath = DefaultDatabasePath
	}
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("session: creating %s: %w", dir, err)
		}
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("session: opening %s: %w", dbPath, err)
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("session: initializing schema: %w", err)
	}

	id, err := uuid.NewRandom()
	if err != nil {
		db.Close()
		return nil, err
	}
	log := &Log{ID: id.String(), StartedAt: time.Now(), db: db}
	if _, err := db.Exec(`INSERT INTO sessions (id, started_at) VALUES (?, ?);`, log.ID, log.StartedAt); err != nil {
		db.Close()
		return nil, fmt.Errorf("session: recording session: %w", err)
	}
	return log, nil
}

// Record logs one tool call. Results larger than the stored limit are
// replaced by a {"truncated": true} marker. Marshal failures degrade to an
// error payload; the log never blocks a tool call.
func (l *Log) Record(tool string, args, result any) error {
	argsJSON, err := json.Marshal(args)
	if err != nil {
		argsJSON = []byte(fmt.Sprintf(`{"error": %q}`, err.Error()))
	}
	resultJSON, err := json.Marshal(result)
	if err != nil {
		resultJSON = []byte(fmt.Sprintf(`{"error": %q}`, err.Error()))
	}
	if len(resultJSON) > resultLimit {
		resultJSON = []byte(`{"truncated": true}`)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	seq := l.next
	l.next++
	_, err = l.db.Exec(
		`INSERT INTO tool_calls (session_id, sequence_number, tool, args, result, created_at) VALUES (?, ?, ?, ?, ?, ?);`,
		l.ID, seq, tool, argsJSON, resultJSON, time.Now(),
	)
	if err != nil {
		return fmt.Errorf("session: recording call: %w", err)
	}
	return nil
}

// Calls returns every call of this session in invocation order.
func (l *Log) Calls() ([]Call, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	rows, err := l.db.Query(
		`SELECT tool, args, result, created_at FROM tool_calls WHERE session_id = ? ORDER BY sequence_number;`,
		l.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("session: listing calls: %w", err)
	}
	defer rows.Close()

	var calls []Call
	for rows.Next() {
		var c Call
		if err := rows.Scan(&c.Tool, &c.Args, &c.Result, &c.CreatedAt); err != nil {
			return nil, err
		}
		calls = append(calls, c)
	}
	return calls, rows.Err()
}

// Close releases the database handle.
func (l *Log) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.db.Close()
}
