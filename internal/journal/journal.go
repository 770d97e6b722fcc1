// Package journal keeps a local record of verified stamps. It never stores
// credentials or session cookies.
package journal

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"jobcan-cli/internal/components/telemetry"

	_ "github.com/tursodatabase/libsql-client-go/libsql"
	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var Schema string

const (
	report_journal_record = "journal.record"
	report_journal_list   = "journal.list"
)

type Config struct {
	// local sqlite file, ":memory:" is allowed
	File string `json:"file"`
	// remote libsql database, takes precedence over File
	Url       string `json:"url"`
	AuthToken string `json:"auth_token"`
}

func (c Config) Enabled() bool {
	return c.File != "" || c.Url != ""
}

type Entry struct {
	ID         int64
	StampedAt  time.Time
	Action     string
	GroupID    string
	NightShift bool
	Note       string
	Status     string
}

type Journal struct {
	db  *sql.DB
	tel telemetry.API
}

func openDB(config Config) (*sql.DB, error) {
	if config.Url != "" {
		dsn := config.Url
		if config.AuthToken != "" {
			parsed, err := url.Parse(config.Url)
			if err != nil {
				return nil, err
			}
			query := parsed.Query()
			query.Set("authToken", config.AuthToken)
			parsed.RawQuery = query.Encode()
			dsn = parsed.String()
		}
		return sql.Open("libsql", dsn)
	}

	if config.File != ":memory:" {
		err := os.MkdirAll(filepath.Dir(config.File), 0700)
		if err != nil {
			return nil, err
		}
	}
	db, err := sql.Open("sqlite", config.File)
	if err != nil {
		return nil, err
	}
	// see this stackoverflow post for information on why the following
	// lines exist: https://stackoverflow.com/questions/35804884/sqlite-concurrent-writing-performance
	db.SetMaxOpenConns(1)
	if config.File != ":memory:" {
		_, err = db.Exec("PRAGMA journal_mode=WAL")
		if err != nil {
			db.Close()
			return nil, err
		}
	}
	return db, nil
}

func Open(ctx context.Context, config Config, tel telemetry.API) (*Journal, error) {
	if !config.Enabled() {
		return nil, fmt.Errorf("open journal: neither file nor url is configured")
	}
	if tel == nil {
		tel = telemetry.SlogAPI{}
	}

	db, err := openDB(config)
	if err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}
	_, err = db.ExecContext(ctx, Schema)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("open journal: apply schema: %w", err)
	}

	return &Journal{db: db, tel: telemetry.NewScopedAPI("journal", tel)}, nil
}

func (j *Journal) Close() error {
	return j.db.Close()
}

func (j *Journal) Record(ctx context.Context, entry Entry) (int64, error) {
	nightShift := 0
	if entry.NightShift {
		nightShift = 1
	}
	res, err := j.db.ExecContext(
		ctx,
		`insert into stamp(stamped_at, action, group_id, night_shift, note, status)
		values (?, ?, ?, ?, ?, ?)`,
		entry.StampedAt.Unix(),
		entry.Action,
		entry.GroupID,
		nightShift,
		entry.Note,
		entry.Status,
	)
	if err != nil {
		j.tel.ReportBroken(report_journal_record, err)
		return 0, err
	}
	return res.LastInsertId()
}

// List returns the newest entries first, at most limit of them.
func (j *Journal) List(ctx context.Context, limit int) ([]Entry, error) {
	rows, err := j.db.QueryContext(
		ctx,
		`select id, stamped_at, action, group_id, night_shift, note, status
		from stamp order by stamped_at desc, id desc limit ?`,
		limit,
	)
	if err != nil {
		j.tel.ReportBroken(report_journal_list, err)
		return nil, err
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var entry Entry
		var stampedAt int64
		var nightShift int
		err := rows.Scan(
			&entry.ID,
			&stampedAt,
			&entry.Action,
			&entry.GroupID,
			&nightShift,
			&entry.Note,
			&entry.Status,
		)
		if err != nil {
			j.tel.ReportBroken(report_journal_list, fmt.Errorf("scan: %w", err))
			return nil, err
		}
		entry.StampedAt = time.Unix(stampedAt, 0)
		entry.NightShift = nightShift != 0
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}
