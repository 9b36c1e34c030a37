// Package history keeps a small sqlite log of what the clock displayed and
// how far off the system clock was at each NTP check, for answering "why did
// it say viertel Vier at ten past three" after the fact.
package history

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

const initDatabase = `
CREATE TABLE IF NOT EXISTS ntp_sync (date datetime not null, server text not null, offset_ns integer not null, rtt_ns integer not null, stratum integer not null);
CREATE TABLE IF NOT EXISTS phrase (date datetime not null, hour integer not null, minute integer not null, text text not null);
`

type DB struct {
	*sql.DB
}

func Open(filename string) (*DB, error) {
	db, err := sql.Open("sqlite3", filename)
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec(initDatabase); err != nil {
		return nil, err
	}

	return &DB{db}, nil
}

func (db *DB) RecordSync(server string, offset, rtt time.Duration, stratum uint8) error {
	s, err := db.Prepare("insert into ntp_sync values(?, ?, ?, ?, ?)")
	if err != nil {
		return err
	}
	defer s.Close()
	if _, err := s.Exec(time.Now(), server, offset.Nanoseconds(), rtt.Nanoseconds(), stratum); err != nil {
		return err
	}
	return nil
}

func (db *DB) RecordPhrase(hour, minute int, text string) error {
	s, err := db.Prepare("insert into phrase values(?, ?, ?, ?)")
	if err != nil {
		return err
	}
	defer s.Close()
	if _, err := s.Exec(time.Now(), hour, minute, text); err != nil {
		return err
	}
	return nil
}

// Phrase is one recorded display update.
type Phrase struct {
	Date         time.Time
	Hour, Minute int
	Text         string
}

// RecentPhrases returns the most recent display updates, newest first.
func (db *DB) RecentPhrases(limit int) ([]Phrase, error) {
	rows, err := db.Query("select date, hour, minute, text from phrase order by date desc limit ?", limit)
	if err != nil {
		return nil, fmt.Errorf("query phrases: %w", err)
	}
	defer rows.Close()
	var result []Phrase
	for rows.Next() {
		var p Phrase
		if err := rows.Scan(&p.Date, &p.Hour, &p.Minute, &p.Text); err != nil {
			return nil, fmt.Errorf("scan phrase: %w", err)
		}
		result = append(result, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
