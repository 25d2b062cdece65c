// Package catalog indexes a directory of FITS frames by their header
// cards and answers filtered queries over them. The index is a sqlite
// snapshot rebuilt by an explicit Scan; queries always run against
// the snapshot as-is, never against a table being mutated.
package catalog

import(
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite"

	"galprof/pkg/frameio"
)

// A Record is one cataloged frame. Free-text cards keep whatever
// casing and padding the observatory software wrote; comparisons
// normalize at query time instead.
type Record struct {
	Filename  string
	Object    string
	Filter    string
	ImageType string
	DateObs   string
	ExpTime   float64
	JD        float64 // Julian date; 0 when neither a JD card nor DATE-OBS was usable
}

type Catalog struct {
	db  *sql.DB
	dir string
}

// Open connects to (or creates) the catalog database and applies the
// schema. Use ":memory:" for a throwaway catalog.
func Open(dbPath string) (*Catalog, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	schema := `CREATE TABLE IF NOT EXISTS frames (
		filename TEXT PRIMARY KEY,
		object   TEXT,
		filter   TEXT,
		imagetyp TEXT,
		date_obs TEXT,
		exp_time REAL,
		jd       REAL
	)`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	return &Catalog{db: db}, nil
}

func (c *Catalog)Close() error {
	if c == nil || c.db == nil {
		return nil
	}
	return c.db.Close()
}

// Dir is the directory of the last Scan; frame identifiers resolve
// relative to it.
func (c *Catalog)Dir() string { return c.dir }

// Scan walks `dir` for FITS files, reads their headers, and replaces
// the snapshot in a single transaction. Unreadable files are logged
// and skipped rather than failing the whole scan. Returns the number
// of frames indexed.
func (c *Catalog)Scan(ctx context.Context, dir string) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, fmt.Errorf("readdir %s: %w", dir, err)
	}

	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin scan tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM frames"); err != nil {
		return 0, fmt.Errorf("clear snapshot: %w", err)
	}

	n := 0
	for _, entry := range entries {
		if entry.IsDir() || !isFITS(entry.Name()) {
			continue
		}

		hdr, err := frameio.ReadHeader(filepath.Join(dir, entry.Name()))
		if err != nil {
			log.Warn().Str("file", entry.Name()).Err(err).Msg("skipping unreadable frame")
			continue
		}

		rec := recordFromHeader(entry.Name(), hdr)
		_, err = tx.ExecContext(ctx,
			`INSERT INTO frames (filename, object, filter, imagetyp, date_obs, exp_time, jd)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			rec.Filename, rec.Object, rec.Filter, rec.ImageType, rec.DateObs, rec.ExpTime, rec.JD)
		if err != nil {
			return 0, fmt.Errorf("insert frame %s: %w", rec.Filename, err)
		}
		n++
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit scan: %w", err)
	}

	c.dir = dir
	log.Info().Str("dir", dir).Int("frames", n).Msg("catalog snapshot rebuilt")
	return n, nil
}

// Query returns the frames matching a band + acquisition-type
// predicate, ordered by filename. Header values are free text, so the
// comparison trims and upcases both sides. An empty result is a valid
// result.
func (c *Catalog)Query(ctx context.Context, band, imageType string) ([]Record, error) {
	rows, err := c.db.QueryContext(ctx,
		`SELECT filename, object, filter, imagetyp, date_obs, exp_time, jd
		 FROM frames
		 WHERE UPPER(TRIM(filter)) = UPPER(TRIM(?))
		   AND UPPER(TRIM(imagetyp)) = UPPER(TRIM(?))
		 ORDER BY filename`,
		band, imageType)
	if err != nil {
		return nil, fmt.Errorf("query frames: %w", err)
	}
	defer rows.Close()

	return scanRecords(rows)
}

// Records lists the whole snapshot, ordered by filename.
func (c *Catalog)Records(ctx context.Context) ([]Record, error) {
	rows, err := c.db.QueryContext(ctx,
		`SELECT filename, object, filter, imagetyp, date_obs, exp_time, jd
		 FROM frames ORDER BY filename`)
	if err != nil {
		return nil, fmt.Errorf("list frames: %w", err)
	}
	defer rows.Close()

	return scanRecords(rows)
}

func scanRecords(rows *sql.Rows) ([]Record, error) {
	recs := []Record{}
	for rows.Next() {
		var r Record
		if err := rows.Scan(&r.Filename, &r.Object, &r.Filter, &r.ImageType, &r.DateObs, &r.ExpTime, &r.JD); err != nil {
			return nil, fmt.Errorf("scan frame row: %w", err)
		}
		recs = append(recs, r)
	}
	return recs, rows.Err()
}

func recordFromHeader(filename string, hdr frameio.Header) Record {
	rec := Record{
		Filename:  filename,
		Object:    hdr.StrDefault("OBJECT", ""),
		Filter:    hdr.StrDefault("FILTER", ""),
		ImageType: hdr.StrDefault("IMAGETYP", ""),
		DateObs:   hdr.StrDefault("DATE-OBS", ""),
	}
	rec.ExpTime, _ = hdr.Float("EXP-TIME")

	if jd, err := hdr.Float("JD"); err == nil {
		rec.JD = jd
	} else if t, ok := parseDateObs(rec.DateObs); ok {
		rec.JD = julianDate(t)
	}
	return rec
}

func isFITS(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".fits", ".fit", ".fts":
		return true
	}
	return false
}

func parseDateObs(s string) (time.Time, bool) {
	layouts := []string{
		"2006-01-02T15:04:05.999999999",
		"2006-01-02T15:04:05",
		"2006-01-02",
	}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, strings.TrimSpace(s)); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// julianDate converts a UTC timestamp; the unix epoch is JD 2440587.5.
func julianDate(t time.Time) float64 {
	return float64(t.UnixNano())/1e9/86400.0 + 2440587.5
}
