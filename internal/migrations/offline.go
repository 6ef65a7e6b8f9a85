package migrations

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"io/fs"
	"path"
	"sort"
	"strconv"
	"strings"

	"github.com/maxviazov/edutrack-service/internal/repository"
)

const (
	annotationPrefix = "-- +goose"
	upAnnotation     = "-- +goose Up"
	downAnnotation   = "-- +goose Down"
)

// versionTable is the goose bookkeeping table; offline output records into it
// so a later online run sees the same state.
const versionTable = "goose_db_version"

var versionTableDDL = map[repository.Dialect]string{
	repository.DialectPostgres: `CREATE TABLE IF NOT EXISTS goose_db_version (
    id         integer PRIMARY KEY GENERATED BY DEFAULT AS IDENTITY,
    version_id bigint    NOT NULL,
    is_applied boolean   NOT NULL,
    tstamp     timestamp NOT NULL DEFAULT now()
);`,
	repository.DialectMySQL: `CREATE TABLE IF NOT EXISTS goose_db_version (
    id         serial    NOT NULL,
    version_id bigint    NOT NULL,
    is_applied boolean   NOT NULL,
    tstamp     timestamp NULL DEFAULT now(),
    PRIMARY KEY (id)
);`,
	repository.DialectSQLite: `CREATE TABLE IF NOT EXISTS goose_db_version (
    id         INTEGER PRIMARY KEY AUTOINCREMENT,
    version_id INTEGER NOT NULL,
    is_applied INTEGER NOT NULL,
    tstamp     TIMESTAMP DEFAULT (datetime('now'))
);`,
}

type script struct {
	version int64
	name    string
	up      string
}

// Render writes the Up section of every migration for d to w, in version
// order, without touching a database. Each section is followed by the insert
// that marks its version applied, so the script leaves the database exactly
// where an online Up would. I keep it plain SQL so it can be reviewed and
// applied by hand.
func Render(w io.Writer, d repository.Dialect) error {
	fsys, err := Source(d)
	if err != nil {
		return err
	}
	scripts, err := loadScripts(fsys)
	if err != nil {
		return err
	}

	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "-- dialect: %s\n\n", d)
	// goose seeds version 0 when it creates the table and probes for it later.
	fmt.Fprintf(bw, "%s\n", versionTableDDL[d])
	writeVersionInsert(bw, 0)
	for _, s := range scripts {
		fmt.Fprintf(bw, "\n-- version %d: %s\n", s.version, s.name)
		bw.WriteString(s.up)
		if !strings.HasSuffix(s.up, "\n") {
			bw.WriteString("\n")
		}
		writeVersionInsert(bw, s.version)
	}
	return bw.Flush()
}

func writeVersionInsert(w io.Writer, version int64) {
	fmt.Fprintf(w, "INSERT INTO %s (version_id, is_applied) VALUES (%d, true);\n", versionTable, version)
}

func loadScripts(fsys fs.FS) ([]script, error) {
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return nil, fmt.Errorf("migrations: read dir: %w", err)
	}
	var out []script
	for _, e := range entries {
		if e.IsDir() || path.Ext(e.Name()) != ".sql" {
			continue
		}
		version, err := versionOf(e.Name())
		if err != nil {
			return nil, err
		}
		raw, err := fs.ReadFile(fsys, e.Name())
		if err != nil {
			return nil, fmt.Errorf("migrations: read %s: %w", e.Name(), err)
		}
		out = append(out, script{version: version, name: e.Name(), up: upSection(raw)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].version < out[j].version })
	return out, nil
}

// versionOf reads the numeric prefix of names like 00001_create_users.sql.
func versionOf(name string) (int64, error) {
	prefix, _, ok := strings.Cut(name, "_")
	if !ok {
		return 0, fmt.Errorf("migrations: %s has no version prefix", name)
	}
	v, err := strconv.ParseInt(prefix, 10, 64)
	if err != nil || v <= 0 {
		return 0, fmt.Errorf("migrations: %s has invalid version prefix", name)
	}
	return v, nil
}

// upSection keeps the lines between the Up and Down annotations.
// Other goose annotations (StatementBegin/End, NO TRANSACTION) are dropped.
func upSection(raw []byte) string {
	var b strings.Builder
	inUp := false
	sc := bufio.NewScanner(bytes.NewReader(raw))
	for sc.Scan() {
		line := sc.Text()
		trimmed := strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(trimmed, upAnnotation):
			inUp = true
			continue
		case strings.HasPrefix(trimmed, downAnnotation):
			inUp = false
			continue
		case strings.HasPrefix(trimmed, annotationPrefix):
			continue
		}
		if inUp {
			b.WriteString(line)
			b.WriteByte('\n')
		}
	}
	return strings.TrimLeft(b.String(), "\n")
}
