/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package library

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	applog "storyboarder/internal/log"
	"storyboarder/internal/version"
	"log/slog"

	// Pure-Go SQLite driver (CGO-free)
	_ "modernc.org/sqlite"
)

const (
	// IndexDirName stores per-project ephemeral/index data under the project root.
	IndexDirName  = ".sbd"
	IndexFileName = "library.sqlite"

	// schemaVersion tracks the local SQLite schema for the footage index.
	// Bump when performing breaking schema changes.
	schemaVersion = 1
)

// IndexPath returns the full path to the project's footage index database.
func IndexPath(projectRoot string) string {
	return filepath.Join(projectRoot, IndexDirName, IndexFileName)
}

// OpenIndex ensures the per-project SQLite footage index exists at
// .sbd/library.sqlite, opens it, enables WAL mode, and ensures the meta and
// files tables exist. Callers close the returned DB when done.
func OpenIndex(projectRoot string) (*sql.DB, error) {
	l := applog.WithOperation(applog.WithComponent("library"), "index_open").With(
		slog.String("root", projectRoot),
	)
	if strings.TrimSpace(projectRoot) == "" {
		return nil, errors.New("project root is required")
	}
	if err := os.MkdirAll(filepath.Join(projectRoot, IndexDirName), 0o755); err != nil {
		l.Error("create index dir failed", slog.Any("err", err))
		return nil, fmt.Errorf("create index dir: %w", err)
	}

	dsn := fmt.Sprintf("file:%s?cache=shared&_pragma=busy_timeout(5000)", filepath.ToSlash(IndexPath(projectRoot)))
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		l.Error("sqlite open failed", slog.Any("err", err))
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL;"); err != nil {
		_ = db.Close()
		l.Error("enable WAL failed", slog.Any("err", err))
		return nil, fmt.Errorf("enable WAL: %w", err)
	}
	if err := ensureIndexSchema(ctx, db); err != nil {
		_ = db.Close()
		l.Error("ensure schema failed", slog.Any("err", err))
		return nil, err
	}
	l.Debug("footage index ready", slog.String("path", IndexPath(projectRoot)))
	return db, nil
}

func ensureIndexSchema(ctx context.Context, db *sql.DB) error {
	ddl := []string{
		`CREATE TABLE IF NOT EXISTS meta (
			key   TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS files (
			path  TEXT PRIMARY KEY,
			root  TEXT NOT NULL,
			name  TEXT NOT NULL,
			ext   TEXT NOT NULL,
			kind  TEXT NOT NULL,
			size  INTEGER NOT NULL,
			mtime TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_files_name ON files(name);`,
		`CREATE INDEX IF NOT EXISTS idx_files_root ON files(root);`,
	}
	for _, q := range ddl {
		if _, err := db.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("ensure index schema: %w", err)
		}
	}
	if _, err := db.ExecContext(ctx,
		`INSERT INTO meta(key, value) VALUES('schema', ?) ON CONFLICT(key) DO UPDATE SET value=excluded.value`,
		fmt.Sprintf("%d", schemaVersion)); err != nil {
		return fmt.Errorf("record schema version: %w", err)
	}
	if _, err := db.ExecContext(ctx,
		`INSERT INTO meta(key, value) VALUES('app', ?) ON CONFLICT(key) DO UPDATE SET value=excluded.value`,
		version.String()); err != nil {
		return fmt.Errorf("record app version: %w", err)
	}
	return nil
}

// Scan walks one footage root and rebuilds its slice of the index inside a
// single transaction: existing rows under the root are replaced so files that
// disappeared out-of-band drop off the index. Unreadable entries are skipped.
// Returns the number of files indexed.
func Scan(ctx context.Context, db *sql.DB, root string) (int, error) {
	l := applog.WithOperation(applog.WithComponent("library"), "scan").With(slog.String("root", root))

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin scan tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM files WHERE root = ?`, root); err != nil {
		return 0, fmt.Errorf("clear stale rows: %w", err)
	}

	count := 0
	walkErr := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			l.Warn("skip unreadable entry", slog.String("path", path), slog.Any("err", err))
			return nil
		}
		if d.IsDir() {
			if strings.HasPrefix(d.Name(), ".") && path != root {
				return fs.SkipDir
			}
			return nil
		}
		fi, err := d.Info()
		if err != nil {
			return nil
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO files(path, root, name, ext, kind, size, mtime) VALUES(?,?,?,?,?,?,?)
			 ON CONFLICT(path) DO UPDATE SET size=excluded.size, mtime=excluded.mtime`,
			path, root, d.Name(), strings.ToLower(filepath.Ext(d.Name())), string(KindOf(d.Name())),
			fi.Size(), fi.ModTime().UTC().Format(time.RFC3339Nano))
		if err != nil {
			return fmt.Errorf("index %s: %w", path, err)
		}
		count++
		return nil
	})
	if walkErr != nil {
		return 0, walkErr
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit scan: %w", err)
	}
	l.Info("footage root scanned", slog.Int("files", count))
	return count, nil
}

// Search returns indexed files whose name contains q (case-insensitive),
// ordered by name, up to limit rows.
func Search(ctx context.Context, db *sql.DB, q string, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := db.QueryContext(ctx,
		`SELECT path, name, kind, size, mtime FROM files
		 WHERE name LIKE '%' || ? || '%' ORDER BY name LIMIT ?`, q, limit)
	if err != nil {
		return nil, fmt.Errorf("search files: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []Entry
	for rows.Next() {
		var e Entry
		var kind, mtime string
		if err := rows.Scan(&e.Path, &e.Name, &kind, &e.Size, &mtime); err != nil {
			return nil, err
		}
		e.Kind = FileKind(kind)
		if ts, perr := time.Parse(time.RFC3339Nano, mtime); perr == nil {
			e.ModTime = ts
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
