package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/blackwell-systems/brewpick/internal/brew"
	"github.com/blackwell-systems/brewpick/internal/install"
	"github.com/blackwell-systems/brewpick/internal/search"
)

// Search operations

// SaveSearch replaces the recorded search with snap. Only one search is kept:
// tokens from earlier searches stop resolving once a new one is saved.
func (s *Store) SaveSearch(snap search.Snapshot) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM searches`); err != nil {
		return wrapSchemaErr(err, "failed to clear previous search")
	}

	res, err := tx.Exec(`INSERT INTO searches (query, created_at) VALUES (?, ?)`,
		snap.Query, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("failed to insert search %q: %w", snap.Query, err)
	}
	searchID, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get search id: %w", err)
	}

	stmt, err := tx.Prepare(`
		INSERT INTO search_results (token, search_id, name, category, position)
		VALUES (?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare result insert: %w", err)
	}
	defer stmt.Close()

	for _, section := range [][]brew.Package{snap.Formulae, snap.Casks} {
		for i, pkg := range section {
			if _, err := stmt.Exec(pkg.Token.String(), searchID, pkg.Name, pkg.Category.String(), i); err != nil {
				return fmt.Errorf("failed to insert result %s: %w", pkg.Name, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit search: %w", err)
	}
	return nil
}

// LoadSearch returns the recorded search. A schema without any search yields
// ErrNotInitialized.
func (s *Store) LoadSearch() (search.Snapshot, error) {
	var snap search.Snapshot
	var searchID int64

	err := s.db.QueryRow(`SELECT id, query FROM searches ORDER BY id DESC LIMIT 1`).Scan(&searchID, &snap.Query)
	if err == sql.ErrNoRows {
		return search.Snapshot{}, ErrNotInitialized
	}
	if err != nil {
		return search.Snapshot{}, wrapSchemaErr(err, "failed to load search")
	}

	rows, err := s.db.Query(`
		SELECT token, name, category
		FROM search_results
		WHERE search_id = ?
		ORDER BY category, position
	`, searchID)
	if err != nil {
		return search.Snapshot{}, fmt.Errorf("failed to load search results: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var token, name, category string
		if err := rows.Scan(&token, &name, &category); err != nil {
			return search.Snapshot{}, fmt.Errorf("failed to scan result row: %w", err)
		}

		pkg, err := decodePackage(token, name, category)
		if err != nil {
			return search.Snapshot{}, err
		}
		if pkg.IsCask() {
			snap.Casks = append(snap.Casks, pkg)
		} else {
			snap.Formulae = append(snap.Formulae, pkg)
		}
	}

	if err := rows.Err(); err != nil {
		return search.Snapshot{}, fmt.Errorf("error iterating search results: %w", err)
	}

	return snap, nil
}

// Install state operations

// SaveInstallState persists the single install progress record. A state
// with nothing queued clears the record.
func (s *Store) SaveInstallState(st install.State) error {
	if st.Package == nil {
		if _, err := s.db.Exec(`DELETE FROM install_state`); err != nil {
			return wrapSchemaErr(err, "failed to clear install state")
		}
		return nil
	}

	updated := st.UpdatedAt
	if updated.IsZero() {
		updated = time.Now()
	}

	_, err := s.db.Exec(`
		INSERT OR REPLACE INTO install_state
		(id, token, name, category, stage, progress, reason, updated_at)
		VALUES (1, ?, ?, ?, ?, ?, ?, ?)
	`,
		st.Package.Token.String(),
		st.Package.Name,
		st.Package.Category.String(),
		st.Stage.String(),
		st.Progress,
		st.Reason,
		updated.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return wrapSchemaErr(err, "failed to save install state for %s", st.Package.Name)
	}
	return nil
}

// LoadInstallState returns the persisted install record, or an empty State
// when nothing has been queued.
func (s *Store) LoadInstallState() (install.State, error) {
	var token, name, category, stage, updatedAt string
	var reason sql.NullString
	var st install.State

	err := s.db.QueryRow(`
		SELECT token, name, category, stage, progress, reason, updated_at
		FROM install_state
		WHERE id = 1
	`).Scan(&token, &name, &category, &stage, &st.Progress, &reason, &updatedAt)
	if err == sql.ErrNoRows {
		return install.State{}, nil
	}
	if err != nil {
		return install.State{}, wrapSchemaErr(err, "failed to load install state")
	}

	pkg, err := decodePackage(token, name, category)
	if err != nil {
		return install.State{}, err
	}
	st.Package = &pkg

	st.Stage, err = install.ParseStage(stage)
	if err != nil {
		return install.State{}, fmt.Errorf("failed to parse stage for %s: %w", name, err)
	}
	st.Reason = reason.String

	st.UpdatedAt, err = time.Parse(time.RFC3339Nano, updatedAt)
	if err != nil {
		return install.State{}, fmt.Errorf("failed to parse updated_at for %s: %w", name, err)
	}

	return st, nil
}

func decodePackage(token, name, category string) (brew.Package, error) {
	id, err := uuid.Parse(token)
	if err != nil {
		return brew.Package{}, fmt.Errorf("failed to parse token for %s: %w", name, err)
	}
	cat, err := brew.ParseCategory(category)
	if err != nil {
		return brew.Package{}, fmt.Errorf("failed to parse category for %s: %w", name, err)
	}
	return brew.Package{Name: name, Category: cat, Token: id}, nil
}
