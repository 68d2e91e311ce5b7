package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-pkgz/repeater/v2"
	"github.com/jmoiron/sqlx"

	"github.com/umputun/lequel/pkg/trigram"
)

// ErrNotFound is returned for an unknown language code
var ErrNotFound = errors.New("language not found")

// Language is a stored catalog language
type Language struct {
	Code      string    `db:"code"`
	Name      string    `db:"name"`
	Trigrams  int       `db:"trigrams"` // number of distinct trigrams, filled by Languages
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

// ProfileRepository handles raw language profiles
type ProfileRepository struct {
	db *sqlx.DB
}

// NewProfileRepository creates a new profile repository
func NewProfileRepository(db *sqlx.DB) *ProfileRepository {
	return &ProfileRepository{db: db}
}

// SaveProfile replaces all trigram counts of the language with profile
func (r *ProfileRepository) SaveProfile(ctx context.Context, lang Language, profile trigram.Profile) error {
	return r.writeProfile(ctx, lang, profile, true)
}

// MergeProfile adds the counts of profile to the counts already stored for the language
func (r *ProfileRepository) MergeProfile(ctx context.Context, lang Language, profile trigram.Profile) error {
	return r.writeProfile(ctx, lang, profile, false)
}

func (r *ProfileRepository) writeProfile(ctx context.Context, lang Language, profile trigram.Profile, replace bool) error {
	if lang.Code == "" {
		return errors.New("empty language code")
	}
	if len(profile) == 0 {
		return trigram.ErrEmptyProfile
	}
	rows := profile.Rows()

	retrier := repeater.NewBackoff(5, 50*time.Millisecond, repeater.WithMaxDelay(2*time.Second))
	return retrier.Do(ctx, func() error {
		err := r.inTransaction(ctx, func(tx *sqlx.Tx) error {
			upsertLang := `
				INSERT INTO languages (code, name) VALUES (?, ?)
				ON CONFLICT(code) DO UPDATE SET
					name = CASE WHEN excluded.name != '' THEN excluded.name ELSE languages.name END,
					updated_at = CURRENT_TIMESTAMP
			`
			if _, err := tx.ExecContext(ctx, upsertLang, lang.Code, lang.Name); err != nil {
				return fmt.Errorf("upsert language: %w", err)
			}

			if replace {
				if _, err := tx.ExecContext(ctx, "DELETE FROM trigrams WHERE code = ?", lang.Code); err != nil {
					return fmt.Errorf("delete trigrams: %w", err)
				}
			}

			stmt, err := tx.PreparexContext(ctx, `
				INSERT INTO trigrams (code, trigram, count) VALUES (?, ?, ?)
				ON CONFLICT(code, trigram) DO UPDATE SET count = trigrams.count + excluded.count
			`)
			if err != nil {
				return fmt.Errorf("prepare insert: %w", err)
			}
			defer stmt.Close()

			for _, row := range rows {
				if _, err := stmt.ExecContext(ctx, lang.Code, row.Trigram, row.Count); err != nil {
					return fmt.Errorf("insert trigram %q: %w", row.Trigram, err)
				}
			}
			return nil
		})
		if err != nil {
			if isLockError(err) {
				return err // repeater will retry this
			}
			return &criticalError{err: fmt.Errorf("write profile %s: %w", lang.Code, err)}
		}
		return nil
	}, errCritical)
}

// LoadProfile returns the raw profile of the language
func (r *ProfileRepository) LoadProfile(ctx context.Context, code string) (trigram.Profile, error) {
	var exists bool
	if err := r.db.GetContext(ctx, &exists, "SELECT EXISTS(SELECT 1 FROM languages WHERE code = ?)", code); err != nil {
		return nil, fmt.Errorf("check language %s: %w", code, err)
	}
	if !exists {
		return nil, fmt.Errorf("language %s: %w", code, ErrNotFound)
	}

	var rows []trigram.Row
	if err := r.db.SelectContext(ctx, &rows, "SELECT trigram, count FROM trigrams WHERE code = ?", code); err != nil {
		return nil, fmt.Errorf("get trigrams %s: %w", code, err)
	}
	profile, err := trigram.FromRows(rows)
	if err != nil {
		return nil, fmt.Errorf("language %s: %w", code, err)
	}
	return profile, nil
}

// Languages returns all stored languages ordered by code
func (r *ProfileRepository) Languages(ctx context.Context) ([]Language, error) {
	query := `
		SELECT l.code, l.name, l.created_at, l.updated_at, COUNT(t.trigram) AS trigrams
		FROM languages l
		LEFT JOIN trigrams t ON t.code = l.code
		GROUP BY l.code
		ORDER BY l.code
	`
	var res []Language
	if err := r.db.SelectContext(ctx, &res, query); err != nil {
		return nil, fmt.Errorf("get languages: %w", err)
	}
	return res, nil
}

// DeleteLanguage removes the language and its trigrams
func (r *ProfileRepository) DeleteLanguage(ctx context.Context, code string) error {
	return r.inTransaction(ctx, func(tx *sqlx.Tx) error {
		// foreign_keys pragma is per connection, cascade is not guaranteed on pooled ones
		if _, err := tx.ExecContext(ctx, "DELETE FROM trigrams WHERE code = ?", code); err != nil {
			return fmt.Errorf("delete trigrams: %w", err)
		}
		res, err := tx.ExecContext(ctx, "DELETE FROM languages WHERE code = ?", code)
		if err != nil {
			return fmt.Errorf("delete language: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("delete language: %w", err)
		}
		if n == 0 {
			return fmt.Errorf("language %s: %w", code, ErrNotFound)
		}
		return nil
	})
}

// inTransaction executes a function within a database transaction
func (r *ProfileRepository) inTransaction(ctx context.Context, fn func(*sqlx.Tx) error) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("transaction failed: %w (rollback also failed: %s)", err, rbErr.Error())
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}
