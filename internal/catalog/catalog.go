// internal/catalog/catalog.go
package catalog

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"

	"localcocoa/internal/index"
)

// ErrFolderExists is returned when adding a folder whose path is already
// registered.
var ErrFolderExists = errors.New("folder path already registered")

// Catalog is the app-local store: the folders the user registered for
// indexing and a small settings table. File records live in the backend's
// catalog, not here.
type Catalog struct {
	db *sql.DB
}

// Open creates or opens the catalog database at the given path.
func Open(path string) (*Catalog, error) {
	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, err
	}

	c := &Catalog{db: db}
	if err := c.init(); err != nil {
		db.Close()
		return nil, err
	}
	return c, nil
}

func (c *Catalog) init() error {
	schema := `
	CREATE TABLE IF NOT EXISTS folders (
		id TEXT PRIMARY KEY,
		path TEXT NOT NULL UNIQUE,
		label TEXT,
		privacy_level TEXT NOT NULL DEFAULT 'normal',
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS settings (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_folders_path ON folders(path);
	`
	_, err := c.db.Exec(schema)
	return err
}

// Close closes the database connection.
func (c *Catalog) Close() error {
	return c.db.Close()
}

// AddFolder registers a folder.
func (c *Catalog) AddFolder(folder *index.FolderRecord) error {
	if folder.PrivacyLevel == "" {
		folder.PrivacyLevel = index.PrivacyNormal
	}

	_, err := c.db.Exec(`
		INSERT INTO folders (id, path, label, privacy_level)
		VALUES (?, ?, ?, ?)`,
		folder.ID, folder.Path, folder.Label, folder.PrivacyLevel)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrFolderExists
		}
		return err
	}
	return nil
}

// GetFolder retrieves a folder by id.
func (c *Catalog) GetFolder(id string) (*index.FolderRecord, error) {
	row := c.db.QueryRow(`SELECT id, path, label, privacy_level FROM folders WHERE id = ?`, id)
	return scanFolder(row)
}

// GetFolderByPath retrieves a folder by its logical path.
func (c *Catalog) GetFolderByPath(path string) (*index.FolderRecord, error) {
	row := c.db.QueryRow(`SELECT id, path, label, privacy_level FROM folders WHERE path = ?`, path)
	return scanFolder(row)
}

// ListFolders returns all registered folders ordered by path.
func (c *Catalog) ListFolders() ([]index.FolderRecord, error) {
	rows, err := c.db.Query(`SELECT id, path, label, privacy_level FROM folders ORDER BY path`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var folders []index.FolderRecord
	for rows.Next() {
		var f index.FolderRecord
		var label sql.NullString
		if err := rows.Scan(&f.ID, &f.Path, &label, &f.PrivacyLevel); err != nil {
			return nil, err
		}
		f.Label = label.String
		folders = append(folders, f)
	}
	return folders, rows.Err()
}

// RemoveFolder deletes a folder registration.
func (c *Catalog) RemoveFolder(id string) error {
	result, err := c.db.Exec(`DELETE FROM folders WHERE id = ?`, id)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("folder not found: %s", id)
	}
	return nil
}

// SetFolderPrivacy updates a folder's privacy level. Cascading the level to
// the folder's files is the backend's job; this only records the folder's
// own level.
func (c *Catalog) SetFolderPrivacy(id, level string) error {
	result, err := c.db.Exec(`UPDATE folders SET privacy_level = ? WHERE id = ?`, level, id)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("folder not found: %s", id)
	}
	return nil
}

// SaveSetting stores an application setting.
func (c *Catalog) SaveSetting(key, value string) error {
	_, err := c.db.Exec(`
		INSERT OR REPLACE INTO settings (key, value, updated_at)
		VALUES (?, ?, CURRENT_TIMESTAMP)`, key, value)
	return err
}

// GetSetting retrieves a setting, returning "" when unset.
func (c *Catalog) GetSetting(key string) (string, error) {
	var value string
	err := c.db.QueryRow(`SELECT value FROM settings WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return value, nil
}

func scanFolder(row *sql.Row) (*index.FolderRecord, error) {
	var f index.FolderRecord
	var label sql.NullString
	if err := row.Scan(&f.ID, &f.Path, &label, &f.PrivacyLevel); err != nil {
		return nil, err
	}
	f.Label = label.String
	return &f, nil
}

func isUniqueViolation(err error) bool {
	// modernc.org/sqlite reports constraint failures in the error text.
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
