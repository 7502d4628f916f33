package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"bettersaved/application/ports"
	"bettersaved/domain/core/entities"
	"bettersaved/domain/core/valueobjects"
	pkgerrors "bettersaved/pkg/errors"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"
)

const selectColumns = `user_id, telegram_id, name, language, credential, root_folder_id, root_folder_url,
	type_folders_json, ledger_id, ledger_url, connect_message_shown, created_at, updated_at`

// ProfileRepository stores profiles in a local SQLite database
type ProfileRepository struct {
	db     *sql.DB
	path   string
	now    func() time.Time
	logger *zap.Logger
}

var _ ports.ProfileRepository = (*ProfileRepository)(nil)

// NewProfileRepository opens or creates the database at path. ":memory:" keeps it in memory.
func NewProfileRepository(path string, logger *zap.Logger) (*ProfileRepository, error) {
	dsn := ":memory:"
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create directory: %w", err)
		}
		dsn = path + "?_journal_mode=WAL&_busy_timeout=5000"
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if path == ":memory:" {
		// every connection would otherwise see its own empty database
		db.SetMaxOpenConns(1)
	}

	if err := migrate(context.Background(), db, logger); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	logger.Info("SQLite profile store ready", zap.String("path", path))
	return &ProfileRepository{db: db, path: path, now: time.Now, logger: logger}, nil
}

// Close closes the database connection
func (r *ProfileRepository) Close() error {
	return r.db.Close()
}

// Get retrieves a profile
func (r *ProfileRepository) Get(ctx context.Context, userID string) (*entities.Profile, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+selectColumns+` FROM users WHERE user_id = ?`, userID)

	var (
		p                entities.Profile
		typeFolders      string
		shown            int
		created, updated string
	)
	err := row.Scan(&p.UserID, &p.TelegramID, &p.Name, &p.Language, &p.Credential, &p.RootFolderID,
		&p.RootFolderURL, &typeFolders, &p.LedgerID, &p.LedgerURL, &shown, &created, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, pkgerrors.NewNotFoundError("profile")
	}
	if err != nil {
		return nil, pkgerrors.NewDatabaseError("get_profile", err)
	}

	if typeFolders != "" && typeFolders != "{}" {
		if err := json.Unmarshal([]byte(typeFolders), &p.TypeFolderIDs); err != nil {
			return nil, pkgerrors.NewDatabaseError("decode_type_folders", err)
		}
	}
	p.ConnectMessageShown = shown != 0
	p.CreatedAt, _ = time.Parse(time.RFC3339Nano, created)
	p.UpdatedAt, _ = time.Parse(time.RFC3339Nano, updated)
	return &p, nil
}

// Upsert writes the whole record in one statement
func (r *ProfileRepository) Upsert(ctx context.Context, p *entities.Profile) error {
	if _, err := valueobjects.ParseUserID(p.UserID); err != nil {
		return err
	}

	typeFolders := []byte("{}")
	if len(p.TypeFolderIDs) > 0 {
		var err error
		if typeFolders, err = json.Marshal(p.TypeFolderIDs); err != nil {
			return pkgerrors.NewDatabaseError("encode_type_folders", err)
		}
	}
	created := p.CreatedAt
	if created.IsZero() {
		created = r.now()
	}
	updated := p.UpdatedAt
	if updated.IsZero() {
		updated = created
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO users (`+selectColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			telegram_id = excluded.telegram_id,
			name = excluded.name,
			language = excluded.language,
			credential = excluded.credential,
			root_folder_id = excluded.root_folder_id,
			root_folder_url = excluded.root_folder_url,
			type_folders_json = excluded.type_folders_json,
			ledger_id = excluded.ledger_id,
			ledger_url = excluded.ledger_url,
			connect_message_shown = excluded.connect_message_shown,
			updated_at = excluded.updated_at`,
		p.UserID, p.TelegramID, p.Name, p.Language, p.Credential, p.RootFolderID, p.RootFolderURL,
		string(typeFolders), p.LedgerID, p.LedgerURL, boolToInt(p.ConnectMessageShown),
		created.UTC().Format(time.RFC3339Nano), updated.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return pkgerrors.NewDatabaseError("upsert_profile", err)
	}
	return nil
}

// SetCredential stores the credential of an existing profile
func (r *ProfileRepository) SetCredential(ctx context.Context, userID, credential string) error {
	n, err := r.update(ctx, "set_credential", `UPDATE users SET credential = ?, updated_at = ? WHERE user_id = ?`, credential, userID)
	if err != nil {
		return err
	}
	if n == 0 {
		return pkgerrors.NewNotFoundError("profile")
	}
	return nil
}

// ClearCredential removes the credential
func (r *ProfileRepository) ClearCredential(ctx context.Context, userID string) error {
	_, err := r.update(ctx, "clear_credential", `UPDATE users SET credential = '', updated_at = ? WHERE user_id = ?`, userID)
	return err
}

// SetResources stores the resource handles of a connected profile
func (r *ProfileRepository) SetResources(ctx context.Context, userID string, rs entities.ResourceSet) error {
	typeFolders := []byte("{}")
	if len(rs.TypeFolderIDs) > 0 {
		var err error
		if typeFolders, err = json.Marshal(rs.TypeFolderIDs); err != nil {
			return pkgerrors.NewDatabaseError("encode_type_folders", err)
		}
	}

	n, err := r.update(ctx, "set_resources", `
		UPDATE users SET root_folder_id = ?, root_folder_url = ?, type_folders_json = ?, ledger_id = ?, ledger_url = ?, updated_at = ?
		WHERE user_id = ? AND credential != ''`,
		rs.RootFolderID, rs.RootFolderURL, string(typeFolders), rs.LedgerID, rs.LedgerURL, userID)
	if err != nil {
		return err
	}
	if n == 0 {
		return pkgerrors.NewNotConnectedError(userID)
	}
	return nil
}

// MarkConnectMessageShown sets the connect flag
func (r *ProfileRepository) MarkConnectMessageShown(ctx context.Context, userID string) error {
	_, err := r.update(ctx, "mark_connect_shown", `UPDATE users SET connect_message_shown = 1, updated_at = ? WHERE user_id = ?`, userID)
	return err
}

// Delete removes the profile
func (r *ProfileRepository) Delete(ctx context.Context, userID string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE user_id = ?`, userID); err != nil {
		return pkgerrors.NewDatabaseError("delete_profile", err)
	}
	return nil
}

// update runs a statement whose last two placeholders are updated_at and user_id
func (r *ProfileRepository) update(ctx context.Context, op, query string, args ...interface{}) (int64, error) {
	userID := args[len(args)-1]
	args = append(args[:len(args)-1], r.now().UTC().Format(time.RFC3339Nano), userID)

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, pkgerrors.NewDatabaseError(op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, pkgerrors.NewDatabaseError(op, err)
	}
	return n, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
