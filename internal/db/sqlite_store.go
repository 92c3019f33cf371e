// Package db persists the development backend in SQLite.
package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/terramo-esg/terramo/internal/api"
	"github.com/terramo-esg/terramo/internal/models"
	"github.com/terramo-esg/terramo/internal/services"
	"github.com/terramo-esg/terramo/internal/session"
)

type SQLiteStore struct {
	db *sql.DB
}

var _ api.Store = (*SQLiteStore)(nil)

// Open opens (creating if needed) the database at path, applies pragmas
// and migrations. ":memory:" gives a private in-memory database.
func Open(path, migrationsDir string) (*SQLiteStore, error) {
	dsn := ":memory:"
	if path != ":memory:" {
		dsn = fmt.Sprintf("file:%s?_busy_timeout=5000&_foreign_keys=on", filepath.ToSlash(path))
	}
	sqlDB, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if path == ":memory:" {
		// Every new connection would get its own empty database.
		sqlDB.SetMaxOpenConns(1)
	}
	store, err := NewSQLiteStore(sqlDB)
	if err != nil {
		_ = sqlDB.Close()
		return nil, err
	}
	if err := RunMigrations(sqlDB, migrationsDir); err != nil {
		_ = sqlDB.Close()
		return nil, err
	}
	return store, nil
}

func NewSQLiteStore(db *sql.DB) (*SQLiteStore, error) {
	if db == nil {
		return nil, errors.New("nil db")
	}
	pragmas := []string{
		"PRAGMA foreign_keys = ON",
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
	}
	for _, stmt := range pragmas {
		if _, err := db.Exec(stmt); err != nil {
			return nil, fmt.Errorf("apply sqlite pragma %q: %w", stmt, err)
		}
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Close() error { return s.db.Close() }

func contextBg() context.Context { return context.Background() }

func boolToInt64(v bool) int64 {
	if v {
		return 1
	}
	return 0
}

func int64ToBool(v int64) bool { return v != 0 }

func scoreToNull(sc models.Score) sql.NullInt64 {
	if !sc.Set {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(sc.Value), Valid: true}
}

func nullToScore(n sql.NullInt64) models.Score {
	if !n.Valid {
		return models.Unanswered
	}
	return models.NewScore(int(n.Int64))
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) time.Time {
	if strings.TrimSpace(s) == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

// noRows turns sql.ErrNoRows into a nil result.
func noRows(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return nil
	}
	return err
}

// questions

func (s *SQLiteStore) AddQuestion(q models.Question) error {
	_, err := s.db.ExecContext(contextBg(),
		`INSERT INTO questions (id, index_code, measure, category) VALUES (?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET index_code = excluded.index_code, measure = excluded.measure, category = excluded.category`,
		q.ID, q.IndexCode, q.Measure, string(q.Category))
	return err
}

func (s *SQLiteStore) GetQuestion(id string) (*models.Question, error) {
	var q models.Question
	var cat string
	err := s.db.QueryRowContext(contextBg(), `SELECT id, index_code, measure, category FROM questions WHERE id = ?`, id).
		Scan(&q.ID, &q.IndexCode, &q.Measure, &cat)
	if err != nil {
		return nil, noRows(err)
	}
	q.Category = models.Category(cat)
	return &q, nil
}

func (s *SQLiteStore) ListQuestions() ([]models.Question, error) {
	rows, err := s.db.QueryContext(contextBg(), `SELECT id, index_code, measure, category FROM questions`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []models.Question
	for rows.Next() {
		var q models.Question
		var cat string
		if err := rows.Scan(&q.ID, &q.IndexCode, &q.Measure, &cat); err != nil {
			return nil, err
		}
		q.Category = models.Category(cat)
		out = append(out, q)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	models.SortQuestions(out)
	return out, nil
}

// clients and users

func (s *SQLiteStore) AddClient(c *services.Client) error {
	_, err := s.db.ExecContext(contextBg(), `INSERT OR REPLACE INTO clients (id, name) VALUES (?, ?)`, c.ID, c.Name)
	return err
}

func (s *SQLiteStore) AddUser(u *services.User) error {
	if u == nil {
		return errors.New("nil user")
	}
	_, err := s.db.ExecContext(contextBg(),
		`INSERT INTO users (id, email, pass_hash, client_id, role, group_id, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		u.ID, u.Email, u.PassHash, u.ClientID, string(u.Role), u.GroupID, formatTime(u.CreatedAt))
	return err
}

const userColumns = `id, email, pass_hash, client_id, role, group_id, created_at`

func scanUser(row *sql.Row) (*services.User, error) {
	var u services.User
	var role, created string
	if err := row.Scan(&u.ID, &u.Email, &u.PassHash, &u.ClientID, &role, &u.GroupID, &created); err != nil {
		return nil, noRows(err)
	}
	u.Role = session.Role(role)
	u.CreatedAt = parseTime(created)
	return &u, nil
}

func (s *SQLiteStore) FindUserByEmail(email string) (*services.User, error) {
	return scanUser(s.db.QueryRowContext(contextBg(), `SELECT `+userColumns+` FROM users WHERE email = ?`, email))
}

func (s *SQLiteStore) GetUser(id string) (*services.User, error) {
	return scanUser(s.db.QueryRowContext(contextBg(), `SELECT `+userColumns+` FROM users WHERE id = ?`, id))
}

// responses

// UpsertResponses writes all rows in one transaction and keeps the original
// response id for an existing (user, question, year) row.
func (s *SQLiteStore) UpsertResponses(rs []*services.ResponseRecord) error {
	tx, err := s.db.BeginTx(contextBg(), nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()
	stmt, err := tx.PrepareContext(contextBg(),
		`INSERT INTO responses (id, user_id, client_id, group_id, question_id, year, priority, status_quo, comment, status, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(user_id, question_id, year) DO UPDATE SET
		   group_id = excluded.group_id,
		   priority = excluded.priority,
		   status_quo = excluded.status_quo,
		   comment = excluded.comment,
		   status = excluded.status,
		   updated_at = excluded.updated_at`)
	if err != nil {
		return err
	}
	defer stmt.Close()
	for _, r := range rs {
		if _, err := stmt.ExecContext(contextBg(), r.ID, r.UserID, r.ClientID, r.GroupID, r.QuestionID, r.Year,
			scoreToNull(r.Priority), scoreToNull(r.StatusQuo), r.Comment, string(r.Status), formatTime(r.UpdatedAt)); err != nil {
			return fmt.Errorf("upsert response %s: %w", r.QuestionID, err)
		}
	}
	return tx.Commit()
}

func (s *SQLiteStore) ListResponses(clientID string, year int) ([]*services.ResponseRecord, error) {
	rows, err := s.db.QueryContext(contextBg(),
		`SELECT id, user_id, client_id, group_id, question_id, year, priority, status_quo, comment, status, updated_at
		 FROM responses WHERE client_id = ? AND year = ? ORDER BY question_id, user_id`, clientID, year)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*services.ResponseRecord
	for rows.Next() {
		var r services.ResponseRecord
		var prio, sq sql.NullInt64
		var status, updated string
		if err := rows.Scan(&r.ID, &r.UserID, &r.ClientID, &r.GroupID, &r.QuestionID, &r.Year, &prio, &sq, &r.Comment, &status, &updated); err != nil {
			return nil, err
		}
		r.Priority, r.StatusQuo = nullToScore(prio), nullToScore(sq)
		r.Status = models.ResponseStatus(status)
		r.UpdatedAt = parseTime(updated)
		out = append(out, &r)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) CountResponsesByGroup(clientID string) (map[string]int, error) {
	rows, err := s.db.QueryContext(contextBg(), `SELECT group_id, COUNT(*) FROM responses WHERE client_id = ? GROUP BY group_id`, clientID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := map[string]int{}
	for rows.Next() {
		var id string
		var n int
		if err := rows.Scan(&id, &n); err != nil {
			return nil, err
		}
		out[id] = n
	}
	return out, rows.Err()
}

func (s *SQLiteStore) IsSubmitted(userID string, year int) (bool, error) {
	var n int
	err := s.db.QueryRowContext(contextBg(), `SELECT COUNT(*) FROM submissions WHERE user_id = ? AND year = ?`, userID, year).Scan(&n)
	return n > 0, err
}

func (s *SQLiteStore) MarkSubmitted(userID string, year int) error {
	_, err := s.db.ExecContext(contextBg(),
		`INSERT OR IGNORE INTO submissions (user_id, year, submitted_at) VALUES (?, ?, ?)`,
		userID, year, formatTime(time.Now()))
	return err
}

// groups

const groupColumns = `id, client_id, name, display_name, is_default, is_global, show_in_table, invitation_token`

type rowScanner interface{ Scan(dest ...any) error }

func scanGroup(row rowScanner) (*services.Group, error) {
	var g services.Group
	var isDefault, isGlobal, show int64
	if err := row.Scan(&g.ID, &g.ClientID, &g.Name, &g.DisplayName, &isDefault, &isGlobal, &show, &g.InvitationToken); err != nil {
		return nil, err
	}
	g.IsDefault, g.IsGlobal, g.ShowInTable = int64ToBool(isDefault), int64ToBool(isGlobal), int64ToBool(show)
	return &g, nil
}

func (s *SQLiteStore) AddGroup(g *services.Group) error {
	_, err := s.db.ExecContext(contextBg(),
		`INSERT INTO stakeholder_groups (`+groupColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		g.ID, g.ClientID, g.Name, g.DisplayName, boolToInt64(g.IsDefault), boolToInt64(g.IsGlobal), boolToInt64(g.ShowInTable), g.InvitationToken)
	return err
}

func (s *SQLiteStore) UpdateGroup(g *services.Group) error {
	res, err := s.db.ExecContext(contextBg(),
		`UPDATE stakeholder_groups SET name = ?, display_name = ?, is_default = ?, is_global = ?, show_in_table = ?, invitation_token = ? WHERE id = ?`,
		g.Name, g.DisplayName, boolToInt64(g.IsDefault), boolToInt64(g.IsGlobal), boolToInt64(g.ShowInTable), g.InvitationToken, g.ID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return services.NewNotFoundError("group not found")
	}
	return nil
}

func (s *SQLiteStore) GetGroup(id string) (*services.Group, error) {
	g, err := scanGroup(s.db.QueryRowContext(contextBg(), `SELECT `+groupColumns+` FROM stakeholder_groups WHERE id = ?`, id))
	if err != nil {
		return nil, noRows(err)
	}
	return g, nil
}

func (s *SQLiteStore) FindGroupByInvitation(token string) (*services.Group, error) {
	if token == "" {
		return nil, nil
	}
	g, err := scanGroup(s.db.QueryRowContext(contextBg(), `SELECT `+groupColumns+` FROM stakeholder_groups WHERE invitation_token = ?`, token))
	if err != nil {
		return nil, noRows(err)
	}
	return g, nil
}

// ListGroups returns global groups first, then the client's groups by name.
func (s *SQLiteStore) ListGroups(clientID string) ([]*services.Group, error) {
	rows, err := s.db.QueryContext(contextBg(),
		`SELECT `+groupColumns+` FROM stakeholder_groups WHERE is_global = 1 OR client_id = ? ORDER BY is_global DESC, name, id`, clientID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*services.Group
	for rows.Next() {
		g, err := scanGroup(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

// stakeholders

const stakeholderColumns = `id, group_id, email, first_name, last_name, status, user_id`

func scanStakeholder(row rowScanner) (*services.Stakeholder, error) {
	var st services.Stakeholder
	var status string
	if err := row.Scan(&st.ID, &st.GroupID, &st.Email, &st.FirstName, &st.LastName, &status, &st.UserID); err != nil {
		return nil, err
	}
	st.Status = models.StakeholderStatus(status)
	return &st, nil
}

func (s *SQLiteStore) ListStakeholders(groupID string) ([]*services.Stakeholder, error) {
	rows, err := s.db.QueryContext(contextBg(), `SELECT `+stakeholderColumns+` FROM stakeholders WHERE group_id = ? ORDER BY email`, groupID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*services.Stakeholder
	for rows.Next() {
		st, err := scanStakeholder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, st)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) GetStakeholder(id string) (*services.Stakeholder, error) {
	st, err := scanStakeholder(s.db.QueryRowContext(contextBg(), `SELECT `+stakeholderColumns+` FROM stakeholders WHERE id = ?`, id))
	if err != nil {
		return nil, noRows(err)
	}
	return st, nil
}

func (s *SQLiteStore) AddStakeholder(st *services.Stakeholder) error {
	_, err := s.db.ExecContext(contextBg(),
		`INSERT INTO stakeholders (`+stakeholderColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		st.ID, st.GroupID, st.Email, st.FirstName, st.LastName, string(st.Status), st.UserID)
	return err
}

func (s *SQLiteStore) UpdateStakeholder(st *services.Stakeholder) error {
	_, err := s.db.ExecContext(contextBg(),
		`UPDATE stakeholders SET email = ?, first_name = ?, last_name = ?, status = ?, user_id = ? WHERE id = ?`,
		st.Email, st.FirstName, st.LastName, string(st.Status), st.UserID, st.ID)
	return err
}

// invitations

func (s *SQLiteStore) AddAdminInvite(inv *services.AdminInvite) error {
	_, err := s.db.ExecContext(contextBg(),
		`INSERT INTO admin_invites (token, client_id, email, accepted, expires_at) VALUES (?, ?, ?, ?, ?)`,
		inv.Token, inv.ClientID, inv.Email, boolToInt64(inv.Accepted), formatTime(inv.ExpiresAt))
	return err
}

func (s *SQLiteStore) GetAdminInvite(token string) (*services.AdminInvite, error) {
	var inv services.AdminInvite
	var accepted int64
	var expires string
	err := s.db.QueryRowContext(contextBg(), `SELECT token, client_id, email, accepted, expires_at FROM admin_invites WHERE token = ?`, token).
		Scan(&inv.Token, &inv.ClientID, &inv.Email, &accepted, &expires)
	if err != nil {
		return nil, noRows(err)
	}
	inv.Accepted = int64ToBool(accepted)
	inv.ExpiresAt = parseTime(expires)
	return &inv, nil
}

func (s *SQLiteStore) UpdateAdminInvite(inv *services.AdminInvite) error {
	_, err := s.db.ExecContext(contextBg(),
		`UPDATE admin_invites SET email = ?, accepted = ?, expires_at = ? WHERE token = ?`,
		inv.Email, boolToInt64(inv.Accepted), formatTime(inv.ExpiresAt), inv.Token)
	return err
}
