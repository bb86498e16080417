package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/mattn/go-sqlite3"

	"github.com/soaringjerry/Solace/internal/api"
	"github.com/soaringjerry/Solace/internal/scoring"
	"github.com/soaringjerry/Solace/internal/services"
)

type SQLiteStore struct {
	db *sql.DB
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

func NewStore(db *sql.DB) (api.Store, error) {
	return NewSQLiteStore(db)
}

func (s *SQLiteStore) logErr(prefix string, err error) {
	if err != nil {
		log.Printf("sqlite store: %s: %v", prefix, err)
	}
}

func isUniqueViolation(err error) bool {
	var se sqlite3.Error
	return errors.As(err, &se) && se.ExtendedCode == sqlite3.ErrConstraintUnique
}

func boolToInt64(v bool) int64 {
	if v {
		return 1
	}
	return 0
}

func encodeAnswers(v []int) (string, error) {
	if v == nil {
		v = []int{}
	}
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func decodeAnswers(raw string) []int {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	var out []int
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		log.Printf("sqlite store: decode answers: %v", err)
		return nil
	}
	return out
}

func toNullTime(t *time.Time) sql.NullTime {
	if t == nil || t.IsZero() {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}

func fromNullTime(nt sql.NullTime) *time.Time {
	if !nt.Valid {
		return nil
	}
	t := nt.Time.UTC()
	return &t
}

// ----- users -----

const userColumns = "id, username, email, pass_hash, created_at"

func scanUser(row interface{ Scan(...any) error }) (*services.User, error) {
	var u services.User
	if err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PassHash, &u.CreatedAt); err != nil {
		return nil, err
	}
	u.CreatedAt = u.CreatedAt.UTC()
	return &u, nil
}

func (s *SQLiteStore) findUser(ctx context.Context, op, where string, arg any) (*services.User, error) {
	u, err := scanUser(s.db.QueryRowContext(ctx, "SELECT "+userColumns+" FROM users WHERE "+where, arg))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		s.logErr(op, err)
		return nil, err
	}
	return u, nil
}

func (s *SQLiteStore) AddUser(ctx context.Context, u *services.User) error {
	if u == nil {
		return errors.New("nil user")
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO users (id, username, email, pass_hash, created_at) VALUES (?, ?, ?, ?, ?)",
		u.ID, u.Username, u.Email, u.PassHash, u.CreatedAt.UTC())
	if isUniqueViolation(err) {
		return services.NewConflictError("Username or email already exists")
	}
	s.logErr("AddUser", err)
	return err
}

func (s *SQLiteStore) GetUser(ctx context.Context, id string) (*services.User, error) {
	return s.findUser(ctx, "GetUser", "id = ?", id)
}

func (s *SQLiteStore) FindUserByUsername(ctx context.Context, username string) (*services.User, error) {
	return s.findUser(ctx, "FindUserByUsername", "username = ?", username)
}

func (s *SQLiteStore) FindUserByEmail(ctx context.Context, email string) (*services.User, error) {
	return s.findUser(ctx, "FindUserByEmail", "email = ?", strings.ToLower(email))
}

// ----- assessments -----

func (s *SQLiteStore) AddAssessment(ctx context.Context, a *services.Assessment) error {
	if a == nil {
		return errors.New("nil assessment")
	}
	phq, err := encodeAnswers(a.PHQ9Answers)
	if err != nil {
		return err
	}
	gad, err := encodeAnswers(a.GAD7Answers)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO assessments (id, user_id, phq9_answers, gad7_answers, phq9_score, gad7_score, stress_level, risk_level, notes, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.UserID, phq, gad, a.PHQ9Score, a.GAD7Score, a.StressLevel, a.RiskLevel.String(), a.Notes, a.CreatedAt.UTC())
	s.logErr("AddAssessment", err)
	return err
}

func (s *SQLiteStore) ListAssessments(ctx context.Context, userID string, limit int) ([]*services.Assessment, error) {
	q := `SELECT id, user_id, phq9_answers, gad7_answers, phq9_score, gad7_score, stress_level, risk_level, notes, created_at
	      FROM assessments WHERE user_id = ? ORDER BY created_at DESC, rowid DESC`
	args := []any{userID}
	if limit > 0 {
		q += " LIMIT ?"
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		s.logErr("ListAssessments", err)
		return nil, err
	}
	defer rows.Close()
	out := []*services.Assessment{}
	for rows.Next() {
		var (
			a        services.Assessment
			phq, gad string
			tier     string
		)
		if err := rows.Scan(&a.ID, &a.UserID, &phq, &gad, &a.PHQ9Score, &a.GAD7Score, &a.StressLevel, &tier, &a.Notes, &a.CreatedAt); err != nil {
			s.logErr("ListAssessments scan", err)
			return nil, err
		}
		a.PHQ9Answers = decodeAnswers(phq)
		a.GAD7Answers = decodeAnswers(gad)
		if t, ok := scoring.ParseTier(tier); ok {
			a.RiskLevel = t
		} else {
			a.RiskLevel = scoring.CombinedRisk(a.PHQ9Score, a.GAD7Score, a.StressLevel)
		}
		a.CreatedAt = a.CreatedAt.UTC()
		out = append(out, &a)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) count(ctx context.Context, op, q string, args ...any) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, q, args...).Scan(&n); err != nil {
		s.logErr(op, err)
		return 0, err
	}
	return n, nil
}

func (s *SQLiteStore) CountAssessments(ctx context.Context, userID string) (int, error) {
	return s.count(ctx, "CountAssessments", "SELECT COUNT(*) FROM assessments WHERE user_id = ?", userID)
}

// ----- chat -----

const sessionColumns = "id, user_id, title, message_count, started_at, last_message_at"

func scanSession(row interface{ Scan(...any) error }) (*services.ChatSession, error) {
	var (
		sess services.ChatSession
		last sql.NullTime
	)
	if err := row.Scan(&sess.ID, &sess.UserID, &sess.Title, &sess.MessageCount, &sess.StartedAt, &last); err != nil {
		return nil, err
	}
	sess.StartedAt = sess.StartedAt.UTC()
	sess.LastMessageAt = fromNullTime(last)
	return &sess, nil
}

func (s *SQLiteStore) GetSession(ctx context.Context, id string) (*services.ChatSession, error) {
	sess, err := scanSession(s.db.QueryRowContext(ctx, "SELECT "+sessionColumns+" FROM chat_sessions WHERE id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		s.logErr("GetSession", err)
		return nil, err
	}
	return sess, nil
}

func (s *SQLiteStore) SaveExchange(ctx context.Context, sess *services.ChatSession, msgs ...*services.ChatMessage) error {
	if sess == nil {
		return errors.New("nil session")
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		s.logErr("SaveExchange begin", err)
		return err
	}
	defer func() { _ = tx.Rollback() }()

	var added []*services.ChatMessage
	for _, m := range msgs {
		if m != nil {
			added = append(added, m)
		}
	}
	res, err := tx.ExecContext(ctx,
		`INSERT INTO chat_sessions (id, user_id, title, message_count, started_at, last_message_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   message_count = chat_sessions.message_count + excluded.message_count,
		   last_message_at = excluded.last_message_at
		 WHERE chat_sessions.user_id = excluded.user_id`,
		sess.ID, sess.UserID, sess.Title, len(added), sess.StartedAt.UTC(), toNullTime(sess.LastMessageAt))
	if err != nil {
		s.logErr("SaveExchange session", err)
		return err
	}
	if n, err := res.RowsAffected(); err != nil {
		s.logErr("SaveExchange rows", err)
		return err
	} else if n == 0 {
		return services.NewNotFoundError("Session not found")
	}
	for _, m := range added {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO chat_messages (id, session_id, user_id, message_text, sender, crisis_detected, created_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			m.ID, sess.ID, m.UserID, m.Text, m.Sender, boolToInt64(m.CrisisDetected), m.CreatedAt.UTC())
		if err != nil {
			s.logErr("SaveExchange message", err)
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		s.logErr("SaveExchange commit", err)
		return err
	}
	return nil
}

func (s *SQLiteStore) ListSessions(ctx context.Context, userID string) ([]*services.ChatSession, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+sessionColumns+` FROM chat_sessions WHERE user_id = ?
		 ORDER BY COALESCE(last_message_at, started_at) DESC, rowid DESC`, userID)
	if err != nil {
		s.logErr("ListSessions", err)
		return nil, err
	}
	defer rows.Close()
	out := []*services.ChatSession{}
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			s.logErr("ListSessions scan", err)
			return nil, err
		}
		out = append(out, sess)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) ListMessages(ctx context.Context, sessionID string, limit int) ([]*services.ChatMessage, error) {
	q := `SELECT id, session_id, user_id, message_text, sender, crisis_detected, created_at
	      FROM chat_messages WHERE session_id = ?`
	args := []any{sessionID}
	if limit > 0 {
		q += " ORDER BY created_at DESC, rowid DESC LIMIT ?"
		args = append(args, limit)
	} else {
		q += " ORDER BY created_at, rowid"
	}
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		s.logErr("ListMessages", err)
		return nil, err
	}
	defer rows.Close()
	out := []*services.ChatMessage{}
	for rows.Next() {
		var (
			m      services.ChatMessage
			crisis int64
		)
		if err := rows.Scan(&m.ID, &m.SessionID, &m.UserID, &m.Text, &m.Sender, &crisis, &m.CreatedAt); err != nil {
			s.logErr("ListMessages scan", err)
			return nil, err
		}
		m.CrisisDetected = crisis != 0
		m.CreatedAt = m.CreatedAt.UTC()
		out = append(out, &m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if limit > 0 {
		for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
			out[i], out[j] = out[j], out[i]
		}
	}
	return out, nil
}

func (s *SQLiteStore) DeleteSession(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		s.logErr("DeleteSession begin", err)
		return err
	}
	defer func() { _ = tx.Rollback() }()
	if _, err := tx.ExecContext(ctx, "DELETE FROM chat_messages WHERE session_id = ?", id); err != nil {
		s.logErr("DeleteSession messages", err)
		return err
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM chat_sessions WHERE id = ?", id); err != nil {
		s.logErr("DeleteSession", err)
		return err
	}
	return tx.Commit()
}

func (s *SQLiteStore) CountSessions(ctx context.Context, userID string) (int, error) {
	return s.count(ctx, "CountSessions", "SELECT COUNT(*) FROM chat_sessions WHERE user_id = ?", userID)
}

func (s *SQLiteStore) CountSessionsSince(ctx context.Context, userID string, since time.Time) (int, error) {
	return s.count(ctx, "CountSessionsSince",
		"SELECT COUNT(*) FROM chat_sessions WHERE user_id = ? AND COALESCE(last_message_at, started_at) >= ?",
		userID, since.UTC())
}

func (s *SQLiteStore) CountCrisisMessages(ctx context.Context, userID string) (int, error) {
	return s.count(ctx, "CountCrisisMessages",
		"SELECT COUNT(*) FROM chat_messages WHERE user_id = ? AND crisis_detected = 1", userID)
}

// ----- admin -----

func (s *SQLiteStore) SystemStats(ctx context.Context) (*services.SystemStats, error) {
	var st services.SystemStats
	err := s.db.QueryRowContext(ctx, `SELECT
		(SELECT COUNT(*) FROM users),
		(SELECT COUNT(*) FROM chat_messages),
		(SELECT COUNT(*) FROM assessments),
		(SELECT COUNT(*) FROM chat_messages WHERE crisis_detected = 1),
		(SELECT COUNT(*) FROM chat_sessions)`).
		Scan(&st.TotalUsers, &st.TotalConversations, &st.TotalAssessments, &st.TotalCrisisMessages, &st.TotalSessions)
	if err != nil {
		s.logErr("SystemStats", err)
		return nil, err
	}
	return &st, nil
}

// ----- retention -----

func (s *SQLiteStore) PruneChatBefore(ctx context.Context, cutoff time.Time) (int64, int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		s.logErr("PruneChatBefore begin", err)
		return 0, 0, err
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx, "DELETE FROM chat_messages WHERE created_at < ?", cutoff.UTC())
	if err != nil {
		s.logErr("PruneChatBefore messages", err)
		return 0, 0, err
	}
	msgs, _ := res.RowsAffected()

	res, err = tx.ExecContext(ctx,
		`DELETE FROM chat_sessions
		 WHERE COALESCE(last_message_at, started_at) < ?
		   AND NOT EXISTS (SELECT 1 FROM chat_messages m WHERE m.session_id = chat_sessions.id)`, cutoff.UTC())
	if err != nil {
		s.logErr("PruneChatBefore sessions", err)
		return 0, 0, err
	}
	sessions, _ := res.RowsAffected()

	if msgs > 0 {
		_, err = tx.ExecContext(ctx,
			`UPDATE chat_sessions SET message_count =
			   (SELECT COUNT(*) FROM chat_messages m WHERE m.session_id = chat_sessions.id)`)
		if err != nil {
			s.logErr("PruneChatBefore counts", err)
			return 0, 0, err
		}
	}
	if err := tx.Commit(); err != nil {
		s.logErr("PruneChatBefore commit", err)
		return 0, 0, err
	}
	return msgs, sessions, nil
}
