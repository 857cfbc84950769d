package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-sql-driver/mysql"

	"cabalhelper/internal/logger"
)

// ActionStop команда остановить сессию
const ActionStop = "stop"

// SessionRecord строка журнала сессий
type SessionRecord struct {
	ID          string
	Tool        string
	WindowTitle string
	Status      string
	StartedAt   time.Time
	UpdatedAt   time.Time
}

// Action удаленная команда для запущенного бота
type Action struct {
	ID        int64
	SessionID string
	Action    string
	CreatedAt time.Time
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS sessions (
		id CHAR(36) PRIMARY KEY,
		tool VARCHAR(64) NOT NULL,
		window_title VARCHAR(255) NOT NULL DEFAULT '',
		status VARCHAR(128) NOT NULL,
		started_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS actions (
		id INT AUTO_INCREMENT PRIMARY KEY,
		session_id CHAR(36) NOT NULL DEFAULT '',
		action VARCHAR(64) NOT NULL,
		executed TINYINT(1) NOT NULL DEFAULT 0,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	)`,
}

// NormalizeDSN включает parseTime, без него TIMESTAMP не сканируется в time.Time
func NormalizeDSN(dsn string) (string, error) {
	cfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		return "", fmt.Errorf("ошибка разбора DSN: %w", err)
	}
	cfg.ParseTime = true
	return cfg.FormatDSN(), nil
}

// Open подключается к MySQL и проверяет соединение
func Open(ctx context.Context, dsn string) (*sql.DB, error) {
	dsn, err := NormalizeDSN(dsn)
	if err != nil {
		return nil, err
	}
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("ошибка подключения к базе данных: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ошибка проверки подключения к базе данных: %w", err)
	}
	return db, nil
}

// DatabaseManager журнал сессий и очередь удаленных команд
type DatabaseManager struct {
	db     *sql.DB
	logger *logger.LoggerManager
}

// NewDatabaseManager создает новый экземпляр DatabaseManager
func NewDatabaseManager(db *sql.DB, loggerManager *logger.LoggerManager) *DatabaseManager {
	if loggerManager == nil {
		loggerManager = logger.NewNop()
	}
	return &DatabaseManager{
		db:     db,
		logger: loggerManager,
	}
}

// EnsureSchema создает таблицы, если их нет
func (h *DatabaseManager) EnsureSchema(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := h.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ошибка создания таблицы: %w", err)
		}
	}
	return nil
}

// RecordSessionStart добавляет сессию в журнал
func (h *DatabaseManager) RecordSessionStart(ctx context.Context, id, tool, windowTitle string) error {
	_, err := h.db.ExecContext(ctx,
		`INSERT INTO sessions (id, tool, window_title, status) VALUES (?, ?, ?, ?)`,
		id, tool, windowTitle, "Running")
	if err != nil {
		return fmt.Errorf("ошибка записи сессии: %w", err)
	}
	h.logger.Info("✅ Сессия %s (%s) записана в БД", id, tool)
	return nil
}

// UpdateSessionStatus обновляет статус сессии
func (h *DatabaseManager) UpdateSessionStatus(ctx context.Context, id, status string) error {
	_, err := h.db.ExecContext(ctx, `UPDATE sessions SET status = ? WHERE id = ?`, status, id)
	if err != nil {
		return fmt.Errorf("ошибка обновления статуса: %w", err)
	}
	return nil
}

// ListSessions последние сессии, новые первыми
func (h *DatabaseManager) ListSessions(ctx context.Context, limit int) ([]SessionRecord, error) {
	rows, err := h.db.QueryContext(ctx,
		`SELECT id, tool, window_title, status, started_at, updated_at FROM sessions ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []SessionRecord
	for rows.Next() {
		var r SessionRecord
		if err := rows.Scan(&r.ID, &r.Tool, &r.WindowTitle, &r.Status, &r.StartedAt, &r.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// AddAction ставит команду в очередь. Пустой sessionID адресует любую сессию.
func (h *DatabaseManager) AddAction(ctx context.Context, sessionID, action string) error {
	_, err := h.db.ExecContext(ctx, `INSERT INTO actions (session_id, action) VALUES (?, ?)`, sessionID, action)
	return err
}

// GetLatestUnexecutedAction самая свежая невыполненная команда или nil
func (h *DatabaseManager) GetLatestUnexecutedAction(ctx context.Context) (*Action, error) {
	var a Action
	err := h.db.QueryRowContext(ctx,
		`SELECT id, session_id, action, created_at FROM actions WHERE executed = 0 ORDER BY id DESC LIMIT 1`).
		Scan(&a.ID, &a.SessionID, &a.Action, &a.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// MarkActionAsExecuted помечает команду выполненной
func (h *DatabaseManager) MarkActionAsExecuted(ctx context.Context, id int64) error {
	_, err := h.db.ExecContext(ctx, `UPDATE actions SET executed = 1 WHERE id = ?`, id)
	return err
}
