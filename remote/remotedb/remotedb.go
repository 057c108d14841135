// Package remotedb is a sync backend storing sessions in a SQL database
// through GORM.
package remotedb

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/ayoisaiah/studytime/internal/apperr"
	"github.com/ayoisaiah/studytime/internal/mode"
	"github.com/ayoisaiah/studytime/internal/models"
)

// Supported dialects.
const (
	DialectPostgres = "postgres"
	DialectSQLite   = "sqlite"
)

var errUnknownDialect = &apperr.Error{
	Message: "unknown database dialect: %s",
}

// SessionRow is the stored form of a session.
type SessionRow struct {
	CompletedAt    time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
	DeletedAt      gorm.DeletedAt `gorm:"index"`
	PlannedSeconds *int
	CorrectCount   *int
	TotalCount     *int
	ID             string `gorm:"primaryKey;size:36"`
	UserID         string `gorm:"index;not null;size:255"`
	Mode           string `gorm:"size:32;not null"`
	Note           string
	Mood           string `gorm:"size:32"`
	SectionBreaks  []int  `gorm:"serializer:json"`
	ElapsedSeconds int
	Score          int
	Pauses         int
}

func (SessionRow) TableName() string {
	return "study_sessions"
}

func toRow(r *models.Row) SessionRow {
	row := SessionRow{
		ID:             r.ID,
		UserID:         r.UserID,
		Mode:           string(r.Mode),
		CompletedAt:    r.CompletedAt,
		ElapsedSeconds: r.ElapsedSeconds,
		PlannedSeconds: r.PlannedSeconds,
		Pauses:         r.Pauses,
		Score:          r.Score,
		Note:           r.Note,
		Mood:           string(r.Mood),
		SectionBreaks:  r.SectionBreaks,
	}

	if r.Correctness != nil {
		row.CorrectCount = &r.Correctness.Correct
		row.TotalCount = &r.Correctness.Total
	}

	return row
}

func fromRow(row *SessionRow) models.Row {
	r := models.Row{
		UserID: row.UserID,
		Session: models.Session{
			ID:             row.ID,
			Mode:           mode.Kind(row.Mode),
			CompletedAt:    row.CompletedAt,
			ElapsedSeconds: row.ElapsedSeconds,
			PlannedSeconds: row.PlannedSeconds,
			Pauses:         row.Pauses,
			Score:          row.Score,
			Note:           row.Note,
			Mood:           models.Mood(row.Mood),
			SectionBreaks:  row.SectionBreaks,
		},
	}

	if row.CorrectCount != nil && row.TotalCount != nil {
		r.Correctness = &models.Correctness{
			Correct: *row.CorrectCount,
			Total:   *row.TotalCount,
		}
	}

	return r
}

// Backend implements syncq.Backend over a GORM connection.
type Backend struct {
	db *gorm.DB
}

// Open connects to the database and migrates the schema.
func Open(dialect, dsn string, log *slog.Logger) (*Backend, error) {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	var dialector gorm.Dialector

	switch dialect {
	case DialectPostgres:
		dialector = postgres.Open(dsn)
	case DialectSQLite:
		dialector = sqlite.Open(dsn)
	default:
		return nil, errUnknownDialect.Fmt(dialect)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		NowFunc: func() time.Time { return time.Now().UTC() },
		Logger:  newGormLogger(log),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open %s database: %w", dialect, err)
	}

	if err := db.AutoMigrate(&SessionRow{}); err != nil {
		return nil, fmt.Errorf("failed to migrate session schema: %w", err)
	}

	return &Backend{db: db}, nil
}

// Upsert creates or replaces the row, reviving it if it was soft deleted.
// Rows owned by another user are left untouched.
func (b *Backend) Upsert(ctx context.Context, r *models.Row) error {
	row := toRow(r)

	return b.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		UpdateAll: true,
		Where: clause.Where{Exprs: []clause.Expression{
			clause.Eq{
				Column: clause.Column{Table: row.TableName(), Name: "user_id"},
				Value:  row.UserID,
			},
		}},
	}).Create(&row).Error
}

// SoftDelete marks the user's row as deleted. Deleting a missing row is not
// an error.
func (b *Backend) SoftDelete(ctx context.Context, userID, sessionID string) error {
	return b.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", sessionID, userID).
		Delete(&SessionRow{}).Error
}

// Ping checks the database connection.
func (b *Backend) Ping(ctx context.Context) error {
	sqlDB, err := b.db.DB()
	if err != nil {
		return err
	}

	return sqlDB.PingContext(ctx)
}

// Sessions returns the user's rows that are not deleted, most recent first.
func (b *Backend) Sessions(ctx context.Context, userID string) ([]models.Row, error) {
	var rows []SessionRow

	err := b.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("completed_at desc").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	out := make([]models.Row, 0, len(rows))

	for i := range rows {
		out = append(out, fromRow(&rows[i]))
	}

	return out, nil
}

// Close closes the underlying connection pool.
func (b *Backend) Close() error {
	sqlDB, err := b.db.DB()
	if err != nil {
		return err
	}

	return sqlDB.Close()
}
