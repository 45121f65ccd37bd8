package audit

import (
	"context"
	"fmt"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/MrSnakeDoc/patientshare/internal/domain"
)

// webhookLog is the persisted form of domain.WebhookAttempt.
type webhookLog struct {
	ID            string    `gorm:"primaryKey;type:varchar(36)"`
	Source        string    `gorm:"type:varchar(255);not null"`
	Payload       string    `gorm:"type:text"`
	Success       bool      `gorm:"not null;index"`
	FailureReason string    `gorm:"type:varchar(64)"`
	ClientKey     string    `gorm:"type:varchar(64)"`
	CreatedAt     time.Time `gorm:"not null;index"`
}

func (webhookLog) TableName() string { return "webhook_logs" }

// Gorm stores attempts in a SQL database through GORM.
type Gorm struct {
	db    *gorm.DB
	nowFn func() time.Time
}

var _ Recorder = (*Gorm)(nil)

// OpenSQLite opens (creating if needed) a SQLite audit database at dsn and
// migrates the schema. Use ":memory:" for a throwaway log.
func OpenSQLite(dsn string) (*Gorm, error) {
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open audit database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get audit connection pool: %w", err)
	}
	// SQLite allows a single writer; an in-memory database also exists
	// per connection only.
	sqlDB.SetMaxOpenConns(1)

	return NewGorm(db)
}

// NewGorm wraps an open database and migrates the audit table.
func NewGorm(db *gorm.DB) (*Gorm, error) {
	if err := db.AutoMigrate(&webhookLog{}); err != nil {
		return nil, fmt.Errorf("failed to migrate audit table: %w", err)
	}
	return &Gorm{db: db, nowFn: time.Now}, nil
}

func (g *Gorm) Record(ctx context.Context, a *domain.WebhookAttempt) error {
	prepare(a, g.nowFn)

	row := webhookLog{
		ID:            a.ID,
		Source:        a.Source,
		Payload:       a.Payload,
		Success:       a.Success,
		FailureReason: a.FailureReason,
		ClientKey:     a.ClientKey,
		CreatedAt:     a.CreatedAt,
	}
	if err := g.db.WithContext(ctx).Create(&row).Error; err != nil {
		return fmt.Errorf("failed to insert webhook log: %w", err)
	}
	return nil
}

func (g *Gorm) Recent(ctx context.Context, limit int) ([]domain.WebhookAttempt, error) {
	var rows []webhookLog
	err := g.db.WithContext(ctx).
		Order("created_at DESC").
		Limit(clampLimit(limit)).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list webhook logs: %w", err)
	}

	out := make([]domain.WebhookAttempt, 0, len(rows))
	for _, r := range rows {
		out = append(out, domain.WebhookAttempt{
			ID:            r.ID,
			Source:        r.Source,
			Payload:       r.Payload,
			Success:       r.Success,
			FailureReason: r.FailureReason,
			ClientKey:     r.ClientKey,
			CreatedAt:     r.CreatedAt,
		})
	}
	return out, nil
}

// Close closes the underlying connection pool.
func (g *Gorm) Close() error {
	sqlDB, err := g.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
