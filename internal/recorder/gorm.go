package recorder

import (
	"fmt"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/rs/zerolog"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const insertBatchSize = 500

// GormBackend persists records through GORM. SQLite covers the common
// single-operator case; Postgres is for shared long-term storage.
type GormBackend struct {
	db  *gorm.DB
	log zerolog.Logger
}

// NewSqliteBackend opens (or creates) a SQLite blackbox file.
func NewSqliteBackend(log zerolog.Logger, path string) (*GormBackend, error) {
	db, err := gorm.Open(sqlite.Open(path), gormConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite blackbox %q: %w", path, err)
	}
	log.Info().Str("path", path).Msg("Opened SQLite blackbox")
	return &GormBackend{db: db, log: log}, nil
}

// PostgresConfig holds Postgres connection settings.
type PostgresConfig struct {
	Host     string
	Port     string
	Username string
	Password string
	Database string
}

// NewPostgresBackend connects to a Postgres blackbox database.
func NewPostgresBackend(log zerolog.Logger, cfg PostgresConfig) (*GormBackend, error) {
	dsn := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		cfg.Host, cfg.Port, cfg.Username, cfg.Password, cfg.Database,
	)
	db, err := gorm.Open(postgres.Open(dsn), gormConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres blackbox: %w", err)
	}
	log.Info().Str("host", cfg.Host).Str("database", cfg.Database).Msg("Connected to Postgres blackbox")
	return &GormBackend{db: db, log: log}, nil
}

func gormConfig() *gorm.Config {
	return &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// Init migrates the blackbox schema.
func (b *GormBackend) Init() error {
	if err := b.db.AutoMigrate(&FrameRecord{}, &SessionEvent{}); err != nil {
		return fmt.Errorf("failed to migrate blackbox schema: %w", err)
	}
	return nil
}

// Close releases the underlying connection pool.
func (b *GormBackend) Close() error {
	sqlDB, err := b.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// WriteFrames inserts a frame batch.
func (b *GormBackend) WriteFrames(frames []FrameRecord) error {
	if len(frames) == 0 {
		return nil
	}
	return b.db.CreateInBatches(frames, insertBatchSize).Error
}

// WriteEvent inserts one session event.
func (b *GormBackend) WriteEvent(event SessionEvent) error {
	return b.db.Create(&event).Error
}

// ReadFrames returns all stored frames in capture order.
func (b *GormBackend) ReadFrames() ([]FrameRecord, error) {
	frames := []FrameRecord{}
	err := b.db.Model(&FrameRecord{}).Order("time ASC").Find(&frames).Error
	if err != nil {
		return nil, fmt.Errorf("error reading frames: %w", err)
	}
	return frames, nil
}

// ReadEvents returns all stored session events in capture order.
func (b *GormBackend) ReadEvents() ([]SessionEvent, error) {
	events := []SessionEvent{}
	err := b.db.Model(&SessionEvent{}).Order("time ASC").Find(&events).Error
	if err != nil {
		return nil, fmt.Errorf("error reading events: %w", err)
	}
	return events, nil
}
