// Package storage keeps uploaded team code as versions in a SQLite database.
// Source text is stored once per SHA-256 digest and compressed with DEFLATE;
// versions reference code by digest and are indexed by scenario.
package storage

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/klauspost/compress/flate"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"github.com/zeusync/fleetsim/internal/core/observability/log"
)

var ErrNotFound = errors.New("not found")

const idLayout = "20060102-150405"

// Version is one saved upload of team code.
type Version struct {
	ID           string    `gorm:"primaryKey" json:"id"`
	ScenarioName string    `gorm:"index" json:"scenario_name"`
	Timestamp    time.Time `json:"timestamp"`
	Digest       string    `gorm:"index" json:"digest"`
	Label        string    `json:"label,omitempty"`
}

func (Version) TableName() string { return "versions" }

type codeBlob struct {
	Digest string `gorm:"primaryKey"`
	Data   []byte
}

func (codeBlob) TableName() string { return "code" }

type CreateVersionParams struct {
	Code         string
	ScenarioName string
	Label        string
}

// Digest returns the lowercase hex SHA-256 of code.
func Digest(code string) string {
	sum := sha256.Sum256([]byte(code))
	return hex.EncodeToString(sum[:])
}

type Option func(*VersionControl)

// WithClock replaces the time source used to stamp new versions.
func WithClock(now func() time.Time) Option {
	return func(vc *VersionControl) { vc.now = now }
}

func WithLogger(l log.Log) Option {
	return func(vc *VersionControl) { vc.logger = l }
}

// VersionControl is the code store. It is safe for concurrent use.
type VersionControl struct {
	db     *gorm.DB
	now    func() time.Time
	logger log.Log
}

// Open opens or creates the SQLite database at path. An empty path selects a
// private in-memory database.
func Open(path string, opts ...Option) (*VersionControl, error) {
	dsn := path
	if dsn == "" {
		dsn = "file::memory:"
	}
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open code store: %w", err)
	}
	if path == "" {
		// a memory database lives only as long as its connection
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		sqlDB.SetMaxOpenConns(1)
	}
	return New(db, opts...)
}

// New wraps an existing connection and migrates the schema.
func New(db *gorm.DB, opts ...Option) (*VersionControl, error) {
	vc := &VersionControl{
		db:     db,
		now:    time.Now,
		logger: log.NewNop(),
	}
	for _, opt := range opts {
		opt(vc)
	}
	if err := db.AutoMigrate(&Version{}, &codeBlob{}); err != nil {
		return nil, fmt.Errorf("migrate code store: %w", err)
	}
	return vc, nil
}

// CreateVersion saves code as a new version and returns it. Identical source
// is stored only once.
func (vc *VersionControl) CreateVersion(ctx context.Context, p CreateVersionParams) (*Version, error) {
	digest := Digest(p.Code)
	stamp := vc.now().UTC().Truncate(time.Second)
	v := &Version{
		ID:           stamp.Format(idLayout) + "-" + digest,
		ScenarioName: p.ScenarioName,
		Timestamp:    stamp,
		Digest:       digest,
		Label:        p.Label,
	}

	data, err := compress(p.Code)
	if err != nil {
		return nil, err
	}

	err = vc.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).
			Create(&codeBlob{Digest: digest, Data: data}).Error; err != nil {
			return err
		}
		return tx.Clauses(clause.OnConflict{UpdateAll: true}).Create(v).Error
	})
	if err != nil {
		return nil, fmt.Errorf("create version: %w", err)
	}

	vc.logger.Debug("version saved",
		log.String("id", v.ID),
		log.String("scenario", v.ScenarioName),
	)
	return v, nil
}

func (vc *VersionControl) GetVersion(ctx context.Context, id string) (*Version, error) {
	var v Version
	err := vc.db.WithContext(ctx).Where("id = ?", id).Take(&v).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// GetCode returns the source text stored under digest.
func (vc *VersionControl) GetCode(ctx context.Context, digest string) (string, error) {
	var blob codeBlob
	err := vc.db.WithContext(ctx).Where("digest = ?", digest).Take(&blob).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", err
	}
	return decompress(blob.Data)
}

// ListVersions returns the versions saved for scenario, newest first.
func (vc *VersionControl) ListVersions(ctx context.Context, scenario string) ([]Version, error) {
	var versions []Version
	err := vc.db.WithContext(ctx).
		Where("scenario_name = ?", scenario).
		Order("timestamp DESC").
		Order("id DESC").
		Find(&versions).Error
	if err != nil {
		return nil, err
	}
	return versions, nil
}

// DigestExists reports whether any version references digest.
func (vc *VersionControl) DigestExists(ctx context.Context, digest string) (bool, error) {
	var n int64
	err := vc.db.WithContext(ctx).Model(&Version{}).Where("digest = ?", digest).Count(&n).Error
	return n > 0, err
}

// CodeExists reports whether source text is stored under digest.
func (vc *VersionControl) CodeExists(ctx context.Context, digest string) (bool, error) {
	var n int64
	err := vc.db.WithContext(ctx).Model(&codeBlob{}).Where("digest = ?", digest).Count(&n).Error
	return n > 0, err
}

func (vc *VersionControl) Close() error {
	sqlDB, err := vc.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func compress(code string) ([]byte, error) {
	var buf bytes.Buffer
	w, err := flate.NewWriter(&buf, flate.BestCompression)
	if err != nil {
		return nil, err
	}
	if _, err = io.WriteString(w, code); err != nil {
		return nil, err
	}
	if err = w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decompress(data []byte) (string, error) {
	r := flate.NewReader(bytes.NewReader(data))
	defer r.Close()
	out, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("decompress code: %w", err)
	}
	return string(out), nil
}
