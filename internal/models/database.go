package models

// GORM models

import (
	"database/sql/driver"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	"gorm.io/gorm"
)

// ErrNotFound is returned by repository lookups that match no row.
var ErrNotFound = errors.New("record not found")

// StringArray is a PostgreSQL text[] column. Encoding and decoding go
// through pgx's array codec, so elements with commas, quotes or braces
// survive the round trip.
type StringArray []string

func (s StringArray) Value() (driver.Value, error) {
	if len(s) == 0 {
		return "{}", nil
	}
	buf, err := pgtype.NewMap().Encode(pgtype.TextArrayOID, pgtype.TextFormatCode, []string(s), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to encode string array: %w", err)
	}
	return string(buf), nil
}

func (s *StringArray) Scan(value interface{}) error {
	var src []byte
	switch v := value.(type) {
	case nil:
		*s = StringArray{}
		return nil
	case string:
		src = []byte(v)
	case []byte:
		src = v
	default:
		return fmt.Errorf("cannot scan %T into StringArray", value)
	}

	var out []string
	if err := pgtype.NewMap().Scan(pgtype.TextArrayOID, pgtype.TextFormatCode, src, &out); err != nil {
		return fmt.Errorf("failed to decode string array: %w", err)
	}
	if out == nil {
		out = []string{}
	}
	*s = StringArray(out)
	return nil
}

// Base model with common fields
type BaseModel struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TopicFilter maps question keywords to the standards a search is narrowed to.
type TopicFilter struct {
	BaseModel
	Name            string      `json:"name" gorm:"unique;not null"`
	Keywords        StringArray `json:"keywords" gorm:"type:text[]"`
	StandardNumbers StringArray `json:"standard_numbers" gorm:"type:text[]"`
	SectionTitles   StringArray `json:"section_titles" gorm:"type:text[]"`
	IsActive        bool        `json:"is_active" gorm:"default:false"`
}

// SystemHealth represents service health monitoring
type SystemHealth struct {
	ID             uint      `json:"id" gorm:"primaryKey"`
	ServiceName    string    `json:"service_name" gorm:"not null"`
	Status         string    `json:"status" gorm:"not null;check:status IN ('healthy','degraded','unhealthy')"`
	ResponseTimeMs int       `json:"response_time_ms"`
	ErrorMessage   string    `json:"error_message"`
	CheckedAt      time.Time `json:"checked_at" gorm:"default:NOW()"`
}

type TopicFilterRepository interface {
	Create(filter *TopicFilter) error
	GetByName(name string) (*TopicFilter, error)
	GetActive() ([]TopicFilter, error)
	Update(filter *TopicFilter) error
	Delete(id uint) error
}

type SystemHealthRepository interface {
	UpdateServiceHealth(serviceName, status string, responseTime int, errorMsg string) error
	GetAllServicesHealth() ([]SystemHealth, error)
}

func (TopicFilter) TableName() string  { return "topic_filters" }
func (SystemHealth) TableName() string { return "system_health" }

func (tf *TopicFilter) Validate() error {
	if tf.Name == "" {
		return fmt.Errorf("topic filter name is required")
	}
	if len(tf.Keywords) == 0 {
		return fmt.Errorf("topic filter %s has no keywords", tf.Name)
	}
	if len(tf.StandardNumbers) == 0 && len(tf.SectionTitles) == 0 {
		return fmt.Errorf("topic filter %s restricts nothing", tf.Name)
	}
	return nil
}

// GORM hooks
func (tf *TopicFilter) BeforeCreate(tx *gorm.DB) error {
	return tf.Validate()
}

func (tf *TopicFilter) BeforeUpdate(tx *gorm.DB) error {
	return tf.Validate()
}
