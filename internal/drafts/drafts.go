// Package drafts keeps unsaved snapshots of a day so an interrupted shift can
// pick up where it left off.
package drafts

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"bey-cash/internal/models"
	"bey-cash/internal/reconcile"

	"gorm.io/gorm"
)

// Draft is the snapshot written after each burst of edits.
type Draft struct {
	Date      string          `json:"date"`
	Timestamp time.Time       `json:"timestamp"`
	Data      reconcile.Sheet `json:"data"`
}

// Store persists drafts by date.
type Store interface {
	Save(ctx context.Context, d Draft) error
	// Load returns nil when no usable draft exists for date.
	Load(ctx context.Context, date string) (*Draft, error)
	Delete(ctx context.Context, date string) error
}

// Key is the storage key of the draft of userID for date.
func Key(userID uint, date string) string {
	return fmt.Sprintf("draft:%d:%s", userID, date)
}

// DBStore keeps the drafts of one user in the drafts table.
type DBStore struct {
	db     *gorm.DB
	userID uint
}

func NewDBStore(db *gorm.DB, userID uint) *DBStore {
	return &DBStore{db: db, userID: userID}
}

var _ Store = (*DBStore)(nil)

func (s *DBStore) Save(ctx context.Context, d Draft) error {
	if err := reconcile.ValidateDate(d.Date); err != nil {
		return err
	}
	b, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("encode draft: %w", err)
	}
	row := models.Draft{
		Key:     Key(s.userID, d.Date),
		UserID:  s.userID,
		Date:    d.Date,
		Data:    string(b),
		SavedAt: d.Timestamp,
	}
	return s.db.WithContext(ctx).Save(&row).Error
}

// Load reads the draft of date. A corrupt snapshot counts as no draft.
func (s *DBStore) Load(ctx context.Context, date string) (*Draft, error) {
	var row models.Draft
	err := s.db.WithContext(ctx).Where("draft_key = ?", Key(s.userID, date)).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var d Draft
	if err := json.Unmarshal([]byte(row.Data), &d); err != nil {
		log.Printf("draft %s: corrupt snapshot ignored: %v", row.Key, err)
		return nil, nil
	}
	if d.Date != date {
		log.Printf("draft %s: snapshot is for %q, ignored", row.Key, d.Date)
		return nil, nil
	}
	return &d, nil
}

func (s *DBStore) Delete(ctx context.Context, date string) error {
	return s.db.WithContext(ctx).Where("draft_key = ?", Key(s.userID, date)).Delete(&models.Draft{}).Error
}
