package store

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// Gorm is the postgres-backed Store.
type Gorm struct {
	db *gorm.DB
}

func OpenPostgres(dsn string) (*Gorm, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.AutoMigrate(&GameRow{}, &VoteRow{}, &AuditRow{}, &MessageRow{}); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &Gorm{db: db}, nil
}

func (g *Gorm) Commit(ctx context.Context, up Update) error {
	return g.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if up.ClearRoom && up.Game != nil {
			if err := tx.Where("room_id = ?", up.Game.RoomID).Delete(&VoteRow{}).Error; err != nil {
				return err
			}
			if err := tx.Where("room_id = ?", up.Game.RoomID).Delete(&AuditRow{}).Error; err != nil {
				return err
			}
		}
		if up.Game != nil {
			if err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "room_id"}},
				UpdateAll: true,
			}).Create(up.Game).Error; err != nil {
				return err
			}
		}
		for i := range up.Votes {
			if err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "room_id"}, {Name: "voter_id"}, {Name: "day_number"}},
				DoUpdates: clause.AssignmentColumns([]string{"target_id"}),
			}).Create(&up.Votes[i]).Error; err != nil {
				return err
			}
		}
		if len(up.Audits) > 0 {
			if err := tx.Create(&up.Audits).Error; err != nil {
				return err
			}
		}
		if len(up.Messages) > 0 {
			if err := tx.Create(&up.Messages).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (g *Gorm) LoadGame(ctx context.Context, roomID string) (*GameRow, error) {
	var row GameRow
	err := g.db.WithContext(ctx).First(&row, "room_id = ?", roomID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (g *Gorm) VotesForDay(ctx context.Context, roomID string, day int) ([]VoteRow, error) {
	var rows []VoteRow
	err := g.db.WithContext(ctx).
		Where("room_id = ? AND day_number = ?", roomID, day).
		Find(&rows).Error
	return rows, err
}

func (g *Gorm) AuditTrail(ctx context.Context, roomID string) ([]AuditRow, error) {
	var rows []AuditRow
	err := g.db.WithContext(ctx).
		Where("room_id = ?", roomID).
		Order("id asc").
		Find(&rows).Error
	return rows, err
}

func (g *Gorm) RoomMessages(ctx context.Context, roomID string, limit int) ([]MessageRow, error) {
	var rows []MessageRow
	err := g.db.WithContext(ctx).
		Where("room_id = ?", roomID).
		Order("id desc").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}
