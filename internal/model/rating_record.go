package model

import "time"

// RatingRecord 一条评分（idea, user 唯一）
type RatingRecord struct {
	ID          string `gorm:"primaryKey;type:varchar(36)"`
	IdeaID      int64  `gorm:"not null;index:idx_rating_pair,unique"`
	UserID      int64  `gorm:"not null;index:idx_rating_pair,unique"`
	// idx_rating_pair = (idea_id, user_id)，避免重复评分
	Novelty     int       `gorm:"not null"`
	Feasibility int       `gorm:"not null"`
	CreatedAt   time.Time `gorm:"index"`
}

func (RatingRecord) TableName() string { return "ratings" }

// RatingEvent 评分事件外发盒，趋势 worker 消费
type RatingEvent struct {
	ID          string    `gorm:"primaryKey;type:varchar(36)"`
	RatingID    string    `gorm:"type:varchar(36);uniqueIndex"`
	IdeaID      int64     `gorm:"index:idx_event_idea"`
	CreatedAt   time.Time `gorm:"index"`
	Status      string    `gorm:"type:varchar(16);index"` // pending, processing, done
	ProcessedAt *time.Time
}

func (RatingEvent) TableName() string { return "rating_events" }

const (
	EventPending    = "pending"
	EventProcessing = "processing"
	EventDone       = "done"
)
