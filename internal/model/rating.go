package model

import "time"

const (
	MinRating = 1
	MaxRating = 5
)

// Rating 每个用户对每个创意至多一条
type Rating struct {
	IdeaID      int64 `json:"ideaId"`
	UserID      int64 `json:"userId"`
	Novelty     int   `json:"novelty"`
	Feasibility int   `json:"feasibility"`
}

// RatingInput 提交评分请求体，两个维度都必须在 1..5
type RatingInput struct {
	Novelty     int `json:"novelty" validate:"min=1,max=5"`
	Feasibility int `json:"feasibility" validate:"min=1,max=5"`
}

// RatedMark 本地记录：某用户已经评过某创意（"已评分"只会从 false 变 true）
type RatedMark struct {
	UserID    int64 `gorm:"primaryKey;autoIncrement:false"`
	IdeaID    int64 `gorm:"primaryKey;autoIncrement:false"`
	CreatedAt time.Time
}

func (RatedMark) TableName() string { return "rated_marks" }
