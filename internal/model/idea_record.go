package model

import "time"

// IdeaRecord 创意主体；平均分和趋势只由服务端计算
type IdeaRecord struct {
	ID             int64  `gorm:"primaryKey"`
	Title          string `gorm:"type:varchar(200);not null"`
	Description    string `gorm:"type:text"`
	AuthorID       int64  `gorm:"index:idx_idea_author;not null"`
	AvgNovelty     float64
	AvgFeasibility float64
	RatingsCount   int
	CommentsCount  int
	Trend          string    `gorm:"type:varchar(8);not null;default:neutral"`
	CreatedAt      time.Time `gorm:"index"`
	UpdatedAt      time.Time
}

func (IdeaRecord) TableName() string { return "ideas" }

// Idea builds the wire form; likes is the number of ratings received.
func (r IdeaRecord) Idea(author User) Idea {
	author.Email = ""
	return Idea{
		ID:             r.ID,
		Title:          r.Title,
		Description:    r.Description,
		Author:         author,
		AvgNovelty:     r.AvgNovelty,
		AvgFeasibility: r.AvgFeasibility,
		CreatedAt:      r.CreatedAt,
		Likes:          r.RatingsCount,
		CommentsCount:  r.CommentsCount,
		Trend:          ParseTrend(r.Trend),
	}
}
