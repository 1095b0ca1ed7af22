package model

import "time"

// Idea 服务端持有的创意，客户端缓存一份
type Idea struct {
	ID             int64     `json:"id"`
	Title          string    `json:"title"`
	Description    string    `json:"description"`
	Author         User      `json:"author"`
	AvgNovelty     float64   `json:"avgNovelty"`
	AvgFeasibility float64   `json:"avgFeasibility"`
	CreatedAt      time.Time `json:"createdAt"`
	Likes          int       `json:"likes"`
	CommentsCount  int       `json:"commentsCount"`
	Trend          Trend     `json:"trend"`
}

// IsAuthoredBy reports whether the viewer wrote the idea.
func (i Idea) IsAuthoredBy(v *Viewer) bool {
	return v != nil && v.ID == i.Author.ID
}

// IdeaInput 创建/编辑创意
type IdeaInput struct {
	Title       string `json:"title" validate:"required"`
	Description string `json:"description" validate:"required"`
}
