package model

import "time"

// Comment 评论，按到达顺序追加，不编辑不删除
type Comment struct {
	ID        int64     `json:"id"`
	IdeaID    int64     `json:"ideaId"`
	Author    User      `json:"author"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"createdAt"`
}

type CommentInput struct {
	Text string `json:"text" validate:"required"`
}
