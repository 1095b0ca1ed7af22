package model

import "time"

// CommentRecord 评论行，按 id 递增即到达顺序
type CommentRecord struct {
	ID        int64     `gorm:"primaryKey"`
	IdeaID    int64     `gorm:"index:idx_comment_idea;not null"`
	AuthorID  int64     `gorm:"not null"`
	Text      string    `gorm:"type:text;not null"`
	CreatedAt time.Time `gorm:"index"`
}

func (CommentRecord) TableName() string { return "comments" }

func (r CommentRecord) Comment(author User) Comment {
	author.Email = ""
	return Comment{ID: r.ID, IdeaID: r.IdeaID, Author: author, Text: r.Text, CreatedAt: r.CreatedAt}
}
