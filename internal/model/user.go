package model

// User 平台用户（作者、评论者）
type User struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email,omitempty"`
}

// Viewer is the authenticated identity threaded through components that need
// it. A nil *Viewer means nobody is signed in.
type Viewer struct {
	ID       int64
	Username string
}

// ViewerOf builds a Viewer from a user profile.
func ViewerOf(u User) *Viewer {
	return &Viewer{ID: u.ID, Username: u.Username}
}

// ProfileInput 修改个人资料
type ProfileInput struct {
	Username string `json:"username" validate:"required,min=2"`
	Email    string `json:"email" validate:"required,email"`
}

// Credentials 登录/注册
type Credentials struct {
	Username string `json:"username,omitempty"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}
