package subscriber

import (
	"fmt"
	"html"
	"time"
)

// Subscriber is a chat user who opted in to sunset warnings.
type Subscriber struct {
	UserID      int64
	DisplayName string // First name or username captured at opt-in
	CreatedAt   time.Time
}

// Mention renders an HTML mention that Telegram turns into a user link.
func (s Subscriber) Mention() string {
	name := s.DisplayName
	if name == "" {
		name = fmt.Sprintf("user %d", s.UserID)
	}
	return fmt.Sprintf(`<a href="tg://user?id=%d">%s</a>`, s.UserID, html.EscapeString(name))
}
