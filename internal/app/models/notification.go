package models

import "time"

// NotificationType groups notifications by what produced them
type NotificationType string

const (
	NotificationSessionOpened NotificationType = "session_opened"
	NotificationExcuseDecided NotificationType = "excuse_decided"
	NotificationVoteCreated   NotificationType = "vote_created"
	NotificationMessage       NotificationType = "message"
	NotificationNotice        NotificationType = "notice"
	NotificationRiskWarning   NotificationType = "attendance_warning"
	NotificationRiskDanger    NotificationType = "attendance_danger"
)

// Notification is an in-app message addressed to one user
type Notification struct {
	ID        int64            `json:"id" db:"id"`
	UserID    int64            `json:"userId" db:"user_id"`
	Type      NotificationType `json:"type" db:"type"`
	Title     string           `json:"title" db:"title"`
	Body      string           `json:"body" db:"body"`
	Link      *string          `json:"link,omitempty" db:"link"`
	IsRead    bool             `json:"isRead" db:"is_read"`
	CreatedAt time.Time        `json:"createdAt" db:"created_at"`
}

// Message is a direct message between two users
type Message struct {
	ID         int64     `json:"id" db:"id"`
	SenderID   int64     `json:"senderId" db:"sender_id"`
	ReceiverID int64     `json:"receiverId" db:"receiver_id"`
	Content    string    `json:"content" db:"content"`
	IsRead     bool      `json:"isRead" db:"is_read"`
	CreatedAt  time.Time `json:"createdAt" db:"created_at"`
	SenderName string    `json:"senderName,omitempty" db:"sender_name"`
}

// Notice is an announcement, either for one course or for everyone
type Notice struct {
	ID         int64     `json:"id" db:"id"`
	WriterID   int64     `json:"writerId" db:"writer_id"`
	CourseID   *int64    `json:"courseId,omitempty" db:"course_id"`
	Title      string    `json:"title" db:"title"`
	Content    string    `json:"content" db:"content"`
	CreatedAt  time.Time `json:"createdAt" db:"created_at"`
	WriterName string    `json:"writerName,omitempty" db:"writer_name"`
	CourseName *string   `json:"courseName,omitempty" db:"course_name"`
}
