package domain

// NoticeKind classifies a user-facing notification.
type NoticeKind string

const (
	NoticeSuccess    NoticeKind = "success"
	NoticeError      NoticeKind = "error"
	NoticeValidation NoticeKind = "validation"
	NoticeWarning    NoticeKind = "warning"
)

// Notice is what the presentation layer shows after a submission attempt.
type Notice struct {
	Kind     NoticeKind `json:"kind"`
	Title    string     `json:"title"`
	Messages []string   `json:"messages"`
}
