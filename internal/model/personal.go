package model

// Task statuses and types.
const (
	TaskPending   = "Pending"
	TaskCompleted = "Completed"

	TaskTypeTask = "Task"
	TaskTypeNote = "Note"

	GeneralBuyer = "General"
)

// Task is an entry in a user's private planner. CompletedAt is nil while pending.
type Task struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	Type        string  `json:"type"`
	Priority    string  `json:"priority"`
	Buyer       string  `json:"buyer"`
	Detail      string  `json:"detail"`
	Status      string  `json:"status"`
	CompletedAt *string `json:"completedAt"`
	CreatedAt   string  `json:"createdAt,omitempty"`
	UpdatedAt   string  `json:"updatedAt,omitempty"`
}

// DiaryEntry is a private diary page.
type DiaryEntry struct {
	ID        string `json:"id"`
	Topic     string `json:"topic"`
	Content   string `json:"content"`
	CreatedAt string `json:"createdAt,omitempty"`
	UpdatedAt string `json:"updatedAt,omitempty"`
}
