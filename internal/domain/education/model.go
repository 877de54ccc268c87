package education

import (
	"time"

	"github.com/google/uuid"
)

// DefaultLanguage is served when a request names no language.
const DefaultLanguage = "english"

type Module struct {
	ID              uuid.UUID `json:"id"`
	Title           string    `json:"title"`
	Category        string    `json:"category"`
	Language        string    `json:"language"`
	Content         string    `json:"content"`
	AudioURL        *string   `json:"audio_url,omitempty"`
	ImageURL        *string   `json:"image_url,omitempty"`
	DurationMinutes *int      `json:"duration_minutes,omitempty"`
	OrderIndex      int       `json:"order_index"`
	IsActive        bool      `json:"is_active"`
	CreatedAt       time.Time `json:"created_at"`
}

type Category struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Icon string `json:"icon"`
}

var categories = []Category{
	{ID: "anc_importance", Name: "ANC Importance", Icon: "calendar-check"},
	{ID: "danger_signs", Name: "Danger Signs", Icon: "alert-triangle"},
	{ID: "nutrition", Name: "Nutrition", Icon: "apple"},
	{ID: "birth_preparedness", Name: "Birth Preparedness", Icon: "baby"},
	{ID: "newborn_care", Name: "Newborn Care", Icon: "heart"},
}

// Categories returns the fixed topic list in display order.
func Categories() []Category {
	out := make([]Category, len(categories))
	copy(out, categories)
	return out
}
