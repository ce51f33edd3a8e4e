package projects

import (
	"encoding/json"
	"time"

	"github.com/lib/pq"
)

// User is identified by username only; there is no authentication.
type User struct {
	ID        string    `gorm:"type:uuid;primaryKey" json:"id"`
	Username  string    `gorm:"size:128;uniqueIndex;not null" json:"username"`
	CreatedAt time.Time `json:"created_at"`
}

// Project is a named, saved list of filters.
type Project struct {
	ID     string `gorm:"type:uuid;primaryKey" json:"id"`
	UserID string `gorm:"type:uuid;index;not null" json:"user_id"`
	Name   string `gorm:"size:256;not null" json:"name"`
	// Filters is the JSON array exactly as submitted.
	Filters string `gorm:"type:text;not null" json:"-"`
	// Attributes indexes the attribute names used by Filters for ?attribute= lookups.
	Attributes pq.StringArray `gorm:"type:text[]" json:"attributes"`
	CreatedAt  time.Time      `gorm:"index" json:"created_at"`
}

func (User) TableName() string {
	return "citymap.users"
}

func (Project) TableName() string {
	return "citymap.projects"
}

// MarshalJSON renders the stored filters as an array. Unreadable filters render as [].
func (p Project) MarshalJSON() ([]byte, error) {
	type plain Project
	filters := json.RawMessage(p.Filters)
	if !json.Valid(filters) || len(filters) == 0 || filters[0] != '[' {
		filters = json.RawMessage("[]")
	}
	attrs := p.Attributes
	if attrs == nil {
		attrs = pq.StringArray{}
	}
	return json.Marshal(struct {
		plain
		Filters    json.RawMessage `json:"filters"`
		Attributes pq.StringArray  `json:"attributes"`
	}{plain(p), filters, attrs})
}

// filterAttributes collects the distinct string "attribute" fields of a filters array.
func filterAttributes(raw json.RawMessage) pq.StringArray {
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return pq.StringArray{}
	}
	seen := map[string]bool{}
	out := pq.StringArray{}
	for _, item := range items {
		var f struct {
			Attribute any `json:"attribute"`
		}
		if err := json.Unmarshal(item, &f); err != nil {
			continue
		}
		if s, ok := f.Attribute.(string); ok && s != "" && !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}
