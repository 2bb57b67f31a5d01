package sheet

// Role is a campaign membership role.
type Role string

const (
	RoleDM     Role = "dm"
	RolePlayer Role = "player"
	RoleNone   Role = ""
)

// Elevated reports whether the role may manage every character in the campaign.
func (r Role) Elevated() bool { return r == RoleDM }

// Campaign is the campaign row visible to the assistant.
type Campaign struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	OwnerID     string `json:"owner_id,omitempty"`
}

// Note is a campaign note. Private notes are only visible to their author.
type Note struct {
	ID         string `json:"id"`
	CampaignID string `json:"campaign_id"`
	AuthorID   string `json:"author_id,omitempty"`
	Title      string `json:"title"`
	Body       string `json:"body"`
	Private    bool   `json:"private,omitempty"`
}

// Membership links a user to a campaign.
type Membership struct {
	CampaignID string `json:"campaign_id"`
	UserID     string `json:"user_id"`
	Role       Role   `json:"role"`
}
