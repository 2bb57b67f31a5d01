package assistant

import (
	"github.com/Marpuchy/dnd-manager-sub001/internal/patch"
	"github.com/Marpuchy/dnd-manager-sub001/internal/sheet"
)

// access is the resolved permission state of one request.
type access struct {
	userID  string
	role    sheet.Role
	members map[string]sheet.Role
}

func newAccess(userID string, campaign *sheet.Campaign, members []sheet.Membership) (*access, error) {
	a := &access{userID: userID, members: make(map[string]sheet.Role, len(members))}
	for _, m := range members {
		a.members[m.UserID] = m.Role
	}
	if campaign != nil && campaign.OwnerID != "" {
		a.members[campaign.OwnerID] = sheet.RoleDM
	}
	role, ok := a.members[userID]
	if !ok {
		return nil, ErrNotMember
	}
	a.role = role
	return a, nil
}

func (a *access) permissions() Permissions {
	return Permissions{Role: a.role, CanManageAllCharacters: a.role.Elevated()}
}

// canEdit reports whether the caller may change c.
func (a *access) canEdit(c *sheet.Character) bool {
	return a.role.Elevated() || (c.OwnerID != "" && c.OwnerID == a.userID)
}

// checkOwner validates an ownership assignment. It returns a non-empty
// reason when the assignment must be blocked.
func (a *access) checkOwner(data *patch.ActionData) string {
	if data.OwnerID == "" || data.OwnerID == a.userID {
		return ""
	}
	if !a.role.Elevated() {
		return "only the DM can assign a character to another player"
	}
	if _, ok := a.members[data.OwnerID]; !ok {
		return "the new owner is not a member of this campaign"
	}
	return ""
}

// visibleNotes drops other users' private notes unless the caller is elevated.
func (a *access) visibleNotes(notes []sheet.Note) []sheet.Note {
	if a.role.Elevated() {
		return notes
	}
	out := notes[:0:0]
	for _, n := range notes {
		if !n.Private || n.AuthorID == a.userID {
			out = append(out, n)
		}
	}
	return out
}
