package models

// GroupType categorizes a group for display.
type GroupType string

const (
	GroupTypeTrip      GroupType = "Trip"
	GroupTypeRoommates GroupType = "Roommates"
	GroupTypeFriends   GroupType = "Friends"
	GroupTypeOther     GroupType = "Other"
)

// Valid reports whether t is a known group type.
func (t GroupType) Valid() bool {
	switch t {
	case GroupTypeTrip, GroupTypeRoommates, GroupTypeFriends, GroupTypeOther:
		return true
	}
	return false
}

// Group represents a set of users who share expenses.
type Group struct {
	// ID is the unique identifier for the group (UUID format).
	ID string

	// Name is the display name of the group (e.g., "Roommates", "Lisbon trip").
	Name string

	// Description is optional free text.
	Description string

	// Type categorizes the group. Defaults to Friends.
	Type GroupType

	// CreatedBy is the user ID of the creator. Only the creator can update or
	// delete the group or remove members. The creator is always a member.
	CreatedBy string

	// Members is the list of member user IDs in join order.
	Members []string

	// CreatedAt is the Unix timestamp when the group was created.
	CreatedAt int64

	// UpdatedAt is the Unix timestamp of the last change to the group or its members.
	UpdatedAt int64
}

// HasMember reports whether userID belongs to the group.
func (g *Group) HasMember(userID string) bool {
	for _, m := range g.Members {
		if m == userID {
			return true
		}
	}
	return false
}
