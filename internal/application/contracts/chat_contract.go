package contracts

import "context"

// ChatMember is a guild member with the role ids currently attached.
type ChatMember struct {
	ID       string
	Username string
	RoleIDs  []string
}

// ChatDirectory exposes the guild membership and role operations the role
// rotation needs. Implemented by the Discord client.
type ChatDirectory interface {
	Members(ctx context.Context) ([]ChatMember, error)
	RoleID(ctx context.Context, name string) (string, error)
	AddRole(ctx context.Context, userID, roleID string) error
	RemoveRole(ctx context.Context, userID, roleID string) error
}

// Notifier posts human-readable summaries back to a chat channel.
type Notifier interface {
	SendMessage(channelID, text string) error
}
