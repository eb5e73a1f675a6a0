package notification

import "time"

type Type string

const (
	TypeLike    Type = "like"
	TypeComment Type = "comment"
	TypeFollow  Type = "follow"
	TypeMention Type = "mention"
	TypeInfo    Type = "info"
	TypeSuccess Type = "success"
	TypeError   Type = "error"
)

func ValidType(t Type) bool {
	switch t {
	case TypeLike, TypeComment, TypeFollow, TypeMention, TypeInfo, TypeSuccess, TypeError:
		return true
	}
	return false
}

// Notification is a transient message for one recipient. After creation
// only the Read flag ever changes.
type Notification struct {
	ID          string    `json:"id"`
	RecipientID string    `json:"recipientId"`
	ActorID     string    `json:"actorId,omitempty"`
	Type        Type      `json:"type"`
	Message     string    `json:"message"`
	Read        bool      `json:"read"`
	CreatedAt   time.Time `json:"createdAt"`
}
