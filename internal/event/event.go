package event

type Type string

const (
	TypeUserSignedUp       Type = "user.signed_up"
	TypeLogin              Type = "auth.login"
	TypeLoginFailed        Type = "auth.login_failed"
	TypeTokenRefreshed     Type = "auth.refreshed"
	TypeRefreshReplayed    Type = "auth.refresh_replayed"
	TypeLogout             Type = "auth.logout"
	TypeImageUploaded      Type = "image.uploaded"
	TypeImageUpdated       Type = "image.updated"
	TypeImageDeleted       Type = "image.deleted"
	TypeTagCreated         Type = "tag.created"
	TypeTagDeleted         Type = "tag.deleted"
	TypeCommentCreated     Type = "comment.created"
	TypeCommentUpdated     Type = "comment.updated"
	TypeCommentDeleted     Type = "comment.deleted"
	TypeTransformCreated   Type = "transform.created"
	TypeTransformUpdated   Type = "transform.updated"
	TypeTransformDeleted   Type = "transform.deleted"
	TypeAccessDenied       Type = "access.denied"
	TypeProviderCallFailed Type = "provider.failed"
)

// Failure reports whether the event records a rejected or failed action.
func (t Type) Failure() bool {
	switch t {
	case TypeLoginFailed, TypeRefreshReplayed, TypeAccessDenied, TypeProviderCallFailed:
		return true
	default:
		return false
	}
}

type Event struct {
	ID         string `json:"id"`
	Type       Type   `json:"type"`
	Resource   string `json:"resource,omitempty"`
	Payload    any    `json:"payload,omitempty"`
	Timestamp  string `json:"timestamp"`
	ActorID    int64  `json:"actor_id,omitempty"`
	ActorEmail string `json:"actor_email,omitempty"`
}

type Bus interface {
	Publish(e Event)
	Subscribe() (<-chan Event, func()) // Returns channel and unsubscribe function
}
