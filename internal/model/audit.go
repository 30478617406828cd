package model

type AuditEntry struct {
	Action     string `json:"action"`
	OccurredAt string `json:"occurred_at"`
	ActorID    int64  `json:"actor_id,omitempty"`
	ActorEmail string `json:"actor_email,omitempty"`
	Status     string `json:"status"`
	Resource   string `json:"resource,omitempty"`
	Detail     string `json:"detail,omitempty"`
}

type AuditQuery struct {
	Action  string
	ActorID string
	Status  string
	From    string
	To      string
	Page    int
	Limit   int
}

type AuditListData struct {
	Items []AuditEntry `json:"items"`
}
