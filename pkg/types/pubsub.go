package types

// PubSubMessage matches the envelope delivered to CloudEvent functions
// triggered by a Pub/Sub subscription.
type PubSubMessage struct {
	Message struct {
		Data       []byte            `json:"data"`
		Attributes map[string]string `json:"attributes"`
		MessageID  string            `json:"messageId"`
	} `json:"message"`
	Subscription string `json:"subscription"`
}

// FtpRecalcEvent asks the FTP estimator to re-derive the user's threshold
// power after an over-FTP effort. Fire-and-forget; the estimator is its
// own service.
type FtpRecalcEvent struct {
	UserID     string `json:"user_id"`
	ActivityID int64  `json:"activity_id"`
	Watts      int    `json:"watts"`
}

// WebhookActionEvent carries a recipe webhook action out of the engine.
// Delivery to the user's URL happens in a separate dispatcher.
type WebhookActionEvent struct {
	UserID     string `json:"user_id"`
	ActivityID int64  `json:"activity_id"`
	URL        string `json:"url"`
}

// SweepRequest optionally overrides the batch size for one queue sweep.
type SweepRequest struct {
	BatchSize int `json:"batch_size,omitempty"`
}
