package shared

import "time"

const (
	ProjectID = "pedalhub-automator" // Can be overridden by env var in bootstrap

	TopicFtpRecalc     = "topic-ftp-recalc"
	TopicWebhookAction = "topic-webhook-action"
	TopicQueueSweep    = "topic-queue-sweep"

	CollectionUsers               = "users"
	CollectionProcessedActivities = "processed_activities"
)

// Queue tuning defaults, overridable via bootstrap config.
const (
	DefaultQueueBatchSize  = 10
	DefaultQueueRetryLimit = 3
	DefaultQueueDelay      = 5 * time.Minute
	DefaultQueueMaxAge     = 24 * time.Hour
)

// AutoFtpRecentWindow bounds how old an over-FTP effort may be before it
// no longer triggers a recalculation.
const AutoFtpRecentWindow = 48 * time.Hour
