package firestore

import (
	"cloud.google.com/go/firestore"

	shared "github.com/pedalhub/automator/pkg"
	"github.com/pedalhub/automator/pkg/types"
)

type Client struct {
	fs *firestore.Client
}

func NewClient(client *firestore.Client) *Client {
	return &Client{fs: client}
}

func (c *Client) Close() error {
	return c.fs.Close()
}

func (c *Client) Users() *Collection[types.User] {
	return &Collection[types.User]{
		Ref:           c.fs.Collection(shared.CollectionUsers),
		ToFirestore:   UserToFirestore,
		FromFirestore: FirestoreToUser,
	}
}

// ProcessedActivities is a top-level collection keyed by activity ID.
// Documents start life as queue entries and are overwritten with the full
// receipt once processing completes.
func (c *Client) ProcessedActivities() *Collection[types.ProcessedActivity] {
	return &Collection[types.ProcessedActivity]{
		Ref:           c.fs.Collection(shared.CollectionProcessedActivities),
		ToFirestore:   ProcessedActivityToFirestore,
		FromFirestore: FirestoreToProcessedActivity,
	}
}
