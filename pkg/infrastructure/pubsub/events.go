package pubsub

import (
	cloudevents "github.com/cloudevents/sdk-go/v2"
)

// NewCloudEvent builds a CloudEvent v1.0 envelope with a JSON-encoded
// payload. The engine's webhook dispatch and the FTP recalc trigger both
// publish through this so consumers see one envelope shape.
func NewCloudEvent(source, eventType string, data interface{}) (cloudevents.Event, error) {
	e := cloudevents.NewEvent()
	e.SetSpecVersion("1.0")
	e.SetType(eventType)
	e.SetSource(source)

	if err := e.SetData(cloudevents.ApplicationJSON, data); err != nil {
		return e, err
	}

	return e, nil
}
