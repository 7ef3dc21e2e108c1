package engine_test

import (
	"veilmatch/backend/internal/models"
)

type MockClient struct {
	connID string
	userID string
	// RecvChannel captures everything the engine pushes to this connection.
	RecvChannel chan models.ServerEvent
}

func newMockClient(connID string) *MockClient {
	return &MockClient{
		connID:      connID,
		RecvChannel: make(chan models.ServerEvent, 64),
	}
}

func (c *MockClient) GetConnID() string { return c.connID }

func (c *MockClient) GetUserID() string { return c.userID }

func (c *MockClient) SetUserID(id string) { c.userID = id }

func (c *MockClient) GetSendChannel() chan<- models.ServerEvent { return c.RecvChannel }

func (c *MockClient) Run() {
	// Not needed for testing
}

func (c *MockClient) Close() {
	// Not needed for testing
}

// drain returns every event received so far without blocking.
func (c *MockClient) drain() []models.ServerEvent {
	var events []models.ServerEvent
	for {
		select {
		case ev := <-c.RecvChannel:
			events = append(events, ev)
		default:
			return events
		}
	}
}

func findEvent(events []models.ServerEvent, eventType string) (models.ServerEvent, bool) {
	for _, ev := range events {
		if ev.Type == eventType {
			return ev, true
		}
	}
	return models.ServerEvent{}, false
}

func countEvents(events []models.ServerEvent, eventType string) int {
	n := 0
	for _, ev := range events {
		if ev.Type == eventType {
			n++
		}
	}
	return n
}
