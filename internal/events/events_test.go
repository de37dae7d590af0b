package events

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestNilPublisherIsSafe(t *testing.T) {
	var p *Publisher
	p.Publish(TypePageRendered, "Foo::Bar", "")
	p.Close()
}

func TestEventWireFormat(t *testing.T) {
	e := Event{
		Type:      TypeRootsSynced,
		Detail:    "2 repositories",
		Timestamp: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}
	data, err := json.Marshal(e)
	require.NoError(t, err)
	require.JSONEq(t,
		`{"type":"roots_synced","detail":"2 repositories","timestamp":"2026-01-02T03:04:05Z"}`,
		string(data))
}

func TestConnect_BadURL(t *testing.T) {
	_, err := Connect("nats://127.0.0.1:1", "docbrowse.events")
	require.Error(t, err)
}
