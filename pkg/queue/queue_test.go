package queue_test

import (
	"testing"
	"time"

	"github.com/uachado/uachado/pkg/queue"
)

func TestWatermillMessageRoundTrip(t *testing.T) {
	payload := queue.ItemStoredPayload{
		Item:           queue.ItemRef{ID: 42, Tag: "Tablets", Description: "iPad cinzento"},
		DropoffPointID: 3,
		Matches: []queue.MatchRecipient{
			{Email: "aluno@ua.pt", Tag: "Tablets", Description: "perdi um iPad"},
		},
	}

	msg, err := queue.NewWatermillMessage(queue.TopicItemStored, payload, queue.WithProducer("api"))
	if err != nil {
		t.Fatalf("build message: %v", err)
	}

	if msg.UUID == "" {
		t.Error("message UUID is empty")
	}

	if got := msg.Metadata.Get("topic"); got != queue.TopicItemStored {
		t.Errorf("topic metadata = %q, want %q", got, queue.TopicItemStored)
	}

	if got := msg.Metadata.Get("producer"); got != "api" {
		t.Errorf("producer metadata = %q, want api", got)
	}

	decoded, err := queue.ParseItemStored(msg)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	if decoded.Header.Version != queue.PayloadVersionV1 {
		t.Errorf("version = %q, want %q", decoded.Header.Version, queue.PayloadVersionV1)
	}

	if decoded.Payload.Item.ID != 42 {
		t.Errorf("item id = %d, want 42", decoded.Payload.Item.ID)
	}

	if len(decoded.Payload.Matches) != 1 || decoded.Payload.Matches[0].Email != "aluno@ua.pt" {
		t.Errorf("matches = %+v", decoded.Payload.Matches)
	}
}

func TestEventHeaderTimestamps(t *testing.T) {
	before := time.Now()
	h := queue.NewEventHeader(queue.TopicItemRetrieved)

	if h.Topic != queue.TopicItemRetrieved {
		t.Errorf("topic = %q", h.Topic)
	}

	if h.OccurredAt.Before(before.Add(-time.Second)) {
		t.Errorf("occurred_at too old: %v", h.OccurredAt)
	}
}
