package services

import (
	"testing"
	"time"
)

func TestSSEHub_NewSSEHub(t *testing.T) {
	hub := NewSSEHub()
	if hub == nil {
		t.Fatal("NewSSEHub should not return nil")
	}
	if hub.ClientCount() != 0 {
		t.Errorf("new hub should have 0 clients, got %d", hub.ClientCount())
	}
}

func TestSSEHub_SubscribeUnsubscribe(t *testing.T) {
	hub := NewSSEHub()

	ch := hub.Subscribe("client1")
	hub.Subscribe("client2")
	if hub.ClientCount() != 2 {
		t.Fatalf("expected 2 clients, got %d", hub.ClientCount())
	}

	hub.Unsubscribe("client1")
	if hub.ClientCount() != 1 {
		t.Errorf("expected 1 client, got %d", hub.ClientCount())
	}
	if _, ok := <-ch; ok {
		t.Error("channel should be closed after Unsubscribe")
	}

	hub.Unsubscribe("unknown")
	if hub.ClientCount() != 1 {
		t.Errorf("unsubscribing an unknown client changed the count to %d", hub.ClientCount())
	}
}

func TestSSEHub_PublishMultipleClients(t *testing.T) {
	hub := NewSSEHub()
	ch1 := hub.Subscribe("client1")
	ch2 := hub.Subscribe("client2")

	score := 4.2
	hub.Publish(AssessmentEvent{Type: EventAnalysisCompleted, AssessmentID: "a-1", Score: &score})

	for i, ch := range []<-chan AssessmentEvent{ch1, ch2} {
		select {
		case received := <-ch:
			if received.AssessmentID != "a-1" || received.Type != EventAnalysisCompleted {
				t.Errorf("client%d: got %+v", i+1, received)
			}
			if received.Score == nil || *received.Score != 4.2 {
				t.Errorf("client%d: Score = %v, expected 4.2", i+1, received.Score)
			}
			if received.Timestamp.IsZero() {
				t.Errorf("client%d: Timestamp should be set", i+1)
			}
		case <-time.After(100 * time.Millisecond):
			t.Errorf("client%d: timed out waiting for event", i+1)
		}
	}
}

func TestSSEHub_NonBlockingPublish(t *testing.T) {
	hub := NewSSEHub()
	hub.Subscribe("slow_client")

	done := make(chan struct{})
	go func() {
		for i := 0; i < 200; i++ {
			hub.Publish(AssessmentEvent{Type: EventSubmissionReceived, Responses: i})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Error("Publish blocked on a full client buffer")
	}
}

func TestGetSSEHub_Singleton(t *testing.T) {
	if GetSSEHub() != GetSSEHub() {
		t.Error("GetSSEHub should return the same instance")
	}
}
