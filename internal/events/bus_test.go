package events

import (
	"encoding/json"
	"fmt"
	"sync"
	"testing"
	"time"
)

func TestBus_PublishSubscribe(t *testing.T) {
	bus := New()
	received := make(chan FormatNegotiatedEvent, 1)

	unsub := bus.Subscribe(func(e FormatNegotiatedEvent) {
		received <- e
	})
	defer unsub()

	event := FormatNegotiatedEvent{
		StreamID:  "stream-1",
		Width:     640,
		Height:    480,
		FrameRate: 30,
		Diameter:  20,
	}
	bus.Publish(event)

	got := <-received
	if got != event {
		t.Errorf("Expected %+v, got %+v", event, got)
	}
}

func TestBus_MultipleSubscribers(_ *testing.T) {
	bus := New()
	received1 := make(chan EndOfStreamEvent, 1)
	received2 := make(chan EndOfStreamEvent, 1)

	unsub1 := bus.Subscribe(func(e EndOfStreamEvent) {
		received1 <- e
	})
	defer unsub1()

	unsub2 := bus.Subscribe(func(e EndOfStreamEvent) {
		received2 <- e
	})
	defer unsub2()

	bus.Publish(EndOfStreamEvent{StreamID: "test", Frames: 10})

	<-received1
	<-received2
}

func TestBus_Unsubscribe(t *testing.T) {
	bus := New()
	received := make(chan NegotiationFailedEvent, 1)

	unsub := bus.Subscribe(func(e NegotiationFailedEvent) {
		received <- e
	})

	bus.Publish(NegotiationFailedEvent{Code: "INVALID_FORMAT"})
	<-received

	unsub()

	bus.Publish(NegotiationFailedEvent{Code: "MASK_ALLOCATION"})
	select {
	case <-received:
		t.Fatal("Should not have received event after unsubscribe")
	case <-time.After(10 * time.Millisecond):
		// Expected - no event
	}
}

func TestBus_TypeSafety(t *testing.T) {
	bus := New()

	negotiated := make(chan bool, 1)
	eos := make(chan bool, 1)

	unsub1 := bus.Subscribe(func(_ FormatNegotiatedEvent) {
		negotiated <- true
	})
	defer unsub1()

	unsub2 := bus.Subscribe(func(_ EndOfStreamEvent) {
		eos <- true
	})
	defer unsub2()

	bus.Publish(FormatNegotiatedEvent{Width: 320})
	<-negotiated

	select {
	case <-eos:
		t.Fatal("EOS subscriber should NOT have received FormatNegotiatedEvent")
	case <-time.After(10 * time.Millisecond):
	}

	bus.Publish(EndOfStreamEvent{StreamID: "s"})
	<-eos

	select {
	case <-negotiated:
		t.Fatal("Negotiation subscriber should NOT have received EndOfStreamEvent")
	case <-time.After(10 * time.Millisecond):
	}
}

func TestBus_UnknownHandler(_ *testing.T) {
	bus := New()
	unsub := bus.Subscribe(func(string) {})
	unsub()
}

func TestBus_ThreadSafety(_ *testing.T) {
	bus := New()
	var wg sync.WaitGroup
	numGoroutines := 10
	eventsPerGoroutine := 100
	expected := numGoroutines * eventsPerGoroutine

	receivedCh := make(chan bool, expected)

	unsub := bus.Subscribe(func(_ OverlaySettingsChangedEvent) {
		receivedCh <- true
	})
	defer unsub()

	for i := 0; i < numGoroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < eventsPerGoroutine; j++ {
				bus.Publish(OverlaySettingsChangedEvent{
					Show:      true,
					Timestamp: time.Now().Format(time.RFC3339),
				})
			}
		}()
	}

	wg.Wait()

	for i := 0; i < expected; i++ {
		<-receivedCh
	}
}

func TestBus_AllEventTypes(t *testing.T) {
	bus := New()

	tests := []struct {
		name  string
		event Event
	}{
		{"FormatNegotiated", FormatNegotiatedEvent{Width: 640}},
		{"NegotiationFailed", NegotiationFailedEvent{Code: "INVALID_FORMAT"}},
		{"EndOfStream", EndOfStreamEvent{StreamID: "s"}},
		{"OverlaySettingsChanged", OverlaySettingsChangedEvent{Standard: "bt709"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(_ *testing.T) {
			received := make(chan Event, 1)

			var unsub func()
			switch tt.event.(type) {
			case FormatNegotiatedEvent:
				unsub = bus.Subscribe(func(e FormatNegotiatedEvent) { received <- e })
			case NegotiationFailedEvent:
				unsub = bus.Subscribe(func(e NegotiationFailedEvent) { received <- e })
			case EndOfStreamEvent:
				unsub = bus.Subscribe(func(e EndOfStreamEvent) { received <- e })
			case OverlaySettingsChangedEvent:
				unsub = bus.Subscribe(func(e OverlaySettingsChangedEvent) { received <- e })
			}
			defer unsub()

			bus.Publish(tt.event)
			<-received
		})
	}
}

func TestEventTypesAreDistinct(t *testing.T) {
	seen := make(map[uint32]string)
	for _, ev := range []Event{
		FormatNegotiatedEvent{},
		NegotiationFailedEvent{},
		EndOfStreamEvent{},
		OverlaySettingsChangedEvent{},
	} {
		if other, ok := seen[ev.Type()]; ok {
			t.Errorf("%T shares type id %d with %s", ev, ev.Type(), other)
		}
		seen[ev.Type()] = fmt.Sprintf("%T", ev)
	}
}

func TestEventJSONSerialization(t *testing.T) {
	data, err := json.Marshal(FormatNegotiatedEvent{
		StreamID:  "abc",
		Width:     1280,
		Height:    720,
		FrameRate: 25,
		Diameter:  40,
	})
	if err != nil {
		t.Fatalf("Failed to marshal: %v", err)
	}

	var result map[string]any
	if err := json.Unmarshal(data, &result); err != nil {
		t.Fatalf("Failed to unmarshal: %v", err)
	}
	if result["stream_id"] != "abc" {
		t.Errorf("Expected stream_id abc, got %v", result["stream_id"])
	}
	if result["diameter"] != float64(40) {
		t.Errorf("Expected diameter 40, got %v", result["diameter"])
	}
}

func TestSubscribeToChannel(t *testing.T) {
	bus := New()
	ch := make(chan any, 10)

	unsub := SubscribeToChannel[EndOfStreamEvent](bus, ch)
	defer unsub()

	bus.Publish(EndOfStreamEvent{StreamID: "s1", Frames: 42})

	received := <-ch
	eos, ok := received.(EndOfStreamEvent)
	if !ok {
		t.Fatalf("Expected EndOfStreamEvent, got %T", received)
	}
	if eos.Frames != 42 {
		t.Errorf("Expected 42 frames, got %d", eos.Frames)
	}
}

func TestSubscribeToChannel_NonBlocking(_ *testing.T) {
	bus := New()
	ch := make(chan any) // No buffer

	unsub := SubscribeToChannel[FormatNegotiatedEvent](bus, ch)
	defer unsub()

	done := make(chan bool, 1)
	go func() {
		bus.Publish(FormatNegotiatedEvent{Width: 64})
		done <- true
	}()

	<-done
}
