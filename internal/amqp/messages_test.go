package amqp

import "testing"

func TestTransactionCreatedMessageRoundTrip(t *testing.T) {
	msg := NewTransactionCreatedMessage(7, 42, 2024, 3)
	if msg.EventID == "" {
		t.Fatal("EventID must be set")
	}

	body, err := msg.ToJSON()
	if err != nil {
		t.Fatalf("ToJSON() error = %v", err)
	}

	got, err := TransactionCreatedMessageFromJSON(body)
	if err != nil {
		t.Fatalf("FromJSON() error = %v", err)
	}
	if got.EventID != msg.EventID || got.UserID != 7 || got.TransactionID != 42 || got.Year != 2024 || got.Month != 3 {
		t.Fatalf("round trip mismatch: %+v", got)
	}
}

func TestEventIDsAreUnique(t *testing.T) {
	a := NewTransactionCreatedMessage(1, 1, 2024, 1)
	b := NewTransactionCreatedMessage(1, 1, 2024, 1)
	if a.EventID == b.EventID {
		t.Fatal("consecutive messages share an EventID")
	}
}

func TestFromJSONRejectsGarbage(t *testing.T) {
	if _, err := TransactionCreatedMessageFromJSON([]byte("{not json")); err == nil {
		t.Fatal("expected error for malformed payload")
	}
}
