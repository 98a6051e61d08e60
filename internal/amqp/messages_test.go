package amqp

import (
	"testing"
)

func TestSummaryRebuildMessageRoundTrip(t *testing.T) {
	msg := NewSummaryRebuildMessage(7, "2025-01")
	body, err := msg.ToJSON()
	if err != nil {
		t.Fatalf("ToJSON() error = %v", err)
	}

	got, err := SummaryRebuildMessageFromJSON(body)
	if err != nil {
		t.Fatalf("FromJSON() error = %v", err)
	}
	if got.UserID != 7 || got.Month != "2025-01" {
		t.Fatalf("round trip = %+v", got)
	}
	if got.Timestamp.IsZero() {
		t.Fatal("timestamp not carried")
	}
}

func TestSummaryRebuildMessageValidate(t *testing.T) {
	tests := []struct {
		name    string
		msg     SummaryRebuildMessage
		wantErr bool
	}{
		{"valid", SummaryRebuildMessage{UserID: 1, Month: "2025-01"}, false},
		{"zero user", SummaryRebuildMessage{UserID: 0, Month: "2025-01"}, true},
		{"bad month", SummaryRebuildMessage{UserID: 1, Month: "2025-13"}, true},
		{"full date instead of month", SummaryRebuildMessage{UserID: 1, Month: "2025-01-05"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.msg.Validate(); (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestSummaryRebuildMessageFromJSONMalformed(t *testing.T) {
	if _, err := SummaryRebuildMessageFromJSON([]byte("{not json")); err == nil {
		t.Fatal("malformed payload parsed")
	}
}
