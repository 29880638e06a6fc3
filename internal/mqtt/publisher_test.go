package mqtt

import (
	"testing"

	"powerpulse/internal/notify"
)

func TestBrokerURL(t *testing.T) {
	cases := map[string]string{
		"localhost:1883":        "tcp://localhost:1883",
		"tcp://broker:1883":     "tcp://broker:1883",
		"ssl://broker:8883":     "ssl://broker:8883",
		"ws://broker:9001/mqtt": "ws://broker:9001/mqtt",
	}
	for in, want := range cases {
		if got := brokerURL(in); got != want {
			t.Fatalf("brokerURL(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestNewRequiresBroker(t *testing.T) {
	if _, err := New(Config{Topic: "powerpulse/predictions"}, nil); err == nil {
		t.Fatalf("expected error without broker")
	}
}

var _ notify.Publisher = (*Publisher)(nil)
