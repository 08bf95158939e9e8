//go:build integration

package mqtt

import (
	"sync"
	"testing"
	"time"

	"github.com/nerrad567/hue-mqtt-sensors/internal/infrastructure/config"
)

// Integration tests against a live broker.
// These tests require a running MQTT broker at 127.0.0.1:1883.
//
// Run with:
//   go test -tags=integration -v ./internal/infrastructure/mqtt/...

func integrationConfig(clientID string) config.MQTTConfig {
	return config.MQTTConfig{
		URL:      "tcp://127.0.0.1:1883",
		Prefix:   "hue-sensors-int",
		ClientID: clientID,
		QoS:      1,
		Reconnect: config.MQTTReconnectConfig{
			InitialDelay: 1,
			MaxDelay:     5,
		},
	}
}

func TestIntegration_Connect(t *testing.T) {
	client, err := Connect(integrationConfig(""))
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	defer client.Close()

	if !client.IsConnected() {
		t.Error("IsConnected() = false, want true")
	}
	if client.ClientID() == "" {
		t.Error("ClientID() empty, want generated id")
	}
}

func TestIntegration_SubscriptionTracking(t *testing.T) {
	client, err := Connect(integrationConfig("hue-int-sub-track"))
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	defer client.Close()

	topics := []string{
		client.Topics().SetCommands(),
		"hue-sensors-int/other/#",
	}

	handler := func(topic string, payload []byte) error { return nil }
	for _, topic := range topics {
		if err := client.Subscribe(topic, 1, handler); err != nil {
			t.Fatalf("Subscribe(%s) error = %v", topic, err)
		}
	}

	if client.SubscriptionCount() != len(topics) {
		t.Errorf("SubscriptionCount() = %d, want %d", client.SubscriptionCount(), len(topics))
	}

	if err := client.Unsubscribe(topics[0]); err != nil {
		t.Fatalf("Unsubscribe() error = %v", err)
	}
	if client.HasSubscription(topics[0]) {
		t.Error("HasSubscription() = true after Unsubscribe()")
	}
}

func TestIntegration_SetCommandRoundtrip(t *testing.T) {
	pubClient, err := Connect(integrationConfig("hue-int-pub"))
	if err != nil {
		t.Fatalf("Connect() publisher error = %v", err)
	}
	defer pubClient.Close()

	subClient, err := Connect(integrationConfig("hue-int-sub"))
	if err != nil {
		t.Fatalf("Connect() subscriber error = %v", err)
	}
	defer subClient.Close()

	topics := subClient.Topics()
	received := make(chan map[string]string, 1)
	var once sync.Once

	err = subClient.Subscribe(topics.SetCommands(), 1, func(topic string, p []byte) error {
		if params, ok := Match(topics.SetPattern(), topic); ok {
			params["payload"] = string(p)
			once.Do(func() { received <- params })
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}

	time.Sleep(100 * time.Millisecond)

	if err := pubClient.Publish(topics.Prefix+"/set/CLIPGenericStatus/3", []byte("42"), 1, false); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}

	select {
	case params := <-received:
		if params["type"] != "CLIPGenericStatus" || params["id"] != "3" || params["payload"] != "42" {
			t.Errorf("received %v", params)
		}
	case <-time.After(5 * time.Second):
		t.Error("Timeout waiting for message")
	}
}

func TestIntegration_AvailabilityOnline(t *testing.T) {
	client, err := Connect(integrationConfig("hue-int-avail"))
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	defer client.Close()

	watcher, err := Connect(integrationConfig("hue-int-avail-watch"))
	if err != nil {
		t.Fatalf("Connect() watcher error = %v", err)
	}
	defer watcher.Close()

	got := make(chan string, 4)
	err = watcher.Subscribe(client.Topics().BridgeStatus(), 1, func(_ string, p []byte) error {
		got <- string(p)
		return nil
	})
	if err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}

	select {
	case status := <-got:
		if status != availabilityOnline {
			t.Errorf("retained availability = %q, want %q", status, availabilityOnline)
		}
	case <-time.After(5 * time.Second):
		t.Error("Timeout waiting for retained availability")
	}
}
