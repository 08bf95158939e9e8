package mqtt

import (
	"reflect"
	"testing"
)

func TestTopicBuilders(t *testing.T) {
	topics := NewTopics("hue-sensors")

	tests := []struct {
		name     string
		got      string
		expected string
	}{
		{"SensorStatus", topics.SensorStatus("ZLLTemperature", "5"), "hue-sensors/status/ZLLTemperature/5"},
		{"BridgeStatus", topics.BridgeStatus(), "hue-sensors/bridge/status"},
		{"SetCommands", topics.SetCommands(), "hue-sensors/set/#"},
		{"FunctionPattern", topics.FunctionPattern(), "hue-sensors/+function/#"},
		{"SetPattern", topics.SetPattern(), "hue-sensors/set/+type/+id"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.expected {
				t.Errorf("%s = %q, want %q", tt.name, tt.got, tt.expected)
			}
		})
	}
}

func TestNewTopics_DefaultPrefix(t *testing.T) {
	if got := NewTopics("").Prefix; got != DefaultPrefix {
		t.Errorf("NewTopics(\"\").Prefix = %q, want %q", got, DefaultPrefix)
	}
}

func TestMatch(t *testing.T) {
	tests := []struct {
		name    string
		pattern string
		topic   string
		want    map[string]string
		wantOK  bool
	}{
		{
			name:    "set command",
			pattern: "hue-sensors/set/+type/+id",
			topic:   "hue-sensors/set/CLIPGenericStatus/3",
			want:    map[string]string{"type": "CLIPGenericStatus", "id": "3"},
			wantOK:  true,
		},
		{
			name:    "set pattern rejects short topic",
			pattern: "hue-sensors/set/+type/+id",
			topic:   "hue-sensors/set/bad",
			wantOK:  false,
		},
		{
			name:    "set pattern rejects long topic",
			pattern: "hue-sensors/set/+type/+id",
			topic:   "hue-sensors/set/a/b/c",
			wantOK:  false,
		},
		{
			name:    "set pattern rejects other function",
			pattern: "hue-sensors/set/+type/+id",
			topic:   "hue-sensors/get/CLIPGenericStatus/3",
			wantOK:  false,
		},
		{
			name:    "function with remainder",
			pattern: "hue-sensors/+function/#",
			topic:   "hue-sensors/set/bad",
			want:    map[string]string{"function": "set"},
			wantOK:  true,
		},
		{
			name:    "hash matches parent level",
			pattern: "hue-sensors/+function/#",
			topic:   "hue-sensors/set",
			want:    map[string]string{"function": "set"},
			wantOK:  true,
		},
		{
			name:    "named hash captures rest",
			pattern: "hue-sensors/+function/#rest",
			topic:   "hue-sensors/get/Daylight/1",
			want:    map[string]string{"function": "get", "rest": "Daylight/1"},
			wantOK:  true,
		},
		{
			name:    "wrong prefix",
			pattern: "hue-sensors/+function/#",
			topic:   "other/set/a/b",
			wantOK:  false,
		},
		{
			name:    "prefix alone",
			pattern: "hue-sensors/+function/#",
			topic:   "hue-sensors",
			wantOK:  false,
		},
		{
			name:    "unnamed wildcards",
			pattern: "a/+/c",
			topic:   "a/b/c",
			want:    map[string]string{},
			wantOK:  true,
		},
		{
			name:    "hash not last",
			pattern: "a/#/c",
			topic:   "a/b/c",
			wantOK:  false,
		},
		{
			name:    "multi-level prefix",
			pattern: "home/hue/set/+type/+id",
			topic:   "home/hue/set/ZLLPresence/7",
			want:    map[string]string{"type": "ZLLPresence", "id": "7"},
			wantOK:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Match(tt.pattern, tt.topic)
			if ok != tt.wantOK {
				t.Fatalf("Match(%q, %q) ok = %v, want %v", tt.pattern, tt.topic, ok, tt.wantOK)
			}
			if ok && !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Match(%q, %q) = %v, want %v", tt.pattern, tt.topic, got, tt.want)
			}
		})
	}
}
