package hue

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/amimof/huego"
)

func TestWritableState(t *testing.T) {
	tests := []struct {
		name    string
		sensor  Sensor
		want    int
		wantErr error
	}{
		{
			name:   "numeric string",
			sensor: Sensor{Type: TypeGenericStatus, State: map[string]any{"status": "42"}},
			want:   42,
		},
		{
			name:   "negative string",
			sensor: Sensor{Type: TypeGenericStatus, State: map[string]any{"status": "-1"}},
			want:   -1,
		},
		{
			name:   "decoded json number",
			sensor: Sensor{Type: TypeGenericStatus, State: map[string]any{"status": float64(3)}},
			want:   3,
		},
		{
			name:    "non-numeric string",
			sensor:  Sensor{Type: TypeGenericStatus, State: map[string]any{"status": "on"}},
			wantErr: ErrInvalidStatus,
		},
		{
			name:    "fractional number",
			sensor:  Sensor{Type: TypeGenericStatus, State: map[string]any{"status": 1.5}},
			wantErr: ErrInvalidStatus,
		},
		{
			name:    "missing status",
			sensor:  Sensor{Type: TypeGenericStatus, State: map[string]any{}},
			wantErr: ErrInvalidStatus,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			state, err := WritableState(tt.sensor)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("WritableState() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("WritableState() error = %v", err)
			}
			if state["status"] != tt.want {
				t.Errorf("status = %v, want %d", state["status"], tt.want)
			}
		})
	}
}

func TestWritableState_ReadOnlyType(t *testing.T) {
	_, err := WritableState(Sensor{Type: TypeTemperature, State: map[string]any{"temperature": 2100.0}})
	if err == nil {
		t.Error("WritableState() on ZLLTemperature error = nil, want error")
	}
}

func TestParseTimestamp(t *testing.T) {
	got, ok := ParseTimestamp("2024-03-01T12:30:05")
	if !ok {
		t.Fatal("ParseTimestamp() ok = false")
	}
	want := time.Date(2024, 3, 1, 12, 30, 5, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("ParseTimestamp() = %v, want %v", got, want)
	}

	for _, bad := range []string{"none", "", "yesterday"} {
		if _, ok := ParseTimestamp(bad); ok {
			t.Errorf("ParseTimestamp(%q) ok = true, want false", bad)
		}
	}
}

func TestSensor_Clone(t *testing.T) {
	orig := Sensor{
		ID:    "3",
		Type:  TypeGenericStatus,
		State: map[string]any{"status": 1},
		Raw:   json.RawMessage(`{"type":"CLIPGenericStatus"}`),
	}

	c := orig.Clone()
	c.State["status"] = 2
	c.Raw[0] = '['

	if orig.State["status"] != 1 {
		t.Error("Clone() shares State with original")
	}
	if orig.Raw[0] != '{' {
		t.Error("Clone() shares Raw with original")
	}
}

func TestSensor_LastUpdated(t *testing.T) {
	s := Sensor{State: map[string]any{"lastupdated": "2024-01-01T00:00:00"}}
	if s.LastUpdated() != "2024-01-01T00:00:00" {
		t.Errorf("LastUpdated() = %q", s.LastUpdated())
	}
	if (Sensor{}).LastUpdated() != "" {
		t.Error("LastUpdated() on empty state not empty")
	}
}

func TestFromHuego(t *testing.T) {
	hs := huego.Sensor{
		ID:      5,
		Type:    "ZLLTemperature",
		Name:    "Hallway",
		ModelID: "SML001",
		State:   map[string]any{"temperature": 2150.0, "lastupdated": "2024-03-01T12:00:00"},
	}

	raw := json.RawMessage(`{"type":"ZLLTemperature","name":"Hallway","recycle":false}`)
	s := fromHuego(hs, raw)
	if s.ID != "5" || s.Type != TypeTemperature || s.Name != "Hallway" {
		t.Errorf("fromHuego() = %+v", s)
	}

	if string(s.Raw) != string(raw) {
		t.Errorf("Raw = %s, want %s", s.Raw, raw)
	}
}

func TestParseSensorID(t *testing.T) {
	if n, err := parseSensorID("12"); err != nil || n != 12 {
		t.Errorf("parseSensorID(12) = %d, %v", n, err)
	}
	for _, bad := range []string{"", "abc", "-1", "1/2"} {
		if _, err := parseSensorID(bad); !errors.Is(err, ErrInvalidSensorID) {
			t.Errorf("parseSensorID(%q) error = %v, want %v", bad, err, ErrInvalidSensorID)
		}
	}
}

func TestSortByID(t *testing.T) {
	sensors := []Sensor{{ID: "10"}, {ID: "2"}, {ID: "1"}}
	sortByID(sensors)

	got := []string{sensors[0].ID, sensors[1].ID, sensors[2].ID}
	want := []string{"1", "2", "10"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("sortByID() order = %v, want %v", got, want)
		}
	}
}
