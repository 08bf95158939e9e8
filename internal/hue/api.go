package hue

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/amimof/huego"
	"github.com/tidwall/gjson"
)

// maxReplySize bounds hub replies read into memory.
const maxReplySize = 4 << 20

// restClient talks to the hub's v1 REST API below baseURL, which already
// includes the API username (e.g. http://192.168.1.2/api/<user>).
type restClient struct {
	http    *http.Client
	baseURL string
}

func newRESTClient(httpClient *http.Client, baseURL string) *restClient {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &restClient{
		http:    httpClient,
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

// do sends a request and returns the reply body once it has been checked
// for hub error entries.
func (r *restClient) do(ctx context.Context, method, path string, body any) ([]byte, error) {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encoding request body: %w", err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, r.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRequestFailed, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := r.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %s %s: %w", ErrRequestFailed, method, path, err)
	}
	defer resp.Body.Close()

	reply, err := io.ReadAll(io.LimitReader(resp.Body, maxReplySize))
	if err != nil {
		return nil, fmt.Errorf("%w: reading reply: %w", ErrRequestFailed, err)
	}

	if err := checkReply(reply); err != nil {
		return nil, err
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, fmt.Errorf("%w: %s %s: status %d", ErrUnauthorized, method, path, resp.StatusCode)
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("%w: %s %s", ErrNotFound, method, path)
	case resp.StatusCode >= http.StatusBadRequest:
		return nil, fmt.Errorf("%w: %s %s: status %d", ErrRequestFailed, method, path, resp.StatusCode)
	}

	return reply, nil
}

// checkReply returns the first hub error in a reply of the form
// [{"error":{"type":3,"address":"/sensors/9","description":"..."}}].
func checkReply(reply []byte) error {
	if !gjson.ValidBytes(reply) {
		if len(bytes.TrimSpace(reply)) == 0 {
			return nil
		}
		return fmt.Errorf("%w: reply is not JSON", ErrRequestFailed)
	}

	root := gjson.ParseBytes(reply)
	if !root.IsArray() {
		return nil
	}

	for _, e := range root.Get("#.error").Array() {
		if !e.IsObject() {
			continue
		}
		return &APIError{
			Type:        int(e.Get("type").Int()),
			Address:     e.Get("address").String(),
			Description: e.Get("description").String(),
		}
	}
	return nil
}

// listSensors reads every sensor, ordered by id.
func (r *restClient) listSensors(ctx context.Context) ([]Sensor, error) {
	reply, err := r.do(ctx, http.MethodGet, "/sensors", nil)
	if err != nil {
		return nil, err
	}

	var docs map[string]json.RawMessage
	if err := json.Unmarshal(reply, &docs); err != nil {
		return nil, fmt.Errorf("%w: decoding sensors: %w", ErrRequestFailed, err)
	}

	sensors := make([]Sensor, 0, len(docs))
	for id, raw := range docs {
		s, err := decodeSensor(id, raw)
		if err != nil {
			return nil, err
		}
		sensors = append(sensors, s)
	}
	sortByID(sensors)

	return sensors, nil
}

// getSensor reads one sensor.
func (r *restClient) getSensor(ctx context.Context, id string) (Sensor, error) {
	if _, err := parseSensorID(id); err != nil {
		return Sensor{}, err
	}

	reply, err := r.do(ctx, http.MethodGet, "/sensors/"+id, nil)
	if err != nil {
		return Sensor{}, err
	}
	return decodeSensor(id, reply)
}

// putSensorState writes a sensor's state.
func (r *restClient) putSensorState(ctx context.Context, id string, state map[string]any) error {
	if _, err := parseSensorID(id); err != nil {
		return err
	}

	_, err := r.do(ctx, http.MethodPut, "/sensors/"+id+"/state", state)
	return err
}

// decodeSensor decodes one hub sensor document, keeping it as the raw payload.
func decodeSensor(id string, raw json.RawMessage) (Sensor, error) {
	n, err := parseSensorID(id)
	if err != nil {
		return Sensor{}, err
	}

	var hs huego.Sensor
	if err := json.Unmarshal(raw, &hs); err != nil {
		return Sensor{}, fmt.Errorf("%w: decoding sensor %s: %w", ErrRequestFailed, id, err)
	}
	hs.ID = n

	return fromHuego(hs, append(json.RawMessage(nil), raw...)), nil
}
