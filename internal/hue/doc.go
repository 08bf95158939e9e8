// Package hue provides sessions with a Philips Hue bridge for reading and
// updating sensors.
//
// Two session types implement Session:
//
//   - Local finds and pairs with a bridge on the LAN through
//     github.com/amimof/huego, then reads and writes sensors over its REST API.
//     It can discover the bridge and pair a new API user on startup.
//   - Remote talks to the Hue Remote API with OAuth2 tokens from
//     golang.org/x/oauth2.
//
// Sensors are returned as Sensor snapshots carrying the hub's raw JSON
// document. Error replies from the hub ([{"error":{...}}]) are returned as
// *APIError, which unwraps to ErrUnauthorized, ErrNotFound, ErrLinkButton
// or ErrRequestFailed.
package hue
