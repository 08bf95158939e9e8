// Package bridge translates between Hue hub sensors and MQTT.
//
// # Outbound
//
// The poller lists every sensor on startup and then on a fixed interval,
// publishing one StatusMessage per sensor:
//
//	{prefix}/status/{type}/{id}  {"val":<reading>,"ts":"<lastupdated>","payload":{<hub document>}}
//
// The reading is chosen by sensor type:
//
//	ZLLTemperature     temperature
//	Daylight           daylight
//	ZLLPresence        presence
//	ZLLLightLevel      lightlevel
//	CLIPGenericStatus  status
//
// # Inbound
//
// With commands enabled the bridge subscribes to {prefix}/set/#. A message
// on {prefix}/set/{type}/{id} sets the sensor's status (CLIPGenericStatus
// only) and re-publishes it. Other topics are dropped.
//
// # Errors
//
// Publish failures are logged and counted. Hub failures follow the error
// policy: PolicyLog keeps running, PolicyExit stops Run with ErrHubFailure.
package bridge
