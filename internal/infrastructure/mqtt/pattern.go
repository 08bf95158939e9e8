package mqtt

import "strings"

// Match reports whether topic matches an MQTT subscription pattern and
// returns the captured parameters.
//
// Wildcard levels may carry a name: "+type" captures one level under
// "type", "#rest" captures the remaining levels joined by "/". Unnamed
// wildcards match without capturing. As in MQTT, a trailing "#" also
// matches its parent level, in which case a named capture is empty.
//
//	params, ok := mqtt.Match("hue-sensors/set/+type/+id", "hue-sensors/set/Daylight/1")
//	// params = map[type:Daylight id:1], ok = true
func Match(pattern, topic string) (map[string]string, bool) {
	patternLevels := strings.Split(pattern, "/")
	topicLevels := strings.Split(topic, "/")
	params := make(map[string]string)

	for i, level := range patternLevels {
		if strings.HasPrefix(level, "#") {
			// "#" is only valid as the last level.
			if i != len(patternLevels)-1 {
				return nil, false
			}
			if name := level[1:]; name != "" {
				rest := ""
				if i < len(topicLevels) {
					rest = strings.Join(topicLevels[i:], "/")
				}
				params[name] = rest
			}
			return params, true
		}

		if i >= len(topicLevels) {
			return nil, false
		}

		if strings.HasPrefix(level, "+") {
			if name := level[1:]; name != "" {
				params[name] = topicLevels[i]
			}
			continue
		}

		if level != topicLevels[i] {
			return nil, false
		}
	}

	if len(topicLevels) != len(patternLevels) {
		return nil, false
	}
	return params, true
}
