package elements

// FlattenDescriptor converts a raw discovery descriptor into the flat
// string map a bulb tracks as state.
//
// The cloud mixes top-level fields with an attributeList of name/value
// pairs; the pairs are merged last and win on conflict. Values that are
// not strings carry no meaning in the attribute model and are dropped.
func FlattenDescriptor(raw map[string]any, log Logger) map[string]string {
	if log == nil {
		log = noopLogger{}
	}

	flat := make(map[string]string, len(raw))
	for key, value := range raw {
		if key == "attributeList" {
			continue
		}
		switch v := value.(type) {
		case nil:
			log.Debug("skipping empty descriptor field", "key", key)
		case string:
			flat[key] = v
		default:
			log.Warn("unexpected descriptor value", "key", key, "value", value)
		}
	}

	items, _ := raw["attributeList"].([]any)
	for _, item := range items {
		entry, ok := item.(map[string]any)
		if !ok {
			log.Warn("malformed attribute entry", "entry", item)
			continue
		}
		name, _ := entry["name"].(string)
		value, ok := entry["value"].(string)
		if name == "" || !ok {
			log.Warn("malformed attribute entry", "entry", item)
			continue
		}
		flat[name] = value
	}

	return flat
}
