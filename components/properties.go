package components

// propInt reads an integer-valued property. Runbook properties decode from
// YAML via yaml.v3 (producing int for integral scalars) or, in tests, may
// be constructed directly as float64; both are accepted.
func propInt(properties map[string]any, key string) (int, bool) {
	switch v := properties[key].(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	default:
		return 0, false
	}
}
