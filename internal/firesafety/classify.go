package firesafety

// ClassifyLayer returns the discipline classification and fire-safety
// relevance of a layer name. Matching is case-insensitive substring search
// over fixed, ordered keyword tables.
func ClassifyLayer(name string) (Classification, Relevance) {
	return Classify(name), RelevanceOf(name)
}

// Classify returns the discipline classification of a layer name.
func Classify(name string) Classification {
	return match(classificationRules, name, ClassUnknown)
}

// RelevanceOf returns the fire-safety relevance tier of a layer name.
func RelevanceOf(name string) Relevance {
	return match(relevanceRules, name, RelevanceMinimal)
}

// IsFireSafetyLayer reports whether name classifies as fire_safety.
func IsFireSafetyLayer(name string) bool {
	return Classify(name) == ClassFireSafety
}

// ClassifyDevice maps a block reference name to a device type.
func ClassifyDevice(blockName string) DeviceType {
	return match(deviceRules, blockName, DeviceUnknown)
}
