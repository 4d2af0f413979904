package ldmodel

// SegmentIncludesOrExcludesKey tests whether the specified context key of the default kind is in
// the include or exclude list of this Segment. If it is in either, the first return value is true
// for include or false for exclude, and the second return value is true. If it is in neither,
// both return values are false.
//
// Inclusion and exclusion lists for other context kinds are in Segment.IncludedContexts and
// Segment.ExcludedContexts; use SegmentTargetContainsKey for those.
//
// This part of the flag evaluation logic is defined in ldmodel and exported, rather than being
// internal to the evaluator, as a compromise to allow for optimizations that require storing
// precomputed data in the model object. Exporting this function is preferable to exporting those
// internal implementation details.
//
// The segment is passed by reference for efficiency only; the function will not modify it.
// Passing a nil value will cause a panic.
func SegmentIncludesOrExcludesKey(s *Segment, key string) (included bool, found bool) {
	if s.preprocessed.includeMap == nil {
		for _, k := range s.Included {
			if key == k {
				return true, true
			}
		}
	} else if s.preprocessed.includeMap[key] {
		return true, true
	}

	if s.preprocessed.excludeMap == nil {
		for _, k := range s.Excluded {
			if key == k {
				return false, true
			}
		}
	} else if s.preprocessed.excludeMap[key] {
		return false, true
	}

	return false, false
}
