package shape

import "time"

// Placeholder is the skeleton value for string and blob shapes.
const Placeholder = "..."

// Skeleton returns a representative configuration value for a resolved
// output shape. It is used to scaffold new fixture entries.
func Skeleton(s *Shape) any {
	return SkeletonAt(s, time.Now())
}

// SkeletonAt is Skeleton with a fixed clock for timestamp placeholders.
func SkeletonAt(s *Shape, now time.Time) any {
	dataType := TypeStructure
	if s != nil && s.Type != "" {
		dataType = s.Type
	}

	switch dataType {
	case TypeBlob, TypeString:
		return Placeholder
	case TypeInteger, TypeLong:
		return 1
	case TypeFloat, TypeDouble:
		return 1.0
	case TypeBoolean:
		return false
	case TypeTimestamp:
		return now.UTC().Format("2006-01-02T15:04:05.000000Z")
	case TypeList:
		return []any{SkeletonAt(s.Member, now)}
	case TypeMap:
		return map[string]any{}
	case TypeStructure:
		// Bodiless responses have no members and scaffold to an empty map.
		out := map[string]any{}
		if s == nil {
			return out
		}
		for _, m := range s.Members {
			out[m.Name] = SkeletonAt(m.Shape, now)
		}
		return out
	}
	return nil
}
