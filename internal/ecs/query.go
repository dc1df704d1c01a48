package ecs

import "reflect"

// T returns the type key for a component type, for use with World.Query.
func T[C any]() reflect.Type {
	return reflect.TypeFor[C]()
}

// intersect returns the entities present in every given store. The smallest
// store seeds the candidate set to keep the probe count low; every candidate
// is then tested against the remaining stores. Result order is unspecified.
func intersect(stores []storeView) []Entity {
	if len(stores) == 0 {
		return nil
	}

	smallest := 0
	for i, s := range stores {
		if s.size() < stores[smallest].size() {
			smallest = i
		}
	}

	var result []Entity
	stores[smallest].each(func(e Entity) {
		for i, s := range stores {
			if i == smallest {
				continue
			}
			if !s.has(e) {
				return
			}
		}
		result = append(result, e)
	})
	return result
}
