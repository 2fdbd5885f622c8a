package core

// updateChildren reconciles an element child list against a new widget list.
//
// Matching proceeds in three steps: a leading scan and a trailing scan update
// children in place while type and key agree, then the middle span is matched
// by key. A keyed old child whose key reappears anywhere in the new middle is
// updated in place, preserving its element and state regardless of position.
// Unkeyed widgets fall back to positional order against the remaining unkeyed
// old children. Old children left unmatched are unmounted; new widgets left
// unmatched are inflated and mounted.
func updateChildren(oldChildren []Element, widgets []Widget, parent Element, owner *BuildOwner) []Element {
	oldStart, newStart := 0, 0
	oldEnd, newEnd := len(oldChildren), len(widgets)
	result := make([]Element, len(widgets))

	// Leading children that can update in place.
	for oldStart < oldEnd && newStart < newEnd &&
		widgets[newStart] != nil &&
		canUpdateWidget(oldChildren[oldStart].Widget(), widgets[newStart]) {
		oldChildren[oldStart].Update(widgets[newStart])
		result[newStart] = oldChildren[oldStart]
		oldStart++
		newStart++
	}

	// Trailing children that can update in place.
	for oldStart < oldEnd && newStart < newEnd &&
		widgets[newEnd-1] != nil &&
		canUpdateWidget(oldChildren[oldEnd-1].Widget(), widgets[newEnd-1]) {
		oldEnd--
		newEnd--
		oldChildren[oldEnd].Update(widgets[newEnd])
		result[newEnd] = oldChildren[oldEnd]
	}

	// Index the middle span: keyed children by key, unkeyed in order.
	var keyed map[any]Element
	var unkeyed []Element
	for i := oldStart; i < oldEnd; i++ {
		child := oldChildren[i]
		if key := child.Widget().Key(); key != nil {
			if keyed == nil {
				keyed = make(map[any]Element)
			}
			keyed[key] = child
		} else {
			unkeyed = append(unkeyed, child)
		}
	}

	for i := newStart; i < newEnd; i++ {
		widget := widgets[i]
		if widget == nil {
			continue
		}
		var match Element
		if key := widget.Key(); key != nil {
			if candidate, ok := keyed[key]; ok && canUpdateWidget(candidate.Widget(), widget) {
				match = candidate
				delete(keyed, key)
			}
		} else {
			// Positional fallback among unkeyed old children. A skipped
			// candidate has the wrong type and cannot match any later
			// unkeyed widget either, so it is unmounted on the spot.
			for len(unkeyed) > 0 {
				candidate := unkeyed[0]
				unkeyed = unkeyed[1:]
				if canUpdateWidget(candidate.Widget(), widget) {
					match = candidate
					break
				}
				candidate.Unmount()
			}
		}
		result[i] = updateChild(match, widget, parent, owner)
	}

	// Old children nothing claimed.
	for _, child := range keyed {
		child.Unmount()
	}
	for _, child := range unkeyed {
		child.Unmount()
	}

	children := make([]Element, 0, len(result))
	for _, child := range result {
		if child != nil {
			children = append(children, child)
		}
	}
	return children
}
