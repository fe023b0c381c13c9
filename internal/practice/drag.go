package practice

// RootContainer is the drop target that clears an item's folder. The
// folder kind name ("cases", "documents") is accepted as an alias.
const RootContainer = "root"

// Position is a slot in a drag-and-drop list.
type Position struct {
	ContainerID string `json:"droppableId"`
	Index       int    `json:"index"`
}

// Drag describes a completed drag-and-drop gesture.
// A nil Destination means the item was dropped outside any container.
type Drag struct {
	ItemID      string    `json:"draggableId"`
	Source      Position  `json:"source"`
	Destination *Position `json:"destination"`
}

// target returns the folder the drag moves the item into, and false when the
// gesture does not move anything.
func (d Drag) target(kind FolderKind) (*string, bool) {
	if d.Destination == nil {
		return nil, false
	}
	// Dropping an item back on its own slot moves nothing.
	if d.Destination.ContainerID == d.Source.ContainerID && d.Destination.Index == d.Source.Index {
		return nil, false
	}
	switch d.Destination.ContainerID {
	case "", RootContainer, string(kind):
		return nil, true
	}
	id := d.Destination.ContainerID
	return &id, true
}
