package sync

import (
	"github.com/openmined/notesync/internal/node"
)

// inventory holds the remote nodes not yet matched to a local row during a pass.
// Iteration follows the order nodes were loaded in, lists before their tasks.
type inventory struct {
	nodes map[string]node.Syncable
	order []string
}

func newInventory() *inventory {
	return &inventory{nodes: make(map[string]node.Syncable)}
}

func (inv *inventory) add(n node.Syncable) {
	if _, ok := inv.nodes[n.RemoteID()]; !ok {
		inv.order = append(inv.order, n.RemoteID())
	}
	inv.nodes[n.RemoteID()] = n
}

// take removes and returns the node with remoteID, or nil.
func (inv *inventory) take(remoteID string) node.Syncable {
	if remoteID == "" {
		return nil
	}
	n, ok := inv.nodes[remoteID]
	if !ok {
		return nil
	}
	delete(inv.nodes, remoteID)
	return n
}

func (inv *inventory) len() int {
	return len(inv.nodes)
}

// lists returns the unmatched task lists.
func (inv *inventory) lists() []*node.TaskList {
	var out []*node.TaskList
	for _, id := range inv.order {
		if l, ok := inv.nodes[id].(*node.TaskList); ok {
			out = append(out, l)
		}
	}
	return out
}

// remaining returns every unmatched node.
func (inv *inventory) remaining() []node.Syncable {
	out := make([]node.Syncable, 0, len(inv.nodes))
	for _, id := range inv.order {
		if n, ok := inv.nodes[id]; ok {
			out = append(out, n)
		}
	}
	return out
}
