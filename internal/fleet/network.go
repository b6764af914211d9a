package fleet

import (
	"math/rand"

	"github.com/talgya/fleet-adapt/internal/adaptation"
)

// Network is a directed friendship graph with a fixed out-degree. It is not
// safe for concurrent mutation; the simulation severs from a single goroutine.
type Network struct {
	fishers []*Fisher
	friends map[FisherID][]*Fisher
	severed int
}

// NewNetwork gives every fisher up to degree distinct random friends.
func NewNetwork(fishers []*Fisher, degree int, rng *rand.Rand) *Network {
	n := &Network{
		fishers: fishers,
		friends: make(map[FisherID][]*Fisher, len(fishers)),
	}
	for _, f := range fishers {
		for len(n.friends[f.ID]) < degree {
			candidate := n.stranger(f, nil, rng)
			if candidate == nil {
				break
			}
			n.friends[f.ID] = append(n.friends[f.ID], candidate)
		}
	}
	return n
}

// Peers returns a copy of f's friend list.
func (n *Network) Peers(f *Fisher, _ adaptation.Rand) []*Fisher {
	return append([]*Fisher(nil), n.friends[f.ID]...)
}

// Sever drops peer from f's friends and befriends a random stranger in its
// place, so the out-degree stays constant whenever someone is left to meet.
func (n *Network) Sever(f, peer *Fisher, rng adaptation.Rand) {
	list := n.friends[f.ID]
	idx := -1
	for i, p := range list {
		if p == peer {
			idx = i
			break
		}
	}
	if idx < 0 {
		return
	}
	list = append(list[:idx], list[idx+1:]...)
	n.friends[f.ID] = list
	n.severed++

	if replacement := n.stranger(f, peer, rng); replacement != nil {
		n.friends[f.ID] = append(n.friends[f.ID], replacement)
	}
}

// Friends returns the IDs f currently follows.
func (n *Network) Friends(id FisherID) []FisherID {
	list := n.friends[id]
	ids := make([]FisherID, len(list))
	for i, p := range list {
		ids[i] = p.ID
	}
	return ids
}

// Severed counts friendships cut since the network was built.
func (n *Network) Severed() int { return n.severed }

// stranger picks a random fisher who is neither f, one of its friends, nor
// excluded. It returns nil when nobody qualifies.
func (n *Network) stranger(f, excluded *Fisher, rng adaptation.Rand) *Fisher {
	known := make(map[FisherID]bool, len(n.friends[f.ID])+2)
	known[f.ID] = true
	if excluded != nil {
		known[excluded.ID] = true
	}
	for _, p := range n.friends[f.ID] {
		known[p.ID] = true
	}
	var pool []*Fisher
	for _, candidate := range n.fishers {
		if !known[candidate.ID] {
			pool = append(pool, candidate)
		}
	}
	if len(pool) == 0 {
		return nil
	}
	return pool[rng.Intn(len(pool))]
}
