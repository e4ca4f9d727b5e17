package registry

import (
	"fmt"
	"sort"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// Registry is the set of monitored addresses attributed to one exchange label.
// It is built once at startup and never mutated afterwards, so concurrent
// reads need no locking.
type Registry struct {
	label   string
	members map[string]struct{}
}

// New validates and normalizes the configured addresses for a label. Any
// malformed address fails construction.
func New(label string, addresses []string) (*Registry, error) {
	label = strings.TrimSpace(label)
	if label == "" {
		return nil, fmt.Errorf("exchange label is required")
	}
	if len(addresses) == 0 {
		return nil, fmt.Errorf("exchange %s: at least one address is required", label)
	}

	members := make(map[string]struct{}, len(addresses))
	for _, input := range addresses {
		input = strings.TrimSpace(input)
		if !common.IsHexAddress(input) {
			return nil, fmt.Errorf("exchange %s: invalid address: %s", label, input)
		}
		members[normalize(common.HexToAddress(input))] = struct{}{}
	}

	return &Registry{label: label, members: members}, nil
}

// Build constructs one Registry per configured exchange label, in
// deterministic label order.
func Build(exchanges map[string][]string) ([]*Registry, error) {
	if len(exchanges) == 0 {
		return nil, fmt.Errorf("at least one exchange is required")
	}

	labels := make([]string, 0, len(exchanges))
	for label := range exchanges {
		labels = append(labels, label)
	}
	sort.Strings(labels)

	registries := make([]*Registry, 0, len(labels))
	for _, label := range labels {
		reg, err := New(label, exchanges[label])
		if err != nil {
			return nil, err
		}
		registries = append(registries, reg)
	}
	return registries, nil
}

// Label returns the exchange label this set belongs to.
func (r *Registry) Label() string {
	return r.label
}

// Contains reports whether the address is monitored. Matching is
// case-insensitive.
func (r *Registry) Contains(address common.Address) bool {
	_, ok := r.members[normalize(address)]
	return ok
}

// Size returns the number of monitored addresses.
func (r *Registry) Size() int {
	return len(r.members)
}

func normalize(address common.Address) string {
	return strings.ToLower(address.Hex())
}
