// Package topic builds the MQTT topics the vessel data bus uses.
package topic

import (
	"fmt"
)

// Topic suffixes. Structure: {root}/{suffix}/{vesselID}.
const (
	// SuffixDelta carries outbound forecast, account and notification deltas.
	SuffixDelta = "delta"

	// SuffixNavigation carries inbound position, heading and speed deltas.
	SuffixNavigation = "nav"

	// SuffixPut carries inbound PUT requests.
	SuffixPut = "put"

	// SuffixPutAck carries PUT responses.
	SuffixPutAck = "put/ack"
)

// Builder constructs topic strings under a root namespace.
type Builder struct {
	root string
}

// NewBuilder returns a Builder for root, e.g. "signalk/v1".
func NewBuilder(root string) *Builder {
	return &Builder{root: root}
}

// Delta is where the service publishes deltas for a vessel.
func (b *Builder) Delta(vesselID string) string {
	return b.build(SuffixDelta, vesselID)
}

// Navigation is where navigation observations for a vessel arrive.
func (b *Builder) Navigation(vesselID string) string {
	return b.build(SuffixNavigation, vesselID)
}

// Put is where PUT requests for a vessel arrive.
func (b *Builder) Put(vesselID string) string {
	return b.build(SuffixPut, vesselID)
}

// PutAck is where PUT responses for a vessel are published.
func (b *Builder) PutAck(vesselID string) string {
	return b.build(SuffixPutAck, vesselID)
}

func (b *Builder) build(suffix, id string) string {
	return fmt.Sprintf("%s/%s/%s", b.root, suffix, id)
}
