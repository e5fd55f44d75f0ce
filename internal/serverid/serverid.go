// Package serverid allocates process-wide unique replication server IDs
// (spec C4.6) for engines that weren't given one explicitly.
package serverid

import (
	"math/rand"
	"time"

	"go.uber.org/atomic"
)

var next = atomic.NewUint32(seed())

func seed() uint32 {
	ts := uint32(time.Now().Unix()) & 0xFFFF
	return ts + uint32(rand.New(rand.NewSource(time.Now().UnixNano())).Intn(1<<16))
}

// Next returns a fresh server ID, unique for the lifetime of this process.
func Next() uint32 {
	return next.Add(1)
}
