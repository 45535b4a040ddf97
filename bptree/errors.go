package bptree

import "github.com/pkg/errors"

// ErrPrecondition reports invalid construction or operation inputs.
var ErrPrecondition = errors.New("bptree: precondition violation")

// ErrInvariantBroken reports an internal inconsistency detected while
// rebalancing or verifying the tree. A tree that surfaced it must not be
// reused.
var ErrInvariantBroken = errors.New("bptree: invariant broken")
