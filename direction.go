package asyncssh

// BlockDirection reports which readiness condition the engine needs
// satisfied before a blocked operation can make progress. It is a
// connection-wide property: the engine reports one direction for the whole
// session regardless of which channel or subsystem blocked.
type BlockDirection int

const (
	// DirectionNone means the engine is not blocked on the socket.
	// Observing DirectionNone together with ErrWouldBlock is an engine
	// contract violation, reported as a *DirectionError.
	DirectionNone BlockDirection = iota
	// DirectionInbound means the engine needs the socket to become readable.
	DirectionInbound
	// DirectionOutbound means the engine needs the socket to become writable.
	DirectionOutbound
	// DirectionBoth means either readability or writability unblocks the engine.
	DirectionBoth
)

func (d BlockDirection) String() string {
	switch d {
	case DirectionNone:
		return "none"
	case DirectionInbound:
		return "inbound"
	case DirectionOutbound:
		return "outbound"
	case DirectionBoth:
		return "both"
	}
	return "invalid"
}

// Interest is a set of socket readiness conditions requested from a Reactor.
type Interest uint8

const (
	// Readable is satisfied when the socket has data to read.
	Readable Interest = 1 << iota
	// Writable is satisfied when the socket can accept more data.
	Writable
)

// Has reports whether i contains every condition in other.
func (i Interest) Has(other Interest) bool { return i&other == other }

func (i Interest) String() string {
	switch i {
	case Readable:
		return "readable"
	case Writable:
		return "writable"
	case Readable | Writable:
		return "readable|writable"
	}
	return "none"
}

// interestFor maps a block direction onto the reactor interest set that can
// unblock it. DirectionNone has no interest set; the caller must treat that
// as a contract violation.
func interestFor(dir BlockDirection) (Interest, bool) {
	switch dir {
	case DirectionInbound:
		return Readable, true
	case DirectionOutbound:
		return Writable, true
	case DirectionBoth:
		return Readable | Writable, true
	}
	return 0, false
}
