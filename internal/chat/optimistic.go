package chat

import (
	"errors"
	"fmt"
)

// Phase is the state of the optimistic outbox.
type Phase int

const (
	Idle Phase = iota
	Pending
	Confirmed
	RolledBack
)

func (p Phase) String() string {
	switch p {
	case Idle:
		return "idle"
	case Pending:
		return "pending"
	case Confirmed:
		return "confirmed"
	case RolledBack:
		return "rolled-back"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

type event int

const (
	evBegin event = iota
	evConfirm
	evRollback
)

var ErrSendInFlight = errors.New("chat: a send is already in flight")

// transition is the whole state machine: a send may begin from any resting
// phase, and only a pending send can be confirmed or rolled back.
func transition(p Phase, ev event) (Phase, error) {
	switch ev {
	case evBegin:
		if p == Pending {
			return p, ErrSendInFlight
		}
		return Pending, nil
	case evConfirm:
		if p != Pending {
			return p, fmt.Errorf("chat: confirm from %s", p)
		}
		return Confirmed, nil
	case evRollback:
		if p != Pending {
			return p, fmt.Errorf("chat: rollback from %s", p)
		}
		return RolledBack, nil
	}
	return p, fmt.Errorf("chat: unknown event %d", ev)
}

// outbox tracks the single optimistic user message of the in-flight send.
type outbox struct {
	phase   Phase
	localID int64
	// epoch of the thread the message was appended to
	epoch uint64
}

func (o *outbox) inFlight() bool { return o.phase == Pending }

func (o *outbox) begin(localID int64, epoch uint64) error {
	next, err := transition(o.phase, evBegin)
	if err != nil {
		return err
	}
	o.phase, o.localID, o.epoch = next, localID, epoch
	return nil
}

func (o *outbox) confirm() (int64, error) {
	next, err := transition(o.phase, evConfirm)
	if err != nil {
		return 0, err
	}
	o.phase = next
	return o.localID, nil
}

func (o *outbox) rollback() (int64, error) {
	next, err := transition(o.phase, evRollback)
	if err != nil {
		return 0, err
	}
	o.phase = next
	return o.localID, nil
}

// removeLocal drops the message with the given local id. It reports false
// when the message is no longer in the transcript.
func removeLocal(msgs []Message, localID int64) ([]Message, bool) {
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].LocalID == localID {
			return append(msgs[:i:i], msgs[i+1:]...), true
		}
	}
	return msgs, false
}
