package chat

import (
	"errors"
	"testing"
)

func TestTransition(t *testing.T) {
	cases := []struct {
		from    Phase
		ev      event
		want    Phase
		wantErr bool
	}{
		{Idle, evBegin, Pending, false},
		{Confirmed, evBegin, Pending, false},
		{RolledBack, evBegin, Pending, false},
		{Pending, evBegin, Pending, true},
		{Pending, evConfirm, Confirmed, false},
		{Pending, evRollback, RolledBack, false},
		{Idle, evConfirm, Idle, true},
		{Confirmed, evRollback, Confirmed, true},
	}
	for _, c := range cases {
		got, err := transition(c.from, c.ev)
		if (err != nil) != c.wantErr || got != c.want {
			t.Fatalf("transition(%s,%d)=%s,%v want %s (err %v)", c.from, c.ev, got, err, c.want, c.wantErr)
		}
	}
}

func TestOutbox(t *testing.T) {
	var o outbox
	if err := o.begin(1, 0); err != nil {
		t.Fatal(err)
	}
	if err := o.begin(2, 0); !errors.Is(err, ErrSendInFlight) {
		t.Fatalf("second begin err=%v", err)
	}
	id, err := o.rollback()
	if err != nil || id != 1 || o.inFlight() {
		t.Fatalf("rollback=%d,%v", id, err)
	}
	if _, err := o.rollback(); err == nil {
		t.Fatal("double rollback accepted")
	}
}

func TestRemoveLocal(t *testing.T) {
	in := []Message{{LocalID: 1}, {LocalID: 2}, {LocalID: 3}}
	out, ok := removeLocal(in, 3)
	if !ok || len(out) != 2 || out[1].LocalID != 2 {
		t.Fatalf("removeLocal=%v,%v", out, ok)
	}
	if in[2].LocalID != 3 {
		t.Fatal("input slice mutated")
	}
	if _, ok := removeLocal(out, 9); ok {
		t.Fatal("removed missing id")
	}
}
