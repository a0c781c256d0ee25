package events_test

import (
	"testing"

	"github.com/siertrichain/blockchain/foundation/events"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

func TestEvents(t *testing.T) {
	t.Log("Given the need to fan out events to subscribers.")
	{
		testID := 0
		t.Logf("\tTest %d:\tWhen registering two subscribers.", testID)
		{
			evts := events.New()
			all := evts.Acquire("all")
			viewer := evts.AcquirePrefix("viewer", "viewer:")

			evts.Send("state: something")
			evts.Send("viewer: block")

			if got := <-all; got != "state: something" {
				t.Fatalf("\t%s\tTest %d:\tShould deliver every event in order: %s", failed, testID, got)
			}
			if got := <-all; got != "viewer: block" {
				t.Fatalf("\t%s\tTest %d:\tShould deliver every event in order: %s", failed, testID, got)
			}
			t.Logf("\t%s\tTest %d:\tShould deliver every event in order.", success, testID)

			if got := <-viewer; got != "viewer: block" {
				t.Fatalf("\t%s\tTest %d:\tShould filter by prefix: %s", failed, testID, got)
			}
			if len(viewer) != 0 {
				t.Fatalf("\t%s\tTest %d:\tShould not deliver other events.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould filter by prefix.", success, testID)

			for range 150 {
				evts.Send("viewer: flood")
			}
			if d := evts.Dropped("viewer"); d != 50 {
				t.Fatalf("\t%s\tTest %d:\tShould count dropped events, got %d.", failed, testID, d)
			}
			t.Logf("\t%s\tTest %d:\tShould count dropped events.", success, testID)

			if err := evts.Release("viewer"); err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould release the subscriber: %v", failed, testID, err)
			}
			if err := evts.Release("viewer"); err == nil {
				t.Fatalf("\t%s\tTest %d:\tShould not release twice.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould release the subscriber once.", success, testID)

			evts.Shutdown()
			if n := evts.Subscribers(); n != 0 {
				t.Fatalf("\t%s\tTest %d:\tShould remove all subscribers: %d", failed, testID, n)
			}

			// The range ends only once the channel is closed.
			var n int
			for range all {
				n++
			}
			if n != 100 {
				t.Fatalf("\t%s\tTest %d:\tShould keep the buffered events, got %d.", failed, testID, n)
			}
			t.Logf("\t%s\tTest %d:\tShould remove all subscribers.", success, testID)
		}
	}
}
