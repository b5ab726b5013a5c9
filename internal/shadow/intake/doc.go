// Package intake buffers inbound shadow messages between the transport
// goroutine and the test that consumes them.
//
// The device interleaves periodic connection-status reports with the
// replies a test waits for. Receive skips those reports by default and
// charges every skipped message against one fixed deadline:
//
//	inbox := intake.NewInbox()
//	msg, err := inbox.Receive(ctx, 10*time.Second,
//	    intake.OnlyAction(protocol.ActionGet))
//	if errors.Is(err, intake.ErrTimeout) {
//	    // device never answered
//	}
package intake
