// Package cloud is the harness's view of the device's cloud side.
//
// A Cloud subscribes to one device's shadow topics, queues every inbound
// message for Receive, and publishes replies and desired states back to
// the device. Each frame is also handed to an optional journal and every
// reported state to an optional telemetry recorder.
//
// # Usage
//
//	c, err := cloud.New(cloud.Options{
//	    DeviceID:  cfg.Device.ID,
//	    Transport: cloud.NewMQTTTransport(mqttClient),
//	    Journal:   journalRecorder,
//	    Logger:    log,
//	})
//	if err != nil {
//	    return err
//	}
//
//	c.Flush()
//	msg, err := c.Receive(ctx, 30*time.Second, intake.OnlyAction(protocol.ActionGet))
//
// Receive skips connection-status pings unless intake.IncludeConnection is
// passed.
package cloud
