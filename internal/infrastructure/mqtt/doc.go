// Package mqtt is the harness's broker link, a thin layer over paho.
//
// It adds what the shadow loop relies on:
//   - a blocking Connect that fails fast when the broker is unreachable
//   - publishes that wait for the broker ack
//   - subscriptions replayed on every reconnect
//   - mutual TLS loaded from PEM files
//
// The package carries bytes on topics and nothing more. Shadow topic
// names and packet layouts belong to package protocol.
//
//	client, err := mqtt.Connect(cfg.MQTT)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
// Cloud brokers expect TLS with a client certificate. Plain TCP without
// credentials is only useful against a local development broker. The
// client never sets retained messages or a will.
package mqtt
