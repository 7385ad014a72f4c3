// Package nats provides the NATS JetStream-backed channel provisioner
// for Enrollgate Core.
//
// Every approved device gets its own durable JetStream stream, created at
// approval time. The stream captures messages published to the device's
// channel subject so the device can consume them whenever it connects.
//
// Stream names are derived deterministically from the channel name, so
// provisioning the same device twice targets the same stream and is
// idempotent.
//
// Usage:
//
//	client, err := nats.Connect(cfg.NATS)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	address, err := client.CreateChannel(ctx, "device.HW-4411.acme")
//	// address == "channel.device_HW-4411_acme"
package nats
