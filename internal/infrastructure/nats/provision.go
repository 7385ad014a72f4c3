package nats

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	natsgo "github.com/nats-io/nats.go"
)

// addressPrefix is the subject namespace for provisioned device channels.
const addressPrefix = "channel."

// invalidNameChars matches characters JetStream does not allow in stream names.
var invalidNameChars = regexp.MustCompile(`[^a-zA-Z0-9_-]`)

// CreateChannel provisions a durable JetStream stream for the named channel
// and returns the subject devices and publishers use as its address.
//
// Creation is idempotent: if the stream already exists its address is
// returned unchanged. Retention is bounded by the configured stream limits
// so an absent device cannot grow a channel without bound.
func (c *Client) CreateChannel(ctx context.Context, name string) (string, error) {
	if !c.IsConnected() {
		return "", ErrNotConnected
	}

	stream, err := streamName(name)
	if err != nil {
		return "", err
	}
	subject := addressPrefix + stream

	_, err = c.js.StreamInfo(stream, natsgo.Context(ctx))
	if err == nil {
		return subject, nil
	}
	if !errors.Is(err, natsgo.ErrStreamNotFound) {
		return "", fmt.Errorf("%w: looking up stream %s: %w", ErrProvisionFailed, stream, err)
	}

	streamCfg := &natsgo.StreamConfig{
		Name:      stream,
		Subjects:  []string{subject},
		Storage:   natsgo.FileStorage,
		Retention: natsgo.LimitsPolicy,
		MaxAge:    time.Duration(c.cfg.Stream.MaxAgeDays) * 24 * time.Hour,
		MaxBytes:  c.cfg.Stream.MaxBytes,
	}

	if _, err := c.js.AddStream(streamCfg, natsgo.Context(ctx)); err != nil {
		// A concurrent create of the same stream is a success: the config
		// is deterministic, so whoever won built the identical stream.
		if errors.Is(err, natsgo.ErrStreamNameAlreadyInUse) {
			return subject, nil
		}
		return "", fmt.Errorf("%w: creating stream %s: %w", ErrProvisionFailed, stream, err)
	}

	return subject, nil
}

// DeleteChannel removes the stream behind a previously provisioned address.
// Deleting an address whose stream no longer exists is not an error.
func (c *Client) DeleteChannel(ctx context.Context, address string) error {
	if !c.IsConnected() {
		return ErrNotConnected
	}

	stream, err := streamName(strings.TrimPrefix(address, addressPrefix))
	if err != nil {
		return err
	}

	if err := c.js.DeleteStream(stream, natsgo.Context(ctx)); err != nil {
		if errors.Is(err, natsgo.ErrStreamNotFound) {
			return nil
		}
		return fmt.Errorf("deleting stream %s: %w", stream, err)
	}
	return nil
}

// streamName derives the JetStream stream name for a channel name.
// The mapping is deterministic so repeated provisioning of the same
// channel always targets the same stream, and it is collision-free for
// derived channel names: device and tenant identifiers never contain
// "_" or ".", so the only "_" in a stream name is the mapped separator.
func streamName(name string) (string, error) {
	sanitised := invalidNameChars.ReplaceAllString(name, "_")
	sanitised = strings.Trim(sanitised, "_")
	if sanitised == "" {
		return "", fmt.Errorf("%w: %q", ErrInvalidChannelName, name)
	}
	return sanitised, nil
}
