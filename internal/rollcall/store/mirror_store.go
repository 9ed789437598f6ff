package store

import "context"

// MirrorStore maps a channel to the single summary message that mirrors
// occupancy there. Mutations are durable before they return.
type MirrorStore interface {
	Get(ctx context.Context, channelID string) (messageID string, ok bool, err error)
	Put(ctx context.Context, channelID, messageID string) error
	Remove(ctx context.Context, channelID string) (bool, error)
	List(ctx context.Context) (map[string]string, error)
}
