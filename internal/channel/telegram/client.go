// Package telegram reads channel history over MTProto.
package telegram

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strings"
	"time"

	"github.com/gotd/td/session"
	"github.com/gotd/td/telegram"
	"github.com/gotd/td/telegram/auth"
	"github.com/gotd/td/tg"

	"github.com/project-tktt/salary-pulse/internal/domain"
)

const historyBatchSize = 100

// Config holds MTProto credentials and the session file location.
type Config struct {
	APIID       int
	APIHash     string
	SessionFile string
}

// Client reads a channel's full history through the Telegram API.
// Use Run to drive the underlying MTProto connection; Messages is only
// valid inside the Run callback.
type Client struct {
	client *telegram.Client
}

// NewClient creates an MTProto client.
func NewClient(cfg Config) (*Client, error) {
	if cfg.APIID == 0 || cfg.APIHash == "" {
		return nil, fmt.Errorf("telegram API ID and hash are required")
	}

	opts := telegram.Options{}
	if cfg.SessionFile != "" {
		opts.SessionStorage = &session.FileStorage{Path: cfg.SessionFile}
	}

	return &Client{client: telegram.NewClient(cfg.APIID, cfg.APIHash, opts)}, nil
}

// Run connects, authenticates and hands control to fn. The connection is
// closed when fn returns. Auth failure is fatal for the run.
func (c *Client) Run(ctx context.Context, fn func(ctx context.Context) error) error {
	return c.client.Run(ctx, func(ctx context.Context) error {
		flow := auth.NewFlow(TermAuth{}, auth.SendCodeOptions{})
		if err := c.client.Auth().IfNecessary(ctx, flow); err != nil {
			return fmt.Errorf("auth flow failed: %w", err)
		}
		return fn(ctx)
	})
}

// Messages pages through the channel's history and returns every post,
// oldest first.
func (c *Client) Messages(ctx context.Context, channel string) ([]domain.RawMessage, error) {
	peer, err := c.resolvePeer(ctx, strings.TrimPrefix(channel, "@"))
	if err != nil {
		return nil, err
	}

	var all []domain.RawMessage
	offsetID := 0

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		history, err := c.client.API().MessagesGetHistory(ctx, &tg.MessagesGetHistoryRequest{
			Peer:     peer,
			Limit:    historyBatchSize,
			OffsetID: offsetID,
		})
		if err != nil {
			return nil, fmt.Errorf("get history for %s: %w", channel, err)
		}

		var batch []tg.MessageClass
		switch result := history.(type) {
		case *tg.MessagesMessages:
			batch = result.Messages
		case *tg.MessagesChannelMessages:
			batch = result.Messages
		default:
			return nil, fmt.Errorf("unexpected history result type: %T", result)
		}

		if len(batch) == 0 {
			break
		}

		all, offsetID = appendBatch(all, batch, offsetID)

		if len(batch) < historyBatchSize {
			break
		}
	}

	// The API returns newest first; the pipeline wants publication order.
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })

	log.Printf("telegram: fetched %d messages from %s", len(all), channel)
	return all, nil
}

func (c *Client) resolvePeer(ctx context.Context, channel string) (tg.InputPeerClass, error) {
	resolved, err := c.client.API().ContactsResolveUsername(ctx, channel)
	if err != nil {
		return nil, fmt.Errorf("resolve username %s: %w", channel, err)
	}

	peerChannel, ok := resolved.Peer.(*tg.PeerChannel)
	if !ok {
		return nil, fmt.Errorf("%s is not a channel: %T", channel, resolved.Peer)
	}

	for _, chat := range resolved.Chats {
		if ch, ok := chat.(*tg.Channel); ok && ch.ID == peerChannel.ChannelID {
			return &tg.InputPeerChannel{
				ChannelID:  ch.ID,
				AccessHash: ch.AccessHash,
			}, nil
		}
	}
	return nil, fmt.Errorf("channel %s not present in resolve response", channel)
}

// appendBatch converts one history batch and returns the next paging offset.
// Every entry advances the offset, including service messages that yield no
// report text; otherwise a batch of only service messages would repeat the
// same request forever.
func appendBatch(all []domain.RawMessage, batch []tg.MessageClass, offsetID int) ([]domain.RawMessage, int) {
	for _, raw := range batch {
		if id := raw.GetID(); offsetID == 0 || id < offsetID {
			offsetID = id
		}
		if msg, ok := asRawMessage(raw); ok {
			all = append(all, msg)
		}
	}
	return all, offsetID
}

func asRawMessage(raw tg.MessageClass) (domain.RawMessage, bool) {
	m, ok := raw.(*tg.Message)
	if !ok {
		// Service messages carry no report text.
		return domain.RawMessage{}, false
	}
	return domain.RawMessage{
		ID:          int64(m.ID),
		Text:        m.Message,
		PublishedAt: time.Unix(int64(m.Date), 0),
	}, true
}
