package whatsapp

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	_ "github.com/lib/pq"
	qrterminal "github.com/mdp/qrterminal/v3"
	"go.mau.fi/whatsmeow"
	"go.mau.fi/whatsmeow/store/sqlstore"
	"go.mau.fi/whatsmeow/types"
	"go.mau.fi/whatsmeow/types/events"
	_ "modernc.org/sqlite"

	"github.com/Vovarama1992/whatsapp-autoreply/internal/autoreply"
	"github.com/Vovarama1992/whatsapp-autoreply/internal/config"
)

const (
	sendTimeout     = 30 * time.Second
	presenceTimeout = 10 * time.Second
)

var errNotInitialized = errors.New("whatsapp client not initialized")

// MessageHandler receives every inbound message that carries content.
type MessageHandler interface {
	HandleIncoming(ctx context.Context, msg *autoreply.InboundMessage) error
}

// Client is the WhatsApp session. It implements autoreply.Transport.
type Client struct {
	client         *whatsmeow.Client
	storeContainer *sqlstore.Container
	lifecycle      *autoreply.Lifecycle
	log            *log.Logger
	handlerID      uint32

	mu      sync.Mutex
	ctx     context.Context
	handler MessageHandler
}

func New(ctx context.Context, cfg config.WhatsAppConfig, lifecycle *autoreply.Lifecycle, logger *log.Logger) (*Client, error) {
	logger = logger.WithPrefix("whatsapp")

	container, err := sqlstore.New(ctx, cfg.StoreDialect, cfg.StoreDSN, newWALogger(logger.WithPrefix("whatsapp/store")))
	if err != nil {
		return nil, fmt.Errorf("init whatsapp session store: %w", err)
	}

	deviceStore, err := container.GetFirstDevice(ctx)
	if err != nil {
		_ = container.Close()
		return nil, fmt.Errorf("get whatsapp device: %w", err)
	}

	c := &Client{
		client:         whatsmeow.NewClient(deviceStore, newWALogger(logger.WithPrefix("whatsapp/client"))),
		storeContainer: container,
		lifecycle:      lifecycle,
		log:            logger,
		ctx:            context.Background(),
	}
	c.handlerID = c.client.AddEventHandler(c.handleEvent)

	return c, nil
}

func (c *Client) SetHandler(h MessageHandler) {
	c.mu.Lock()
	c.handler = h
	c.mu.Unlock()
}

// Run connects and blocks until ctx is done, then closes the session.
func (c *Client) Run(ctx context.Context) error {
	c.mu.Lock()
	c.ctx = ctx
	c.mu.Unlock()

	if err := c.connect(ctx); err != nil {
		_ = c.Stop()
		return err
	}

	<-ctx.Done()
	c.log.Info("shutting down")
	return c.Stop()
}

// Reconnect drops the socket and dials again; used by the readiness watchdog.
func (c *Client) Reconnect(ctx context.Context) error {
	if c.client == nil {
		return errNotInitialized
	}
	c.client.Disconnect()
	return c.connect(ctx)
}

func (c *Client) connect(ctx context.Context) error {
	if c.client == nil {
		return errNotInitialized
	}

	if c.client.Store.ID == nil {
		qrChan, err := c.client.GetQRChannel(ctx)
		if err != nil {
			return fmt.Errorf("get whatsapp qr channel: %w", err)
		}
		c.lifecycle.Set(autoreply.StateAwaitingQR)
		go c.consumeQR(ctx, qrChan)
	} else {
		c.lifecycle.Set(autoreply.StateAuthenticated)
	}

	if err := c.client.Connect(); err != nil {
		return fmt.Errorf("connect whatsapp: %w", err)
	}
	return nil
}

func (c *Client) Stop() error {
	if c.client != nil {
		if c.handlerID != 0 {
			c.client.RemoveEventHandler(c.handlerID)
			c.handlerID = 0
		}
		c.client.Disconnect()
	}
	c.lifecycle.Set(autoreply.StateDisconnected)

	if c.storeContainer != nil {
		if err := c.storeContainer.Close(); err != nil {
			return fmt.Errorf("close whatsapp store: %w", err)
		}
		c.storeContainer = nil
	}

	c.log.Info("stopped")
	return nil
}

func (c *Client) consumeQR(ctx context.Context, qrChan <-chan whatsmeow.QRChannelItem) {
	for {
		select {
		case <-ctx.Done():
			return
		case evt, ok := <-qrChan:
			if !ok {
				return
			}

			switch evt.Event {
			case whatsmeow.QRChannelEventCode:
				c.log.Info("scan this QR code to log in")
				qrterminal.GenerateHalfBlock(evt.Code, qrterminal.L, os.Stdout)
			case whatsmeow.QRChannelSuccess.Event:
				c.lifecycle.Set(autoreply.StateAuthenticated)
			default:
				if evt.Error != nil {
					c.log.Error("login event", "event", evt.Event, "err", evt.Error)
				} else {
					c.log.Warn("login event", "event", evt.Event)
				}
			}
		}
	}
}

func (c *Client) handleEvent(evt any) {
	switch e := evt.(type) {
	case *events.Message:
		c.handleMessage(e)
	case *events.PairSuccess:
		c.log.Info("authenticated", "jid", e.ID.String())
		c.lifecycle.Set(autoreply.StateAuthenticated)
	case *events.Connected:
		c.lifecycle.Set(autoreply.StateReady)
		c.log.Info("ready")
		ctx, cancel := context.WithTimeout(c.baseContext(), presenceTimeout)
		defer cancel()
		if err := c.client.SendPresence(ctx, types.PresenceAvailable); err != nil {
			c.log.Warn("send presence failed", "err", err)
		}
	case *events.Disconnected:
		c.log.Warn("disconnected")
		c.lifecycle.Set(autoreply.StateDisconnected)
	case *events.LoggedOut:
		c.log.Error("logged out, session must be paired again", "reason", e.Reason.String())
		c.lifecycle.Set(autoreply.StateDisconnected)
	case *events.ConnectFailure:
		c.log.Error("connect failure", "reason", e.Reason.String(), "message", e.Message)
		c.lifecycle.Set(autoreply.StateDisconnected)
	case *events.StreamReplaced:
		c.log.Error("session opened elsewhere")
		c.lifecycle.Set(autoreply.StateDisconnected)
	}
}

func (c *Client) handleMessage(evt *events.Message) {
	if evt == nil || evt.Message == nil {
		return
	}

	c.mu.Lock()
	h := c.handler
	ctx := c.ctx
	c.mu.Unlock()
	if h == nil {
		return
	}

	msg := toInbound(evt)
	if err := h.HandleIncoming(ctx, msg); err != nil {
		c.log.Error("handle message failed", "sender", msg.SenderID, "err", err)
	}
}

func (c *Client) baseContext() context.Context {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ctx
}
