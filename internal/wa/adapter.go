// Package wa owns the single WhatsApp session: connection lifecycle,
// pairing, and message transport via whatsmeow.
package wa

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/jcarloshn/difubot/internal/logger"
	"github.com/sirupsen/logrus"
	"go.mau.fi/whatsmeow"
	"go.mau.fi/whatsmeow/proto/waE2E"
	"go.mau.fi/whatsmeow/types"
	"go.mau.fi/whatsmeow/types/events"
	"google.golang.org/protobuf/proto"
)

// ErrNotReady is returned by SendText before the session handshake has
// completed (or after a disconnect, until the reconnect succeeds).
var ErrNotReady = errors.New("whatsapp client not ready")

// State is the adapter's connection state.
type State uint8

const (
	StateUninitialized State = iota
	StateConnecting
	StateReady
	StateDisconnected
	// StateAuthFailed is terminal: the device was unlinked and the session
	// store must be re-paired manually.
	StateAuthFailed
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateReady:
		return "ready"
	case StateDisconnected:
		return "disconnected"
	case StateAuthFailed:
		return "auth_failed"
	default:
		return "uninitialized"
	}
}

// Incoming is one inbound text message, already unwrapped from the
// whatsmeow event.
type Incoming struct {
	Sender    string // full JID of the peer, e.g. 5551234567@s.whatsapp.net
	PushName  string
	Text      string
	Timestamp time.Time
	IsGroup   bool
}

// Handlers is the capability set exposed to the orchestrator. Any handler
// may be nil.
type Handlers struct {
	OnPairingCode  func(code string)
	OnReady        func()
	OnDisconnected func(reason string)
	OnMessage      func(msg Incoming)
	OnAuthFailure  func(reason string)
}

// Adapter wraps the whatsmeow client with an explicit state machine:
// Uninitialized → Connecting → Ready ⇄ Disconnected(→Connecting), with
// AuthFailed as the terminal state.
type Adapter struct {
	mu       sync.RWMutex
	state    State
	client   *whatsmeow.Client
	handlers Handlers
	ctx      context.Context
}

func NewAdapter(ctx context.Context, client *whatsmeow.Client) *Adapter {
	return &Adapter{
		state:  StateUninitialized,
		client: client,
		ctx:    ctx,
	}
}

// Connect wires the event handlers and starts connecting. It is
// non-blocking: readiness is signalled asynchronously through OnReady.
// When the device is not yet paired, pairing codes are delivered through
// OnPairingCode until the handshake completes.
func (a *Adapter) Connect(handlers Handlers) error {
	a.mu.Lock()
	a.handlers = handlers
	a.state = StateConnecting
	a.mu.Unlock()

	// Reconnect policy is owned here: one attempt per disconnect event.
	a.client.EnableAutoReconnect = false
	a.client.AddEventHandler(a.handleEvent)

	if a.client.Store.ID == nil {
		qrChan, err := a.client.GetQRChannel(a.ctx)
		if err != nil {
			return fmt.Errorf("get pairing channel: %w", err)
		}
		go a.drainQRChannel(qrChan)
	}

	if err := a.client.Connect(); err != nil {
		a.setState(StateDisconnected)
		return fmt.Errorf("connect: %w", err)
	}
	return nil
}

func (a *Adapter) drainQRChannel(qrChan <-chan whatsmeow.QRChannelItem) {
	for evt := range qrChan {
		if evt.Event == "code" {
			if h := a.getHandlers().OnPairingCode; h != nil {
				h(evt.Code)
			}
		} else {
			logger.WithField("event", evt.Event).Info("pairing channel update")
		}
	}
}

func (a *Adapter) handleEvent(evt any) {
	switch v := evt.(type) {
	case *events.Connected:
		a.setState(StateReady)
		if h := a.getHandlers().OnReady; h != nil {
			h()
		}

	case *events.Disconnected:
		// A logout also closes the socket; do not clobber the terminal state.
		if a.State() == StateAuthFailed {
			return
		}
		a.setState(StateDisconnected)
		if h := a.getHandlers().OnDisconnected; h != nil {
			h("connection closed")
		}
		// Fire-and-forget: the outcome is not awaited, a send racing the
		// reconnect simply fails with ErrNotReady.
		go a.reconnect()

	case *events.LoggedOut:
		a.setState(StateAuthFailed)
		reason := fmt.Sprintf("logged out (%v)", v.Reason)
		logger.Error("whatsapp session " + reason)
		if h := a.getHandlers().OnAuthFailure; h != nil {
			h(reason)
		}

	case *events.PairSuccess:
		logger.WithField("jid", v.ID.String()).Info("device paired")

	case *events.Message:
		if v.Info.IsFromMe {
			return
		}
		text := extractText(v.Message)
		if text == "" {
			return
		}
		if h := a.getHandlers().OnMessage; h != nil {
			h(Incoming{
				Sender:    v.Info.Sender.String(),
				PushName:  v.Info.PushName,
				Text:      text,
				Timestamp: v.Info.Timestamp,
				IsGroup:   v.Info.IsGroup,
			})
		}
	}
}

func (a *Adapter) reconnect() {
	a.setState(StateConnecting)
	if err := a.client.Connect(); err != nil {
		a.setState(StateDisconnected)
		logger.WithError(err).Error("reconnect attempt failed")
	}
}

// SendText delivers a plain text message to the target, which may be a
// full JID or a bare phone number.
func (a *Adapter) SendText(ctx context.Context, to, text string) error {
	if !a.Ready() {
		return ErrNotReady
	}

	jid, err := parseTarget(to)
	if err != nil {
		return fmt.Errorf("send to %s: %w", to, err)
	}

	msg := &waE2E.Message{Conversation: proto.String(text)}
	if _, err := a.client.SendMessage(ctx, jid, msg); err != nil {
		return fmt.Errorf("send to %s: %w", to, err)
	}
	return nil
}

// Ready reports whether the session handshake has completed.
func (a *Adapter) Ready() bool {
	return a.State() == StateReady
}

func (a *Adapter) State() State {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.state
}

// Disconnect tears the connection down without touching the session store.
func (a *Adapter) Disconnect() {
	a.setState(StateDisconnected)
	a.client.Disconnect()
}

func (a *Adapter) setState(s State) {
	a.mu.Lock()
	old := a.state
	a.state = s
	a.mu.Unlock()
	if old != s {
		logger.WithFields(logrus.Fields{
			"from": old.String(),
			"to":   s.String(),
		}).Debug("client state change")
	}
}

func (a *Adapter) getHandlers() Handlers {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.handlers
}

func parseTarget(to string) (types.JID, error) {
	if !strings.ContainsRune(to, '@') {
		return types.NewJID(to, types.DefaultUserServer), nil
	}
	return types.ParseJID(to)
}

func extractText(msg *waE2E.Message) string {
	if msg == nil {
		return ""
	}
	if msg.GetConversation() != "" {
		return msg.GetConversation()
	}
	if ext := msg.GetExtendedTextMessage(); ext != nil {
		return ext.GetText()
	}
	return ""
}
