package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/freshmartlabs/freshmart-admin/backend/internal/view"
)

var (
	errMissingClient = errors.New("notify: service client is required")

	// ErrBusy reports a conflicting operation while one is in flight for
	// this screen.
	ErrBusy = errors.New("notify: operation already in progress")
	// ErrValidation wraps local, pre-network input errors.
	ErrValidation = errors.New("notify: invalid input")
	// ErrInvalidDataFormat reports a data payload that does not parse as a
	// JSON object. It is surfaced before any request is made.
	ErrInvalidDataFormat = fmt.Errorf("%w: invalid JSON format in data field", ErrValidation)
	// ErrNoTokens reports a send attempted with an empty recipient list.
	ErrNoTokens = fmt.Errorf("%w: no tokens available to send notifications to", ErrValidation)
)

// PanelConfig bundles collaborators for the notification send panel.
type PanelConfig struct {
	Client *Client
	Logger *zap.Logger
}

// Panel holds the send screen's state: the full device token list and the
// filtered subset notifications actually go to. The filtered list is
// always a subset of the full list and is recomputed whenever the
// platform filter changes.
type Panel struct {
	client *Client
	logger *zap.Logger

	session view.Session
	seq     view.Sequencer

	tokens   []PushToken
	platform string
	filtered []PushToken
}

// NewPanel validates configuration and builds an empty panel; call
// RefreshTokens to load it.
func NewPanel(cfg PanelConfig) (*Panel, error) {
	if cfg.Client == nil {
		return nil, errMissingClient
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Panel{client: cfg.Client, logger: logger, platform: view.All}, nil
}

// RefreshTokens reloads the device token list and recomputes the filtered
// subset. A response superseded by a newer refresh is discarded.
func (p *Panel) RefreshTokens(ctx context.Context) error {
	if err := p.session.Begin(); err != nil {
		return ErrBusy
	}
	defer p.session.End()

	seq := p.seq.Next()
	tokens, err := p.client.Tokens(ctx)
	if err != nil {
		return err
	}
	if !p.seq.Accept(seq) {
		p.logger.Debug("stale token refresh discarded", zap.Uint64("seq", seq))
		return nil
	}

	p.session.Lock()
	p.tokens = tokens
	p.filtered = filterTokens(tokens, p.platform)
	p.session.Unlock()

	p.logger.Info("device tokens loaded", zap.Int("count", len(tokens)))
	return nil
}

// SetPlatformFilter restricts the recipient subset to one platform;
// view.All selects every token.
func (p *Panel) SetPlatformFilter(platform string) {
	p.session.Lock()
	p.platform = platform
	p.filtered = filterTokens(p.tokens, platform)
	p.session.Unlock()
}

func filterTokens(tokens []PushToken, platform string) []PushToken {
	return view.Apply(tokens, view.Equals(platform, func(t PushToken) string { return t.Platform }), nil)
}

// Tokens returns the full device list.
func (p *Panel) Tokens() []PushToken {
	p.session.Lock()
	defer p.session.Unlock()
	return append([]PushToken(nil), p.tokens...)
}

// FilteredTokens returns the current recipient subset.
func (p *Panel) FilteredTokens() []PushToken {
	p.session.Lock()
	defer p.session.Unlock()
	return append([]PushToken(nil), p.filtered...)
}

// Send validates the composition and fans it out to the filtered tokens.
// Title and body must be non-empty and dataJSON must parse as a JSON
// object; any validation failure is surfaced locally with zero HTTP
// requests issued.
func (p *Panel) Send(ctx context.Context, title, body, dataJSON string) (SendResult, error) {
	if title == "" || body == "" {
		return SendResult{}, fmt.Errorf("%w: title and body are required", ErrValidation)
	}

	data := map[string]any{}
	if dataJSON != "" {
		if err := json.Unmarshal([]byte(dataJSON), &data); err != nil {
			return SendResult{}, ErrInvalidDataFormat
		}
	}

	p.session.Lock()
	recipients := make([]string, 0, len(p.filtered))
	for _, token := range p.filtered {
		recipients = append(recipients, token.Token)
	}
	p.session.Unlock()

	if len(recipients) == 0 {
		return SendResult{}, ErrNoTokens
	}

	if err := p.session.Begin(); err != nil {
		return SendResult{}, ErrBusy
	}
	defer p.session.End()

	result, err := p.client.Send(ctx, recipients, title, body, data)
	if err != nil {
		return SendResult{}, err
	}

	p.logger.Info("notifications sent",
		zap.Int("sent", result.Sent),
		zap.Int("failed", result.Failed))
	return result, nil
}
