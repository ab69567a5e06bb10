package notify

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
)

type notifyService struct {
	requests atomic.Int64
	tokens   []PushToken
}

func (s *notifyService) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/tokens", func(w http.ResponseWriter, r *http.Request) {
		s.requests.Add(1)
		json.NewEncoder(w).Encode(map[string]any{"tokens": s.tokens}) //nolint:errcheck
	})
	mux.HandleFunc("/send-notifications", func(w http.ResponseWriter, r *http.Request) {
		s.requests.Add(1)
		var payload struct {
			Tokens []string `json:"tokens"`
		}
		json.NewDecoder(r.Body).Decode(&payload) //nolint:errcheck
		json.NewEncoder(w).Encode(SendResult{Sent: len(payload.Tokens)}) //nolint:errcheck
	})
	return mux
}

func newTestPanel(t *testing.T, service *notifyService) *Panel {
	t.Helper()
	server := httptest.NewServer(service.handler())
	t.Cleanup(server.Close)

	client, err := NewClient(ClientConfig{BaseURL: server.URL})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	panel, err := NewPanel(PanelConfig{Client: client})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return panel
}

func TestRefreshTokensLoadsList(t *testing.T) {
	service := &notifyService{tokens: []PushToken{
		{UserID: "u1", Token: "tok-1", Platform: "ios"},
		{UserID: "u2", Token: "tok-2", Platform: "android"},
	}}
	panel := newTestPanel(t, service)

	if err := panel.RefreshTokens(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := len(panel.Tokens()); got != 2 {
		t.Fatalf("expected 2 tokens, got %d", got)
	}
	if got := len(panel.FilteredTokens()); got != 2 {
		t.Fatalf("expected the filtered list to start unrestricted, got %d", got)
	}
}

func TestPlatformFilterRestrictsSubset(t *testing.T) {
	service := &notifyService{tokens: []PushToken{
		{Token: "tok-1", Platform: "ios"},
		{Token: "tok-2", Platform: "android"},
		{Token: "tok-3", Platform: "ios"},
	}}
	panel := newTestPanel(t, service)

	if err := panel.RefreshTokens(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	panel.SetPlatformFilter("ios")
	filtered := panel.FilteredTokens()
	if len(filtered) != 2 {
		t.Fatalf("expected 2 ios tokens, got %d", len(filtered))
	}
	for _, token := range filtered {
		if token.Platform != "ios" {
			t.Fatalf("non-ios token in the subset: %+v", token)
		}
	}

	panel.SetPlatformFilter("all")
	if got := len(panel.FilteredTokens()); got != 3 {
		t.Fatalf("expected all tokens back, got %d", got)
	}
}

func TestSendRejectsBadDataJSONWithZeroRequests(t *testing.T) {
	service := &notifyService{tokens: []PushToken{{Token: "tok-1", Platform: "ios"}}}
	panel := newTestPanel(t, service)

	if err := panel.RefreshTokens(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	before := service.requests.Load()

	_, err := panel.Send(context.Background(), "Title", "Body", "{bad json")
	if !errors.Is(err, ErrInvalidDataFormat) {
		t.Fatalf("expected ErrInvalidDataFormat, got %v", err)
	}
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("expected the error to wrap ErrValidation")
	}
	if service.requests.Load() != before {
		t.Fatalf("a request was issued despite local validation failure")
	}
}

func TestSendRequiresTitleAndBody(t *testing.T) {
	service := &notifyService{}
	panel := newTestPanel(t, service)

	if _, err := panel.Send(context.Background(), "", "Body", ""); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
	if _, err := panel.Send(context.Background(), "Title", "", ""); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
	if service.requests.Load() != 0 {
		t.Fatalf("a request was issued despite local validation failure")
	}
}

func TestSendWithEmptyRecipientList(t *testing.T) {
	service := &notifyService{tokens: []PushToken{{Token: "tok-1", Platform: "ios"}}}
	panel := newTestPanel(t, service)

	if err := panel.RefreshTokens(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	panel.SetPlatformFilter("web")

	if _, err := panel.Send(context.Background(), "Title", "Body", ""); !errors.Is(err, ErrNoTokens) {
		t.Fatalf("expected ErrNoTokens, got %v", err)
	}
}

func TestSendFansOutToFilteredTokens(t *testing.T) {
	service := &notifyService{tokens: []PushToken{
		{Token: "tok-1", Platform: "ios"},
		{Token: "tok-2", Platform: "android"},
	}}
	panel := newTestPanel(t, service)

	if err := panel.RefreshTokens(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	panel.SetPlatformFilter("android")

	result, err := panel.Send(context.Background(), "Title", "Body", `{"screen":"home"}`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Sent != 1 {
		t.Fatalf("expected fan-out to the 1 filtered token, got %d", result.Sent)
	}
}
