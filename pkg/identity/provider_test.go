package identity

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

type prompt struct {
	url, code string
}

func (p *prompt) AuthPrompt(url, code string) { p.url, p.code = url, code }

// fakeServices serves every identity endpoint. pending lists the error
// values the token endpoint reports before it succeeds.
type fakeServices struct {
	pending []string
	polls   atomic.Int32
}

func (f *fakeServices) handler(t *testing.T) http.Handler {
	t.Helper()
	mux := http.NewServeMux()

	mux.HandleFunc("POST /devicecode", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, DefaultClientID, r.Form.Get("client_id"))
		assert.Equal(t, "XboxLive.signin offline_access", r.Form.Get("scope"))
		writeJSON(w, http.StatusOK, map[string]any{
			"device_code":      "dev-123",
			"user_code":        "ABCD-EFGH",
			"verification_uri": "https://microsoft.com/link",
			"expires_in":       900,
			"interval":         1,
		})
	})

	mux.HandleFunc("POST /token", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, deviceCodeGrant, r.Form.Get("grant_type"))
		assert.Equal(t, "dev-123", r.Form.Get("device_code"))

		n := int(f.polls.Add(1))
		if n <= len(f.pending) {
			writeJSON(w, http.StatusBadRequest, map[string]any{"error": f.pending[n-1]})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"access_token":  "ms-token",
			"refresh_token": "ms-refresh",
			"token_type":    "Bearer",
			"expires_in":    3600,
		})
	})

	mux.HandleFunc("POST /xbl", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Properties struct {
				RpsTicket string `json:"RpsTicket"`
			} `json:"Properties"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "d=ms-token", body.Properties.RpsTicket)
		writeJSON(w, http.StatusOK, map[string]any{
			"Token":         "xbl-token",
			"DisplayClaims": map[string]any{"xui": []map[string]string{{"uhs": "uhs-1"}}},
		})
	})

	mux.HandleFunc("POST /xsts", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Properties struct {
				UserTokens []string `json:"UserTokens"`
			} `json:"Properties"`
			RelyingParty string `json:"RelyingParty"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, []string{"xbl-token"}, body.Properties.UserTokens)
		assert.Equal(t, "rp://api.minecraftservices.com/", body.RelyingParty)
		writeJSON(w, http.StatusOK, map[string]any{
			"Token":         "xsts-token",
			"DisplayClaims": map[string]any{"xui": []map[string]string{{"uhs": "uhs-1"}}},
		})
	})

	mux.HandleFunc("POST /mc", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "XBL3.0 x=uhs-1;xsts-token", body["xtoken"])
		assert.Equal(t, "PC_LAUNCHER", body["platform"])
		writeJSON(w, http.StatusOK, map[string]any{"access_token": "mc-token", "expires_in": 86400})
	})

	mux.HandleFunc("GET /profile", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer mc-token", r.Header.Get("Authorization"))
		writeJSON(w, http.StatusOK, map[string]any{"id": "0123abcd", "name": "Steve"})
	})

	return mux
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func testEndpoints(base string) Endpoints {
	return Endpoints{
		DeviceAuth:     base + "/devicecode",
		Token:          base + "/token",
		XboxLive:       base + "/xbl",
		XSTS:           base + "/xsts",
		MinecraftLogin: base + "/mc",
		Profile:        base + "/profile",
	}
}

func newTestProvider(t *testing.T, f *fakeServices) *Provider {
	t.Helper()
	srv := httptest.NewServer(f.handler(t))
	t.Cleanup(srv.Close)

	p := NewProvider("", testEndpoints(srv.URL), srv.Client(), nil)
	p.Interval = 5 * time.Millisecond
	return p
}

func TestAuthenticate_FullChain(t *testing.T) {
	f := &fakeServices{pending: []string{"authorization_pending", "authorization_pending"}}
	p := newTestProvider(t, f)

	pr := &prompt{}
	acc, err := p.Authenticate(context.Background(), pr)
	require.NoError(t, err)

	assert.Equal(t, "https://microsoft.com/link", pr.url)
	assert.Equal(t, "ABCD-EFGH", pr.code)
	assert.Equal(t, "0123abcd", acc.ID)
	assert.Equal(t, "Steve", acc.Name)
	assert.Equal(t, "mc-token", acc.AccessToken)
	assert.Equal(t, "ms-refresh", acc.RefreshToken)
	assert.True(t, acc.Valid(time.Now()))
	assert.Equal(t, int32(3), f.polls.Load())
}

func TestPollToken_UnknownErrorsAreTransient(t *testing.T) {
	f := &fakeServices{pending: []string{"authorization_pending", "something_new", "temporarily_unavailable"}}
	p := newTestProvider(t, f)

	tok, err := p.PollToken(context.Background(), &oauth2.DeviceAuthResponse{DeviceCode: "dev-123"})
	require.NoError(t, err)
	assert.Equal(t, "ms-token", tok.AccessToken)
	assert.Equal(t, int32(4), f.polls.Load())
}

func TestPollToken_TerminalErrors(t *testing.T) {
	cases := map[string]error{
		"authorizing_declined":  ErrDeclined,
		"bad_verification_code": ErrBadVerificationCode,
		"expired_token":         ErrExpiredToken,
	}

	for code, want := range cases {
		t.Run(code, func(t *testing.T) {
			f := &fakeServices{pending: []string{"authorization_pending", code}}
			p := newTestProvider(t, f)

			_, err := p.PollToken(context.Background(), &oauth2.DeviceAuthResponse{DeviceCode: "dev-123"})
			require.Error(t, err)
			assert.True(t, errors.Is(err, want))
			assert.Equal(t, int32(2), f.polls.Load())
		})
	}
}

func TestPollToken_ContextCancel(t *testing.T) {
	pending := make([]string, 1000)
	for i := range pending {
		pending[i] = "authorization_pending"
	}
	p := newTestProvider(t, &fakeServices{pending: pending})

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	_, err := p.PollToken(ctx, &oauth2.DeviceAuthResponse{DeviceCode: "dev-123"})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestExchange_StatusErrorIsNetwork(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "nope", http.StatusUnauthorized)
	}))
	defer srv.Close()

	p := NewProvider("", testEndpoints(srv.URL), srv.Client(), nil)
	_, err := p.XboxLive(context.Background(), "token")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNetwork))

	var xe *ExchangeError
	require.True(t, errors.As(err, &xe))
	assert.Equal(t, http.StatusUnauthorized, xe.Status)
	assert.Equal(t, "xbox live", xe.Step)
}
