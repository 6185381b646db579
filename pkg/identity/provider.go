package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2"
)

const deviceCodeGrant = "urn:ietf:params:oauth:grant-type:device_code"

// maxErrorBody bounds how much of a failed response is kept in an error.
const maxErrorBody = 4 << 10

// Prompter is told the verification URL and user code of a device-code flow.
type Prompter interface {
	AuthPrompt(url, code string)
}

// Provider runs the Microsoft device-code flow and the token exchanges that
// follow it. Requests carry no timeout; callers cancel through ctx.
type Provider struct {
	oauth     oauth2.Config
	endpoints Endpoints
	http      *http.Client
	log       *slog.Logger

	// Interval, when non-zero, replaces the polling interval the server
	// issued.
	Interval time.Duration
}

// NewProvider creates a Provider. A nil httpClient falls back to
// http.DefaultClient and a nil logger to slog.Default().
func NewProvider(clientID string, endpoints Endpoints, httpClient *http.Client, log *slog.Logger) *Provider {
	if clientID == "" {
		clientID = DefaultClientID
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if log == nil {
		log = slog.Default()
	}

	return &Provider{
		oauth: oauth2.Config{
			ClientID: clientID,
			Scopes:   Scopes,
			Endpoint: oauth2.Endpoint{
				DeviceAuthURL: endpoints.DeviceAuth,
				TokenURL:      endpoints.Token,
				AuthStyle:     oauth2.AuthStyleInParams,
			},
		},
		endpoints: endpoints,
		http:      httpClient,
		log:       log,
	}
}

// DeviceCode issues a new device code.
func (p *Provider) DeviceCode(ctx context.Context) (*oauth2.DeviceAuthResponse, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, p.http)

	da, err := p.oauth.DeviceAuth(ctx)
	if err != nil {
		return nil, fmt.Errorf("identity: device code: %w: %w", ErrNetwork, err)
	}

	return da, nil
}

// tokenResponse is the token endpoint body, successful or not.
type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
	Error        string `json:"error"`
	Description  string `json:"error_description"`
}

// PollToken polls the token endpoint until the user completes the sign-in,
// a terminal error is reported or ctx is done. Error values other than the
// terminal ones keep polling; slow_down also widens the interval.
func (p *Provider) PollToken(ctx context.Context, da *oauth2.DeviceAuthResponse) (*oauth2.Token, error) {
	interval := time.Duration(da.Interval) * time.Second
	if interval <= 0 {
		interval = 5 * time.Second
	}
	if p.Interval > 0 {
		interval = p.Interval
	}

	form := url.Values{
		"grant_type":  {deviceCodeGrant},
		"client_id":   {p.oauth.ClientID},
		"device_code": {da.DeviceCode},
	}

	timer := time.NewTimer(interval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-timer.C:
		}

		tr, err := p.requestToken(ctx, form)
		if err != nil {
			return nil, err
		}

		switch {
		case tr.Error == "" && tr.AccessToken != "":
			tok := &oauth2.Token{
				AccessToken:  tr.AccessToken,
				RefreshToken: tr.RefreshToken,
				TokenType:    tr.TokenType,
			}
			if tr.ExpiresIn > 0 {
				tok.Expiry = time.Now().Add(time.Duration(tr.ExpiresIn) * time.Second)
			}
			return tok, nil
		case terminalErrors[tr.Error] != nil:
			return nil, fmt.Errorf("identity: poll token: %w", terminalErrors[tr.Error])
		case tr.Error == "slow_down":
			interval += 5 * time.Second
		}

		p.log.Debug("device code pending", "error", tr.Error)
		timer.Reset(interval)
	}
}

func (p *Provider) requestToken(ctx context.Context, form url.Values) (tokenResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoints.Token, strings.NewReader(form.Encode()))
	if err != nil {
		return tokenResponse{}, fmt.Errorf("identity: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := p.http.Do(req) //nolint:gosec // endpoint comes from configuration
	if err != nil {
		return tokenResponse{}, fmt.Errorf("identity: poll token: %w: %w", ErrNetwork, err)
	}
	defer func() { _ = resp.Body.Close() }()

	// Pending and declined states arrive as 400 with an error body, so the
	// status code alone says nothing.
	var tr tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tr); err != nil {
		return tokenResponse{}, fmt.Errorf("identity: poll token: %w: decode: %w", ErrNetwork, err)
	}

	return tr, nil
}

// doJSON sends payload as a JSON POST, or a GET when payload is nil, and
// decodes a 2xx response into dest.
func (p *Provider) doJSON(ctx context.Context, step, endpoint string, header http.Header, payload, dest any) error {
	var body io.Reader
	method := http.MethodGet
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("identity: %s: marshal payload: %w", step, err)
		}
		body = bytes.NewReader(data)
		method = http.MethodPost
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return fmt.Errorf("identity: %s: build request: %w", step, err)
	}
	for k, v := range header {
		req.Header[k] = v
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := p.http.Do(req) //nolint:gosec // endpoint comes from configuration
	if err != nil {
		return fmt.Errorf("identity: %s: %w: %w", step, ErrNetwork, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return fmt.Errorf("identity: %w", &ExchangeError{Step: step, Status: resp.StatusCode, Body: strings.TrimSpace(string(data))})
	}

	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return fmt.Errorf("identity: %s: decode response: %w", step, err)
	}

	return nil
}

// XboxToken is an Xbox Live or XSTS token with its user hash.
type XboxToken struct {
	Token    string
	UserHash string
}

type xboxResponse struct {
	Token         string `json:"Token"`
	DisplayClaims struct {
		Xui []struct {
			Uhs string `json:"uhs"`
		} `json:"xui"`
	} `json:"DisplayClaims"`
}

func (r xboxResponse) token() XboxToken {
	t := XboxToken{Token: r.Token}
	if len(r.DisplayClaims.Xui) > 0 {
		t.UserHash = r.DisplayClaims.Xui[0].Uhs
	}
	return t
}

// XboxLive exchanges a Microsoft access token for an Xbox Live token.
func (p *Provider) XboxLive(ctx context.Context, msToken string) (XboxToken, error) {
	payload := map[string]any{
		"Properties": map[string]any{
			"AuthMethod": "RPS",
			"SiteName":   "user.auth.xboxlive.com",
			"RpsTicket":  "d=" + msToken,
		},
		"RelyingParty": "http://auth.xboxlive.com",
		"TokenType":    "JWT",
	}

	var resp xboxResponse
	if err := p.doJSON(ctx, "xbox live", p.endpoints.XboxLive, nil, payload, &resp); err != nil {
		return XboxToken{}, err
	}

	return resp.token(), nil
}

// XSTS exchanges an Xbox Live token for an XSTS token scoped to Minecraft.
func (p *Provider) XSTS(ctx context.Context, xbl XboxToken) (XboxToken, error) {
	payload := map[string]any{
		"Properties": map[string]any{
			"SandboxId":  "RETAIL",
			"UserTokens": []string{xbl.Token},
		},
		"RelyingParty": "rp://api.minecraftservices.com/",
		"TokenType":    "JWT",
	}

	var resp xboxResponse
	if err := p.doJSON(ctx, "xsts", p.endpoints.XSTS, nil, payload, &resp); err != nil {
		return XboxToken{}, err
	}

	t := resp.token()
	if t.UserHash == "" {
		t.UserHash = xbl.UserHash
	}
	return t, nil
}

// MinecraftToken is a Minecraft services access token.
type MinecraftToken struct {
	AccessToken string
	Expiry      time.Time
}

// MinecraftToken exchanges an XSTS token for a Minecraft access token.
func (p *Provider) MinecraftToken(ctx context.Context, xsts XboxToken) (MinecraftToken, error) {
	payload := map[string]string{
		"xtoken":   "XBL3.0 x=" + xsts.UserHash + ";" + xsts.Token,
		"platform": "PC_LAUNCHER",
	}

	var resp struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int64  `json:"expires_in"`
	}
	if err := p.doJSON(ctx, "minecraft login", p.endpoints.MinecraftLogin, nil, payload, &resp); err != nil {
		return MinecraftToken{}, err
	}

	return MinecraftToken{
		AccessToken: resp.AccessToken,
		Expiry:      time.Now().Add(time.Duration(resp.ExpiresIn) * time.Second),
	}, nil
}

// Profile is the Minecraft profile owned by an account.
type Profile struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Profile looks up the Minecraft profile for an access token.
func (p *Provider) Profile(ctx context.Context, accessToken string) (Profile, error) {
	header := http.Header{"Authorization": {"Bearer " + accessToken}}

	var prof Profile
	if err := p.doJSON(ctx, "profile", p.endpoints.Profile, header, nil, &prof); err != nil {
		return Profile{}, err
	}
	return prof, nil
}

// Authenticate runs the full sign-in chain, reporting the device code through
// prompter.
func (p *Provider) Authenticate(ctx context.Context, prompter Prompter) (Account, error) {
	da, err := p.DeviceCode(ctx)
	if err != nil {
		return Account{}, err
	}

	verify := da.VerificationURIComplete
	if verify == "" {
		verify = da.VerificationURI
	}
	prompter.AuthPrompt(verify, da.UserCode)

	ms, err := p.PollToken(ctx, da)
	if err != nil {
		return Account{}, err
	}

	xbl, err := p.XboxLive(ctx, ms.AccessToken)
	if err != nil {
		return Account{}, err
	}

	xsts, err := p.XSTS(ctx, xbl)
	if err != nil {
		return Account{}, err
	}

	mc, err := p.MinecraftToken(ctx, xsts)
	if err != nil {
		return Account{}, err
	}

	prof, err := p.Profile(ctx, mc.AccessToken)
	if err != nil {
		return Account{}, err
	}

	p.log.Info("signed in", "name", prof.Name)

	return Account{
		ID:           prof.ID,
		Name:         prof.Name,
		AccessToken:  mc.AccessToken,
		Expiry:       mc.Expiry,
		RefreshToken: ms.RefreshToken,
	}, nil
}
