package oauth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/oauth2"

	"github.com/beemstream/profile-service/internal/domain"
	apperrors "github.com/beemstream/profile-service/internal/errors"
	"github.com/beemstream/profile-service/internal/httpclient"
)

// TwitchEndpoint is Twitch's OAuth2 endpoint pair. The provider requires
// client-secret-in-body authentication on the token endpoint.
var TwitchEndpoint = oauth2.Endpoint{
	AuthURL:   "https://id.twitch.tv/oauth2/authorize",
	TokenURL:  "https://id.twitch.tv/oauth2/token",
	AuthStyle: oauth2.AuthStyleInParams,
}

// scopes requested on every authorization.
var scopes = []string{"openid", "user:read:email"}

// Config holds the provider client credentials.
type Config struct {
	ClientID     string
	ClientSecret string
	CallbackURL  string

	// Endpoint overrides the provider endpoints; zero value means Twitch.
	Endpoint oauth2.Endpoint
}

// Client exchanges authorization codes and refresh tokens with the provider.
type Client struct {
	cfg        *oauth2.Config
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a provider exchange client. All token-endpoint calls run
// through a circuit-breaker HTTP client, so a provider outage fails fast
// instead of holding request goroutines on a dead upstream.
func NewClient(cfg Config, logger *slog.Logger) *Client {
	endpoint := cfg.Endpoint
	if endpoint.TokenURL == "" {
		endpoint = TwitchEndpoint
	}

	return &Client{
		cfg: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.CallbackURL,
			Endpoint:     endpoint,
			Scopes:       scopes,
		},
		httpClient: httpclient.NewBreakerClient(httpclient.DefaultBreakerConfig("twitch-oauth"), logger),
		logger:     logger,
	}
}

// providerContext makes the oauth2 library use the breaker-guarded client.
func (c *Client) providerContext(ctx context.Context) context.Context {
	return context.WithValue(ctx, oauth2.HTTPClient, c.httpClient)
}

// AuthorizeURL builds the provider authorization redirect with a random CSRF
// state token. The state is returned to the caller; it is not persisted and
// not verified on callback (a known gap carried over from the original flow).
func (c *Client) AuthorizeURL() (url, state string) {
	state = randomState()
	return c.cfg.AuthCodeURL(state), state
}

// Exchange performs the authorization-code grant against the provider's
// token endpoint.
func (c *Client) Exchange(ctx context.Context, code string) (*domain.OAuthTokenSet, error) {
	token, err := c.cfg.Exchange(c.providerContext(ctx), code)
	if err != nil {
		return nil, c.exchangeError(ctx, "code exchange", err)
	}
	return c.tokenSet(ctx, token)
}

// Refresh performs the refresh-token grant variant.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (*domain.OAuthTokenSet, error) {
	source := c.cfg.TokenSource(c.providerContext(ctx), &oauth2.Token{RefreshToken: refreshToken})
	token, err := source.Token()
	if err != nil {
		return nil, c.exchangeError(ctx, "refresh exchange", err)
	}
	return c.tokenSet(ctx, token)
}

// tokenSet maps the provider response to the transient token set. A response
// without a refresh token is treated as malformed.
func (c *Client) tokenSet(ctx context.Context, token *oauth2.Token) (*domain.OAuthTokenSet, error) {
	if token.AccessToken == "" || token.RefreshToken == "" {
		return nil, c.exchangeError(ctx, "token response", fmt.Errorf("provider response missing token fields"))
	}

	expiresIn := time.Duration(0)
	if !token.Expiry.IsZero() {
		expiresIn = time.Until(token.Expiry)
	}

	return &domain.OAuthTokenSet{
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
		ExpiresIn:    expiresIn,
	}, nil
}

// exchangeError logs the provider detail and collapses every failure mode
// (transport, provider error response, malformed body) into one kind. The
// provider's description never reaches the end client.
func (c *Client) exchangeError(ctx context.Context, op string, err error) error {
	var retrieveErr *oauth2.RetrieveError
	if errors.As(err, &retrieveErr) {
		c.logger.ErrorContext(ctx, "provider rejected exchange",
			slog.String("op", op),
			slog.String("error_code", retrieveErr.ErrorCode),
			slog.String("error_description", retrieveErr.ErrorDescription),
		)
	} else {
		c.logger.ErrorContext(ctx, "provider exchange failed",
			slog.String("op", op),
			slog.String("error", err.Error()),
		)
	}
	return apperrors.ExchangeFailed(err)
}

// randomState creates a random base64url CSRF state token.
func randomState() string {
	b := make([]byte, 32)
	_, _ = rand.Read(b)
	return base64.RawURLEncoding.EncodeToString(b)
}
