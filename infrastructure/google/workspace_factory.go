package google

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"bettersaved/application/ports"
	"bettersaved/pkg/observability"

	"github.com/aws/aws-xray-sdk-go/xray"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
	googleoauth "golang.org/x/oauth2/google"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// Scopes requested for a user's workspace
var Scopes = []string{
	drive.DriveFileScope,
	sheets.SpreadsheetsScope,
}

// ErrNoToken is returned for credentials that carry neither an access nor a refresh token
var ErrNoToken = errors.New("credential has no token")

// Credential is the stored OAuth user credential.
// Both the authorized-user layout ("token") and the oauth2 layout ("access_token") are accepted.
type Credential struct {
	Token        string   `json:"token,omitempty"`
	AccessToken  string   `json:"access_token,omitempty"`
	RefreshToken string   `json:"refresh_token,omitempty"`
	TokenURI     string   `json:"token_uri,omitempty"`
	ClientID     string   `json:"client_id,omitempty"`
	ClientSecret string   `json:"client_secret,omitempty"`
	Scopes       []string `json:"scopes,omitempty"`
	Expiry       string   `json:"expiry,omitempty"`
}

// ParseCredential decodes a stored credential
func ParseCredential(raw string) (*Credential, error) {
	var c Credential
	if err := json.Unmarshal([]byte(raw), &c); err != nil {
		return nil, fmt.Errorf("invalid credential: %w", err)
	}
	if c.AccessToken == "" {
		c.AccessToken = c.Token
	}
	if c.AccessToken == "" && c.RefreshToken == "" {
		return nil, ErrNoToken
	}
	return &c, nil
}

// OAuthToken converts the credential to an oauth2 token
func (c *Credential) OAuthToken() *oauth2.Token {
	return &oauth2.Token{
		AccessToken:  c.AccessToken,
		RefreshToken: c.RefreshToken,
		TokenType:    "Bearer",
		Expiry:       parseExpiry(c.Expiry),
	}
}

// parseExpiry accepts RFC 3339 and naive ISO timestamps, read as UTC
func parseExpiry(s string) time.Time {
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05.999999", "2006-01-02T15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

// WorkspaceFactory opens Drive and Sheets sessions from stored credentials
type WorkspaceFactory struct {
	clientID     string
	clientSecret string
	redirectURL  string
	guard        *Guard
	tracer       *observability.Tracer
	logger       *zap.Logger
}

var _ ports.WorkspaceFactory = (*WorkspaceFactory)(nil)

// NewWorkspaceFactory creates a factory. The client id and secret are used when the credential omits them.
func NewWorkspaceFactory(clientID, clientSecret, redirectURL string, guard *Guard, tracer *observability.Tracer, logger *zap.Logger) *WorkspaceFactory {
	return &WorkspaceFactory{
		clientID:     clientID,
		clientSecret: clientSecret,
		redirectURL:  redirectURL,
		guard:        guard,
		tracer:       tracer,
		logger:       logger,
	}
}

// Open builds an authenticated workspace. Token refresh happens lazily on the first call.
func (f *WorkspaceFactory) Open(ctx context.Context, credential string) (ports.Workspace, error) {
	cred, err := ParseCredential(credential)
	if err != nil {
		return nil, err
	}

	cfg := f.oauthConfig(cred)
	// refreshes may outlive the inbound request
	tokenCtx := context.WithoutCancel(ctx)
	httpClient := oauth2.NewClient(tokenCtx, cfg.TokenSource(tokenCtx, cred.OAuthToken()))
	if f.tracer.Enabled() {
		httpClient = xray.Client(httpClient)
	}

	driveSvc, err := drive.NewService(ctx, option.WithHTTPClient(httpClient))
	if err != nil {
		return nil, fmt.Errorf("failed to create drive client: %w", err)
	}
	sheetsSvc, err := sheets.NewService(ctx, option.WithHTTPClient(httpClient))
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets client: %w", err)
	}

	return newWorkspace(driveSvc, sheetsSvc, f.guard), nil
}

func (f *WorkspaceFactory) oauthConfig(cred *Credential) *oauth2.Config {
	cfg := &oauth2.Config{
		ClientID:     cred.ClientID,
		ClientSecret: cred.ClientSecret,
		Endpoint:     googleoauth.Endpoint,
		Scopes:       cred.Scopes,
	}
	if cfg.ClientID == "" {
		cfg.ClientID = f.clientID
		cfg.ClientSecret = f.clientSecret
	}
	if len(cfg.Scopes) == 0 {
		cfg.Scopes = Scopes
	}
	if cred.TokenURI != "" {
		cfg.Endpoint.TokenURL = cred.TokenURI
	}
	return cfg
}

// AuthCodeURL returns the consent page a user opens to grant offline Drive access.
// The code exchange happens on the redirect target, outside this service.
// It returns "" when no OAuth client is configured.
func (f *WorkspaceFactory) AuthCodeURL(state string) string {
	if f.clientID == "" || f.redirectURL == "" {
		return ""
	}
	cfg := &oauth2.Config{
		ClientID:     f.clientID,
		ClientSecret: f.clientSecret,
		RedirectURL:  f.redirectURL,
		Endpoint:     googleoauth.Endpoint,
		Scopes:       Scopes,
	}
	return cfg.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.ApprovalForce)
}
