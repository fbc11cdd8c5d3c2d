package deliver

import (
	"context"
	"fmt"

	"golang.org/x/oauth2"

	"github.com/you/tg-mediafetch/internal/store"
)

// OAuthRefresher exchanges an expired credential for a fresh one against the
// provider's token endpoint.
type OAuthRefresher struct {
	conf *oauth2.Config
}

var _ Refresher = (*OAuthRefresher)(nil)

func NewOAuthRefresher(clientID, clientSecret, tokenURL string) *OAuthRefresher {
	return &OAuthRefresher{
		conf: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			Endpoint:     oauth2.Endpoint{TokenURL: tokenURL},
		},
	}
}

func (o *OAuthRefresher) Refresh(ctx context.Context, cred *store.Credential) (*store.Credential, error) {
	tok, err := o.conf.TokenSource(ctx, &cred.Token).Token()
	if err != nil {
		return nil, fmt.Errorf("refresh token: %w", err)
	}
	return &store.Credential{Version: cred.Version, Token: *tok}, nil
}
