package credential

import (
	"context"
	"fmt"

	"golang.org/x/oauth2/clientcredentials"
)

// Entra exchanges an app registration (client id + secret) for an access
// token scoped to a fixed resource. It performs a fresh exchange on every
// Acquire; wrap it in Cached for reuse-until-expiry.
type Entra struct {
	cfg clientcredentials.Config
}

// NewEntra builds a client-credentials provider against the given tenant.
func NewEntra(tenantID, clientID, clientSecret, scope string) *Entra {
	return &Entra{
		cfg: clientcredentials.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			TokenURL:     fmt.Sprintf("https://login.microsoftonline.com/%s/oauth2/v2.0/token", tenantID),
			Scopes:       []string{scope},
		},
	}
}

// NewBotFramework builds the connector-credential variant used to post
// activities back to the Bot Framework service URL.
func NewBotFramework(appID, appPassword string) *Entra {
	return NewEntra("botframework.com", appID, appPassword, "https://api.botframework.com/.default")
}

func (e *Entra) Acquire(ctx context.Context) (Credential, error) {
	tok, err := e.cfg.Token(ctx)
	if err != nil {
		return Credential{}, &AuthError{Cause: err}
	}
	return Credential{Token: tok.AccessToken, Expiry: tok.Expiry}, nil
}
