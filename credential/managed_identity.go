package credential

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

const imdsEndpoint = "http://169.254.169.254/metadata/identity/oauth2/token"
const imdsAPIVersion = "2018-02-01"

// ManagedIdentity fetches a token from the Azure instance metadata service.
// Every Acquire is a fresh fetch; wrap it in Cached for reuse-until-expiry.
type ManagedIdentity struct {
	endpoint   string
	resource   string
	clientID   string
	httpClient *http.Client
}

// NewManagedIdentity builds an IMDS provider for the given resource.
// clientID selects a user-assigned identity and may be empty.
func NewManagedIdentity(resource, clientID string) *ManagedIdentity {
	return &ManagedIdentity{
		endpoint:   imdsEndpoint,
		resource:   resource,
		clientID:   clientID,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

type imdsResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresOn   string `json:"expires_on"`
}

func (m *ManagedIdentity) Acquire(ctx context.Context) (Credential, error) {
	query := url.Values{}
	query.Set("api-version", imdsAPIVersion)
	query.Set("resource", m.resource)
	if m.clientID != "" {
		query.Set("client_id", m.clientID)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, m.endpoint+"?"+query.Encode(), nil)
	if err != nil {
		return Credential{}, &AuthError{Cause: err}
	}
	req.Header.Set("Metadata", "true")

	resp, err := m.httpClient.Do(req)
	if err != nil {
		return Credential{}, &AuthError{Cause: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return Credential{}, &AuthError{Cause: err}
	}
	if resp.StatusCode != http.StatusOK {
		return Credential{}, &AuthError{Cause: fmt.Errorf("imds status %d: %s", resp.StatusCode, body)}
	}

	var out imdsResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return Credential{}, &AuthError{Cause: err}
	}
	if out.AccessToken == "" {
		return Credential{}, &AuthError{Cause: fmt.Errorf("imds returned empty access_token")}
	}

	expiry := time.Time{}
	if secs, err := strconv.ParseInt(out.ExpiresOn, 10, 64); err == nil {
		expiry = time.Unix(secs, 0)
	}
	return Credential{Token: out.AccessToken, Expiry: expiry}, nil
}
