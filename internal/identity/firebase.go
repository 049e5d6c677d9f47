package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

const defaultEndpoint = "https://identitytoolkit.googleapis.com/v1"

// FirebaseProvider implements Provider against the Firebase Identity
// Toolkit REST API, the same surface the original web client signs in
// through.
type FirebaseProvider struct {
	apiKey   string
	endpoint string
	http     *http.Client
}

// NewFirebaseProvider creates a provider using the project's web API key.
func NewFirebaseProvider(apiKey string) *FirebaseProvider {
	return &FirebaseProvider{
		apiKey:   apiKey,
		endpoint: defaultEndpoint,
		http:     &http.Client{Timeout: 15 * time.Second},
	}
}

// NewFirebaseProviderWithEndpoint creates a provider against a custom
// endpoint, such as the Auth emulator.
func NewFirebaseProviderWithEndpoint(apiKey, endpoint string) *FirebaseProvider {
	p := NewFirebaseProvider(apiKey)
	p.endpoint = endpoint
	return p
}

type identityError struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

// post calls an Identity Toolkit method and decodes the response into out.
// Provider rejections surface as AuthError carrying the provider code.
func (p *FirebaseProvider) post(ctx context.Context, method string, body, out interface{}) error {
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to encode request: %w", err)
	}

	url := fmt.Sprintf("%s/accounts:%s?key=%s", p.endpoint, method, p.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.http.Do(req)
	if err != nil {
		return fmt.Errorf("identity request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var ie identityError
		if err := json.NewDecoder(resp.Body).Decode(&ie); err == nil && ie.Error.Message != "" {
			return &AuthError{Code: ie.Error.Message}
		}
		return &AuthError{Code: resp.Status}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode identity response: %w", err)
	}
	return nil
}

type signUpRequest struct {
	Email             string `json:"email"`
	Password          string `json:"password"`
	ReturnSecureToken bool   `json:"returnSecureToken"`
}

type signUpResponse struct {
	LocalID      string `json:"localId"`
	Email        string `json:"email"`
	DisplayName  string `json:"displayName"`
	IDToken      string `json:"idToken"`
	RefreshToken string `json:"refreshToken"`
}

func (p *FirebaseProvider) SignUp(ctx context.Context, email, password string) (*Account, error) {
	var resp signUpResponse
	err := p.post(ctx, "signUp", signUpRequest{
		Email:             email,
		Password:          password,
		ReturnSecureToken: true,
	}, &resp)
	if err != nil {
		return nil, err
	}

	return &Account{
		UID:          resp.LocalID,
		Email:        resp.Email,
		DisplayName:  resp.DisplayName,
		IDToken:      resp.IDToken,
		RefreshToken: resp.RefreshToken,
	}, nil
}

type signInRequest struct {
	Email             string `json:"email"`
	Password          string `json:"password"`
	ReturnSecureToken bool   `json:"returnSecureToken"`
}

type signInResponse struct {
	LocalID      string `json:"localId"`
	Email        string `json:"email"`
	DisplayName  string `json:"displayName"`
	ProfilePic   string `json:"profilePicture"`
	IDToken      string `json:"idToken"`
	RefreshToken string `json:"refreshToken"`
}

func (p *FirebaseProvider) SignIn(ctx context.Context, email, password string) (*Account, error) {
	var resp signInResponse
	err := p.post(ctx, "signInWithPassword", signInRequest{
		Email:             email,
		Password:          password,
		ReturnSecureToken: true,
	}, &resp)
	if err != nil {
		return nil, err
	}

	account := &Account{
		UID:          resp.LocalID,
		Email:        resp.Email,
		DisplayName:  resp.DisplayName,
		PhotoURL:     resp.ProfilePic,
		IDToken:      resp.IDToken,
		RefreshToken: resp.RefreshToken,
	}

	// Email verification state only comes back from a lookup; sign-in
	// proceeds regardless, so a lookup failure is not fatal.
	if info, err := p.lookup(ctx, resp.IDToken); err == nil {
		account.EmailVerified = info.EmailVerified
		if info.PhotoURL != "" {
			account.PhotoURL = info.PhotoURL
		}
	}

	return account, nil
}

// SignOut is a no-op for the token-based provider: discarding the token is
// the sign-out.
func (p *FirebaseProvider) SignOut(ctx context.Context) error {
	return nil
}

type sendOobCodeRequest struct {
	RequestType string `json:"requestType"`
	Email       string `json:"email"`
}

func (p *FirebaseProvider) SendPasswordReset(ctx context.Context, email string) error {
	return p.post(ctx, "sendOobCode", sendOobCodeRequest{
		RequestType: "PASSWORD_RESET",
		Email:       email,
	}, nil)
}

type updateProfileRequest struct {
	IDToken           string `json:"idToken"`
	DisplayName       string `json:"displayName,omitempty"`
	PhotoURL          string `json:"photoUrl,omitempty"`
	ReturnSecureToken bool   `json:"returnSecureToken"`
}

type updateProfileResponse struct {
	LocalID      string `json:"localId"`
	Email        string `json:"email"`
	DisplayName  string `json:"displayName"`
	PhotoURL     string `json:"photoUrl"`
	IDToken      string `json:"idToken"`
	RefreshToken string `json:"refreshToken"`
}

func (p *FirebaseProvider) UpdateProfile(ctx context.Context, idToken, displayName, photoURL string) (*Account, error) {
	var resp updateProfileResponse
	err := p.post(ctx, "update", updateProfileRequest{
		IDToken:           idToken,
		DisplayName:       displayName,
		PhotoURL:          photoURL,
		ReturnSecureToken: true,
	}, &resp)
	if err != nil {
		return nil, err
	}

	account := &Account{
		UID:          resp.LocalID,
		Email:        resp.Email,
		DisplayName:  resp.DisplayName,
		PhotoURL:     resp.PhotoURL,
		IDToken:      resp.IDToken,
		RefreshToken: resp.RefreshToken,
	}
	// The update endpoint only mints a new token when asked; fall back to
	// the caller's token otherwise.
	if account.IDToken == "" {
		account.IDToken = idToken
	}
	return account, nil
}

type lookupRequest struct {
	IDToken string `json:"idToken"`
}

type lookupResponse struct {
	Users []struct {
		LocalID       string `json:"localId"`
		Email         string `json:"email"`
		DisplayName   string `json:"displayName"`
		PhotoURL      string `json:"photoUrl"`
		EmailVerified bool   `json:"emailVerified"`
	} `json:"users"`
}

type lookupInfo struct {
	PhotoURL      string
	EmailVerified bool
}

func (p *FirebaseProvider) lookup(ctx context.Context, idToken string) (*lookupInfo, error) {
	var resp lookupResponse
	if err := p.post(ctx, "lookup", lookupRequest{IDToken: idToken}, &resp); err != nil {
		return nil, err
	}
	if len(resp.Users) == 0 {
		return nil, fmt.Errorf("lookup returned no users")
	}
	return &lookupInfo{
		PhotoURL:      resp.Users[0].PhotoURL,
		EmailVerified: resp.Users[0].EmailVerified,
	}, nil
}
