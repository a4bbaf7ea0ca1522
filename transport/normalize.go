package transport

import (
	"encoding/json"
	"fmt"
	"time"
)

// wireUser tolerates the id field spellings seen across API versions.
type wireUser struct {
	ID     string `json:"id"`
	AltID  string `json:"_id"`
	UserID string `json:"userId"`
	Role   string `json:"role"`
}

func (u *wireUser) id() string {
	switch {
	case u == nil:
		return ""
	case u.ID != "":
		return u.ID
	case u.AltID != "":
		return u.AltID
	default:
		return u.UserID
	}
}

type wirePayload struct {
	AccessToken     string       `json:"accessToken"`
	Token           string       `json:"token"`
	RefreshToken    string       `json:"refreshToken"`
	NewRefreshToken string       `json:"newRefreshToken"`
	UserID          string       `json:"userId"`
	Role            string       `json:"role"`
	ExpiresIn       int64        `json:"expiresIn"` // milliseconds
	User            *wireUser    `json:"user"`
	Data            *wirePayload `json:"data"`
}

func (p *wirePayload) accessToken() string {
	if p.AccessToken != "" {
		return p.AccessToken
	}
	return p.Token
}

func (p *wirePayload) refreshToken() string {
	if p.NewRefreshToken != "" {
		return p.NewRefreshToken
	}
	return p.RefreshToken
}

// Normalize resolves the legacy and current response shapes into a tagged
// [TokenResponse]. The token may appear as accessToken or token, at the top
// level or nested one layer under data; user identity may come from a user
// object or flat fields. A response with no token at all is
// [ErrUnexpectedResponse].
func Normalize(raw []byte) (*TokenResponse, error) {
	var payload wirePayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnexpectedResponse, err)
	}

	body := &payload
	if body.accessToken() == "" && payload.Data != nil {
		body = payload.Data
	}
	if body.accessToken() == "" {
		return nil, ErrUnexpectedResponse
	}

	resp := &TokenResponse{
		AccessToken:  body.accessToken(),
		RefreshToken: body.refreshToken(),
		UserID:       body.UserID,
		UserRole:     body.Role,
	}
	if body.User != nil {
		if id := body.User.id(); id != "" {
			resp.UserID = id
		}
		if body.User.Role != "" {
			resp.UserRole = body.User.Role
		}
	}
	if body.ExpiresIn > 0 {
		resp.ExpiresIn = time.Duration(body.ExpiresIn) * time.Millisecond
	}

	return resp, nil
}
