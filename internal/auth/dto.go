// AngelaMos | 2026
// dto.go

package auth

import (
	"time"

	"github.com/smartpro-edu/smartpro/internal/account"
	"github.com/smartpro-edu/smartpro/internal/core"
	"github.com/smartpro-edu/smartpro/internal/gate"
	"github.com/smartpro-edu/smartpro/internal/identity"
	"github.com/smartpro-edu/smartpro/internal/session"
)

// Password length is enforced by the identity policy, so only an upper
// bound is checked here.
type RegisterRequest struct {
	Email     string `json:"email"     validate:"required,email,max=255"`
	Password  string `json:"password"  validate:"required,max=128"`
	Name      string `json:"name"      validate:"required,min=1,max=100"`
	Role      string `json:"role"      validate:"required"`
	School    string `json:"school"    validate:"max=150"`
	Class     string `json:"class"     validate:"max=50"`
	Expertise string `json:"expertise" validate:"max=150"`
}

type LoginRequest struct {
	Email    string `json:"email"    validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,max=128"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

type TokenResponse struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	TokenType    string    `json:"token_type"`
	SessionID    string    `json:"session_id"`
	ExpiresIn    int       `json:"expires_in"`
	ExpiresAt    time.Time `json:"expires_at"`
}

type LoginResponse struct {
	Account  account.AccountResponse `json:"account"`
	Tokens   TokenResponse           `json:"tokens"`
	Redirect gate.Area               `json:"redirect"`
}

type MeResponse struct {
	Account  account.AccountResponse `json:"account"`
	Redirect gate.Area               `json:"redirect"`
}

type SessionInfo struct {
	ID        string    `json:"id"`
	UserAgent string    `json:"user_agent"`
	IPAddress string    `json:"ip_address"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

type SessionsResponse struct {
	Sessions []SessionInfo `json:"sessions"`
}

// StateResponse is one session state pushed over the event stream.
type StateResponse struct {
	Loading  bool                     `json:"loading"`
	Account  *account.AccountResponse `json:"account"`
	Error    *core.ErrorBody          `json:"error,omitempty"`
	Redirect gate.Area                `json:"redirect,omitempty"`
}

func ToTokenResponse(t *identity.Tokens) TokenResponse {
	return TokenResponse{
		AccessToken:  t.AccessToken,
		RefreshToken: t.RefreshToken,
		TokenType:    "Bearer",
		SessionID:    t.SessionID,
		ExpiresIn:    int(t.ExpiresIn.Seconds()),
		ExpiresAt:    t.ExpiresAt,
	}
}

// ToSessionInfoList collapses rotated refresh tokens into one entry per
// session, keeping the newest token's details.
func ToSessionInfoList(sessions []identity.Session) []SessionInfo {
	index := make(map[string]int, len(sessions))
	infos := make([]SessionInfo, 0, len(sessions))

	for _, s := range sessions {
		info := SessionInfo{
			ID:        s.FamilyID,
			UserAgent: s.UserAgent,
			IPAddress: s.IPAddress,
			CreatedAt: s.CreatedAt,
			ExpiresAt: s.ExpiresAt,
		}

		i, seen := index[s.FamilyID]
		if !seen {
			index[s.FamilyID] = len(infos)
			infos = append(infos, info)
			continue
		}
		if s.CreatedAt.After(infos[i].CreatedAt) {
			infos[i] = info
		}
	}

	return infos
}

func ToStateResponse(s session.State) StateResponse {
	resp := StateResponse{Loading: s.Loading}

	if s.Account != nil {
		a := account.ToAccountResponse(s.Account)
		resp.Account = &a
		resp.Redirect = gate.Route(s.Account.Role)
	}

	if s.Err != nil {
		appErr := gate.Describe(s.Err)
		resp.Error = &core.ErrorBody{
			Code:     appErr.Code,
			Message:  appErr.Message,
			Category: appErr.Category,
		}
	}

	if s.SignedOut() {
		resp.Redirect = gate.LoginArea
	}

	return resp
}
