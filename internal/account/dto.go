// AngelaMos | 2026
// dto.go

package account

import (
	"time"
)

type ProfileResponse struct {
	School    string `json:"school,omitempty"`
	Class     string `json:"class,omitempty"`
	Expertise string `json:"expertise,omitempty"`
}

type AccountResponse struct {
	ID          string          `json:"id"`
	Email       string          `json:"email"`
	DisplayName string          `json:"name"`
	Role        Role            `json:"role"`
	Status      Status          `json:"status"`
	Balance     *int64          `json:"balance,omitempty"`
	Profile     ProfileResponse `json:"profile"`
	CreatedAt   time.Time       `json:"created_at"`
}

type AccountListResponse struct {
	Accounts []AccountResponse `json:"accounts"`
}

func ToAccountResponse(a *Account) AccountResponse {
	return AccountResponse{
		ID:          a.ID,
		Email:       a.Email,
		DisplayName: a.DisplayName,
		Role:        a.Role,
		Status:      a.Status,
		Balance:     a.Balance,
		Profile: ProfileResponse{
			School:    a.Profile.School,
			Class:     a.Profile.Class,
			Expertise: a.Profile.Expertise,
		},
		CreatedAt: a.CreatedAt,
	}
}

func ToAccountResponseList(accounts []Account) []AccountResponse {
	responses := make([]AccountResponse, 0, len(accounts))
	for i := range accounts {
		responses = append(responses, ToAccountResponse(&accounts[i]))
	}
	return responses
}
