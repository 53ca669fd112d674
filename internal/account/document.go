// AngelaMos | 2026
// document.go

package account

import (
	"fmt"
	"time"

	"github.com/smartpro-edu/smartpro/internal/core"
	"github.com/smartpro-edu/smartpro/internal/docstore"
)

const Collection = "users"

const (
	fieldRole   = "role"
	fieldStatus = "status"
)

// record is the stored shape of an account.
type record struct {
	Email       string    `json:"email"`
	DisplayName string    `json:"name"`
	Role        string    `json:"role"`
	Status      string    `json:"status"`
	Balance     *int64    `json:"balance,omitempty"`
	School      string    `json:"school,omitempty"`
	Class       string    `json:"class,omitempty"`
	Expertise   string    `json:"expertise,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

func toRecord(a *Account) record {
	return record{
		Email:       a.Email,
		DisplayName: a.DisplayName,
		Role:        string(a.Role),
		Status:      string(a.Status),
		Balance:     a.Balance,
		School:      a.Profile.School,
		Class:       a.Profile.Class,
		Expertise:   a.Profile.Expertise,
		CreatedAt:   a.CreatedAt,
	}
}

// fromDocument parses a stored record. Unknown roles or statuses and
// negative balances are reported as ErrMalformedAccount.
func fromDocument(doc *docstore.Document) (*Account, error) {
	var rec record
	if err := doc.Decode(&rec); err != nil {
		return nil, fmt.Errorf("account %s: %w: %w", doc.ID, core.ErrMalformedAccount, err)
	}

	role, err := ParseRole(rec.Role)
	if err != nil {
		return nil, fmt.Errorf("account %s: %w: unknown role %q",
			doc.ID, core.ErrMalformedAccount, rec.Role)
	}

	status, err := ParseStatus(rec.Status)
	if err != nil {
		return nil, fmt.Errorf("account %s: %w", doc.ID, err)
	}

	if rec.Balance != nil && *rec.Balance < 0 {
		return nil, fmt.Errorf("account %s: %w: negative balance",
			doc.ID, core.ErrMalformedAccount)
	}

	createdAt := rec.CreatedAt
	if createdAt.IsZero() {
		createdAt = doc.CreatedAt
	}

	return &Account{
		ID:          doc.ID,
		Email:       rec.Email,
		DisplayName: rec.DisplayName,
		Role:        role,
		Status:      status,
		Balance:     rec.Balance,
		Profile: Profile{
			School:    rec.School,
			Class:     rec.Class,
			Expertise: rec.Expertise,
		},
		CreatedAt: createdAt,
	}, nil
}
