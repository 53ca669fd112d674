// AngelaMos | 2026
// dto.go

package subscription

import (
	"time"
)

type ActivateRequest struct {
	Days int `json:"days" validate:"omitempty,min=1,max=366"`
}

type SubscriptionResponse struct {
	ID          string     `json:"id"`
	UserID      string     `json:"user_id"`
	Status      Status     `json:"status"`
	RequestedAt time.Time  `json:"requested_at"`
	ActivatedAt *time.Time `json:"activated_at,omitempty"`
	ExpiresAt   *time.Time `json:"expires_at,omitempty"`
}

type SubscriptionListResponse struct {
	Subscriptions []SubscriptionResponse `json:"subscriptions"`
}

func ToSubscriptionResponse(s *Subscription) SubscriptionResponse {
	return SubscriptionResponse{
		ID:          s.ID,
		UserID:      s.UserID,
		Status:      s.Status,
		RequestedAt: s.RequestedAt,
		ActivatedAt: s.ActivatedAt,
		ExpiresAt:   s.ExpiresAt,
	}
}

func ToSubscriptionResponseList(subs []Subscription) []SubscriptionResponse {
	responses := make([]SubscriptionResponse, 0, len(subs))
	for i := range subs {
		responses = append(responses, ToSubscriptionResponse(&subs[i]))
	}
	return responses
}
