package services

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/ngfenglong/JiakAIBot/models"
)

// AccessRequestStore persists access requests for later manual review.
type AccessRequestStore interface {
	// SaveAccessRequest writes the request once per user; returns false
	// when a request for that user already exists.
	SaveAccessRequest(ctx context.Context, req *models.AccessRequest) (bool, error)
}

// AccessControl is the allow-list gate in front of every bot command.
// The authorized set is built once at start and read-only afterwards.
type AccessControl struct {
	authorized map[string]struct{}
	requests   AccessRequestStore
}

func NewAccessControl(authorizedIDs []string, requests AccessRequestStore) *AccessControl {
	set := make(map[string]struct{}, len(authorizedIDs))
	for _, id := range authorizedIDs {
		set[id] = struct{}{}
	}
	if len(set) == 0 {
		log.Printf("access control: empty allow-list, all users will be rejected")
	}
	return &AccessControl{authorized: set, requests: requests}
}

func (a *AccessControl) IsAuthorized(userID string) bool {
	_, ok := a.authorized[userID]
	return ok
}

// RequestAccess records an access request from an unauthorized user.
// Returns true if a new request was written; false when the user is
// already authorized or has already asked.
func (a *AccessControl) RequestAccess(ctx context.Context, userID, username, displayName string) (bool, error) {
	if a.IsAuthorized(userID) {
		return false, nil
	}
	req := &models.AccessRequest{
		UserID:      userID,
		Username:    strings.TrimPrefix(username, "@"),
		DisplayName: displayName,
		Status:      models.AccessRequestPending,
		RequestedAt: time.Now(),
	}
	return a.requests.SaveAccessRequest(ctx, req)
}
