package core

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

type grantRequest struct {
	permissionID string
	token        int64
}

// PermissionNegotiator decides which discovered providers may be presented in
// the current round and issues grant requests for the rest. It tracks the
// request state of each permission; the grant itself is re-probed on every
// negotiation.
type PermissionNegotiator struct {
	probe     *PermissionProbe
	api       PermissionAPI
	nextToken func() int64

	mu          sync.Mutex
	states      map[string]PermissionRequestState
	outstanding map[int64]grantRequest
}

func NewPermissionNegotiator(probe *PermissionProbe, api PermissionAPI, nextToken func() int64) *PermissionNegotiator {
	return &PermissionNegotiator{
		probe:       probe,
		api:         api,
		nextToken:   nextToken,
		states:      map[string]PermissionRequestState{},
		outstanding: map[int64]grantRequest{},
	}
}

// EnsureAuthorized partitions descriptors into those that may be presented now
// and those waiting on a grant. Every distinct permission is negotiated even
// when a grant request fails; the first failure is returned with the result,
// and requests already issued stay outstanding until their callbacks arrive.
func (n *PermissionNegotiator) EnsureAuthorized(
	ctx context.Context,
	descriptors []ProviderDescriptor,
) (NegotiationResult, error) {
	result := NegotiationResult{
		Cleared:         []ProviderDescriptor{},
		PendingRequests: []string{},
		Denied:          []string{},
	}
	if n == nil {
		result.Cleared = cloneDescriptors(descriptors)
		return result, nil
	}

	blocked := map[string]bool{}
	decided := map[string]bool{}
	var requestErr error
	for _, descriptor := range descriptors {
		permissionID := strings.TrimSpace(descriptor.RequiredPermission)
		if permissionID == "" {
			continue
		}
		if decided[permissionID] {
			continue
		}
		decided[permissionID] = true
		if !n.probe.RequiresAuthorization(ctx, permissionID) {
			continue
		}
		blocked[permissionID] = true

		switch n.State(permissionID) {
		case PermissionRequested:
			result.PendingRequests = append(result.PendingRequests, permissionID)
		case PermissionDenied:
			result.Denied = append(result.Denied, permissionID)
		default:
			if err := n.request(ctx, permissionID); err != nil {
				if requestErr == nil {
					requestErr = err
				}
				continue
			}
			result.PendingRequests = append(result.PendingRequests, permissionID)
		}
	}

	for _, descriptor := range descriptors {
		if blocked[strings.TrimSpace(descriptor.RequiredPermission)] {
			continue
		}
		result.Cleared = append(result.Cleared, descriptor)
	}
	return result, requestErr
}

func (n *PermissionNegotiator) request(ctx context.Context, permissionID string) error {
	if n.api == nil {
		return fmt.Errorf("core: permission api is not configured")
	}
	token := n.nextToken()

	n.mu.Lock()
	if n.states[permissionID] == PermissionRequested {
		n.mu.Unlock()
		return nil
	}
	n.states[permissionID] = PermissionRequested
	n.outstanding[token] = grantRequest{permissionID: permissionID, token: token}
	n.mu.Unlock()

	if err := n.api.RequestPermission(ctx, permissionID, token); err != nil {
		n.mu.Lock()
		delete(n.outstanding, token)
		n.states[permissionID] = PermissionUnrequested
		n.mu.Unlock()
		return wrapExternalProviderError(err, "core: permission request failed for "+permissionID)
	}
	return nil
}

// Complete records the answer to a grant request. Tokens that do not match an
// outstanding request are ignored.
func (n *PermissionNegotiator) Complete(grantToken int64, granted bool) (PermissionOutcome, bool) {
	if n == nil {
		return PermissionOutcome{GrantToken: grantToken, Ignored: true}, false
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	request, ok := n.outstanding[grantToken]
	if !ok {
		return PermissionOutcome{GrantToken: grantToken, Ignored: true}, false
	}
	delete(n.outstanding, grantToken)

	state := PermissionDenied
	if granted {
		state = PermissionGranted
	}
	n.states[request.permissionID] = state
	return PermissionOutcome{
		GrantToken:   grantToken,
		PermissionID: request.permissionID,
		State:        state,
	}, true
}

// Retry moves a denied permission back to unrequested so the next negotiation
// may ask again.
func (n *PermissionNegotiator) Retry(permissionID string) error {
	permissionID = strings.TrimSpace(permissionID)
	if permissionID == "" {
		return fmt.Errorf("core: permission id is required")
	}
	if n == nil {
		return nil
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.states[permissionID] == PermissionDenied {
		n.states[permissionID] = PermissionUnrequested
	}
	return nil
}

func (n *PermissionNegotiator) State(permissionID string) PermissionRequestState {
	if n == nil {
		return PermissionUnrequested
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	state, ok := n.states[strings.TrimSpace(permissionID)]
	if !ok {
		return PermissionUnrequested
	}
	return state
}
