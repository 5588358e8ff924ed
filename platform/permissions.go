package platform

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

type PermissionRequest struct {
	PermissionID string
	GrantToken   int64
}

// PermissionTable tracks which permissions the app declared and which the
// user granted. RequestPermission only records the prompt; the answer is fed
// back to the broker by whoever plays the user.
type PermissionTable struct {
	mu       sync.Mutex
	declared map[string]struct{}
	granted  map[string]struct{}
	requests []PermissionRequest
}

func NewPermissionTable(declared ...string) *PermissionTable {
	table := &PermissionTable{
		declared: map[string]struct{}{},
		granted:  map[string]struct{}{},
	}
	for _, id := range declared {
		table.Declare(id)
	}
	return table
}

func (t *PermissionTable) Declare(permissionID string) {
	permissionID = strings.TrimSpace(permissionID)
	if permissionID == "" {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.declared[permissionID] = struct{}{}
}

// Grant marks permissionID granted. Undeclared permissions cannot be granted.
func (t *PermissionTable) Grant(permissionID string) error {
	permissionID = strings.TrimSpace(permissionID)
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.declared[permissionID]; !ok {
		return fmt.Errorf("platform: permission %s is not declared", permissionID)
	}
	t.granted[permissionID] = struct{}{}
	return nil
}

func (t *PermissionTable) Revoke(permissionID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.granted, strings.TrimSpace(permissionID))
}

func (t *PermissionTable) CheckPermission(ctx context.Context, permissionID string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	permissionID = strings.TrimSpace(permissionID)
	if permissionID == "" {
		return false, fmt.Errorf("platform: permission id is required")
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.granted[permissionID]
	return ok, nil
}

func (t *PermissionTable) RequestPermission(ctx context.Context, permissionID string, grantToken int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	permissionID = strings.TrimSpace(permissionID)
	if permissionID == "" {
		return fmt.Errorf("platform: permission id is required")
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.declared[permissionID]; !ok {
		return fmt.Errorf("platform: permission %s is not declared", permissionID)
	}
	t.requests = append(t.requests, PermissionRequest{PermissionID: permissionID, GrantToken: grantToken})
	return nil
}

// TakeRequests returns and clears the prompts raised so far.
func (t *PermissionTable) TakeRequests() []PermissionRequest {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := t.requests
	t.requests = nil
	return out
}
