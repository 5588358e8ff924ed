package core

import (
	"context"
	"fmt"
	"strings"
)

type ProbeState string

const (
	ProbeAvailable             ProbeState = "available"
	ProbeRequiresAuthorization ProbeState = "requires_authorization"
)

// ProbeResult is the outcome of an authorization check. Heuristic is set when
// the answer came from an attempt-and-observe probe instead of a direct
// permission query; such answers are approximate because enforcement depends
// on the provider that owns the content.
type ProbeResult struct {
	State      ProbeState
	Permission PermissionState
	Heuristic  bool
	Reason     string
}

func (r ProbeResult) RequiresAuthorization() bool {
	return r.State == ProbeRequiresAuthorization
}

type PermissionProbe struct {
	config Config
	api    PermissionAPI
	opener ContentOpener
}

func NewPermissionProbe(cfg Config, api PermissionAPI, opener ContentOpener) *PermissionProbe {
	return &PermissionProbe{config: cfg, api: api, opener: opener}
}

func (p *PermissionProbe) RequiresAuthorization(ctx context.Context, permissionID string) bool {
	return p.Probe(ctx, permissionID).RequiresAuthorization()
}

func (p *PermissionProbe) Probe(ctx context.Context, permissionID string) ProbeResult {
	permissionID = strings.TrimSpace(permissionID)
	state := PermissionState{PermissionID: permissionID}
	if p == nil || permissionID == "" {
		return ProbeResult{State: ProbeAvailable, Permission: state, Reason: "no permission"}
	}
	state.DeclaredByApp = p.config.isDeclared(permissionID)
	if !p.config.gatingActive() {
		state.Granted = true
		return ProbeResult{State: ProbeAvailable, Permission: state, Reason: "below threshold version"}
	}

	granted, checkErr := p.checkGranted(ctx, permissionID)
	state.Granted = granted

	if !p.config.isProbed(permissionID) {
		if checkErr != nil {
			return ProbeResult{State: ProbeRequiresAuthorization, Permission: state, Reason: checkErr.Error()}
		}
		if !state.DeclaredByApp || granted {
			return ProbeResult{State: ProbeAvailable, Permission: state}
		}
		return ProbeResult{State: ProbeRequiresAuthorization, Permission: state, Reason: "permission not granted"}
	}

	if granted && checkErr == nil {
		return ProbeResult{State: ProbeAvailable, Permission: state}
	}
	if err := p.attemptAccess(ctx); err != nil {
		return ProbeResult{
			State:      ProbeRequiresAuthorization,
			Permission: state,
			Heuristic:  true,
			Reason:     err.Error(),
		}
	}
	return ProbeResult{State: ProbeAvailable, Permission: state, Heuristic: true}
}

func (p *PermissionProbe) checkGranted(ctx context.Context, permissionID string) (bool, error) {
	if p.api == nil {
		return false, fmt.Errorf("core: permission api is not configured")
	}
	return p.api.CheckPermission(ctx, permissionID)
}

// attemptAccess opens the probe reference and releases it right away. Any
// failure, including a panic inside the opener, counts as evidence that
// authorization is required.
func (p *PermissionProbe) attemptAccess(ctx context.Context) (err error) {
	if p.opener == nil {
		return fmt.Errorf("core: content opener is not configured")
	}
	reference := strings.TrimSpace(p.config.Authorization.ProbeReference)
	if reference == "" {
		return fmt.Errorf("core: probe reference is required")
	}
	defer func() {
		if recovered := recover(); recovered != nil {
			err = fmt.Errorf("core: probe panicked: %v", recovered)
		}
	}()
	closer, err := p.opener.Open(ctx, reference)
	if err != nil {
		return err
	}
	if closer == nil {
		return nil
	}
	return closer.Close()
}
