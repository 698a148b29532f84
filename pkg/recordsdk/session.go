package recordsdk

import (
	"context"
	"errors"
	"net/http"
	"sync"
)

// Session is an authenticated connection to the service. Every call runs
// through the session monitor, which classifies authentication failures:
// an ordinary token problem logs the session out, while a superseded
// session locks it without discarding anything the client still holds.
type Session struct {
	client  *Client
	monitor *sessionMonitor

	mu       sync.RWMutex
	token    string
	identity IdentityInfo
}

func newSession(client *Client, resp LoginResponse) *Session {
	return &Session{
		client:   client,
		token:    resp.Token,
		identity: resp.Identity,
		monitor:  newSessionMonitor(),
	}
}

// State returns the monitor's current session state.
func (s *Session) State() SessionState { return s.monitor.State() }

// OnSessionEvent registers an observer for session state changes. Typical
// consumers: a UI layer that shows the blocking "signed in elsewhere"
// overlay on Locked and navigates to the login view on LoggedOut.
func (s *Session) OnSessionEvent(fn Observer) { s.monitor.Subscribe(fn) }

// Identity returns the identity captured at login.
func (s *Session) Identity() IdentityInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.identity
}

// Token returns the current bearer token. While the session is Locked the
// token is stale but still held, so unsaved client state stays reachable.
func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// Acknowledge confirms a Locked session and performs the destructive
// logout. It is the only way out of Locked.
func (s *Session) Acknowledge() {
	if s.monitor.acknowledge() {
		s.clearCredentials()
	}
}

// do wraps every authenticated call with failure classification.
func (s *Session) do(ctx context.Context, method, path string, body, out any) error {
	err := s.client.doJSON(ctx, method, path, s.Token(), body, out)
	if err == nil {
		return nil
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.IsAuthFailure() {
		if s.monitor.observeFailure(apiErr) {
			s.clearCredentials()
		}
	}
	return err
}

func (s *Session) clearCredentials() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = ""
	s.identity = IdentityInfo{}
}

func (s *Session) adoptToken(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
}

// Whoami fetches the caller's identity summary.
func (s *Session) Whoami(ctx context.Context) (IdentityInfo, error) {
	var info IdentityInfo
	err := s.do(ctx, http.MethodGet, "/v1/identity", nil, &info)
	return info, err
}

// LogoutAll invalidates every outstanding token for this identity. The
// service re-issues a token for the calling session, which is adopted
// transparently so this session keeps working while all others observe
// SESSION_REPLACED.
func (s *Session) LogoutAll(ctx context.Context) error {
	var resp TokenResponse
	if err := s.do(ctx, http.MethodPost, "/v1/auth/logout-all", nil, &resp); err != nil {
		return err
	}
	s.adoptToken(resp.Token)
	return nil
}

// ChangePassword rotates the password. Like LogoutAll it bumps the session
// version, so the re-issued token is adopted in place.
func (s *Session) ChangePassword(ctx context.Context, current, next string) error {
	req := ChangePasswordRequest{CurrentPassword: current, NewPassword: next}
	var resp TokenResponse
	if err := s.do(ctx, http.MethodPost, "/v1/auth/password", req, &resp); err != nil {
		return err
	}
	s.adoptToken(resp.Token)
	return nil
}

// CreateRecord creates a record; the service allocates its reference code.
func (s *Session) CreateRecord(ctx context.Context, req CreateRecordRequest) (Record, error) {
	var rec Record
	err := s.do(ctx, http.MethodPost, "/v1/records", req, &rec)
	return rec, err
}

// GetRecord fetches one record.
func (s *Session) GetRecord(ctx context.Context, id string) (Record, error) {
	var rec Record
	err := s.do(ctx, http.MethodGet, "/v1/records/"+id, nil, &rec)
	return rec, err
}

// ListRecords fetches the caller's records, newest first.
func (s *Session) ListRecords(ctx context.Context) ([]Record, error) {
	var recs []Record
	err := s.do(ctx, http.MethodGet, "/v1/records", nil, &recs)
	return recs, err
}

// UpdateRecord submits a versioned write. On a stale base version it
// returns a *VersionConflictError carrying the authoritative record and the
// submitted write, ready for the resolution flow.
func (s *Session) UpdateRecord(ctx context.Context, id string, req UpdateRecordRequest) (Record, error) {
	var rec Record
	err := s.do(ctx, http.MethodPut, "/v1/records/"+id, req, &rec)
	if err != nil {
		var conflict *VersionConflictError
		if errors.As(err, &conflict) {
			conflict.Submitted = req
			return Record{}, conflict
		}
		return Record{}, err
	}
	return rec, nil
}

// DeleteRecord removes a record owned by the caller.
func (s *Session) DeleteRecord(ctx context.Context, id string) error {
	return s.do(ctx, http.MethodDelete, "/v1/records/"+id, nil, nil)
}

// CreateIdentity provisions a new identity (admin only).
func (s *Session) CreateIdentity(ctx context.Context, req CreateIdentityRequest) (IdentityInfo, error) {
	var info IdentityInfo
	err := s.do(ctx, http.MethodPost, "/v1/identities", req, &info)
	return info, err
}

// DeactivateIdentity soft-deactivates an identity (admin only). The
// target's session version is bumped, so its outstanding tokens die.
func (s *Session) DeactivateIdentity(ctx context.Context, id string) error {
	return s.do(ctx, http.MethodPost, "/v1/identities/"+id+"/deactivate", nil, nil)
}
