// Package client is the gateway to a contest server's HTTP/JSON API:
// registration, state retrieval, answer submission and content fetching.
// A Server owns one team identity; the only persisted credential is the
// team ID, held in a SessionStore keyed by server origin.
package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/ctfboard/ctfboard/models"
	"github.com/ctfboard/ctfboard/storage"
)

// alreadyRegisteredShort is the fail short the server sends when a team ID
// was registered earlier. Logging in again with the same ID is fine, so
// this particular fail counts as success.
const alreadyRegisteredShort = "Already registered"

// Server is a stateful client for one contest server. It is either logged
// out (no team ID) or logged in; Login and Reset move between the two.
type Server struct {
	baseURL    *url.URL
	httpClient *http.Client
	sessions   storage.SessionStore

	mu       sync.Mutex
	teamID   string
	teamName string
}

// NewServer builds a gateway for the server at baseURL, picking up any team
// ID a previous run persisted for that origin.
func NewServer(baseURL string, sessions storage.SessionStore) (*Server, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid server URL %q: %w", baseURL, err)
	}
	if !strings.HasSuffix(u.Path, "/") {
		u.Path += "/"
	}

	s := &Server{
		baseURL:    u,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		sessions:   sessions,
	}

	if teamID, err := sessions.Get(s.sessionKey()); err == nil {
		s.teamID = teamID
	} else if !errors.Is(err, storage.ErrNoSession) {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	return s, nil
}

// sessionKey scopes the stored credential to this server's origin so two
// servers never clobber each other's session.
func (s *Server) sessionKey() string {
	return s.baseURL.String() + " teamID"
}

// TeamID returns the current credential, or "" when logged out.
func (s *Server) TeamID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.teamID
}

// LoggedIn reports whether a team ID is held.
func (s *Server) LoggedIn() bool {
	return s.TeamID() != ""
}

// fetch issues one request against the server. With a nil form it GETs;
// otherwise it POSTs the form urlencoded. The team ID rides along on every
// request when present and not already set by the caller.
func (s *Server) fetch(ctx context.Context, path string, form url.Values) (*http.Response, error) {
	ref, err := url.Parse(strings.TrimPrefix(path, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid path %q: %w", path, err)
	}
	u := s.baseURL.ResolveReference(ref)

	teamID := s.TeamID()

	var req *http.Request
	if form == nil {
		if teamID != "" {
			q := u.Query()
			q.Set("id", teamID)
			u.RawQuery = q.Encode()
		}
		req, err = http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	} else {
		if teamID != "" && form.Get("id") == "" {
			form.Set("id", teamID)
		}
		req, err = http.NewRequestWithContext(ctx, http.MethodPost, u.String(), strings.NewReader(form.Encode()))
		if req != nil {
			req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		}
	}
	if err != nil {
		return nil, err
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request to %s failed: %w", u, err)
	}
	return resp, nil
}

// call sends a request to an enveloped endpoint and decodes the envelope
// exactly once. Transport failures, protocol fails, protocol errors and
// unknown statuses all come back as distinguishable error types.
func (s *Server) call(ctx context.Context, path string, form url.Values) (json.RawMessage, error) {
	resp, err := s.fetch(ctx, path, form)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response from %s: %w", path, err)
	}
	return decodeEnvelope(body)
}

// Login registers teamID with teamName. Registering an ID that is already
// registered also logs in: the server's "Already registered" fail is
// treated as success so a team can re-join from a fresh client. On success
// the team ID is persisted for this server's origin.
func (s *Server) Login(ctx context.Context, teamID, teamName string) (string, error) {
	form := url.Values{}
	form.Set("id", teamID)
	form.Set("name", teamName)

	message := "Logged in"
	data, err := s.call(ctx, "register", form)
	if err != nil {
		var fail *FailError
		if !errors.As(err, &fail) || fail.Short != alreadyRegisteredShort {
			return "", err
		}
	} else {
		var d failData // success data reuses {short, description}
		if jsonErr := json.Unmarshal(data, &d); jsonErr == nil {
			if d.Description != "" {
				message = d.Description
			} else if d.Short != "" {
				message = d.Short
			}
		}
	}

	s.mu.Lock()
	s.teamID = teamID
	s.teamName = teamName
	s.mu.Unlock()

	if err := s.sessions.Set(s.sessionKey(), teamID); err != nil {
		return "", fmt.Errorf("logged in but failed to persist session: %w", err)
	}
	return message, nil
}

// Reset forgets the stored team ID. This is logging out; the server keeps
// the registration.
func (s *Server) Reset() error {
	s.mu.Lock()
	s.teamID = ""
	s.teamName = ""
	s.mu.Unlock()
	return s.sessions.Delete(s.sessionKey())
}

// GetState fetches current contest state. /state is not enveloped; it
// returns the raw state object. Safe to call repeatedly; callers own any
// retry policy (a refresh ticker retries naturally).
func (s *Server) GetState(ctx context.Context) (*models.State, error) {
	resp, err := s.fetch(ctx, "state", nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("state request returned %s", resp.Status)
	}

	var state models.State
	if err := json.NewDecoder(resp.Body).Decode(&state); err != nil {
		return nil, fmt.Errorf("decoding state: %w", err)
	}
	return &state, nil
}

// SubmitAnswer submits an answer for a puzzle. A wrong answer comes back
// as a *FailError carrying the server's reason; only transport and server
// faults come back as other error types.
func (s *Server) SubmitAnswer(ctx context.Context, category string, points int, answer string) (string, error) {
	form := url.Values{}
	form.Set("category", category)
	form.Set("points", strconv.Itoa(points))
	form.Set("answer", answer)

	data, err := s.call(ctx, "answer", form)
	if err != nil {
		return "", err
	}

	var d failData
	if err := json.Unmarshal(data, &d); err == nil && d.Description != "" {
		return d.Description, nil
	}
	return "accepted", nil
}

// GetContent fetches a file belonging to a puzzle. The caller owns the
// response body.
func (s *Server) GetContent(ctx context.Context, category string, points int, filename string) (*http.Response, error) {
	return s.fetch(ctx, fmt.Sprintf("content/%s/%d/%s", category, points, filename), nil)
}

// GetPuzzle constructs an unpopulated puzzle bound to this server.
func (s *Server) GetPuzzle(category string, points int) (*models.Puzzle, error) {
	return models.NewPuzzle(s, s, category, points)
}
