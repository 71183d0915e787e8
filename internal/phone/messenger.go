package phone

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	dErrors "vigil/pkg/domain-errors"
)

// Messenger dispatches one-time passcodes and checks them later. The handle
// is opaque to callers and only meaningful to the same messenger.
type Messenger interface {
	SendOTP(ctx context.Context, e164 string) (handle string, err error)
	CheckOTP(ctx context.Context, handle, code string) (approved bool, err error)
}

// HTTPMessenger talks to a Verify-style REST provider: one endpoint starts a
// verification for a number, another confirms the code against the returned
// verification id.
type HTTPMessenger struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

func NewHTTPMessenger(baseURL, apiKey string, timeout time.Duration) *HTTPMessenger {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HTTPMessenger{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		client:  &http.Client{Timeout: timeout},
	}
}

func (m *HTTPMessenger) SendOTP(ctx context.Context, e164 string) (string, error) {
	form := url.Values{"to": {e164}, "channel": {"sms"}}

	var resp struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	}
	if err := m.post(ctx, "/verifications", form, &resp); err != nil {
		return "", err
	}
	if resp.ID == "" {
		return "", dErrors.New(dErrors.CodeUnavailable, "otp provider returned no verification id")
	}
	return resp.ID, nil
}

func (m *HTTPMessenger) CheckOTP(ctx context.Context, handle, code string) (bool, error) {
	form := url.Values{"code": {code}}

	var resp struct {
		Status string `json:"status"`
	}
	if err := m.post(ctx, "/verifications/"+url.PathEscape(handle)+"/check", form, &resp); err != nil {
		return false, err
	}
	return resp.Status == "approved", nil
}

func (m *HTTPMessenger) post(ctx context.Context, path string, form url.Values, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.baseURL+path, strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Authorization", "Bearer "+m.apiKey)

	res, err := m.client.Do(req)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "otp provider unreachable")
	}
	defer res.Body.Close()

	if res.StatusCode >= 500 {
		return dErrors.New(dErrors.CodeUnavailable, fmt.Sprintf("otp provider returned %d", res.StatusCode))
	}
	if res.StatusCode >= 400 {
		return dErrors.New(dErrors.CodeBadRequest, fmt.Sprintf("otp provider rejected request with %d", res.StatusCode))
	}
	return json.NewDecoder(res.Body).Decode(out)
}

// MemoryMessenger is the in-process Messenger used by tests and local runs.
// It records the code it "sent" so tests can check it back.
type MemoryMessenger struct {
	mu       sync.Mutex
	sent     map[string]string // handle -> code
	FixedOTP string            // when set, every dispatch uses this code
	FailSend bool              // simulate provider outage
}

func NewMemoryMessenger() *MemoryMessenger {
	return &MemoryMessenger{sent: make(map[string]string), FixedOTP: "000000"}
}

func (m *MemoryMessenger) SendOTP(_ context.Context, e164 string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.FailSend {
		return "", dErrors.New(dErrors.CodeUnavailable, "otp provider unreachable")
	}
	handle := uuid.NewString()
	m.sent[handle] = m.FixedOTP
	return handle, nil
}

func (m *MemoryMessenger) CheckOTP(_ context.Context, handle, code string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	want, ok := m.sent[handle]
	if !ok {
		return false, dErrors.New(dErrors.CodeNotFound, "unknown verification handle")
	}
	return want == code, nil
}
