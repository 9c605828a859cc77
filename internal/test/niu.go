package test

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

const (
	// SecondSerialNumber is the serial number of the second scooter of the test account.
	SecondSerialNumber = "NT0000000002"
	// IssuedAccessToken is the token issued by the fake NIU cloud on login.
	IssuedAccessToken = "fresh"
	// StoredAccessToken is accepted by the fake NIU cloud as a token persisted by a previous run.
	StoredAccessToken = "stored"
)

// NIUServer is a fake of the NIU account and application endpoints.
type NIUServer struct {
	t      *testing.T
	server *httptest.Server

	mu           sync.Mutex
	rejectLogin  bool
	batteryFails bool
	requests     map[string]int
	ignitions    []string
}

// NewNIUServer starts a fake NIU cloud which is closed on test cleanup.
func NewNIUServer(t *testing.T) *NIUServer {
	t.Helper()

	s := &NIUServer{t: t, requests: make(map[string]int)}
	s.server = httptest.NewServer(s)

	t.Cleanup(s.server.Close)

	return s
}

// URL returns the base URL serving both the account and the application API.
func (s *NIUServer) URL() string {
	return s.server.URL
}

// RejectLogin makes the login endpoint refuse the credentials.
func (s *NIUServer) RejectLogin(reject bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.rejectLogin = reject
}

// FailBattery makes the battery endpoint answer with an application error.
func (s *NIUServer) FailBattery(fail bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.batteryFails = fail
}

// Count returns the number of requests received on the path.
func (s *NIUServer) Count(path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.requests[path]
}

// Ignitions returns the received ignition commands as "serial:type" pairs.
func (s *NIUServer) Ignitions() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]string(nil), s.ignitions...)
}

func (s *NIUServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.requests[r.URL.Path]++

	token := r.Header.Get("token")
	if r.URL.Path != "/v3/api/oauth2/token" && token != IssuedAccessToken && token != StoredAccessToken {
		w.WriteHeader(http.StatusUnauthorized)

		return
	}

	switch r.URL.Path {
	case "/v3/api/oauth2/token":
		if s.rejectLogin {
			_, _ = io.WriteString(w, `{"data":{},"desc":"account or password error","status":1002}`)

			return
		}

		_, _ = io.WriteString(w, `{"data":{"token":{"access_token":"`+IssuedAccessToken+`","expires_in":86400}},"status":0}`)
	case "/v5/scooter/list":
		_, _ = io.WriteString(w, `{"data":{"items":[`+
			`{"sn_id":"`+SerialNumber+`","scooter_name":"`+ScooterName+`"},`+
			`{"sn_id":"`+SecondSerialNumber+`","scooter_name":"Second"}]},"status":0}`)
	case "/v3/motor_data/battery_info":
		if s.batteryFails {
			_, _ = io.WriteString(w, `{"data":{},"desc":"busy","status":500}`)

			return
		}

		_, _ = io.WriteString(w, `{"data":{"batteries":{"compartmentA":{"batteryCharging":76,"isCharging":false}}},"status":0}`)
	case "/v3/motor_data/index_info":
		_, _ = io.WriteString(w, `{"data":{"isAccOn":0,"nowSpeed":0,"estimatedMileage":41,`+
			`"postion":{"lat":59.91,"lng":10.75},"lastTrack":{"distance":1830,"ridingTime":420}},"status":0}`)
	case "/motoinfo/overallTally":
		_, _ = io.WriteString(w, `{"data":{"totalMileage":812.4,"bindDaysCount":210},"status":0}`)
	case "/v5/track/list/v2":
		_, _ = io.WriteString(w, `{"data":[{"startTime":1700000000000,"endTime":1700000420000,"ridingtime":420,`+
			`"distance":1830,"track_thumb":"https://app-api.niucache.com/track/thumb/t1.png"}],"status":0}`)
	case "/v5/cmd/creat":
		body := struct {
			SerialNumber string `json:"sn"`
			Type         string `json:"type"`
		}{}

		assert.NoError(s.t, json.NewDecoder(r.Body).Decode(&body))

		s.ignitions = append(s.ignitions, body.SerialNumber+":"+body.Type)

		_, _ = io.WriteString(w, `{"data":{},"desc":"ok","status":0}`)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}
