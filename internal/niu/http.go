package niu

import (
	"crypto/md5" //nolint:gosec
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/thoas/go-funk"
)

const (
	loginURI        = "/v3/api/oauth2/token" //nolint:gosec
	vehicleListURI  = "/v5/scooter/list"
	batteryInfoURI  = "/v3/motor_data/battery_info"
	motorIndexURI   = "/v3/motor_data/index_info"
	overallTallyURI = "/motoinfo/overallTally"
	tripListURI     = "/v5/track/list/v2"
	ignitionURI     = "/v5/cmd/creat"

	tokenHeader          = "token"
	userAgentHeader      = "User-Agent"
	acceptLanguageHeader = "Accept-Language"
	contentTypeHeader    = "Content-Type"

	jsonContentType = "application/json"
	formContentType = "application/x-www-form-urlencoded"

	appID     = "niu_ktdrr960"
	grantType = "password"
	scope     = "base"

	acceptLanguage = "en-US"

	deviceUserAgentTemplate = "manager/5.5.8 (android; SM-S918B 14);lang=%s;clientIdentifier=Overseas;" +
		"timezone=Europe/Rome;model=samsung_SM-S918B;deviceName=SM-S918B;ostype=android"
	trackUserAgent = "manager/1.0.0 (identifier);clientIdentifier=identifier"

	ignitionOn  = "acc_on"
	ignitionOff = "acc_off"

	tripListPageSize = 10

	maxErrorBodyLength = 512
)

// HTTPClient represents NIU HTTP API Client.
type HTTPClient interface {
	// Login exchanges account credentials for an access token.
	Login(userName, password string) (*Token, error)
	// Vehicles returns the scooters bound to the account, in the order reported by the API.
	Vehicles(accessToken string) ([]Vehicle, error)
	// BatteryInfo retrieves the battery snapshot of the scooter.
	BatteryInfo(accessToken, serialNumber, language string) (Payload, error)
	// MotorIndex retrieves the motor, position and last track snapshot of the scooter.
	MotorIndex(accessToken, serialNumber, language string) (Payload, error)
	// OverallTally retrieves the aggregated riding statistics of the scooter.
	OverallTally(accessToken, serialNumber string) (Payload, error)
	// TripList retrieves the first page of recorded trips.
	TripList(accessToken, serialNumber string) (Payload, error)
	// SetIgnition switches the scooter ignition on or off.
	SetIgnition(accessToken, serialNumber, language string, on bool) error
}

type httpClient struct {
	httpClient     *http.Client
	accountBaseURL string
	apiBaseURL     string
}

// NewHTTPClient returns a new instance of NIU HTTPClient.
func NewHTTPClient(http *http.Client, accountBaseURL, apiBaseURL string) HTTPClient {
	return &httpClient{
		httpClient:     http,
		accountBaseURL: strings.TrimSuffix(accountBaseURL, "/"),
		apiBaseURL:     strings.TrimSuffix(apiBaseURL, "/"),
	}
}

func (c *httpClient) Login(userName, password string) (*Token, error) {
	form := url.Values{}
	form.Set("account", userName)
	form.Set("password", HashPassword(password))
	form.Set("grant_type", grantType)
	form.Set("scope", scope)
	form.Set("app_id", appID)

	req, err := newRequestBuilder(http.MethodPost, c.accountBaseURL+loginURI).
		withForm(form).
		build()
	if err != nil {
		return nil, authError(errors.Wrap(err, "failed to create login request"))
	}

	resp, err := c.performRequest(req, http.StatusOK)
	if err != nil {
		var httpErr HTTPError
		if errors.As(err, &httpErr) && (httpErr.StatusCode == http.StatusUnauthorized || httpErr.StatusCode == http.StatusForbidden) {
			return nil, authError(fmt.Errorf("%w: %w", ErrInvalidCredentials, err))
		}

		return nil, authError(errors.Wrap(err, "login request failed"))
	}

	defer resp.Body.Close()

	body := loginResponse{}

	if err := c.readResponseBody(resp, &body); err != nil {
		return nil, authError(errors.Wrap(err, "could not read login response body"))
	}

	if body.Data.Token == nil || body.Data.Token.AccessToken == "" {
		return nil, authError(fmt.Errorf("%w: login response does not contain an access token: status %d: %s",
			ErrInvalidCredentials, body.Status, body.Description))
	}

	token := &Token{AccessToken: body.Data.Token.AccessToken}
	if body.Data.Token.ExpiresIn != nil {
		token.ExpiresIn = time.Duration(*body.Data.Token.ExpiresIn) * time.Second
	}

	return token, nil
}

func (c *httpClient) Vehicles(accessToken string) ([]Vehicle, error) {
	req, err := newRequestBuilder(http.MethodGet, c.apiBaseURL+vehicleListURI).
		addHeader(tokenHeader, accessToken).
		build()
	if err != nil {
		return nil, errors.Wrap(err, "failed to create vehicle list request")
	}

	resp, err := c.performRequest(req, http.StatusOK)
	if err != nil {
		return nil, errors.Wrap(err, "failed to fetch vehicles from api")
	}

	defer resp.Body.Close()

	body := vehicleListResponse{}

	if err := c.readResponseBody(resp, &body); err != nil {
		return nil, errors.Wrap(err, "failed to read vehicle list response body")
	}

	vehicles := make([]Vehicle, 0, len(body.Data.Items))
	for i, item := range body.Data.Items {
		vehicles = append(vehicles, Vehicle{
			SerialNumber: item.SerialNumber,
			Name:         item.Name,
			Index:        i,
		})
	}

	return vehicles, nil
}

func (c *httpClient) BatteryInfo(accessToken, serialNumber, language string) (Payload, error) {
	return c.telemetryGet(batteryInfoURI, accessToken, serialNumber, language)
}

func (c *httpClient) MotorIndex(accessToken, serialNumber, language string) (Payload, error) {
	return c.telemetryGet(motorIndexURI, accessToken, serialNumber, language)
}

func (c *httpClient) OverallTally(accessToken, serialNumber string) (Payload, error) {
	form := url.Values{}
	form.Set("sn", serialNumber)

	req, err := newRequestBuilder(http.MethodPost, c.apiBaseURL+overallTallyURI).
		withForm(form).
		addHeader(tokenHeader, accessToken).
		addHeader(acceptLanguageHeader, acceptLanguage).
		build()
	if err != nil {
		return nil, errors.Wrap(err, "failed to create overall tally request")
	}

	return c.telemetry(req, "overall tally")
}

func (c *httpClient) TripList(accessToken, serialNumber string) (Payload, error) {
	req, err := newRequestBuilder(http.MethodPost, c.apiBaseURL+tripListURI).
		withBody(tripListBody{Index: "0", PageSize: tripListPageSize, SerialNumber: serialNumber}).
		addHeader(tokenHeader, accessToken).
		addHeader(acceptLanguageHeader, acceptLanguage).
		addHeader(userAgentHeader, trackUserAgent).
		addHeader(contentTypeHeader, jsonContentType).
		build()
	if err != nil {
		return nil, errors.Wrap(err, "failed to create trip list request")
	}

	return c.telemetry(req, "trip list")
}

func (c *httpClient) SetIgnition(accessToken, serialNumber, language string, on bool) error {
	command := ignitionOff
	if on {
		command = ignitionOn
	}

	req, err := newRequestBuilder(http.MethodPost, c.apiBaseURL+ignitionURI).
		withBody(ignitionBody{SerialNumber: serialNumber, Type: command}).
		addHeader(tokenHeader, accessToken).
		addHeader(contentTypeHeader, jsonContentType).
		addHeader(userAgentHeader, deviceUserAgent(language)).
		build()
	if err != nil {
		return errors.Wrap(err, "failed to create ignition request")
	}

	if _, err := c.telemetry(req, "ignition"); err != nil {
		return err
	}

	return nil
}

func (c *httpClient) telemetryGet(uri, accessToken, serialNumber, language string) (Payload, error) {
	req, err := newRequestBuilder(http.MethodGet, c.apiBaseURL+uri).
		addQuery("sn", serialNumber).
		addHeader(tokenHeader, accessToken).
		addHeader(userAgentHeader, deviceUserAgent(language)).
		build()
	if err != nil {
		return nil, errors.Wrapf(err, "failed to create %s request", uri)
	}

	return c.telemetry(req, uri)
}

// telemetry performs the request and validates the application status of the response.
func (c *httpClient) telemetry(req *http.Request, name string) (Payload, error) {
	resp, err := c.performRequest(req, http.StatusOK)
	if err != nil {
		return nil, errors.Wrapf(err, "could not perform %s api call", name)
	}

	defer resp.Body.Close()

	payload := Payload{}

	if err := c.readResponseBody(resp, &payload); err != nil {
		return nil, errors.Wrapf(err, "could not read %s response body", name)
	}

	status, ok := payload.Status()
	if !ok {
		return nil, errors.Wrapf(ApplicationStatusError{Status: -1, Description: "missing status"}, "%s response", name)
	}

	if status != 0 {
		return nil, errors.Wrapf(ApplicationStatusError{Status: status, Description: payload.Description()}, "%s response", name)
	}

	return payload, nil
}

func (c *httpClient) performRequest(req *http.Request, wantResponseCode int) (*http.Response, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, transportError(errors.Wrap(err, "could not perform http call"))
	}

	if resp.StatusCode != wantResponseCode {
		defer resp.Body.Close()

		b, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyLength))

		return nil, HTTPError{
			Err:        errors.Errorf("expected response code to be %d, but got %d instead", wantResponseCode, resp.StatusCode),
			StatusCode: resp.StatusCode,
			Body:       string(b),
		}
	}

	return resp, nil
}

func (c *httpClient) readResponseBody(r *http.Response, body interface{}) error {
	err := json.NewDecoder(r.Body).Decode(body)
	if err != nil {
		return errors.Wrap(err, "could not decode response body")
	}

	if funk.IsEmpty(body) {
		return errors.New("response body does not contain expected data")
	}

	return nil
}

// HashPassword returns the MD5 hex digest of the UTF-8 encoded password, as expected by the account service.
func HashPassword(password string) string {
	sum := md5.Sum([]byte(password)) //nolint:gosec

	return hex.EncodeToString(sum[:])
}

func deviceUserAgent(language string) string {
	return fmt.Sprintf(deviceUserAgentTemplate, language)
}
