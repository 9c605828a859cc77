package niu

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
)

type requestBuilder struct {
	method  string
	url     string
	body    interface{}
	form    url.Values
	query   url.Values
	headers map[string]string
}

func newRequestBuilder(method, url string) *requestBuilder {
	return &requestBuilder{
		method:  method,
		url:     url,
		headers: make(map[string]string),
	}
}

// withBody sets a JSON encoded request body.
func (r *requestBuilder) withBody(body interface{}) *requestBuilder {
	r.body = body

	return r
}

// withForm sets an URL encoded form request body.
func (r *requestBuilder) withForm(form url.Values) *requestBuilder {
	r.form = form

	return r
}

func (r *requestBuilder) addQuery(key, value string) *requestBuilder {
	if r.query == nil {
		r.query = make(url.Values)
	}

	r.query.Add(key, value)

	return r
}

func (r *requestBuilder) addHeader(key, value string) *requestBuilder {
	r.headers[key] = value

	return r
}

func (r *requestBuilder) build() (*http.Request, error) {
	var body io.Reader

	switch {
	case r.body != nil:
		b, err := json.Marshal(r.body)
		if err != nil {
			return nil, err
		}

		body = bytes.NewReader(b)
	case r.form != nil:
		body = strings.NewReader(r.form.Encode())
	}

	u := r.url
	if len(r.query) > 0 {
		u += "?" + r.query.Encode()
	}

	req, err := http.NewRequest(r.method, u, body) //nolint:noctx
	if err != nil {
		return nil, err
	}

	if r.form != nil {
		req.Header.Set(contentTypeHeader, formContentType)
	}

	for key, value := range r.headers {
		req.Header.Set(key, value)
	}

	return req, nil
}
