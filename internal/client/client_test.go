// Copyright (c) 2021-2026 Rustam Gilyazov and Contributors.
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

package client

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/rusq/slack"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeSlack starts a test server that answers the given API methods with the
// given JSON bodies and counts the calls.
func fakeSlack(t *testing.T, responses map[string]string) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var calls atomic.Int32
	mux := http.NewServeMux()
	for method, body := range responses {
		mux.HandleFunc("/"+method, func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
			w.Header().Set("Content-Type", "application/json")
			fmt.Fprint(w, body)
		})
	}
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, &calls
}

func TestClient_AuthTestContext(t *testing.T) {
	srv, calls := fakeSlack(t, map[string]string{
		"auth.test": `{"ok":true,"team":"Acme","user":"feedbackbot","team_id":"T1","user_id":"U1"}`,
	})
	cl := New("xoxb-test", WithAPIURL(srv.URL+"/"))

	wi, err := cl.AuthTestContext(t.Context())
	require.NoError(t, err)
	assert.Equal(t, "Acme", wi.Team)
	assert.Equal(t, "feedbackbot", wi.User)
	assert.EqualValues(t, 1, calls.Load())
}

func TestClient_AuthTestContext_error(t *testing.T) {
	srv, _ := fakeSlack(t, map[string]string{
		"auth.test": `{"ok":false,"error":"invalid_auth"}`,
	})
	cl := New("xoxb-test", WithAPIURL(srv.URL+"/"))

	_, err := cl.AuthTestContext(t.Context())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid_auth")
}

func TestWithAPIURL(t *testing.T) {
	tests := []struct {
		name string
		url  string
		want string
	}{
		{"empty keeps default", "", ""},
		{"slash added", "http://127.0.0.1:8080/api", "http://127.0.0.1:8080/api/"},
		{"slash kept", "http://127.0.0.1:8080/api/", "http://127.0.0.1:8080/api/"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var o options
			WithAPIURL(tt.url)(&o)
			assert.Equal(t, tt.want, o.apiURL)
		})
	}
}

func TestNew_apiURLWithoutSlash(t *testing.T) {
	srv, calls := fakeSlack(t, map[string]string{
		"auth.test": `{"ok":true,"team":"Acme","user":"feedbackbot"}`,
	})
	cl := New("xoxb-test", WithAPIURL(srv.URL), WithDebug(true))

	_, err := cl.AuthTestContext(t.Context())
	require.NoError(t, err)
	assert.EqualValues(t, 1, calls.Load())
}

func TestClient_GetPermalinkContext(t *testing.T) {
	srv, _ := fakeSlack(t, map[string]string{
		"chat.getPermalink": `{"ok":true,"channel":"C1","permalink":"https://acme.slack.com/archives/C1/p1700000000000100"}`,
	})
	cl := New("xoxb-test", WithAPIURL(srv.URL+"/"), WithHTTPClient(srv.Client()))

	link, err := cl.GetPermalinkContext(t.Context(), &slack.PermalinkParameters{Channel: "C1", Ts: "1700000000.000100"})
	require.NoError(t, err)
	assert.Equal(t, "https://acme.slack.com/archives/C1/p1700000000000100", link)
}
