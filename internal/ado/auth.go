package ado

import (
	"encoding/base64"
	"net/http"
)

// PATAuth authenticates with a personal access token. Azure DevOps expects
// HTTP Basic with an arbitrary (here empty) user name and the token as password.
type PATAuth struct {
	Token string
}

// Apply adds the Basic auth header to the request.
func (a PATAuth) Apply(req *http.Request) {
	if a.Token == "" {
		return
	}
	credentials := base64.StdEncoding.EncodeToString([]byte(":" + a.Token))
	req.Header.Set("Authorization", "Basic "+credentials)
}
