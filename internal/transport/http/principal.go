package http

import "net/http"

// The authenticating gateway forwards the caller's username in this header;
// this service trusts it and performs no credential checks of its own.
const usernameHeader = "X-Username"

func principal(r *http.Request) (string, bool) {
	username := r.Header.Get(usernameHeader)
	return username, username != ""
}

func requirePrincipal(w http.ResponseWriter, r *http.Request) (string, bool) {
	username, ok := principal(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, codeUnauthenticated, "caller identity required")
	}
	return username, ok
}
