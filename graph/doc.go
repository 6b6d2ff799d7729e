// Package graph provides a Microsoft Graph API client for Outlook email and
// calendar operations on behalf of a signed-in user.
//
// The Client wraps one bearer token and issues requests against the fixed
// Graph v1.0 base URL. Transient failures (5xx responses and transport
// errors) are retried with exponential backoff inside the client; everything
// else is classified into a typed *Error the caller can branch on:
//
//	msgs, err := client.SearchEmails(ctx, graph.SearchParams{Query: "urgent"})
//	if graph.IsTokenExpired(err) {
//	    // prompt re-authentication or refresh
//	}
//
// Retries are synchronous: the calling operation blocks through backoff
// sleeps until the client returns or exhausts its attempts.
package graph
