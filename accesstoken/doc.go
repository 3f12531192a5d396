// Package accesstoken validates OAuth 2.0 access tokens issued in the JWT
// profile of RFC 9068.
//
// A Policy is built once at startup and describes the verification key, the
// signing algorithm, the accepted "typ" header values and how each registered
// claim is checked:
//
//	policy, err := accesstoken.NewPolicy(pub,
//		accesstoken.WithAlgorithm("ES256"),
//		accesstoken.WithIssRequired(true),
//		accesstoken.WithIssuers("https://issuer.example"),
//	)
//
// Each incoming token is then wrapped in a Token:
//
//	tok := policy.BuildAccessToken(raw)
//	if !tok.IsAccessible() {
//		// 401: tok.InvalidReason().Message()
//	}
//	if !tok.IsAcceptable([]string{"orders"}) {
//		// 403: accesstoken.ForbiddenMessage([]string{"orders"})
//	}
//
// Scopes are matched against the "aud" claim. A token is acceptable when at
// least one requested scope equals at least one audience entry.
package accesstoken
