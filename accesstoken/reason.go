package accesstoken

import "strings"

// Reason classifies why a token was rejected. Invalid reasons map to 401
// responses; ReasonInvalidAudClaim is the only forbidden (403) reason.
type Reason string

const (
	ReasonInvalidJWTToken  Reason = "invalid_jwt_token"
	ReasonInvalidSignature Reason = "invalid_signature"

	ReasonMissingExpClaim Reason = "missing_exp_claim"
	ReasonInvalidExpClaim Reason = "invalid_exp_claim"
	ReasonMissingNbfClaim Reason = "missing_nbf_claim"
	ReasonInvalidNbfClaim Reason = "invalid_nbf_claim"
	ReasonMissingIssClaim Reason = "missing_iss_claim"
	ReasonInvalidIssClaim Reason = "invalid_iss_claim"
	ReasonMissingAudClaim Reason = "missing_aud_claim"
	ReasonInvalidAudClaim Reason = "invalid_aud_claim"
	ReasonMissingJtiClaim Reason = "missing_jti_claim"
	ReasonInvalidJtiClaim Reason = "invalid_jti_claim"
	ReasonMissingIatClaim Reason = "missing_iat_claim"
	ReasonMissingSubClaim Reason = "missing_sub_claim"
	ReasonInvalidSubClaim Reason = "invalid_sub_claim"

	ReasonUnknown Reason = "unknown"
)

var reasonMessages = map[Reason]string{
	ReasonInvalidJWTToken:  "The access token is not a valid JWT.",
	ReasonInvalidSignature: "The access token has an invalid signature.",
	ReasonInvalidExpClaim:  "The access token has expired.",
	ReasonInvalidNbfClaim:  "The access token is not yet valid.",
	ReasonInvalidIssClaim:  "The access token is from an unknown issuer.",
	ReasonInvalidJtiClaim:  "The access token was revoked.",
	ReasonInvalidSubClaim:  "The access token is for a different subject.",
	ReasonUnknown:          "The access token is invalid.",
}

func (r Reason) String() string { return string(r) }

// MissingClaim returns the claim name for missing_*_claim reasons.
func (r Reason) MissingClaim() (string, bool) {
	s := string(r)
	if !strings.HasPrefix(s, "missing_") || !strings.HasSuffix(s, "_claim") {
		return "", false
	}
	return strings.TrimSuffix(strings.TrimPrefix(s, "missing_"), "_claim"), true
}

// Forbidden reports whether r is a 403-class reason.
func (r Reason) Forbidden() bool { return r == ReasonInvalidAudClaim }

// Message returns the human readable description of an invalid reason.
// Unrecognised reasons describe the token as invalid. Use ForbiddenMessage for
// ReasonInvalidAudClaim.
func (r Reason) Message() string {
	if claim, ok := r.MissingClaim(); ok {
		return "The access token is missing a required " + claim + " claim."
	}
	if msg, ok := reasonMessages[r]; ok {
		return msg
	}
	return reasonMessages[ReasonUnknown]
}

// ForbiddenMessage describes the audience a resource requires.
func ForbiddenMessage(scopes []string) string {
	return `Access to this resource requires audience "` + strings.Join(scopes, " ") + `".`
}
