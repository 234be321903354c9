package common

// SessionCookieName is the default name of the cookie carrying the session token.
const SessionCookieName = "inbox_session"

// LinkTokenLength is the number of symbols in a shareable link token.
const LinkTokenLength = 10

// LinkAlphabet is the URL-safe alphabet link tokens are drawn from.
const LinkAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789_-"
