// Package poloniex implements the Poloniex legacy REST API: command-style
// endpoints under /public and /tradingApi, HMAC-SHA512 signatures over the
// urlencoded body, and the nonce carried inside the body's command map.
package poloniex
