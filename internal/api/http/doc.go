// Package http exposes the chat, candidate and realtime APIs over gin.
//
// Every /api route requires a session; handlers read the caller's id with
// middleware.UserID. Errors are JSON bodies of the form {"error": "..."}.
package http
