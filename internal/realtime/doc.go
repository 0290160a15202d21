/*
Package realtime pushes server-originated events to browser tabs over
WebSocket.

# Overview

A Registry tracks every open socket of the process, keyed by a generated
connection id and tagged with the authenticated user that owns it. Any
request handler holding the Registry can fan a Message out to all sockets
of a set of users:

	reg := realtime.New(realtime.WithLogger(logger), realtime.WithIdentifier(auth.Identify))
	handler := realtime.NewUpgradeRouter("/websocket", reg, router, logger)

	reg.BroadcastToUsers(ctx, []string{userID}, realtime.Message{
		MessageType: jobID + ".messageChunk",
		Data:        map[string]any{"chunk": chunk},
	})

Delivery is best effort. Messages addressed to users without an open socket
are dropped, and nothing is queued for reconnecting clients.

# Users and tagging

The handshake and the authenticated HTTP request race each other. A
connection is tagged at handshake time when the Identifier resolves the
session cookie; otherwise a later authenticated request calls Tag with the
connection id announced in the connection.established message. A
connection is tagged at most once.

# Multiple processes

With a Bus configured, every broadcast is also published and each process
delivers envelopes from other instances to its own sockets.
*/
package realtime
