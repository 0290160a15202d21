/*
Package tracing correlates log lines belonging to one request.

# Overview

Each HTTP request gets a span whose trace id is taken from the X-Trace-ID
header or generated. The id is returned to the caller and forwarded on
outbound calls made with the request context, so a chat turn can be followed
from the API through the model and scraping providers.

# Usage

	tracer := tracing.New("api", logger)
	defer tracer.Close()

	router.Use(tracing.Middleware(tracer))

	// Manual span creation
	span, ctx := tracer.StartSpan(ctx, "operation")
	defer func() {
		span.Finish()
		tracer.Submit(span)
	}()

Finished spans are logged from a buffered collector (1000 spans); when the
buffer is full spans are dropped with a warning.
*/
package tracing
