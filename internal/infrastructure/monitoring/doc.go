/*
Package monitoring collects Prometheus metrics for the backend.

# Overview

Metrics covers HTTP traffic, the WebSocket registry, agent runs and the
outbound service calls made by tools.

# Usage

	reg := prometheus.NewRegistry()
	metrics := monitoring.NewMetrics(reg)

	router.Use(monitoring.Middleware(metrics))
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))

	timer := monitoring.NewTimer(metrics, "proxycurl", "person")
	// ... perform call ...
	timer.Stop("success")

A private registry per Metrics value keeps tests free of duplicate
registration panics.
*/
package monitoring
