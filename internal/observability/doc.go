// Package observability provides monitoring and debugging capabilities for
// the agent runtime through metrics, structured logging, and lifecycle
// diagnostic events.
//
// # Overview
//
// The package implements two pillars of observability plus a lightweight
// diagnostic-event feed:
//
//  1. Metrics - Quantitative measurements using Prometheus
//  2. Logging - Structured logs with sensitive-data redaction
//  3. Diagnostics - In-process lifecycle events for `push doctor`-style inspection
//
// # Architecture
//
// The package is designed to be:
//   - Low-overhead: minimal performance impact on a single-process CLI agent
//   - Type-safe: strongly-typed APIs reduce configuration errors
//   - Standards-based: uses Prometheus and slog
//
// # Metrics
//
// Metrics are implemented using the Prometheus client library and track:
//   - LLM API request latency, token usage, and estimated cost
//   - Tool execution performance
//   - Error rates by component and type
//   - Active session count and duration
//   - Context-window utilization
//   - Agent run attempts (for retry tracking)
//
// Example usage:
//
//	metrics := observability.NewMetrics()
//
//	// Track LLM requests
//	start := time.Now()
//	// ... make LLM request ...
//	metrics.RecordLLMRequest("anthropic", "claude-3-opus", "success",
//	    time.Since(start).Seconds(), promptTokens, completionTokens, estimatedCostUSD)
//
//	// Track tool execution
//	start = time.Now()
//	// ... execute tool ...
//	metrics.RecordToolExecution("web_search", "success", time.Since(start).Seconds())
//
// # Logging
//
// Logging is built on Go's slog package with enhancements for:
//   - Automatic run/session/message ID correlation from context
//   - Sensitive data redaction (API keys, passwords, tokens)
//   - JSON output for machine consumption, text for interactive use
//   - Configurable log levels
//
// Example usage:
//
//	logger := observability.NewLogger(observability.LogConfig{
//	    Level:     "info",
//	    Format:    "json",
//	    AddSource: true,
//	})
//
//	// Add context IDs for correlation
//	ctx := observability.AddRunID(ctx, runID)
//	ctx = observability.AddSessionID(ctx, sessionID)
//
//	// Structured logging with automatic context correlation
//	logger.Info(ctx, "processing message",
//	    "provider", "anthropic",
//	    "message_length", len(content),
//	)
//
//	// Error logging with automatic redaction
//	logger.Error(ctx, "LLM request failed",
//	    "error", err,
//	    "provider", "anthropic",
//	    "api_key", apiKey, // automatically redacted
//	)
//
// # Context Propagation
//
// Metrics and logging both integrate with Go's context for correlation:
//
//	// Add IDs to context
//	ctx = observability.AddRunID(ctx, "run-123")
//	ctx = observability.AddSessionID(ctx, "sess-456")
//	ctx = observability.AddMessageID(ctx, "msg-789")
//	ctx = observability.AddAgentID(ctx, "agent-1")
//
//	// IDs automatically appear in logs
//	logger.Info(ctx, "processing") // includes run_id, session_id, etc.
//
// # Security Considerations
//
// The logging component automatically redacts:
//   - API keys (Anthropic, OpenAI, generic)
//   - Passwords and secrets
//   - JWT tokens
//   - Bearer tokens
//   - Custom patterns via configuration
//
// Sensitive fields in structured log attributes are also redacted:
//   - password, passwd, pwd
//   - secret, api_key, apikey
//   - token, auth, authorization
//   - private_key, privatekey
//
// # Testing
//
//   - Metrics can be verified using prometheus/testutil
//   - Logging can write to a bytes.Buffer for assertions
//
// # Monitoring
//
// The metrics exposed can be used to build dashboards:
//
//	# LLM request latency (95th percentile)
//	histogram_quantile(0.95, rate(push_llm_request_duration_seconds_bucket[5m]))
//
//	# Error rate
//	rate(push_errors_total[5m])
//
//	# Active sessions
//	push_active_sessions
//
//	# Tool execution time
//	rate(push_tool_execution_duration_seconds_sum[5m]) /
//	rate(push_tool_execution_duration_seconds_count[5m])
//
// # Further Reading
//
//   - Prometheus best practices: https://prometheus.io/docs/practices/naming/
//   - slog documentation: https://pkg.go.dev/log/slog
package observability
