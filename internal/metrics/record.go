package metrics

import "time"

// AICallSucceeded records a successful generation with its token usage
func AICallSucceeded(provider, promptVersion string, inputTokens, outputTokens, costCents int, duration time.Duration) {
	AIAPICalls.WithLabelValues(provider, promptVersion, "success").Inc()
	AIRequestDuration.WithLabelValues(provider).Observe(duration.Seconds())
	AITokensTotal.WithLabelValues(provider, "input").Add(float64(inputTokens))
	AITokensTotal.WithLabelValues(provider, "output").Add(float64(outputTokens))
	AICostCentsTotal.WithLabelValues(provider).Add(float64(costCents))
}

// AICallFailed records a failed generation
func AICallFailed(provider, promptVersion string, duration time.Duration) {
	AIAPICalls.WithLabelValues(provider, promptVersion, "error").Inc()
	AIRequestDuration.WithLabelValues(provider).Observe(duration.Seconds())
}

// SinkAppended records a hazard log append attempt
func SinkAppended(sink string, duration time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	SinkAppends.WithLabelValues(sink, status).Inc()
	SinkAppendDuration.WithLabelValues(sink).Observe(duration.Seconds())
}
