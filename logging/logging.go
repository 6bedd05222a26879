// Package logging sets up the global logrus logger. Import it with the blank
// identifier from the binary's main package:
//
//	import _ "github.com/40acres/cashu-lnd/logging"
//
// LOG_LEVEL selects the level (default info) and LOG_FORMAT=json switches to
// JSON output. Entries logged with a context carry the active trace and span
// ids, and secret material never reaches the output.
package logging

import (
	"os"
	"strconv"
	"strings"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/trace"
)

// These are the log level that we support.
// We should rely on them when retrieving them from the
// environment variables.
const (
	Debug = "DEBUG"
	Info  = "INFO"
	Warn  = "WARN"
	Error = "ERROR"
)

// RedactedValue replaces the value of sensitive fields.
const RedactedValue = "[REDACTED]"

// Fields that must never be written in clear.
var sensitiveFields = map[string]struct{}{
	"macaroon":         {},
	"preimage":         {},
	"payment_preimage": {},
	"rpc_password":     {},
	"password":         {},
}

func init() {
	if err := Configure(log.StandardLogger(), os.LookupEnv); err != nil {
		log.Fatal(err)
	}
}

// Configure applies the environment driven settings to logger. It is exported
// for binaries and tests that build their own logger.
func Configure(logger *log.Logger, lookupEnv func(string) (string, bool)) error {
	logger.AddHook(&logrusContextHook{})
	logger.AddHook(&redactionHook{})

	logLevel, ok := lookupEnv("LOG_LEVEL")
	if !ok || logLevel == "" {
		logLevel = Info
	}

	level, err := log.ParseLevel(strings.ToLower(logLevel))
	if err != nil {
		return err
	}
	logger.SetLevel(level)

	logFormat, _ := lookupEnv("LOG_FORMAT")
	logger.SetFormatter(formatter(logFormat))

	// Add this line for logging filename and line number!
	logger.SetReportCaller(level >= log.DebugLevel)

	return nil
}

func formatter(format string) log.Formatter {
	if strings.EqualFold(format, "json") {
		return &log.JSONFormatter{}
	}

	return &log.TextFormatter{FullTimestamp: true}
}

type logrusContextHook struct {
}

func (hook *logrusContextHook) Levels() []log.Level {
	return log.AllLevels
}

// Fire is called when a log event is fired. It extracts the trace ID and span ID from the log entry's context
// and adds them as fields to the log entry. The fields are named dd.trace_id and dd.span_id respectively based on the Datadog convention.
func (hook *logrusContextHook) Fire(entry *log.Entry) error {
	if entry.Context == nil {
		return nil
	}

	span := trace.SpanFromContext(entry.Context).SpanContext()
	if span.IsValid() {
		entry.Data["dd.trace_id"] = convertTraceID(span.TraceID().String())
		entry.Data["dd.span_id"] = convertTraceID(span.SpanID().String())
	}

	return nil
}

type redactionHook struct{}

func (h *redactionHook) Levels() []log.Level {
	return log.AllLevels
}

func (h *redactionHook) Fire(entry *log.Entry) error {
	for key, value := range entry.Data {
		if _, ok := sensitiveFields[strings.ToLower(key)]; !ok {
			continue
		}
		if s, isString := value.(string); isString && strings.TrimSpace(s) == "" {
			continue
		}
		entry.Data[key] = RedactedValue
	}

	return nil
}

// Took from DD https://docs.datadoghq.com/tracing/other_telemetry/connect_logs_and_traces/opentelemetry?tab=go
func convertTraceID(id string) string {
	if len(id) < 16 {
		return ""
	}
	if len(id) > 16 {
		id = id[16:]
	}
	intValue, err := strconv.ParseUint(id, 16, 64)
	if err != nil {
		return ""
	}

	return strconv.FormatUint(intValue, 10)
}
