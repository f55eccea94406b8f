package log

import (
	"sort"

	"findash/internal/core"
)

// Field names used across the service.
const (
	FieldComponent   = "component"
	FieldRequestID   = "request_id"
	FieldClientIP    = "client_ip"
	FieldMethod      = "method"
	FieldPath        = "path"
	FieldQuery       = "query"
	FieldStatusCode  = "status_code"
	FieldDuration    = "duration_ms"
	FieldUserAgent   = "user_agent"
	FieldSuccess     = "success"
	FieldError       = "error"
	FieldErrorKind   = "error_kind"
	FieldOperation   = "operation"
	FieldReportID    = "report_id"
	FieldFilename    = "filename"
	FieldBytes       = "bytes"
	FieldRows        = "rows"
	FieldGranularity = "granularity"
	FieldProfit      = "profit"
	FieldRevenue     = "revenue"
	FieldExpenses    = "expenses"
	FieldBackend     = "backend"
)

// Components.
const (
	ComponentApp       = "app"
	ComponentHTTP      = "http"
	ComponentSummary   = "summary"
	ComponentHistory   = "history"
	ComponentStorage   = "storage"
	ComponentAMQP      = "amqp"
	ComponentWorker    = "worker"
	ComponentSheets    = "sheets"
	ComponentCache     = "cache"
	ComponentSecurity  = "security"
	ComponentRateLimit = "rate_limit"
	ComponentTrace     = "trace"
	ComponentBackend   = "backend"
	ComponentTemplate  = "template"
)

// Operations.
const (
	OpUpload    = "upload"
	OpSummarize = "summarize"
	OpRegroup   = "regroup"
	OpRecord    = "record"
	OpList      = "list"
	OpPublish   = "publish"
	OpConsume   = "consume"
	OpAppend    = "append"
	OpMigrate   = "migrate"
	OpRender    = "render"
	OpStartup   = "startup"
	OpShutdown  = "shutdown"
)

// Fields is a small builder for structured attributes.
type Fields map[string]any

// NewFields creates an empty field set.
func NewFields() Fields { return make(Fields) }

func (f Fields) WithComponent(component string) Fields {
	f[FieldComponent] = component
	return f
}

func (f Fields) WithRequestID(id string) Fields {
	if id != "" {
		f[FieldRequestID] = id
	}
	return f
}

func (f Fields) WithClientIP(ip string) Fields {
	f[FieldClientIP] = ip
	return f
}

func (f Fields) WithOperation(op string) Fields {
	f[FieldOperation] = op
	return f
}

// WithError records err and its input/internal classification.
func (f Fields) WithError(err error) Fields {
	if err != nil {
		f[FieldError] = err.Error()
		f[FieldErrorKind] = core.ErrorKind(err)
	}
	return f
}

// WithReport records the identity and headline numbers of a report.
func (f Fields) WithReport(r *core.Report) Fields {
	if r == nil {
		return f
	}
	f[FieldReportID] = r.ID
	f[FieldFilename] = r.Filename
	f[FieldRows] = r.RowCount()
	f[FieldGranularity] = string(r.Granularity)
	f[FieldRevenue] = core.FormatAmount(r.Summary.TotalRevenue)
	f[FieldExpenses] = core.FormatAmount(r.Summary.TotalExpenses)
	f[FieldProfit] = core.FormatAmount(r.Summary.Profit)
	return f
}

func (f Fields) WithHTTPRequest(method, path, query, userAgent string) Fields {
	f[FieldMethod] = method
	f[FieldPath] = path
	if query != "" {
		f[FieldQuery] = query
	}
	if userAgent != "" {
		f[FieldUserAgent] = userAgent
	}
	return f
}

func (f Fields) WithHTTPResponse(status int, durationMs int64) Fields {
	f[FieldStatusCode] = status
	f[FieldDuration] = durationMs
	f[FieldSuccess] = status < 400
	return f
}

// Args flattens the fields in key order for slog.
func (f Fields) Args() []any {
	keys := make([]string, 0, len(f))
	for k := range f {
		if k == FieldComponent {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]any, 0, len(keys)*2)
	for _, k := range keys {
		out = append(out, k, f[k])
	}
	return out
}
