package log

// Common field names for structured logging
const (
	FieldComponent  = "component"
	FieldRequestID  = "request_id"
	FieldClientIP   = "client_ip"
	FieldMethod     = "method"
	FieldPath       = "path"
	FieldStatusCode = "status_code"
	FieldDuration   = "duration_ms"
	FieldUserAgent  = "user_agent"
	FieldError      = "error"
	FieldOperation  = "operation"
	FieldUser       = "user"
	FieldKind       = "kind"
	FieldFile       = "file"
	FieldRows       = "rows"
	FieldYear       = "year"
	FieldMonth      = "month"
	FieldAmount     = "amount_cents"
	FieldCategory   = "category"
)

// Components defines standard component names
const (
	ComponentApp      = "app"
	ComponentHTTP     = "http"
	ComponentStore    = "store"
	ComponentReport   = "report"
	ComponentAuth     = "auth"
	ComponentSession  = "session"
	ComponentCache    = "cache"
	ComponentImport   = "import"
	ComponentTemplate = "template"
)

// Operations defines standard operation names
const (
	OpLoad     = "load"
	OpAppend   = "append"
	OpImport   = "import"
	OpCreate   = "create"
	OpVerify   = "verify"
	OpRender   = "render"
	OpStartup  = "startup"
	OpShutdown = "shutdown"
)
