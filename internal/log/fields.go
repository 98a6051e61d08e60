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
	FieldError      = "error"
	FieldOperation  = "operation"
	FieldUserID     = "user_id"
	FieldMonth      = "month"
	FieldDate       = "date"
	FieldEngine     = "engine"
	FieldDebugTag   = "debug_tag"
	FieldSegment    = "segment"
	FieldThreshold  = "z_threshold"
)

// Components defines standard component names
const (
	ComponentApp     = "app"
	ComponentHTTP    = "http"
	ComponentStorage = "storage"
	ComponentAMQP    = "amqp"
	ComponentWorker  = "worker"
	ComponentAnomaly = "anomaly"
	ComponentSegment = "segment"
	ComponentQuery   = "query"
	ComponentLLM     = "llm"
	ComponentCache   = "cache"
)
