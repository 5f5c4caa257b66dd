package log

// Common field names for structured logging.
const (
	FieldComponent = "component"
	FieldOwnerID   = "owner_id"
	FieldWizard    = "wizard"
	FieldCategory  = "category"
	FieldRecordID  = "record_id"
	FieldKind      = "kind"
	FieldAmount    = "amount"
	FieldError     = "error"
)

// Components defines standard component names.
const (
	ComponentApp       = "app"
	ComponentBot       = "bot"
	ComponentDialog    = "dialog"
	ComponentStorage   = "storage"
	ComponentRates     = "rates"
	ComponentGateway   = "gateway"
	ComponentScheduler = "scheduler"
)
