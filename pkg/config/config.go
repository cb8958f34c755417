package config

// this holds the resolved configuration values from CLI
//
//nolint:lll // readablity
var (
	DB                string // storage location: sqlite file path, sqlite:// or postgresql:// url
	SettingsFile      string // path to the user settings file (json)
	ResultsFolder     string // folder containing the result xml files (overrides settings)
	PilotNames        string // comma separated pilot names (overrides settings)
	SelectedClass     string // vehicle class used for vehicle/track drill down
	Workers           int    // number of parallel file readers
	FileExtension     string // extension of result files
	WaitForServices   string // duration to wait for other services to be ready
	LogLevel          string // sets the log level (zap log level values)
	SQLLogLevel       string // sets the log level for sql subsystem
	LogFormat         string // text vs json
	LogFilter         string // zapfilter rules, e.g. "info:* debug:store"
	EnableTelemetry   bool   // enable telemetry
	TelemetryEndpoint string // endpoint for telemetry (empty: stdout exporters)
	NatsURL           string // if set, index events are published to this NATS server
	ServerAddr        string // listen addr for the http server
	AdminToken        string // if set, admin endpoints require this api-token header
	ProfilingPort     int    // port for pprof data (0: disabled)
	RescanSchedule    string // cron expression for periodic rescans
	WatchFolder       bool   // rescan when the results folder changes
	Query             string // jsonpath applied to command output
	OutputFormat      string // json or text
)
