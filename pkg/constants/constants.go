// Package constants provides shared constants for the debt-engine application.
package constants

// DateLayout is the format expected for dates in config files and requests.
const DateLayout = "2006-01-02"

// MonthLayout is the month-granularity output format.
const MonthLayout = "2006-01"

// Financial constants
const (
	// MonthsPerYear is the number of months in a year
	MonthsPerYear = 12

	// DaysPerYear is the day-count basis for card interest (365-day year)
	DaysPerYear = 365

	// DaysPerMonth is the default billing period length (30-day month)
	DaysPerMonth = 30

	// DecimalPrecision is the precision for currency rounding (2 decimal places)
	DecimalPrecision = 100

	// PercentageMultiplier is used for percentage conversions
	PercentageMultiplier = 100.0

	// CurrencyTolerance is the tolerance for currency comparisons (1 paisa)
	CurrencyTolerance = 0.01

	// TenureEpsilon absorbs floating overshoot before rounding a tenure up
	TenureEpsilon = 1e-9
)

// Credit card defaults
const (
	// DefaultMinimumDuePercent is the share of the outstanding due each cycle
	DefaultMinimumDuePercent = 5.0

	// DefaultMinimumDueFloor is the fixed minimum due regardless of percentage
	DefaultMinimumDueFloor = 200.0

	// HighUtilizationPercent is the utilization above which a warning is raised
	HighUtilizationPercent = 30.0
)

// Debt-to-income breakpoints, inclusive upper bounds.
const (
	DTIExcellentMax = 20.0
	DTIGoodMax      = 35.0
	DTIFairMax      = 43.0
)

// Payoff simulation defaults
const (
	// DefaultMaxPayoffMonths caps a payoff simulation at 30 years
	DefaultMaxPayoffMonths = 360

	// DefaultOptimizerMaxIterations bounds the minimum-budget bisection
	DefaultOptimizerMaxIterations = 60

	// DefaultOptimizerTolerance is the budget precision the bisection stops at
	DefaultOptimizerTolerance = 1.0
)

// Output format constants
const (
	// OutputFormatPretty is the human-readable output format
	OutputFormatPretty = "pretty"

	// OutputFormatCSV is the CSV output format
	OutputFormatCSV = "csv"

	// OutputFormatJSON is the machine-readable JSON output format
	OutputFormatJSON = "json"
)

// Configuration file constants
const (
	// DefaultConfigFile is the default configuration file name
	DefaultConfigFile = "config.yaml"

	// DefaultServerConfigFile is the default server configuration file name
	DefaultServerConfigFile = "server-config.yaml"

	// EnvPrefix namespaces environment overrides of config keys
	EnvPrefix = "DEBT_ENGINE"
)

// Server configuration defaults
const (
	// DefaultServerAddress is the default HTTP listen address
	DefaultServerAddress = ":8080"

	// DefaultMaxUploadSizeBytes is the default maximum upload size for YAML portfolios (256 KB)
	DefaultMaxUploadSizeBytes int64 = 256 * 1024

	// DefaultServiceName identifies the service in traces
	DefaultServiceName = "debt-engine"
)
