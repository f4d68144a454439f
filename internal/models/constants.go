package models

const (
	StatusBooked    = "booked"
	StatusCancelled = "cancelled"
)

const (
	CurrencyUSD = "USD"
	CurrencyEUR = "EUR"
	CurrencyGBP = "GBP"
	CurrencyJPY = "JPY"
	CurrencyCNY = "CNY"
	CurrencyUAH = "UAH"
)

// Wire formats. The dd-mm-yyyy variants are kept for older API clients.
const (
	DateLayout           = "2006-01-02"
	LegacyDateLayout     = "02-01-2006"
	DateTimeLayout       = "2006-01-02T15:04:05"
	LegacyDateTimeLayout = "02-01-2006 15:04:05"
	StorageTimeLayout    = "2006-01-02 15:04:05"
)

const (
	// DefaultMaxBookingDays how far ahead appointments can be booked
	DefaultMaxBookingDays = 90

	// DefaultAttemptLimit booking attempts per client within DefaultAttemptWindow
	DefaultAttemptLimit = 10

	// DefaultAttemptWindow in seconds
	DefaultAttemptWindow = 60
)
