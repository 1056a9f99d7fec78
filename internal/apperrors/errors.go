package apperrors

import "errors"

// Domain entity errors represent missing or invalid entities in the system.
// These errors indicate that a requested resource does not exist.
var (
	// ErrProfileNotFound indicates that a profile with the given ID does not exist.
	ErrProfileNotFound = errors.New("profile not found")

	// ErrSymbolNotFound indicates that the market data provider knows nothing about a symbol.
	ErrSymbolNotFound = errors.New("symbol not found")

	// ErrPriceBarNotFound indicates no daily bar exists for a symbol and date combination.
	ErrPriceBarNotFound = errors.New("price bar not found")

	// ErrCompanyInfoNotFound indicates no company metadata is available for a symbol.
	ErrCompanyInfoNotFound = errors.New("company info not found")
)

// Business logic errors represent validation failures or constraint violations.
// These errors indicate that an operation cannot be completed due to business rules.
var (
	// ErrInvalidSide indicates a trade or cash side outside the closed set of sides.
	ErrInvalidSide = errors.New("invalid side")

	// ErrInvalidKind indicates a ledger entry kind outside EQ, EC and IC.
	ErrInvalidKind = errors.New("invalid entry kind")

	// ErrInvalidQuantity indicates a zero quantity or a non-positive trade size.
	ErrInvalidQuantity = errors.New("quantity must be positive")

	// ErrInvalidPrice indicates a non-positive price or cash amount.
	ErrInvalidPrice = errors.New("price must be positive")

	// ErrPriceOutOfRange indicates the trade price lies outside the day's [low, high] range.
	ErrPriceOutOfRange = errors.New("price outside of the day's trading range")

	// ErrMarketClosed indicates the timestamp does not fall inside an exchange session.
	ErrMarketClosed = errors.New("market was closed at the given time")

	// ErrFutureTimestamp indicates the entry is dated after the current time.
	ErrFutureTimestamp = errors.New("timestamp cannot be in the future")

	// ErrInsufficientCash indicates a buy or withdrawal larger than the cash
	// balance as of the entry's timestamp.
	ErrInsufficientCash = errors.New("insufficient cash")

	// ErrInsufficientShares indicates a sell larger than the position held as
	// of the entry's timestamp.
	ErrInsufficientShares = errors.New("insufficient shares for sale")

	// ErrDuplicateEntry indicates an entry for the same owner, symbol and timestamp already exists.
	ErrDuplicateEntry = errors.New("duplicate entry")

	// ErrInvalidUUID indicates that a provided ID is not a valid UUID format.
	ErrInvalidUUID = errors.New("invalid UUID format")

	// ErrInvalidDate indicates a date that cannot be parsed.
	ErrInvalidDate = errors.New("invalid date")

	// ErrUsernameTaken indicates a profile with the same username already exists.
	ErrUsernameTaken = errors.New("username already taken")
)

// Market data errors are kept apart from validation failures: the entry may be
// fine, but it cannot be checked or valued.
var (
	// ErrMarketDataUnavailable indicates the provider could not be reached or
	// returned no usable data for a symbol that is required.
	ErrMarketDataUnavailable = errors.New("market data unavailable")
)

// Consistency errors are fatal. They are never recoverable by retrying.
var (
	// ErrLedgerInconsistent indicates an EQUITY entry without exactly one
	// matching INTERNAL_CASH entry, or an entry violating the quantity/price rules.
	ErrLedgerInconsistent = errors.New("ledger invariant violated")
)

// Operation failure errors represent system-level failures when retrieving or processing data.
// These errors indicate that an operation failed, but not due to missing entities or validation issues.
var (
	ErrFailedToRetrieve = errors.New("failed to retrieve data")
	ErrFailedToRecord   = errors.New("failed to record transaction")

	ErrFailedToRetrieveLedger      = errors.New("failed to retrieve ledger")
	ErrFailedToRetrieveSnapshot    = errors.New("failed to retrieve snapshot")
	ErrFailedToRetrieveReturns     = errors.New("failed to retrieve returns")
	ErrFailedToRetrieveLeaderboard = errors.New("failed to retrieve leaderboard")
	ErrFailedToRetrieveMarketData  = errors.New("failed to retrieve market data")
)
